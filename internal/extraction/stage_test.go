package extraction_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subburn/internal/extraction"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

func videoProbe() ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
			{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2},
		},
		Format: ffprobe.Format{Duration: "120.5", FormatName: "mov,mp4,m4a"},
	}
}

func TestPrepareAssignsAudioPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := extraction.NewStage(cfg, logging.NewNop())

	sourcePath := filepath.Join(cfg.Paths.UploadDir, "movie.mp4")
	testsupport.WriteFile(t, sourcePath, 1024)
	job, err := store.NewJob(context.Background(), "movie.mp4", sourcePath, "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	want := filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), "audio.wav")
	if job.AudioPath != want {
		t.Fatalf("expected audio path %q, got %q", want, job.AudioPath)
	}
}

func TestPrepareRequiresSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := extraction.NewStage(cfg, logging.NewNop())

	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "missing.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if err := stage.Prepare(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteExtractsAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := extraction.NewStage(cfg, logging.NewNop())

	sourcePath := filepath.Join(cfg.Paths.UploadDir, "movie.mp4")
	testsupport.WriteFile(t, sourcePath, 1024)
	job, err := store.NewJob(context.Background(), "movie.mp4", sourcePath, "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	stage.SetInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return videoProbe(), nil
	})
	var gotArgs []string
	stage.Runner().WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(job.AudioPath, []byte("RIFF"), 0o644)
	})

	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.ProgressPercent != jobs.ProgressAudioExtracted {
		t.Fatalf("expected progress %d, got %d", jobs.ProgressAudioExtracted, job.ProgressPercent)
	}
	if len(gotArgs) == 0 {
		t.Fatal("expected ffmpeg to be invoked")
	}
	if _, err := os.Stat(job.AudioPath); err != nil {
		t.Fatalf("expected extracted audio on disk: %v", err)
	}
}

func TestExecuteRejectsFileWithoutAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := extraction.NewStage(cfg, logging.NewNop())

	sourcePath := filepath.Join(cfg.Paths.UploadDir, "silent.mp4")
	testsupport.WriteFile(t, sourcePath, 1024)
	job, err := store.NewJob(context.Background(), "silent.mp4", sourcePath, "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	stage.SetInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{Index: 0, CodecType: "video", CodecName: "h264"}},
		}, nil
	})
	stage.Runner().WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		t.Fatal("ffmpeg should not run for a file without audio")
		return nil
	})

	if err := stage.Execute(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
