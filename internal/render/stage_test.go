package render_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/render"
	"subburn/internal/services"
	"subburn/internal/testsupport"
)

func seedJob(t *testing.T, store *jobs.Store, cfgWorkDir, uploadDir string) *jobs.Job {
	t.Helper()
	sourcePath := filepath.Join(uploadDir, "movie.mp4")
	testsupport.WriteFile(t, sourcePath, 2048)
	job, err := store.NewJob(context.Background(), "movie.mp4", sourcePath, "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.SubtitlePath = filepath.Join(job.WorkRoot(cfgWorkDir), "subtitles.srt")
	testsupport.WriteFile(t, job.SubtitlePath, 64)
	return job
}

func TestPrepareAssignsOutputPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := render.NewStage(cfg, logging.NewNop())

	job := seedJob(t, store, cfg.Paths.WorkDir, cfg.Paths.UploadDir)
	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.OutputPath == "" {
		t.Fatal("expected output path to be assigned")
	}
	if !strings.HasSuffix(job.OutputPath, "movie_subtitled.mp4") {
		t.Fatalf("unexpected output path %q", job.OutputPath)
	}
}

func TestPrepareRequiresSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := render.NewStage(cfg, logging.NewNop())

	sourcePath := filepath.Join(cfg.Paths.UploadDir, "movie.mp4")
	testsupport.WriteFile(t, sourcePath, 2048)
	job, err := store.NewJob(context.Background(), "movie.mp4", sourcePath, "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.SubtitlePath = filepath.Join(cfg.Paths.WorkDir, "missing.srt")

	if err := stage.Prepare(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteBurnsSubtitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := render.NewStage(cfg, logging.NewNop())

	job := seedJob(t, store, cfg.Paths.WorkDir, cfg.Paths.UploadDir)
	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	stage.SetInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{Index: 0, CodecType: "video", CodecName: "h264"}},
			Format:  ffprobe.Format{Duration: "120.5"},
		}, nil
	})
	var gotArgs []string
	stage.Runner().WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		gotArgs = args
		return os.WriteFile(job.OutputPath, []byte("video"), 0o644)
	})

	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if job.ProgressPercent != jobs.ProgressTranslationComplete {
		t.Fatalf("expected progress to hold at %d until completion, got %d", jobs.ProgressTranslationComplete, job.ProgressPercent)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "subtitles=") {
		t.Fatalf("expected subtitles filter in ffmpeg args, got %q", joined)
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		t.Fatalf("expected rendered output on disk: %v", err)
	}
}

func TestExecuteRejectsOutputWithoutVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := render.NewStage(cfg, logging.NewNop())

	job := seedJob(t, store, cfg.Paths.WorkDir, cfg.Paths.UploadDir)
	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}

	stage.SetInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{}, nil
	})
	stage.Runner().WithCommandRunner(func(ctx context.Context, name string, args ...string) error {
		return os.WriteFile(job.OutputPath, []byte("junk"), 0o644)
	})

	if err := stage.Execute(context.Background(), job); !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}
