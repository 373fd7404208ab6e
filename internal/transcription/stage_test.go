package transcription_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/testsupport"
	"subburn/internal/transcript"
	"subburn/internal/transcription"
)

type stubClient struct {
	result   *transcript.Transcript
	err      error
	gotAudio string
	gotHint  string
}

func (c *stubClient) Transcribe(ctx context.Context, audioPath, languageHint string) (*transcript.Transcript, error) {
	c.gotAudio = audioPath
	c.gotHint = languageHint
	if c.err != nil {
		return nil, c.err
	}
	return c.result, nil
}

func (c *stubClient) HealthCheck(ctx context.Context) error { return nil }

func sampleTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		DetectedLanguage: "es",
		Segments: []transcript.Segment{
			{Start: 0, End: 1.5, Text: "Hola"},
			{Start: 1.5, End: 3.0, Text: "Buenos dias"},
		},
	}
}

func TestPrepareRequiresAudio(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := transcription.NewStage(cfg, logging.NewNop())
	stage.SetClient(&stubClient{result: sampleTranscript()})

	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.AudioPath = filepath.Join(cfg.Paths.WorkDir, "missing.wav")

	if err := stage.Prepare(context.Background(), job); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteStoresTranscriptAndDetectedLanguage(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := transcription.NewStage(cfg, logging.NewNop())
	client := &stubClient{result: sampleTranscript()}
	stage.SetClient(client)

	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "spanish", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.AudioPath = filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), "audio.wav")
	testsupport.WriteFile(t, job.AudioPath, 64)

	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if job.TranscriptPath == "" {
		t.Fatal("expected transcript path to be assigned")
	}
	if err := stage.Execute(context.Background(), job); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if client.gotHint != "es" {
		t.Fatalf("expected normalized language hint es, got %q", client.gotHint)
	}
	if client.gotAudio != job.AudioPath {
		t.Fatalf("expected audio path %q, got %q", job.AudioPath, client.gotAudio)
	}
	if job.DetectedLanguage != "es" {
		t.Fatalf("expected detected language es, got %q", job.DetectedLanguage)
	}
	if job.ProgressPercent != jobs.ProgressTranscriptionComplete {
		t.Fatalf("expected progress %d, got %d", jobs.ProgressTranscriptionComplete, job.ProgressPercent)
	}

	loaded, err := transcript.Load(job.TranscriptPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(loaded.Segments))
	}
	if loaded.Segments[0].Text != "Hola" {
		t.Fatalf("unexpected first segment text %q", loaded.Segments[0].Text)
	}
}

func TestExecutePropagatesServiceError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	stage := transcription.NewStage(cfg, logging.NewNop())
	stage.SetClient(&stubClient{err: services.Wrap(services.ErrTransient, "transcribing", "transcribe", "service unavailable", nil)})

	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.AudioPath = filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), "audio.wav")
	testsupport.WriteFile(t, job.AudioPath, 64)

	if err := stage.Prepare(context.Background(), job); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if err := stage.Execute(context.Background(), job); !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}
