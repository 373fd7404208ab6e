package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/pipeline"
	"subburn/internal/services"
	"subburn/internal/stage"
	"subburn/internal/testsupport"
)

type stubHandler struct {
	name     string
	progress int
	message  string
	execErr  error

	mu    sync.Mutex
	calls int
	seen  []jobs.Status
}

func (h *stubHandler) Prepare(ctx context.Context, job *jobs.Job) error { return nil }

func (h *stubHandler) Execute(ctx context.Context, job *jobs.Job) error {
	h.mu.Lock()
	h.calls++
	h.seen = append(h.seen, job.Status)
	h.mu.Unlock()
	if h.execErr != nil {
		return h.execErr
	}
	job.SetProgress(h.progress, h.message)
	return nil
}

func (h *stubHandler) HealthCheck(ctx context.Context) stage.Health {
	return stage.Healthy(h.name)
}

func (h *stubHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *stubHandler) seenStatuses() []jobs.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]jobs.Status(nil), h.seen...)
}

func newStubSet() (pipeline.StageSet, map[string]*stubHandler) {
	handlers := map[string]*stubHandler{
		"extract":    {name: "extract", progress: jobs.ProgressAudioExtracted, message: "Audio extracted"},
		"transcribe": {name: "transcribe", progress: jobs.ProgressTranscriptionComplete, message: "Awaiting review"},
		"translate":  {name: "translate", progress: jobs.ProgressTranslationComplete, message: "Subtitles compiled"},
		"render":     {name: "render", progress: jobs.ProgressTranslationComplete, message: "Rendering subtitled video"},
	}
	return pipeline.StageSet{
		Extractor:   handlers["extract"],
		Transcriber: handlers["transcribe"],
		Translator:  handlers["translate"],
		Renderer:    handlers["render"],
	}, handlers
}

func fastConfig(t *testing.T) *config.Config {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.QueuePollInterval = 1
	cfg.Workflow.ErrorRetryInterval = 1
	cfg.Workflow.HeartbeatInterval = 1
	cfg.Workflow.HeartbeatTimeout = 30
	return cfg
}

func startManager(t *testing.T, cfg *config.Config, store *jobs.Store, set pipeline.StageSet) *pipeline.Manager {
	t.Helper()
	mgr := pipeline.NewManager(cfg, store, logging.NewNop())
	mgr.ConfigureStages(set)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(mgr.Stop)
	return mgr
}

func waitForStatus(t *testing.T, store *jobs.Store, id int64, want jobs.Status) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if job != nil && job.Status == want {
			return job
		}
		time.Sleep(25 * time.Millisecond)
	}
	job, _ := store.GetByID(context.Background(), id)
	if job != nil {
		t.Fatalf("timed out waiting for status %q, job is %q (%s)", want, job.Status, job.ErrorMessage)
	}
	t.Fatalf("timed out waiting for status %q, job missing", want)
	return nil
}

func TestManagerRunsJobToReview(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, handlers := newStubSet()
	mgr := startManager(t, cfg, store, set)

	job, err := store.NewJob(context.Background(), "movie.mp4", "/tmp/movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	requested, err := store.RequestRun(context.Background(), job.ID, jobs.StatusUploaded)
	if err != nil || !requested {
		t.Fatalf("RequestRun: requested=%v err=%v", requested, err)
	}
	mgr.Poke()

	resting := waitForStatus(t, store, job.ID, jobs.StatusTranscriptionComplete)
	if resting.RunRequested {
		t.Fatal("expected run_requested to be cleared at rest")
	}
	if !resting.AwaitingReview() {
		t.Fatal("expected job to await review")
	}
	if resting.ProgressPercent != jobs.ProgressTranscriptionComplete {
		t.Fatalf("expected progress %d, got %d", jobs.ProgressTranscriptionComplete, resting.ProgressPercent)
	}
	if handlers["extract"].callCount() != 1 || handlers["transcribe"].callCount() != 1 {
		t.Fatalf("unexpected stage calls: extract=%d transcribe=%d",
			handlers["extract"].callCount(), handlers["transcribe"].callCount())
	}
	if handlers["translate"].callCount() != 0 {
		t.Fatal("translation must not run before the job is continued")
	}
}

func TestManagerRunsSecondPhaseAfterContinue(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, handlers := newStubSet()
	mgr := startManager(t, cfg, store, set)

	job, err := store.NewJob(context.Background(), "movie.mp4", "/tmp/movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	requested, err := store.RequestRun(context.Background(), job.ID, jobs.StatusUploaded)
	if err != nil || !requested {
		t.Fatalf("RequestRun: requested=%v err=%v", requested, err)
	}
	mgr.Poke()
	waitForStatus(t, store, job.ID, jobs.StatusTranscriptionComplete)

	requested, err = store.RequestRun(context.Background(), job.ID, jobs.StatusTranscriptionComplete)
	if err != nil || !requested {
		t.Fatalf("RequestRun continue: requested=%v err=%v", requested, err)
	}
	mgr.Poke()

	done := waitForStatus(t, store, job.ID, jobs.StatusCompleted)
	if done.ProgressPercent != jobs.ProgressCompleted {
		t.Fatalf("expected progress %d, got %d", jobs.ProgressCompleted, done.ProgressPercent)
	}
	if handlers["translate"].callCount() != 1 || handlers["render"].callCount() != 1 {
		t.Fatalf("unexpected stage calls: translate=%d render=%d",
			handlers["translate"].callCount(), handlers["render"].callCount())
	}
	if seen := handlers["translate"].seenStatuses(); len(seen) != 1 || seen[0] != jobs.StatusTranslating {
		t.Fatalf("expected translation to run as translating, saw %v", seen)
	}
}

func TestManagerSkipsTranslatingStatusWhenLanguagesMatch(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, handlers := newStubSet()
	mgr := startManager(t, cfg, store, set)

	job, err := store.NewJob(context.Background(), "movie.mp4", "/tmp/movie.mp4", "en", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if _, err := store.RequestRun(context.Background(), job.ID, jobs.StatusUploaded); err != nil {
		t.Fatalf("RequestRun: %v", err)
	}
	mgr.Poke()
	waitForStatus(t, store, job.ID, jobs.StatusTranscriptionComplete)

	if _, err := store.RequestRun(context.Background(), job.ID, jobs.StatusTranscriptionComplete); err != nil {
		t.Fatalf("RequestRun continue: %v", err)
	}
	mgr.Poke()
	waitForStatus(t, store, job.ID, jobs.StatusCompleted)

	if seen := handlers["translate"].seenStatuses(); len(seen) != 1 || seen[0] != jobs.StatusRendering {
		t.Fatalf("expected same-language job to claim straight into rendering, saw %v", seen)
	}
	if seen := handlers["render"].seenStatuses(); len(seen) != 1 || seen[0] != jobs.StatusRendering {
		t.Fatalf("expected render to run as rendering, saw %v", seen)
	}
}

func TestManagerRecordsStageFailure(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, handlers := newStubSet()
	handlers["extract"].execErr = services.Wrap(services.ErrExternalTool, "extracting_audio", "ffmpeg", "encoder exited with status 1", nil)
	mgr := startManager(t, cfg, store, set)

	job, err := store.NewJob(context.Background(), "movie.mp4", "/tmp/movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if _, err := store.RequestRun(context.Background(), job.ID, jobs.StatusUploaded); err != nil {
		t.Fatalf("RequestRun: %v", err)
	}
	mgr.Poke()

	failed := waitForStatus(t, store, job.ID, jobs.StatusFailed)
	if failed.ErrorKind != string(services.KindExternalTool) {
		t.Fatalf("expected error kind %q, got %q", services.KindExternalTool, failed.ErrorKind)
	}
	if failed.ErrorMessage == "" {
		t.Fatal("expected an error message on the failed job")
	}
	if handlers["transcribe"].callCount() != 0 {
		t.Fatal("transcription must not run after extraction fails")
	}
}

func TestManagerStatusReportsStageHealth(t *testing.T) {
	cfg := fastConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	set, _ := newStubSet()
	mgr := startManager(t, cfg, store, set)

	summary := mgr.Status(context.Background())
	if !summary.Running {
		t.Fatal("expected manager to report running")
	}
	if len(summary.StageHealth) != 4 {
		t.Fatalf("expected 4 stage health entries, got %d", len(summary.StageHealth))
	}
	for name, health := range summary.StageHealth {
		if !health.Ready {
			t.Fatalf("expected stage %s to be healthy", name)
		}
	}
}
