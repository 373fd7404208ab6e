package api_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"subburn/internal/api"
	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/pipeline"
	"subburn/internal/services"
	"subburn/internal/testsupport"
	"subburn/internal/transcript"
)

type stubPipeline struct {
	mu      sync.Mutex
	pokes   int
	cancels []int64
}

func (p *stubPipeline) Poke() {
	p.mu.Lock()
	p.pokes++
	p.mu.Unlock()
}

func (p *stubPipeline) Cancel(id int64) bool {
	p.mu.Lock()
	p.cancels = append(p.cancels, id)
	p.mu.Unlock()
	return true
}

func (p *stubPipeline) Status(ctx context.Context) pipeline.StatusSummary {
	return pipeline.StatusSummary{Running: true}
}

func (p *stubPipeline) pokeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pokes
}

func newService(t *testing.T, opts ...testsupport.ConfigOption) (*api.JobService, *jobs.Store, *stubPipeline, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	pipe := &stubPipeline{}
	svc := api.NewJobService(cfg, store, pipe, logging.NewNop())
	svc.SetInspector(func(ctx context.Context, binary, path string) (ffprobe.Result, error) {
		return ffprobe.Result{
			Streams: []ffprobe.Stream{{CodecType: "video", Width: 1280, Height: 720}},
			Format:  ffprobe.Format{Duration: "60.0", FormatName: "mov,mp4"},
		}, nil
	})
	return svc, store, pipe, cfg
}

func TestCreateStoresUploadAndMetadata(t *testing.T) {
	svc, store, _, cfg := newService(t)

	view, err := svc.Create(context.Background(), strings.NewReader("fake video bytes"), "holiday.mp4", "spanish", "en")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if view.Status != string(jobs.StatusUploaded) {
		t.Fatalf("expected uploaded status, got %q", view.Status)
	}
	if view.SourceFile != "holiday.mp4" {
		t.Fatalf("unexpected source file %q", view.SourceFile)
	}
	if view.TargetLanguage != "en" || view.SourceLanguage != "es" {
		t.Fatalf("unexpected languages %q -> %q", view.SourceLanguage, view.TargetLanguage)
	}
	if !bytes.Contains(view.FileInfo, []byte("1280x720")) {
		t.Fatalf("expected resolution in file info, got %s", view.FileInfo)
	}

	job, err := store.GetByID(context.Background(), view.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: job=%v err=%v", job, err)
	}
	if filepath.Dir(job.SourcePath) != cfg.Paths.UploadDir {
		t.Fatalf("upload stored outside upload dir: %s", job.SourcePath)
	}
	if _, err := os.Stat(job.SourcePath); err != nil {
		t.Fatalf("stored upload missing: %v", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	svc, _, _, _ := newService(t)

	cases := []struct {
		name     string
		filename string
		source   string
		target   string
	}{
		{"non-video extension", "notes.txt", "es", "en"},
		{"missing target", "movie.mp4", "es", ""},
		{"unknown target", "movie.mp4", "es", "zzzz"},
		{"unknown source", "movie.mp4", "qqqq", "en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), strings.NewReader("x"), tc.filename, tc.source, tc.target)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateRejectsOversizedUpload(t *testing.T) {
	svc, _, _, cfg := newService(t, testsupport.WithMaxUploadMiB(1))

	payload := bytes.Repeat([]byte("a"), int(cfg.MaxUploadBytes())+1)
	_, err := svc.Create(context.Background(), bytes.NewReader(payload), "movie.mp4", "", "en")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	entries, err := os.ReadDir(cfg.Paths.UploadDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected rejected upload to be removed, found %d files", len(entries))
	}
}

func TestStartQueuesJobOnce(t *testing.T) {
	svc, _, pipe, _ := newService(t)

	view, err := svc.Create(context.Background(), strings.NewReader("video"), "movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	started, err := svc.Start(context.Background(), view.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if started.Status != string(jobs.StatusUploaded) {
		t.Fatalf("unexpected status %q", started.Status)
	}
	if pipe.pokeCount() != 1 {
		t.Fatalf("expected 1 poke, got %d", pipe.pokeCount())
	}

	if _, err := svc.Start(context.Background(), view.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict on double start, got %v", err)
	}
	if _, err := svc.Start(context.Background(), 9999); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func seedReviewJob(t *testing.T, store *jobs.Store, cfg *config.Config) *jobs.Job {
	t.Helper()
	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	job.Status = jobs.StatusTranscriptionComplete
	job.TranscriptPath = filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), "transcript.json")
	job.SetProgress(jobs.ProgressTranscriptionComplete, "Awaiting review")

	doc := &transcript.Transcript{
		DetectedLanguage: "es",
		Segments: []transcript.Segment{
			{Start: 0, End: 2, Text: "Hola"},
			{Start: 2, End: 4, Text: "Adios"},
		},
	}
	if err := doc.Save(job.TranscriptPath); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}
	return job
}

func TestContinueAppliesEdits(t *testing.T) {
	svc, store, pipe, cfg := newService(t)
	job := seedReviewJob(t, store, cfg)

	view, err := svc.Continue(context.Background(), job.ID, []string{"Hello", "Goodbye"})
	if err != nil {
		t.Fatalf("Continue: %v", err)
	}
	if view.AwaitingReview {
		t.Fatal("expected job to leave review state")
	}
	if pipe.pokeCount() != 1 {
		t.Fatalf("expected 1 poke, got %d", pipe.pokeCount())
	}

	doc, err := transcript.Load(job.TranscriptPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Segments[0].Text != "Hello" || doc.Segments[1].Text != "Goodbye" {
		t.Fatalf("edits not applied: %+v", doc.Segments)
	}
	if doc.Segments[0].End != 2 {
		t.Fatal("timings must be preserved")
	}
}

func TestContinueRejectsCountMismatch(t *testing.T) {
	svc, store, _, cfg := newService(t)
	job := seedReviewJob(t, store, cfg)

	_, err := svc.Continue(context.Background(), job.ID, []string{"only one"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	doc, loadErr := transcript.Load(job.TranscriptPath)
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if doc.Segments[0].Text != "Hola" {
		t.Fatal("transcript must be untouched after a rejected edit")
	}

	refreshed, getErr := store.GetByID(context.Background(), job.ID)
	if getErr != nil {
		t.Fatalf("GetByID: %v", getErr)
	}
	if !refreshed.AwaitingReview() {
		t.Fatal("job must remain paused after a rejected edit")
	}
}

func TestContinueRejectsWrongState(t *testing.T) {
	svc, store, _, cfg := newService(t)
	job, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}

	if _, err := svc.Continue(context.Background(), job.ID, nil); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestTranscriptOnlyAfterReviewPause(t *testing.T) {
	svc, store, _, cfg := newService(t)

	fresh, err := store.NewJob(context.Background(), "movie.mp4", filepath.Join(cfg.Paths.UploadDir, "movie.mp4"), "es", "en")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if _, err := svc.Transcript(context.Background(), fresh.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict before review, got %v", err)
	}

	reviewed := seedReviewJob(t, store, cfg)
	view, err := svc.Transcript(context.Background(), reviewed.ID)
	if err != nil {
		t.Fatalf("Transcript: %v", err)
	}
	if len(view.Segments) != 2 || view.Segments[0].Text != "Hola" {
		t.Fatalf("unexpected transcript view: %+v", view.Segments)
	}
	if view.DetectedLanguage != "es" {
		t.Fatalf("unexpected detected language %q", view.DetectedLanguage)
	}
}

func TestResultOnlyWhenCompleted(t *testing.T) {
	svc, store, _, cfg := newService(t)
	job := seedReviewJob(t, store, cfg)

	if _, _, err := svc.Result(context.Background(), job.ID); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict before completion, got %v", err)
	}

	job.Status = jobs.StatusCompleted
	job.OutputPath = filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), job.OutputFileName())
	testsupport.WriteFile(t, job.OutputPath, 128)
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	path, name, err := svc.Result(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if path != job.OutputPath {
		t.Fatalf("unexpected result path %q", path)
	}
	if name != "movie_subtitled.mp4" {
		t.Fatalf("unexpected download name %q", name)
	}
}

func TestRemoveCancelsProcessingJob(t *testing.T) {
	svc, store, pipe, _ := newService(t)

	view, err := svc.Create(context.Background(), strings.NewReader("video"), "movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err := store.GetByID(context.Background(), view.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: job=%v err=%v", job, err)
	}
	job.Status = jobs.StatusExtractingAudio
	if err := store.Update(context.Background(), job); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := svc.Remove(context.Background(), view.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	pipe.mu.Lock()
	cancels := append([]int64(nil), pipe.cancels...)
	pipe.mu.Unlock()
	if len(cancels) != 1 || cancels[0] != view.ID {
		t.Fatalf("expected cancel for job %d, got %v", view.ID, cancels)
	}
}

func TestRemoveDeletesRowAndArtifacts(t *testing.T) {
	svc, store, _, cfg := newService(t)

	view, err := svc.Create(context.Background(), strings.NewReader("video"), "movie.mp4", "es", "en")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err := store.GetByID(context.Background(), view.ID)
	if err != nil || job == nil {
		t.Fatalf("GetByID: job=%v err=%v", job, err)
	}
	workFile := filepath.Join(job.WorkRoot(cfg.Paths.WorkDir), "audio.wav")
	testsupport.WriteFile(t, workFile, 32)

	if err := svc.Remove(context.Background(), view.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if gone, err := store.GetByID(context.Background(), view.ID); err != nil || gone != nil {
		t.Fatalf("expected row deleted, job=%v err=%v", gone, err)
	}
	if _, err := os.Stat(job.SourcePath); !os.IsNotExist(err) {
		t.Fatalf("expected upload removed, err=%v", err)
	}
	if _, err := os.Stat(workFile); !os.IsNotExist(err) {
		t.Fatalf("expected work dir removed, err=%v", err)
	}
}
