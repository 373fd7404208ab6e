package jobs_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"subburn/internal/jobs"
	"subburn/internal/testsupport"
)

func newJob(t *testing.T, store *jobs.Store) *jobs.Job {
	t.Helper()
	job, err := store.NewJob(context.Background(), "video.mp4", "/tmp/video.mp4", "en", "es")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	return job
}

func TestOpenCreatesSchemaAndInserts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)
	if job.ID == 0 {
		t.Fatal("expected job ID to be assigned")
	}
	if job.Status != jobs.StatusUploaded {
		t.Fatalf("new job status = %q, want uploaded", job.Status)
	}
	if job.ProgressPercent != jobs.ProgressUploaded {
		t.Fatalf("new job progress = %d, want 0", job.ProgressPercent)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched == nil || fetched.SourceFile != "video.mp4" || fetched.TargetLanguage != "es" {
		t.Fatalf("unexpected fetched job: %#v", fetched)
	}

	missing, err := store.GetByID(ctx, 9999)
	if err != nil {
		t.Fatalf("GetByID missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing job, got %#v", missing)
	}
}

func TestUpdateRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)
	job.Status = jobs.StatusTranscriptionComplete
	job.AudioPath = "/tmp/audio.wav"
	job.TranscriptPath = "/tmp/transcript.json"
	job.DetectedLanguage = "en"
	job.SetProgress(jobs.ProgressTranscriptionComplete, "Awaiting transcript review")
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != jobs.StatusTranscriptionComplete {
		t.Fatalf("status = %q", fetched.Status)
	}
	if fetched.DetectedLanguage != "en" || fetched.AudioPath != "/tmp/audio.wav" {
		t.Fatalf("unexpected job: %#v", fetched)
	}
	if !fetched.AwaitingReview() {
		t.Fatal("expected job to be awaiting review")
	}
}

func TestUpdateProgressIsMonotonic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)
	if err := store.UpdateProgress(ctx, job.ID, 50, "halfway"); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}
	if err := store.UpdateProgress(ctx, job.ID, 20, "stale write"); err != nil {
		t.Fatalf("UpdateProgress failed: %v", err)
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.ProgressPercent != 50 {
		t.Fatalf("progress = %d, want 50 (must not move backwards)", fetched.ProgressPercent)
	}
	if fetched.ProgressMessage != "stale write" {
		t.Fatalf("progress message = %q", fetched.ProgressMessage)
	}
}

func TestRequestRunAndClaim(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)

	ok, err := store.RequestRun(ctx, job.ID, jobs.StatusUploaded)
	if err != nil {
		t.Fatalf("RequestRun failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first run request to succeed")
	}

	// A second request while the first is pending must be rejected.
	ok, err = store.RequestRun(ctx, job.ID, jobs.StatusUploaded)
	if err != nil {
		t.Fatalf("RequestRun failed: %v", err)
	}
	if ok {
		t.Fatal("expected duplicate run request to be rejected")
	}

	ready, err := store.NextReady(ctx)
	if err != nil {
		t.Fatalf("NextReady failed: %v", err)
	}
	if ready == nil || ready.ID != job.ID {
		t.Fatalf("unexpected ready job: %#v", ready)
	}

	claimed, err := store.TryClaim(ctx, job.ID, jobs.StatusUploaded, jobs.StatusExtractingAudio)
	if err != nil {
		t.Fatalf("TryClaim failed: %v", err)
	}
	if !claimed {
		t.Fatal("expected claim to succeed")
	}

	again, err := store.TryClaim(ctx, job.ID, jobs.StatusUploaded, jobs.StatusExtractingAudio)
	if err != nil {
		t.Fatalf("TryClaim failed: %v", err)
	}
	if again {
		t.Fatal("expected double claim to fail")
	}

	fetched, err := store.GetByID(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Status != jobs.StatusExtractingAudio {
		t.Fatalf("status = %q, want extracting_audio", fetched.Status)
	}
	if fetched.RunRequested {
		t.Fatal("claim must clear the run request")
	}
	if fetched.LastHeartbeat == nil {
		t.Fatal("claim must set a heartbeat")
	}

	// Nothing is ready while the job is processing.
	ready, err = store.NextReady(ctx)
	if err != nil {
		t.Fatalf("NextReady failed: %v", err)
	}
	if ready != nil {
		t.Fatalf("expected no ready job, got %#v", ready)
	}
}

func TestRequestRunRejectedWhileProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)
	job.Status = jobs.StatusTranscribing
	if err := store.Update(ctx, job); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	ok, err := store.RequestRun(ctx, job.ID, jobs.StatusUploaded)
	if err != nil {
		t.Fatalf("RequestRun failed: %v", err)
	}
	if ok {
		t.Fatal("expected run request against processing job to be rejected")
	}
}

func TestResetStuckProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	cases := []struct {
		initialStatus jobs.Status
		expected      jobs.Status
	}{
		{jobs.StatusExtractingAudio, jobs.StatusUploaded},
		{jobs.StatusTranscribing, jobs.StatusUploaded},
		{jobs.StatusTranslating, jobs.StatusTranscriptionComplete},
		{jobs.StatusRendering, jobs.StatusTranscriptionComplete},
	}
	var ids []int64
	for i, tc := range cases {
		job, err := store.NewJob(ctx, fmt.Sprintf("video-%d.mp4", i), fmt.Sprintf("/tmp/video-%d.mp4", i), "en", "es")
		if err != nil {
			t.Fatalf("NewJob failed: %v", err)
		}
		job.Status = tc.initialStatus
		if err := store.Update(ctx, job); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		ids = append(ids, job.ID)
	}

	count, err := store.ResetStuckProcessing(ctx)
	if err != nil {
		t.Fatalf("ResetStuckProcessing failed: %v", err)
	}
	if count != int64(len(cases)) {
		t.Fatalf("reset %d jobs, want %d", count, len(cases))
	}

	for i, tc := range cases {
		fetched, err := store.GetByID(ctx, ids[i])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if fetched.Status != tc.expected {
			t.Fatalf("job %d status = %q, want %q", ids[i], fetched.Status, tc.expected)
		}
	}
}

func TestReclaimStaleProcessing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	stale := newJob(t, store)
	stale.Status = jobs.StatusTranscribing
	old := time.Now().UTC().Add(-10 * time.Minute)
	stale.LastHeartbeat = &old
	if err := store.Update(ctx, stale); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fresh := newJob(t, store)
	fresh.Status = jobs.StatusRendering
	now := time.Now().UTC()
	fresh.LastHeartbeat = &now
	if err := store.Update(ctx, fresh); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	count, err := store.ReclaimStaleProcessing(ctx, time.Now().UTC().Add(-5*time.Minute))
	if err != nil {
		t.Fatalf("ReclaimStaleProcessing failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("reclaimed %d jobs, want 1", count)
	}

	fetchedStale, err := store.GetByID(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetchedStale.Status != jobs.StatusUploaded {
		t.Fatalf("stale job status = %q, want uploaded", fetchedStale.Status)
	}

	fetchedFresh, err := store.GetByID(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetchedFresh.Status != jobs.StatusRendering {
		t.Fatalf("fresh job status = %q, want rendering", fetchedFresh.Status)
	}
}

func TestListAndStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	first := newJob(t, store)
	second := newJob(t, store)
	second.Status = jobs.StatusCompleted
	second.SetProgress(jobs.ProgressCompleted, "Done")
	if err := store.Update(ctx, second); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("listed %d jobs, want 2", len(all))
	}
	if all[0].ID != first.ID {
		t.Fatalf("list order: first job = %d, want %d", all[0].ID, first.ID)
	}

	uploaded, err := store.List(ctx, jobs.StatusUploaded)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(uploaded) != 1 || uploaded[0].ID != first.ID {
		t.Fatalf("unexpected uploaded list: %#v", uploaded)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobs.StatusUploaded] != 1 || stats[jobs.StatusCompleted] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if health.Total != 2 || health.Waiting != 1 || health.Completed != 1 {
		t.Fatalf("unexpected health: %#v", health)
	}
}

func TestRemoveAndClear(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	job := newJob(t, store)
	removed, err := store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if !removed {
		t.Fatal("expected removal to report true")
	}
	removed, err = store.Remove(ctx, job.ID)
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if removed {
		t.Fatal("expected second removal to report false")
	}

	failed := newJob(t, store)
	failed.SetFailed("external_tool", "ffmpeg exploded")
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	count, err := store.ClearFailed(ctx)
	if err != nil {
		t.Fatalf("ClearFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("cleared %d failed jobs, want 1", count)
	}
}

func TestCheckHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	newJob(t, store)
	health, err := store.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.TableExists {
		t.Fatalf("unexpected health: %#v", health)
	}
	if len(health.MissingColumns) != 0 {
		t.Fatalf("missing columns: %v", health.MissingColumns)
	}
	if !health.IntegrityCheck {
		t.Fatal("integrity check failed")
	}
	if health.TotalJobs != 1 {
		t.Fatalf("total jobs = %d, want 1", health.TotalJobs)
	}
}
