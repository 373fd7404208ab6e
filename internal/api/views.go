package api

import (
	"context"
	"fmt"
	"os"

	"subburn/internal/jobs"
	"subburn/internal/services"
	"subburn/internal/transcript"
)

// transcriptReady reports whether the job has reached the review pause, where
// a transcript exists for inspection.
func transcriptReady(job *jobs.Job) bool {
	switch job.Status {
	case jobs.StatusTranscriptionComplete, jobs.StatusTranslating, jobs.StatusRendering, jobs.StatusCompleted:
		return job.TranscriptPath != ""
	case jobs.StatusFailed:
		if job.TranscriptPath == "" {
			return false
		}
		_, err := os.Stat(job.TranscriptPath)
		return err == nil
	default:
		return false
	}
}

// Describe fetches a single job.
func (s *JobService) Describe(ctx context.Context, id int64) (*JobView, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "describe", fmt.Sprintf("job %d not found", id), nil)
	}
	view := FromJob(job)
	return &view, nil
}

// List returns jobs filtered by status, ordered oldest first.
func (s *JobService) List(ctx context.Context, statuses ...jobs.Status) ([]JobView, error) {
	records, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromJobs(records), nil
}

// Transcript returns the reviewable transcript for a job that has reached the
// review pause.
func (s *JobService) Transcript(ctx context.Context, id int64) (*TranscriptView, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "transcript", fmt.Sprintf("job %d not found", id), nil)
	}
	if !transcriptReady(job) {
		return nil, services.Wrap(services.ErrConflict, "jobs", "transcript",
			fmt.Sprintf("job %d has no transcript yet (status %s)", id, job.Status), nil)
	}

	doc, err := transcript.Load(job.TranscriptPath)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "jobs", "transcript", "failed to read transcript", err)
	}
	view := FromTranscript(id, doc)
	return &view, nil
}

// Result returns the rendered output path and its download filename. Only
// completed jobs have a result.
func (s *JobService) Result(ctx context.Context, id int64) (string, string, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if job == nil {
		return "", "", services.Wrap(services.ErrNotFound, "jobs", "result", fmt.Sprintf("job %d not found", id), nil)
	}
	if job.Status != jobs.StatusCompleted || job.OutputPath == "" {
		return "", "", services.Wrap(services.ErrConflict, "jobs", "result",
			fmt.Sprintf("job %d is %s, result available once completed", id, job.Status), nil)
	}
	if _, err := os.Stat(job.OutputPath); err != nil {
		return "", "", services.Wrap(services.ErrNotFound, "jobs", "result", "rendered file is missing", err)
	}
	return job.OutputPath, job.OutputFileName(), nil
}

// Status aggregates pipeline and store health for the daemon status endpoint.
func (s *JobService) Status(ctx context.Context) PipelineStatus {
	return FromStatusSummary(s.pipe.Status(ctx))
}
