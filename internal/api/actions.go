package api

import (
	"context"
	"fmt"
	"os"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/transcript"
)

// Start queues an uploaded job for processing.
func (s *JobService) Start(ctx context.Context, id int64) (*JobView, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "start", fmt.Sprintf("job %d not found", id), nil)
	}
	if job.Status != jobs.StatusUploaded {
		return nil, services.Wrap(services.ErrConflict, "jobs", "start",
			fmt.Sprintf("job %d is %s, only uploaded jobs can start", id, job.Status), nil)
	}

	requested, err := s.store.RequestRun(ctx, id, jobs.StatusUploaded)
	if err != nil {
		return nil, err
	}
	if !requested {
		return nil, services.Wrap(services.ErrConflict, "jobs", "start",
			fmt.Sprintf("job %d is already queued", id), nil)
	}
	s.pipe.Poke()

	s.logger.Info("job queued",
		logging.String(logging.FieldEventType, "job_queued"),
		logging.Int64(logging.FieldJobID, id),
	)
	return s.Describe(ctx, id)
}

// Continue applies optional transcript text edits and resumes a job paused
// for review. A text count that does not match the segment count is rejected
// and the job stays paused.
func (s *JobService) Continue(ctx context.Context, id int64, texts []string) (*JobView, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, services.Wrap(services.ErrNotFound, "jobs", "continue", fmt.Sprintf("job %d not found", id), nil)
	}
	if !job.AwaitingReview() {
		return nil, services.Wrap(services.ErrConflict, "jobs", "continue",
			fmt.Sprintf("job %d is %s, not awaiting review", id, job.Status), nil)
	}

	if len(texts) > 0 {
		doc, err := transcript.Load(job.TranscriptPath)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "jobs", "continue", "failed to read transcript", err)
		}
		if err := doc.ApplyTextEdits(texts); err != nil {
			return nil, err
		}
		if err := doc.Save(job.TranscriptPath); err != nil {
			return nil, services.Wrap(services.ErrTransient, "jobs", "continue", "failed to write transcript", err)
		}
	}

	requested, err := s.store.RequestRun(ctx, id, jobs.StatusTranscriptionComplete)
	if err != nil {
		return nil, err
	}
	if !requested {
		return nil, services.Wrap(services.ErrConflict, "jobs", "continue",
			fmt.Sprintf("job %d is already queued", id), nil)
	}
	s.pipe.Poke()

	s.logger.Info("job resumed after review",
		logging.String(logging.FieldEventType, "job_resumed"),
		logging.Int64(logging.FieldJobID, id),
		logging.Int("edited_segments", len(texts)),
	)
	return s.Describe(ctx, id)
}

// Remove cancels any in-flight run, deletes the job row, and cleans up every
// artifact the job produced.
func (s *JobService) Remove(ctx context.Context, id int64) error {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if job == nil {
		return services.Wrap(services.ErrNotFound, "jobs", "remove", fmt.Sprintf("job %d not found", id), nil)
	}

	if jobs.IsProcessingStatus(job.Status) {
		s.pipe.Cancel(id)
	}
	if _, err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.cleanupArtifacts(job)

	s.logger.Info("job removed",
		logging.String(logging.FieldEventType, "job_removed"),
		logging.Int64(logging.FieldJobID, id),
	)
	return nil
}

// ClearCompleted removes completed job rows. Uploaded and rendered files for
// those jobs are removed as well.
func (s *JobService) ClearCompleted(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, jobs.StatusCompleted)
}

// ClearFailed removes failed job rows and their artifacts.
func (s *JobService) ClearFailed(ctx context.Context) (int64, error) {
	return s.clearByStatus(ctx, jobs.StatusFailed)
}

func (s *JobService) clearByStatus(ctx context.Context, status jobs.Status) (int64, error) {
	records, err := s.store.List(ctx, status)
	if err != nil {
		return 0, err
	}
	var cleared int64
	for _, job := range records {
		if _, err := s.store.Remove(ctx, job.ID); err != nil {
			return cleared, err
		}
		s.cleanupArtifacts(job)
		cleared++
	}
	return cleared, nil
}

func (s *JobService) cleanupArtifacts(job *jobs.Job) {
	if job == nil {
		return
	}
	if job.SourcePath != "" {
		if err := os.Remove(job.SourcePath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove upload", logging.Error(err))
		}
	}
	workDir := job.WorkRoot(s.cfg.Paths.WorkDir)
	if workDir != "" {
		if err := os.RemoveAll(workDir); err != nil {
			s.logger.Warn("failed to remove work directory", logging.Error(err))
		}
	}
}
