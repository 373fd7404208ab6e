package jobs

import (
	"context"
	"fmt"
	"time"
)

// RequestRun flags a resting job for pickup by the pipeline. Returns false
// when the job is not in the expected status or already has a pending run
// request, which callers surface as a conflict.
func (s *Store) RequestRun(ctx context.Context, id int64, from Status) (bool, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs SET run_requested = 1, updated_at = ?
         WHERE id = ? AND status = ? AND run_requested = 0`,
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("request run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// TryClaim atomically moves a run-requested job from a resting status into a
// processing status. Returns false when another worker got there first.
func (s *Store) TryClaim(ctx context.Context, id int64, from, to Status) (bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = ?, run_requested = 0, error_message = NULL, error_kind = NULL,
             last_heartbeat = ?, updated_at = ?
         WHERE id = ? AND status = ? AND run_requested = 1`,
		to,
		now,
		now,
		id,
		from,
	)
	if err != nil {
		return false, fmt.Errorf("claim job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// UpdateHeartbeat updates the last heartbeat timestamp for an in-flight job.
func (s *Store) UpdateHeartbeat(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs SET last_heartbeat = ?, updated_at = ? WHERE id = ?`,
		now,
		now,
		id,
	); err != nil {
		return fmt.Errorf("update heartbeat: %w", err)
	}
	return nil
}

// ResetStuckProcessing rolls jobs left in processing states back to the
// resting state their phase started from. Used at daemon startup after a
// crash.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
         SET status = CASE status
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             WHEN ? THEN ?
             ELSE status
         END,
             run_requested = 0, progress_message = 'Reset from interrupted processing',
             last_heartbeat = NULL, updated_at = ?
         WHERE status IN (?, ?, ?, ?)`,
		StatusExtractingAudio, StatusUploaded,
		StatusTranscribing, StatusUploaded,
		StatusTranslating, StatusTranscriptionComplete,
		StatusRendering, StatusTranscriptionComplete,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusExtractingAudio,
		StatusTranscribing,
		StatusTranslating,
		StatusRendering,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck jobs: %w", err)
	}
	return res.RowsAffected()
}

// ReclaimStaleProcessing rolls processing jobs back to their phase's resting
// state when their heartbeats expired before the cutoff.
func (s *Store) ReclaimStaleProcessing(ctx context.Context, cutoff time.Time) (int64, error) {
	now := time.Now().UTC()
	res, err := s.execWithRetry(
		ctx,
		`UPDATE jobs
        SET status = CASE status
            WHEN ? THEN ?
            WHEN ? THEN ?
            WHEN ? THEN ?
            WHEN ? THEN ?
            ELSE status
        END,
            run_requested = 0, progress_message = 'Reclaimed from stale processing',
            last_heartbeat = NULL, updated_at = ?
        WHERE status IN (?, ?, ?, ?) AND last_heartbeat IS NOT NULL AND last_heartbeat < ?`,
		StatusExtractingAudio, StatusUploaded,
		StatusTranscribing, StatusUploaded,
		StatusTranslating, StatusTranscriptionComplete,
		StatusRendering, StatusTranscriptionComplete,
		now.Format(time.RFC3339Nano),
		StatusExtractingAudio,
		StatusTranscribing,
		StatusTranslating,
		StatusRendering,
		cutoff.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("reclaim stale jobs: %w", err)
	}
	return res.RowsAffected()
}
