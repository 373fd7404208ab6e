package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// NewJob inserts a job for a freshly stored upload.
func (s *Store) NewJob(ctx context.Context, sourceFile, sourcePath, sourceLanguage, targetLanguage string) (*Job, error) {
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO jobs (
            source_file, source_path, status, source_language, target_language,
            progress_percent, progress_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sourceFile,
		sourcePath,
		StatusUploaded,
		nullableString(sourceLanguage),
		targetLanguage,
		ProgressUploaded,
		"Uploaded, awaiting processing",
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a job by identifier. A missing job returns (nil, nil).
func (s *Store) GetByID(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Update persists changes to an existing job.
func (s *Store) Update(ctx context.Context, job *Job) error {
	if job == nil {
		return errors.New("job is nil")
	}
	job.UpdatedAt = time.Now().UTC()
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs
         SET source_file = ?, source_path = ?, audio_path = ?, transcript_path = ?,
             subtitle_path = ?, output_path = ?, file_info = ?, status = ?, source_language = ?,
             target_language = ?, detected_language = ?, error_message = ?, error_kind = ?,
             progress_percent = ?, progress_message = ?, run_requested = ?,
             updated_at = ?, last_heartbeat = ?
         WHERE id = ?`,
		nullableString(job.SourceFile),
		nullableString(job.SourcePath),
		nullableString(job.AudioPath),
		nullableString(job.TranscriptPath),
		nullableString(job.SubtitlePath),
		nullableString(job.OutputPath),
		nullableString(job.FileInfo),
		job.Status,
		nullableString(job.SourceLanguage),
		nullableString(job.TargetLanguage),
		nullableString(job.DetectedLanguage),
		nullableString(job.ErrorMessage),
		nullableString(job.ErrorKind),
		job.ProgressPercent,
		nullableString(job.ProgressMessage),
		boolToInt(job.RunRequested),
		job.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(job.LastHeartbeat),
		job.ID,
	); err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	return nil
}

// UpdateProgress raises a job's progress and replaces the progress message.
// Progress is monotonic: a lower percentage never overwrites a higher one.
func (s *Store) UpdateProgress(ctx context.Context, id int64, percent int, message string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE jobs
         SET progress_percent = MAX(progress_percent, ?), progress_message = ?, updated_at = ?
         WHERE id = ?`,
		percent,
		nullableString(message),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// List returns jobs filtered by status set (or all jobs when no status is
// provided), ordered by creation time.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Job, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + jobColumns + ` FROM jobs`
	orderClause := ` ORDER BY created_at, id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var list []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, job)
	}
	return list, rows.Err()
}

// NextReady returns the oldest job that has a pending run request and is
// resting in a state the pipeline can claim.
func (s *Store) NextReady(ctx context.Context) (*Job, error) {
	placeholders := makePlaceholders(len(readyStatuses))
	args := make([]any, len(readyStatuses))
	for i, status := range readyStatuses {
		args[i] = status
	}
	query := `SELECT ` + jobColumns + ` FROM jobs
        WHERE run_requested = 1 AND status IN (` + placeholders + `)
        ORDER BY updated_at, id LIMIT 1`
	row := s.db.QueryRowContext(ctx, query, args...)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// Remove deletes a job by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ClearCompleted removes only completed jobs.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE status = ?`, StatusCompleted)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	return res.RowsAffected()
}

// ClearFailed removes only failed jobs.
func (s *Store) ClearFailed(ctx context.Context) (int64, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM jobs WHERE status = ?`, StatusFailed)
	if err != nil {
		return 0, fmt.Errorf("clear failed: %w", err)
	}
	return res.RowsAffected()
}
