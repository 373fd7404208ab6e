package jobs

import (
	"database/sql"
	"errors"
	"time"
)

const jobColumns = "id, source_file, source_path, audio_path, transcript_path, subtitle_path, output_path, file_info, status, source_language, target_language, detected_language, error_message, error_kind, progress_percent, progress_message, run_requested, created_at, updated_at, last_heartbeat"

func scanJob(scanner interface{ Scan(dest ...any) error }) (*Job, error) {
	var (
		id               int64
		sourceFile       sql.NullString
		sourcePath       sql.NullString
		audioPath        sql.NullString
		transcriptPath   sql.NullString
		subtitlePath     sql.NullString
		outputPath       sql.NullString
		fileInfo         sql.NullString
		statusStr        string
		sourceLanguage   sql.NullString
		targetLanguage   sql.NullString
		detectedLanguage sql.NullString
		errorMessage     sql.NullString
		errorKind        sql.NullString
		progressPercent  sql.NullInt64
		progressMessage  sql.NullString
		runRequested     sql.NullInt64
		createdRaw       sql.NullString
		updatedRaw       sql.NullString
		lastHeartbeatRaw sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceFile,
		&sourcePath,
		&audioPath,
		&transcriptPath,
		&subtitlePath,
		&outputPath,
		&fileInfo,
		&statusStr,
		&sourceLanguage,
		&targetLanguage,
		&detectedLanguage,
		&errorMessage,
		&errorKind,
		&progressPercent,
		&progressMessage,
		&runRequested,
		&createdRaw,
		&updatedRaw,
		&lastHeartbeatRaw,
	); err != nil {
		return nil, err
	}

	job := &Job{
		ID:               id,
		SourceFile:       sourceFile.String,
		SourcePath:       sourcePath.String,
		AudioPath:        audioPath.String,
		TranscriptPath:   transcriptPath.String,
		SubtitlePath:     subtitlePath.String,
		OutputPath:       outputPath.String,
		FileInfo:         fileInfo.String,
		Status:           Status(statusStr),
		SourceLanguage:   sourceLanguage.String,
		TargetLanguage:   targetLanguage.String,
		DetectedLanguage: detectedLanguage.String,
		ErrorMessage:     errorMessage.String,
		ErrorKind:        errorKind.String,
		ProgressPercent:  int(progressPercent.Int64),
		ProgressMessage:  progressMessage.String,
	}
	if runRequested.Valid {
		job.RunRequested = runRequested.Int64 != 0
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		job.UpdatedAt = updated
	}
	if lastHeartbeatRaw.Valid {
		if heartbeat, err := parseTimeString(lastHeartbeatRaw.String); err == nil {
			job.LastHeartbeat = &heartbeat
		}
	}
	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
