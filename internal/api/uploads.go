package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"subburn/internal/language"
	"subburn/internal/logging"
	"subburn/internal/services"
)

// videoExtensions lists the upload container formats the pipeline accepts.
var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".mov":  {},
	".avi":  {},
	".webm": {},
	".m4v":  {},
	".ts":   {},
}

// fileInfo is the ffprobe metadata captured at upload time, stored on the job
// as JSON.
type fileInfo struct {
	DurationSeconds float64 `json:"durationSeconds,omitempty"`
	Resolution      string  `json:"resolution,omitempty"`
	FrameRate       float64 `json:"frameRate,omitempty"`
	Container       string  `json:"container,omitempty"`
	SizeBytes       int64   `json:"sizeBytes,omitempty"`
}

// Create stores an uploaded video, captures its media metadata, and inserts
// the job in the uploaded state. The reader is drained up to the configured
// size limit; an oversized upload is rejected and its partial file removed.
func (s *JobService) Create(ctx context.Context, upload io.Reader, filename, sourceLang, targetLang string) (*JobView, error) {
	filename = filepath.Base(strings.TrimSpace(filename))
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return nil, services.Wrap(services.ErrValidation, "upload", "create", "filename is required", nil)
	}
	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := videoExtensions[ext]; !ok {
		return nil, services.Wrap(services.ErrValidation, "upload", "create",
			fmt.Sprintf("unsupported file type %q", ext), nil)
	}

	targetLang = strings.TrimSpace(targetLang)
	if targetLang == "" {
		return nil, services.Wrap(services.ErrValidation, "upload", "create", "target language is required", nil)
	}
	if !language.IsValid(targetLang) {
		return nil, services.Wrap(services.ErrValidation, "upload", "create",
			fmt.Sprintf("unknown target language %q", targetLang), nil)
	}
	sourceLang = strings.TrimSpace(sourceLang)
	if sourceLang != "" && !language.IsValid(sourceLang) {
		return nil, services.Wrap(services.ErrValidation, "upload", "create",
			fmt.Sprintf("unknown source language %q", sourceLang), nil)
	}

	storedPath, err := s.storeUpload(upload, ext)
	if err != nil {
		return nil, err
	}

	info := s.probeUpload(ctx, storedPath)

	job, err := s.store.NewJob(ctx, filename, storedPath, language.Normalize(sourceLang), language.Normalize(targetLang))
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, fmt.Errorf("insert job: %w", err)
	}
	if info != "" {
		job.FileInfo = info
		if err := s.store.Update(ctx, job); err != nil {
			s.logger.Warn("failed to persist upload metadata", logging.Error(err))
		}
	}

	s.logger.Info("upload accepted",
		logging.String(logging.FieldEventType, "upload_accepted"),
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("source_file", filename),
		logging.String("target_language", job.TargetLanguage),
	)
	view := FromJob(job)
	return &view, nil
}

func (s *JobService) storeUpload(upload io.Reader, ext string) (string, error) {
	if err := os.MkdirAll(s.cfg.Paths.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	storedPath := filepath.Join(s.cfg.Paths.UploadDir, uuid.NewString()+ext)

	dst, err := os.Create(storedPath)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}

	maxBytes := s.cfg.MaxUploadBytes()
	written, copyErr := io.Copy(dst, io.LimitReader(upload, maxBytes+1))
	closeErr := dst.Close()
	if copyErr != nil {
		_ = os.Remove(storedPath)
		return "", services.Wrap(services.ErrTransient, "upload", "store", "failed to store upload", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(storedPath)
		return "", fmt.Errorf("close upload file: %w", closeErr)
	}
	if written == 0 {
		_ = os.Remove(storedPath)
		return "", services.Wrap(services.ErrValidation, "upload", "store", "upload is empty", nil)
	}
	if written > maxBytes {
		_ = os.Remove(storedPath)
		return "", services.Wrap(services.ErrValidation, "upload", "store",
			fmt.Sprintf("upload exceeds the %d MiB limit", s.cfg.Uploads.MaxSizeMiB), nil)
	}
	return storedPath, nil
}

// probeUpload captures informational media metadata. Probe failures are
// logged, not fatal: the extraction stage re-validates the file before work
// begins.
func (s *JobService) probeUpload(ctx context.Context, path string) string {
	result, err := s.inspect(ctx, s.cfg.FFmpeg.FFprobeBinary, path)
	if err != nil {
		s.logger.Warn("upload probe failed", logging.Error(err))
		return ""
	}
	info := fileInfo{
		DurationSeconds: result.DurationSeconds(),
		Resolution:      result.Resolution(),
		FrameRate:       result.FrameRate(),
		Container:       result.Container(),
		SizeBytes:       result.SizeBytes(),
	}
	encoded, err := json.Marshal(info)
	if err != nil {
		return ""
	}
	return string(encoded)
}
