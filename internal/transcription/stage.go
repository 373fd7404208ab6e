package transcription

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/language"
	"subburn/internal/logging"
	"subburn/internal/services"
	"subburn/internal/services/transcribe"
	"subburn/internal/stage"
	"subburn/internal/transcript"
)

// Client is the speech-to-text dependency for this stage.
type Client interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (*transcript.Transcript, error)
	HealthCheck(ctx context.Context) error
}

// Stage sends extracted audio to the transcription service and stores the
// resulting transcript for review.
type Stage struct {
	cfg    *config.Config
	client Client
	logger *slog.Logger
}

// NewStage constructs the transcription stage with the configured service
// client.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	c := transcribe.NewClient(transcribe.Config{
		APIKey:         cfg.Transcriber.APIKey,
		BaseURL:        cfg.Transcriber.BaseURL,
		Model:          cfg.Transcriber.Model,
		TimeoutSeconds: cfg.Transcriber.TimeoutSeconds,
	})
	return &Stage{
		cfg:    cfg,
		client: c,
		logger: logging.NewComponentLogger(logger, "transcription-stage"),
	}
}

// SetLogger routes stage logs into the job-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "transcription-stage")
}

// SetClient replaces the service client (used in tests).
func (s *Stage) SetClient(c Client) {
	if s != nil && c != nil {
		s.client = c
	}
}

// Prepare verifies the extracted audio exists and assigns the transcript path.
func (s *Stage) Prepare(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.cfg == nil || s.client == nil {
		return services.Wrap(services.ErrConfiguration, "transcribing", "prepare", "transcription stage is not configured", nil)
	}
	if _, err := os.Stat(job.AudioPath); err != nil {
		return services.Wrap(services.ErrValidation, "transcribing", "prepare", "extracted audio is missing", err)
	}
	job.TranscriptPath = filepath.Join(job.WorkRoot(s.cfg.Paths.WorkDir), "transcript.json")
	job.SetProgress(jobs.ProgressAudioExtracted, "Transcribing audio")
	return nil
}

// Execute transcribes the audio and persists the transcript for review.
func (s *Stage) Execute(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.client == nil {
		return services.Wrap(services.ErrConfiguration, "transcribing", "execute", "transcription stage is not configured", nil)
	}

	hint := language.Normalize(job.SourceLanguage)
	result, err := s.client.Transcribe(ctx, job.AudioPath, hint)
	if err != nil {
		return err
	}
	if err := result.Validate(); err != nil {
		return err
	}

	detected := language.Normalize(result.DetectedLanguage)
	if detected == "" {
		detected = hint
	}
	job.DetectedLanguage = detected

	if err := result.Save(job.TranscriptPath); err != nil {
		return services.Wrap(services.ErrTransient, "transcribing", "persist transcript", "failed to write transcript", err)
	}

	if s.logger != nil {
		s.logger.Info("transcription complete",
			logging.String(logging.FieldEventType, "transcription_complete"),
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Int("segments", len(result.Segments)),
			logging.String("detected_language", detected),
		)
	}
	job.SetProgress(jobs.ProgressTranscriptionComplete, "Transcription complete, awaiting review")
	return nil
}

// HealthCheck reports readiness for the transcription stage.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "transcription"
	if s == nil || s.client == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if err := s.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
