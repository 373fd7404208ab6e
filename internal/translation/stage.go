package translation

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
	"subburn/internal/services/translate"
	"subburn/internal/stage"
	"subburn/internal/subtitle"
	"subburn/internal/transcript"
)

// Client is the translation service dependency for this stage.
type Client interface {
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// Stage translates the reviewed transcript and writes the subtitle file.
type Stage struct {
	cfg    *config.Config
	client Client
	logger *slog.Logger
}

// NewStage constructs the translation stage with the configured service
// client.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	c := translate.NewClient(translate.Config{
		APIKey:         cfg.Translator.APIKey,
		BaseURL:        cfg.Translator.BaseURL,
		Model:          cfg.Translator.Model,
		BatchSize:      cfg.Translator.BatchSize,
		TimeoutSeconds: cfg.Translator.TimeoutSeconds,
	})
	return &Stage{
		cfg:    cfg,
		client: c,
		logger: logging.NewComponentLogger(logger, "translation-stage"),
	}
}

// SetLogger routes stage logs into the job-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "translation-stage")
}

// SetClient replaces the service client (used in tests).
func (s *Stage) SetClient(c Client) {
	if s != nil && c != nil {
		s.client = c
	}
}

// Prepare verifies the reviewed transcript exists and assigns the subtitle
// path.
func (s *Stage) Prepare(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.cfg == nil || s.client == nil {
		return services.Wrap(services.ErrConfiguration, "translating", "prepare", "translation stage is not configured", nil)
	}
	if _, err := os.Stat(job.TranscriptPath); err != nil {
		return services.Wrap(services.ErrValidation, "translating", "prepare", "transcript is missing", err)
	}
	job.SubtitlePath = filepath.Join(job.WorkRoot(s.cfg.Paths.WorkDir), "subtitles.srt")
	job.SetProgress(jobs.ProgressTranscriptionComplete, "Translating transcript")
	return nil
}

// Execute translates the transcript texts when the languages differ, then
// conditions the cues and writes the SRT file.
func (s *Stage) Execute(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.client == nil {
		return services.Wrap(services.ErrConfiguration, "translating", "execute", "translation stage is not configured", nil)
	}

	source, err := transcript.Load(job.TranscriptPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "translating", "load transcript", "failed to read transcript", err)
	}
	if err := source.Validate(); err != nil {
		return err
	}

	sourceLang := language.Normalize(job.DetectedLanguage)
	if sourceLang == "" {
		sourceLang = language.Normalize(job.SourceLanguage)
	}
	targetLang := language.Normalize(job.TargetLanguage)

	translated := source
	if !job.NeedsTranslation() {
		if s.logger != nil {
			s.logger.Info("languages match, skipping translation",
				logging.String(logging.FieldEventType, "translation_skipped"),
				logging.Int64(logging.FieldJobID, job.ID),
				logging.String("language", targetLang),
			)
		}
	} else {
		texts, err := s.client.Translate(ctx, source.Texts(), sourceLang, targetLang)
		if err != nil {
			return err
		}
		translated, err = source.WithTexts(texts)
		if err != nil {
			return services.Wrap(services.ErrExternalTool, "translating", "apply translations", "translated line count does not match transcript", err)
		}
	}

	conditioned := subtitle.Condition(translated)
	if err := subtitle.WriteFile(job.SubtitlePath, conditioned); err != nil {
		return services.Wrap(services.ErrTransient, "translating", "write subtitles", "failed to write subtitle file", err)
	}

	if s.logger != nil {
		s.logger.Info("translation complete",
			logging.String(logging.FieldEventType, "translation_complete"),
			logging.Int64(logging.FieldJobID, job.ID),
			logging.Int("cues", len(conditioned.Segments)),
			logging.String("subtitle_path", job.SubtitlePath),
		)
	}
	job.SetProgress(jobs.ProgressTranslationComplete, "Translation complete, subtitles compiled")
	return nil
}

// HealthCheck reports readiness for the translation stage.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "translation"
	if s == nil || s.client == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	if err := s.client.HealthCheck(ctx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
