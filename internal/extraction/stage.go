package extraction

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/language"
	"subburn/internal/logging"
	"subburn/internal/media/audio"
	"subburn/internal/media/ffmpeg"
	"subburn/internal/media/ffprobe"
	"subburn/internal/services"
	"subburn/internal/stage"
)

// Stage probes the uploaded video and extracts a mono WAV for transcription.
type Stage struct {
	cfg     *config.Config
	runner  *ffmpeg.Runner
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	logger  *slog.Logger
}

// NewStage constructs the audio extraction stage.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	return &Stage{
		cfg:     cfg,
		runner:  ffmpeg.NewRunner(cfg.FFmpeg.FFmpegBinary, logger),
		inspect: ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "extraction-stage"),
	}
}

// SetInspector replaces the media prober (used in tests).
func (s *Stage) SetInspector(inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	if s != nil && inspect != nil {
		s.inspect = inspect
	}
}

// SetLogger routes stage logs into the job-scoped logger.
func (s *Stage) SetLogger(logger *slog.Logger) {
	if s == nil {
		return
	}
	s.logger = logging.NewComponentLogger(logger, "extraction-stage")
}

// Runner exposes the ffmpeg runner for test injection.
func (s *Stage) Runner() *ffmpeg.Runner {
	return s.runner
}

// Prepare verifies the upload is still on disk and assigns the audio path.
func (s *Stage) Prepare(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.cfg == nil {
		return services.Wrap(services.ErrConfiguration, "extracting_audio", "prepare", "extraction stage is not configured", nil)
	}
	if _, err := os.Stat(job.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "extracting_audio", "prepare", "uploaded video is missing from storage", err)
	}
	workDir := job.WorkRoot(s.cfg.Paths.WorkDir)
	if workDir == "" {
		return services.Wrap(services.ErrConfiguration, "extracting_audio", "prepare", "work directory is not configured", nil)
	}
	job.AudioPath = filepath.Join(workDir, "audio.wav")
	job.SetProgress(jobs.ProgressUploaded, "Extracting audio track")
	return nil
}

// Execute probes the video and writes the 16 kHz mono WAV.
func (s *Stage) Execute(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.runner == nil {
		return services.Wrap(services.ErrConfiguration, "extracting_audio", "execute", "extraction stage is not configured", nil)
	}

	probe, err := s.inspect(ctx, s.cfg.FFmpeg.FFprobeBinary, job.SourcePath)
	if err != nil {
		return err
	}
	if _, ok := probe.VideoStream(); !ok {
		return services.Wrap(services.ErrValidation, "extracting_audio", "probe", "file has no video stream", nil)
	}
	if probe.AudioStreamCount() == 0 {
		return services.Wrap(services.ErrValidation, "extracting_audio", "probe", "file has no audio stream to transcribe", nil)
	}

	selection := audio.Select(probe.Streams, language.Normalize(job.SourceLanguage))

	extractCtx := ctx
	if s.cfg.FFmpeg.ExtractTimeout > 0 {
		var cancel context.CancelFunc
		extractCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.FFmpeg.ExtractTimeout)*time.Second)
		defer cancel()
	}
	if err := s.runner.ExtractAudio(extractCtx, job.SourcePath, job.AudioPath, selection.Index); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("audio extracted",
			logging.String(logging.FieldEventType, "audio_extracted"),
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("audio_path", job.AudioPath),
			logging.String("audio_track", selection.Label()),
			logging.Float64("duration_seconds", probe.DurationSeconds()),
		)
	}
	job.SetProgress(jobs.ProgressAudioExtracted, "Audio extracted")
	return nil
}

// HealthCheck reports readiness for the extraction stage.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "extraction"
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	binary := s.cfg.FFmpeg.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, "ffmpeg binary not found")
	}
	return stage.Healthy(name)
}
