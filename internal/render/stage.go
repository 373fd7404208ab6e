package render

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/media/ffmpeg"
	"subburn/internal/media/ffprobe"
	"subburn/internal/services"
	"subburn/internal/stage"
)

// Stage burns the subtitle track into the source video and records the final
// output path.
type Stage struct {
	cfg     *config.Config
	runner  *ffmpeg.Runner
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	logger  *slog.Logger
}

// NewStage constructs the render stage with an ffmpeg runner bound to the
// configured binary.
func NewStage(cfg *config.Config, logger *slog.Logger) *Stage {
	componentLogger := logging.NewComponentLogger(logger, "render-stage")
	return &Stage{
		cfg:     cfg,
		runner:  ffmpeg.NewRunner(cfg.FFmpeg.FFmpegBinary, componentLogger),
		inspect: ffprobe.Inspect,
		logger:  componentLogger,
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
	s.logger = logging.NewComponentLogger(logger, "render-stage")
}

// Runner exposes the ffmpeg runner for test injection.
func (s *Stage) Runner() *ffmpeg.Runner {
	return s.runner
}

// Prepare verifies the source video and subtitle file are on disk and assigns
// the output path.
func (s *Stage) Prepare(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.cfg == nil || s.runner == nil {
		return services.Wrap(services.ErrConfiguration, "rendering", "prepare", "render stage is not configured", nil)
	}
	if _, err := os.Stat(job.SourcePath); err != nil {
		return services.Wrap(services.ErrValidation, "rendering", "prepare", "source video is missing", err)
	}
	if _, err := os.Stat(job.SubtitlePath); err != nil {
		return services.Wrap(services.ErrValidation, "rendering", "prepare", "subtitle file is missing", err)
	}
	job.OutputPath = filepath.Join(job.WorkRoot(s.cfg.Paths.WorkDir), job.OutputFileName())
	job.SetProgress(jobs.ProgressTranslationComplete, "Rendering subtitled video")
	return nil
}

// Execute runs the burn-in encode and verifies the result is a readable video.
func (s *Stage) Execute(ctx context.Context, job *jobs.Job) error {
	if s == nil || s.runner == nil {
		return services.Wrap(services.ErrConfiguration, "rendering", "execute", "render stage is not configured", nil)
	}

	renderCtx := ctx
	if s.cfg.FFmpeg.RenderTimeout > 0 {
		var cancel context.CancelFunc
		renderCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.FFmpeg.RenderTimeout)*time.Second)
		defer cancel()
	}
	if err := s.runner.BurnSubtitles(renderCtx, job.SourcePath, job.SubtitlePath, job.OutputPath); err != nil {
		return err
	}

	probe, err := s.inspect(ctx, s.cfg.FFmpeg.FFprobeBinary, job.OutputPath)
	if err != nil {
		return err
	}
	if _, ok := probe.VideoStream(); !ok {
		return services.Wrap(services.ErrExternalTool, "rendering", "verify output", "rendered file has no video stream", nil)
	}

	if s.logger != nil {
		s.logger.Info("render complete",
			logging.String(logging.FieldEventType, "render_complete"),
			logging.Int64(logging.FieldJobID, job.ID),
			logging.String("output_path", job.OutputPath),
			logging.Float64("duration_seconds", probe.DurationSeconds()),
		)
	}
	return nil
}

// HealthCheck verifies the ffmpeg binary is resolvable.
func (s *Stage) HealthCheck(ctx context.Context) stage.Health {
	const name = "render"
	if s == nil || s.cfg == nil {
		return stage.Unhealthy(name, "stage not configured")
	}
	binary := s.cfg.FFmpeg.FFmpegBinary
	if binary == "" {
		binary = "ffmpeg"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}
