package api

import (
	"context"
	"log/slog"

	"subburn/internal/config"
	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/media/ffprobe"
	"subburn/internal/pipeline"
)

// Pipeline captures the orchestrator operations the service depends on.
type Pipeline interface {
	Poke()
	Cancel(id int64) bool
	Status(ctx context.Context) pipeline.StatusSummary
}

// JobService implements the daemon's job control operations.
type JobService struct {
	cfg     *config.Config
	store   *jobs.Store
	pipe    Pipeline
	inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	logger  *slog.Logger
}

// NewJobService constructs a JobService around the store and pipeline manager.
func NewJobService(cfg *config.Config, store *jobs.Store, pipe Pipeline, logger *slog.Logger) *JobService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &JobService{
		cfg:     cfg,
		store:   store,
		pipe:    pipe,
		inspect: ffprobe.Inspect,
		logger:  logging.NewComponentLogger(logger, "job-service"),
	}
}

// SetInspector replaces the media prober (used in tests).
func (s *JobService) SetInspector(inspect func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	if s != nil && inspect != nil {
		s.inspect = inspect
	}
}
