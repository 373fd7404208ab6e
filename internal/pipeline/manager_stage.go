package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/services"
)

// runPhase drives a claimed job through every stage in the phase. The job
// arrives already transitioned to the first stage's processing status.
func (m *Manager) runPhase(ctx context.Context, ph phase, job *jobs.Job) {
	requestID := uuid.NewString()
	phaseCtx := withJobContext(ctx, job.ID, requestID)

	for i, stg := range ph.stages {
		stageCtx := services.WithStage(phaseCtx, stg.name)
		stageLogger := m.stageLogger(stageCtx, job)
		if aware, ok := stg.handler.(loggerAware); ok {
			aware.SetLogger(stageLogger)
		}

		if i > 0 && job.Status != stg.processingStatus {
			if err := m.transitionToProcessing(stageCtx, job, stg.processingStatus); err != nil {
				stageLogger.Error("failed to transition job to processing", logging.Error(err))
				m.setLastError(err)
				return
			}
		}

		if err := m.executeStage(stageCtx, stageLogger, stg, job); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			m.handleStageFailure(stageCtx, stg.name, job, err)
			m.setLastError(err)
			return
		}
	}

	m.finishPhase(phaseCtx, ph, job)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, job *jobs.Job) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("source_file", job.SourceFile),
	)

	if err := stg.handler.Prepare(ctx, job); err != nil {
		return err
	}
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist stage preparation: %w", err)
	}

	if err := m.executeWithHeartbeat(ctx, stg, job); err != nil {
		return err
	}

	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Int("progress_percent", job.ProgressPercent),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.setLastJob(job)
	return nil
}

func (m *Manager) executeWithHeartbeat(ctx context.Context, stg pipelineStage, job *jobs.Job) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, job.ID)

	execErr := stg.handler.Execute(ctx, job)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) transitionToProcessing(ctx context.Context, job *jobs.Job, processing jobs.Status) error {
	now := time.Now().UTC()
	job.Status = processing
	job.ErrorMessage = ""
	job.ErrorKind = ""
	job.LastHeartbeat = &now
	if err := m.store.Update(ctx, job); err != nil {
		return fmt.Errorf("persist processing transition: %w", err)
	}
	m.setLastJob(job)
	return nil
}

// finishPhase moves the job to the phase's resting status and clears the
// heartbeat so the reclaimer ignores it.
func (m *Manager) finishPhase(ctx context.Context, ph phase, job *jobs.Job) {
	logger := m.stageLogger(ctx, job)

	job.Status = ph.done
	job.LastHeartbeat = nil
	if ph.done == jobs.StatusCompleted && job.ProgressPercent < jobs.ProgressCompleted {
		job.SetProgress(jobs.ProgressCompleted, "Completed")
	}
	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		logger.Error("failed to persist phase completion", logging.Error(err))
		m.setLastError(err)
		return
	}
	m.setLastJob(job)
	logger.Info("phase completed",
		logging.String(logging.FieldEventType, "phase_complete"),
		logging.String("phase", ph.name),
		logging.String("status", string(job.Status)),
	)
}

func (m *Manager) stageLogger(ctx context.Context, job *jobs.Job) *slog.Logger {
	base := m.logger
	if base == nil {
		base = logging.NewNop()
	}
	if job != nil {
		base = base.With(logging.Int64(logging.FieldJobID, job.ID))
	}
	return logging.WithContext(ctx, base)
}

func withJobContext(ctx context.Context, jobID int64, requestID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = services.WithJobID(ctx, jobID)
	if requestID != "" {
		ctx = services.WithRequestID(ctx, requestID)
	}
	return ctx
}
