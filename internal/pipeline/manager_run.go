package pipeline

import (
	"context"
	"log/slog"
	"time"

	"subburn/internal/jobs"
	"subburn/internal/logging"
)

func (m *Manager) dispatchLogger() *slog.Logger {
	if m.logger == nil {
		return logging.NewNop()
	}
	return logging.NewComponentLogger(m.logger, "pipeline-dispatcher")
}

func (m *Manager) runDispatcher(ctx context.Context) {
	defer m.wg.Done()
	logger := m.dispatchLogger()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := m.heartbeat.ReclaimStale(ctx, logger); err != nil {
			logger.Warn("reclaim stale processing failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "heartbeat_reclaim_failed"),
			)
		}

		if err := m.dispatchReady(ctx, logger); err != nil {
			m.setLastError(err)
			logger.Error("failed to fetch next ready job",
				logging.Error(err),
				logging.String(logging.FieldEventType, "dispatch_failed"),
			)
			m.waitForRetry(ctx)
			continue
		}

		m.waitForWork(ctx)
	}
}

// dispatchReady claims and launches every ready job a concurrency slot is
// available for. It returns once the queue is drained or all slots are busy.
func (m *Manager) dispatchReady(ctx context.Context, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		job, err := m.store.NextReady(ctx)
		if err != nil {
			return err
		}
		if job == nil {
			return nil
		}

		m.mu.RLock()
		ph, ok := m.phaseByStart[job.Status]
		m.mu.RUnlock()
		if !ok {
			logger.Warn("no phase configured for ready status",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.String("status", string(job.Status)),
			)
			return nil
		}

		if !m.sem.TryAcquire(1) {
			return nil
		}

		claimTo := ph.claimStatus(job)
		claimed, err := m.store.TryClaim(ctx, job.ID, ph.start, claimTo)
		if err != nil {
			m.sem.Release(1)
			return err
		}
		if !claimed {
			m.sem.Release(1)
			continue
		}

		job.Status = claimTo
		job.RunRequested = false
		now := time.Now().UTC()
		job.LastHeartbeat = &now

		jobCtx, cancelJob := context.WithCancel(ctx)
		m.registerActive(job.ID, cancelJob)

		m.wg.Add(1)
		go func(job *jobs.Job, ph phase) {
			defer m.wg.Done()
			defer m.sem.Release(1)
			defer cancelJob()
			defer m.deregisterActive(job.ID)
			m.runPhase(jobCtx, ph, job)
			m.Poke()
		}(job, ph)
	}
}

func (m *Manager) waitForWork(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.poke:
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) waitForRetry(ctx context.Context) {
	retry := time.Duration(m.cfg.Workflow.ErrorRetryInterval) * time.Second
	if retry <= 0 {
		retry = m.pollInterval
	}
	select {
	case <-ctx.Done():
	case <-time.After(retry):
	}
}
