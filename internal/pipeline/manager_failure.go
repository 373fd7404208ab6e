package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subburn/internal/jobs"
	"subburn/internal/logging"
	"subburn/internal/services"
)

func (m *Manager) handleStageFailure(ctx context.Context, stageName string, job *jobs.Job, stageErr error) {
	logger := m.stageLogger(ctx, job)

	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = fmt.Sprintf("%s failed without error detail", stageName)
	}
	job.SetFailed(string(details.Kind), message)

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldStage, stageName),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.String("error_message", message),
	}
	if details.Cause != nil {
		attrs = append(attrs, logging.Error(details.Cause))
	}
	logger.Error("stage failed", logging.Args(attrs...)...)

	if err := m.store.Update(ctx, job); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, could not persist stage failure")
		} else {
			logger.Error("failed to persist stage failure", logging.Error(err))
		}
	}
	m.setLastJob(job)
}
