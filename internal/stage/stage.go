// Package stage defines the contract between the pipeline manager and the
// phase handlers it orchestrates.
package stage

import (
	"context"

	"subburn/internal/jobs"
)

// Handler describes the contract the pipeline manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *jobs.Job) error
	Execute(context.Context, *jobs.Job) error
	HealthCheck(context.Context) Health
}
