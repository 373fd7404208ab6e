// Package logging provides the slog-based logger construction and the
// standardized attribute helpers used across the daemon.
//
// Two output formats are supported: a human-oriented console format and
// machine-readable JSON. Both honor the configured level and can fan out to
// stdout/stderr plus a log file under the configured log directory.
//
// Field name constants keep structured keys (job_id, stage, component,
// correlation_id) consistent between the pipeline manager, stage handlers,
// and the API server.
package logging
