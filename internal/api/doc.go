// Package api implements the control surface behind the daemon's HTTP
// handlers. JobService validates uploads, starts and continues jobs, exposes
// status and transcript snapshots, and serves the rendered result. DTOs use
// camelCase JSON tags; internal enums are exposed as lowercase strings.
package api
