// Package jobs persists subtitle pipeline jobs in SQLite and owns the job
// lifecycle: the status machine, run requests, progress tracking, and
// heartbeat-based recovery of jobs orphaned by a crash.
package jobs
