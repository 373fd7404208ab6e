// Package pipeline coordinates job processing across the registered stage
// handlers. Jobs advance through two phases: upload to transcription review,
// then review to final render. The manager claims ready jobs, bounds
// concurrency, maintains heartbeats while stages run, and records stage
// failures with their classified error kind.
package pipeline
