// Package translate converts transcript segment text between languages using
// an OpenAI-compatible chat completions API. Segments are translated in
// indexed batches so the cue count and ordering survive the round trip.
package translate
