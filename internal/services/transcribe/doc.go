// Package transcribe produces timed transcripts from extracted audio using a
// Whisper-compatible speech-to-text HTTP API.
package transcribe
