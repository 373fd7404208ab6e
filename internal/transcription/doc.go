// Package transcription implements the pipeline stage that turns extracted
// audio into a timed transcript and pauses the job for human review.
package transcription
