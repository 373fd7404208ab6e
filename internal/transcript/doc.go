// Package transcript models timed transcription segments produced by the
// speech-to-text service and edited during human review.
package transcript
