// Package extraction implements the first pipeline stage: probing the
// uploaded video and extracting its audio track for transcription.
package extraction
