// Package ffmpeg drives the ffmpeg binary for the two media transformations
// the pipeline performs: extracting a mono 16 kHz WAV track for
// transcription, and burning compiled subtitles into the video stream.
package ffmpeg
