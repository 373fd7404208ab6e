// Package audio picks the audio stream whose dialogue the transcription
// stage should hear. Containers often carry several tracks (dubs,
// commentary, audio description); feeding the wrong one to the transcriber
// produces a transcript in the wrong language or full of narration.
package audio
