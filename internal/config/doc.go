// Package config loads, validates, and normalizes daemon configuration.
//
// Configuration lives in a TOML file (default ~/.config/subburn/config.toml)
// with sections per subsystem:
//   - paths: upload/work/log directories and the API bind address
//   - uploads: accepted size limit for incoming videos
//   - ffmpeg: binaries and timeouts for extraction, probing, and rendering
//   - transcriber: speech-to-text service endpoint and model
//   - translator: translation service endpoint, model, and batching
//   - workflow: pipeline polling, heartbeat, and concurrency settings
//   - logging: output format and level
//
// Load applies defaults, expands ~ in path fields, and validates the result
// so the rest of the daemon can trust every field.
package config
