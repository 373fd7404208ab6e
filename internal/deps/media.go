package deps

import (
	"strings"

	"subburn/internal/config"
)

// MediaRequirements lists the ffmpeg tooling the extraction and render
// stages execute, resolved from the configured binary paths.
func MediaRequirements(cfg *config.Config) []Requirement {
	ffmpeg := "ffmpeg"
	ffprobe := "ffprobe"
	if cfg != nil {
		if bin := strings.TrimSpace(cfg.FFmpeg.FFmpegBinary); bin != "" {
			ffmpeg = bin
		}
		if bin := strings.TrimSpace(cfg.FFmpeg.FFprobeBinary); bin != "" {
			ffprobe = bin
		}
	}
	return []Requirement{
		{
			Name:        "FFmpeg",
			Command:     ffmpeg,
			Description: "Required for audio extraction and subtitle rendering",
		},
		{
			Name:        "FFprobe",
			Command:     ffprobe,
			Description: "Required for media inspection",
		},
	}
}
