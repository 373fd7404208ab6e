package ffmpeg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"subburn/internal/logging"
	"subburn/internal/services"
)

type commandRunner func(ctx context.Context, name string, args ...string) error

// Runner executes ffmpeg operations for the pipeline.
type Runner struct {
	binary string
	logger *slog.Logger
	run    commandRunner
}

// NewRunner constructs an ffmpeg runner. An empty binary falls back to
// "ffmpeg" on PATH.
func NewRunner(binary string, logger *slog.Logger) *Runner {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Runner{
		binary: binary,
		logger: logging.NewComponentLogger(logger, "ffmpeg"),
		run:    defaultCommandRunner,
	}
}

// WithCommandRunner allows injecting a custom command runner for tests.
func (r *Runner) WithCommandRunner(run commandRunner) {
	if r != nil && run != nil {
		r.run = run
	}
}

// ExtractAudio writes a mono 16 kHz PCM WAV of one audio track to
// outputPath. streamIndex is the container-wide index of the track to
// extract; a negative value lets ffmpeg pick its default. The sample layout
// matches what the transcription service expects. A failed run removes any
// partial output.
func (r *Runner) ExtractAudio(ctx context.Context, inputPath, outputPath string, streamIndex int) error {
	if err := checkInput(inputPath); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create audio directory: %w", err)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
	}
	if streamIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", streamIndex))
	}
	args = append(args,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	)
	if r.logger != nil {
		r.logger.Debug("extracting audio",
			logging.String("input", inputPath),
			logging.String("output", outputPath),
		)
	}
	if err := r.run(ctx, r.binary, args...); err != nil {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrExternalTool, "extracting_audio", "ffmpeg extract", "audio extraction failed", err)
	}
	if err := checkOutput(outputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "extracting_audio", "ffmpeg extract", "no audio output produced", err)
	}
	return nil
}

// BurnSubtitles renders the video with the SRT file burned into the picture.
// Video is re-encoded with libx264; the audio stream is copied untouched. A
// failed run removes any partial output.
func (r *Runner) BurnSubtitles(ctx context.Context, inputPath, subtitlePath, outputPath string) error {
	if err := checkInput(inputPath); err != nil {
		return err
	}
	if _, err := os.Stat(subtitlePath); err != nil {
		return services.Wrap(services.ErrValidation, "rendering", "ffmpeg burn", "subtitle file not found", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create render directory: %w", err)
	}
	args := []string{
		"-y", "-hide_banner", "-loglevel", "error",
		"-i", inputPath,
		"-vf", "subtitles=" + escapeFilterPath(subtitlePath),
		"-c:v", "libx264",
		"-c:a", "copy",
		outputPath,
	}
	if r.logger != nil {
		r.logger.Debug("burning subtitles",
			logging.String("input", inputPath),
			logging.String("subtitles", subtitlePath),
			logging.String("output", outputPath),
		)
	}
	if err := r.run(ctx, r.binary, args...); err != nil {
		_ = os.Remove(outputPath)
		return services.Wrap(services.ErrExternalTool, "rendering", "ffmpeg burn", "subtitle render failed", err)
	}
	if err := checkOutput(outputPath); err != nil {
		return services.Wrap(services.ErrExternalTool, "rendering", "ffmpeg burn", "no rendered output produced", err)
	}
	return nil
}

func checkInput(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "media", "ffmpeg", "empty input path", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrValidation, "media", "ffmpeg", "input file not found", err)
	}
	return nil
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		_ = os.Remove(path)
		return fmt.Errorf("output file %s is empty", path)
	}
	return nil
}

// escapeFilterPath escapes characters that the ffmpeg filter parser treats
// specially in the subtitles= argument.
func escapeFilterPath(path string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`:`, `\:`,
		`'`, `\'`,
		`[`, `\[`,
		`]`, `\]`,
		`,`, `\,`,
		`;`, `\;`,
	)
	return replacer.Replace(path)
}

func defaultCommandRunner(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
