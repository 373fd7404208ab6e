package subtitle

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"subburn/internal/services"
	"subburn/internal/transcript"
)

// Compile renders the transcript as SRT text. Output is deterministic: the
// same segments always produce byte-identical output. Segments must be
// ordered with End > Start; violations are validation errors.
func Compile(t *transcript.Transcript) (string, error) {
	if len(t.Segments) == 0 {
		return "", services.Wrap(services.ErrValidation, "subtitle", "compile", "transcript has no segments", nil)
	}
	var b strings.Builder
	for i, seg := range t.Segments {
		if seg.End <= seg.Start {
			return "", services.Wrap(services.ErrValidation, "subtitle", "compile",
				fmt.Sprintf("segment %d ends at %.3f before it starts at %.3f", i+1, seg.End, seg.Start), nil)
		}
		if i > 0 && seg.Start < t.Segments[i-1].Start {
			return "", services.Wrap(services.ErrValidation, "subtitle", "compile",
				fmt.Sprintf("segment %d starts before segment %d", i+1, i), nil)
		}
		fmt.Fprintf(&b, "%d\n", i+1)
		fmt.Fprintf(&b, "%s --> %s\n", FormatTimestamp(seg.Start), FormatTimestamp(seg.End))
		b.WriteString(strings.TrimSpace(seg.Text))
		b.WriteString("\n\n")
	}
	return b.String(), nil
}

// WriteFile compiles the transcript and writes it to path, creating parent
// directories as needed.
func WriteFile(path string, t *transcript.Transcript) error {
	content, err := Compile(t)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create subtitle directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}
	return nil
}

// FormatTimestamp renders seconds as an SRT timestamp (HH:MM:SS,mmm).
// Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	millis := int64(math.Round(seconds * 1000))
	hours := millis / 3_600_000
	millis -= hours * 3_600_000
	minutes := millis / 60_000
	millis -= minutes * 60_000
	secs := millis / 1000
	millis -= secs * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp converts an SRT timestamp back to seconds. A period is
// accepted in place of the standard comma.
func ParseTimestamp(value string) (float64, error) {
	value = strings.ReplaceAll(strings.TrimSpace(value), ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}

// CountCues returns the number of cue blocks in an SRT file.
func CountCues(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read srt: %w", err)
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, nil
	}
	count := 0
	for _, block := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count, nil
}
