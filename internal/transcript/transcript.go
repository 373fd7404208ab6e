package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"subburn/internal/services"
)

// Segment is a single timed span of speech. Start and End are seconds from
// the beginning of the media.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the span length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Transcript is the ordered segment list for one job, along with the language
// the transcription service detected.
type Transcript struct {
	DetectedLanguage string    `json:"detected_language,omitempty"`
	Segments         []Segment `json:"segments"`
}

// Validate checks segment timing: every segment must have End > Start and the
// list must be ordered by start time.
func (t *Transcript) Validate() error {
	for i, seg := range t.Segments {
		if seg.End <= seg.Start {
			return services.Wrap(services.ErrValidation, "transcript", "validate",
				fmt.Sprintf("segment %d ends at %.3f before it starts at %.3f", i+1, seg.End, seg.Start), nil)
		}
		if i > 0 && seg.Start < t.Segments[i-1].Start {
			return services.Wrap(services.ErrValidation, "transcript", "validate",
				fmt.Sprintf("segment %d starts before segment %d", i+1, i), nil)
		}
	}
	return nil
}

// ApplyTextEdits replaces segment text in order while preserving timings. The
// edit list must carry exactly one entry per segment; a count mismatch is a
// validation error and leaves the transcript untouched.
func (t *Transcript) ApplyTextEdits(texts []string) error {
	if len(texts) != len(t.Segments) {
		return services.Wrap(services.ErrValidation, "transcript", "apply edits",
			fmt.Sprintf("received %d segment texts for %d segments", len(texts), len(t.Segments)), nil)
	}
	for i, text := range texts {
		t.Segments[i].Text = strings.TrimSpace(text)
	}
	return nil
}

// Texts returns the segment texts in order.
func (t *Transcript) Texts() []string {
	out := make([]string, len(t.Segments))
	for i, seg := range t.Segments {
		out[i] = seg.Text
	}
	return out
}

// WithTexts returns a copy of the transcript whose segment texts are replaced
// in order. Timings are preserved. The count must match.
func (t *Transcript) WithTexts(texts []string) (*Transcript, error) {
	if len(texts) != len(t.Segments) {
		return nil, services.Wrap(services.ErrValidation, "transcript", "replace texts",
			fmt.Sprintf("received %d segment texts for %d segments", len(texts), len(t.Segments)), nil)
	}
	clone := &Transcript{
		DetectedLanguage: t.DetectedLanguage,
		Segments:         make([]Segment, len(t.Segments)),
	}
	copy(clone.Segments, t.Segments)
	for i, text := range texts {
		clone.Segments[i].Text = strings.TrimSpace(text)
	}
	return clone, nil
}

// Save writes the transcript as indented JSON, creating parent directories as
// needed.
func (t *Transcript) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create transcript directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Load reads a transcript previously written by Save.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &t, nil
}
