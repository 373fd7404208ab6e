package transcript

import (
	"errors"
	"path/filepath"
	"testing"

	"subburn/internal/services"
)

func sample() *Transcript {
	return &Transcript{
		DetectedLanguage: "en",
		Segments: []Segment{
			{Start: 0.0, End: 1.5, Text: "Hello there."},
			{Start: 1.5, End: 3.2, Text: "How are you?"},
			{Start: 3.4, End: 5.0, Text: "Fine, thanks."},
		},
	}
}

func TestValidate(t *testing.T) {
	tr := sample()
	if err := tr.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}

	inverted := sample()
	inverted.Segments[1].End = inverted.Segments[1].Start
	if err := inverted.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Validate() with zero-length segment = %v, want validation error", err)
	}

	unordered := sample()
	unordered.Segments[2].Start = 0.5
	if err := unordered.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("Validate() with unordered segments = %v, want validation error", err)
	}
}

func TestApplyTextEdits(t *testing.T) {
	tr := sample()
	if err := tr.ApplyTextEdits([]string{"One", " Two ", "Three"}); err != nil {
		t.Fatalf("ApplyTextEdits() = %v, want nil", err)
	}
	if tr.Segments[1].Text != "Two" {
		t.Fatalf("segment text = %q, want %q", tr.Segments[1].Text, "Two")
	}
	if tr.Segments[1].Start != 1.5 || tr.Segments[1].End != 3.2 {
		t.Fatal("ApplyTextEdits modified segment timings")
	}
}

func TestApplyTextEditsCountMismatch(t *testing.T) {
	tr := sample()
	err := tr.ApplyTextEdits([]string{"only one"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("ApplyTextEdits() = %v, want validation error", err)
	}
	if tr.Segments[0].Text != "Hello there." {
		t.Fatal("failed edit must leave transcript untouched")
	}
}

func TestWithTexts(t *testing.T) {
	tr := sample()
	translated, err := tr.WithTexts([]string{"Uno", "Dos", "Tres"})
	if err != nil {
		t.Fatalf("WithTexts() = %v, want nil", err)
	}
	if translated.Segments[0].Text != "Uno" {
		t.Fatalf("translated text = %q, want %q", translated.Segments[0].Text, "Uno")
	}
	if tr.Segments[0].Text != "Hello there." {
		t.Fatal("WithTexts must not mutate the original")
	}
	if _, err := tr.WithTexts([]string{"short"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("WithTexts() mismatch = %v, want validation error", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transcript.json")
	tr := sample()
	if err := tr.Save(path); err != nil {
		t.Fatalf("Save() = %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if loaded.DetectedLanguage != "en" || len(loaded.Segments) != 3 {
		t.Fatalf("unexpected loaded transcript: %+v", loaded)
	}
	if loaded.Segments[2].Text != "Fine, thanks." {
		t.Fatalf("loaded text = %q", loaded.Segments[2].Text)
	}
}
