package subtitle

import (
	"strings"

	"subburn/internal/transcript"
)

const (
	// minCueSeconds is the shortest display time a cue gets when there is
	// room before the next one.
	minCueSeconds = 1.0
	// cueGapSeconds separates adjacent cues after overlap trimming.
	cueGapSeconds = 0.05
)

// Condition prepares segments for display: empty-text segments are dropped,
// overlapping cues are trimmed so each ends before the next begins, and very
// short cues are extended toward minCueSeconds when the following cue leaves
// room. Returns a new transcript; the input is not modified.
func Condition(t *transcript.Transcript) *transcript.Transcript {
	out := &transcript.Transcript{DetectedLanguage: t.DetectedLanguage}
	for _, seg := range t.Segments {
		if strings.TrimSpace(seg.Text) == "" {
			continue
		}
		seg.Text = strings.TrimSpace(seg.Text)
		out.Segments = append(out.Segments, seg)
	}
	for i := range out.Segments {
		seg := &out.Segments[i]
		var nextStart float64
		if i+1 < len(out.Segments) {
			nextStart = out.Segments[i+1].Start
		}
		if nextStart > 0 && seg.End > nextStart {
			seg.End = nextStart - cueGapSeconds
		}
		if seg.Duration() < minCueSeconds {
			extended := seg.Start + minCueSeconds
			if nextStart == 0 || extended <= nextStart {
				seg.End = extended
			}
		}
		if seg.End <= seg.Start {
			seg.End = seg.Start + cueGapSeconds
		}
	}
	return out
}
