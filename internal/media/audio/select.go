package audio

import (
	"strconv"
	"strings"

	"subburn/internal/media/ffprobe"
)

// Selection identifies the audio stream to extract for transcription.
type Selection struct {
	Stream ffprobe.Stream
	// Index is the container-wide stream index, or -1 when the file has no
	// audio at all.
	Index int
}

// Label returns a human-readable summary of the selected stream.
func (s Selection) Label() string {
	if s.Index < 0 {
		return ""
	}
	parts := make([]string, 0, 3)
	if lang := streamLanguage(s.Stream); lang != "" {
		parts = append(parts, lang)
	}
	if s.Stream.CodecName != "" {
		parts = append(parts, s.Stream.CodecName)
	}
	if channels := channelCount(s.Stream); channels > 0 {
		parts = append(parts, strconv.Itoa(channels)+"ch")
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}

// Select ranks the container's audio streams and returns the best dialogue
// candidate. Streams tagged with languageHint win, then default-flagged
// streams, then higher channel counts; commentary and description tracks
// are pushed to the back. An empty languageHint skips the language
// preference.
func Select(streams []ffprobe.Stream, languageHint string) Selection {
	languageHint = strings.ToLower(strings.TrimSpace(languageHint))

	best := Selection{Index: -1}
	bestScore := 0.0
	order := 0
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score := scoreStream(stream, languageHint, order)
		if best.Index < 0 || score > bestScore {
			best = Selection{Stream: stream, Index: stream.Index}
			bestScore = score
		}
		order++
	}
	return best
}

func scoreStream(stream ffprobe.Stream, languageHint string, order int) float64 {
	score := 0.0

	if languageHint != "" && strings.HasPrefix(streamLanguage(stream), languageHint) {
		score += 1000
	}
	if stream.Disposition != nil && stream.Disposition["default"] == 1 {
		score += 100
	}

	channels := channelCount(stream)
	if channels > 8 {
		channels = 8
	}
	score += float64(channels) * 10

	if isSideTrack(stream) {
		score -= 500
	}

	// Prefer earlier tracks when scores tie.
	score -= float64(order) * 0.1
	return score
}

func streamLanguage(stream ffprobe.Stream) string {
	if len(stream.Tags) == 0 {
		return ""
	}
	for _, key := range []string{"language", "LANGUAGE", "Language", "language_ietf"} {
		if value, ok := stream.Tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

func channelCount(stream ffprobe.Stream) int {
	if stream.Channels > 0 {
		return stream.Channels
	}
	layout := strings.ToLower(strings.TrimSpace(stream.ChannelLayout))
	switch {
	case strings.HasPrefix(layout, "7.1"):
		return 8
	case strings.HasPrefix(layout, "5.1"):
		return 6
	case strings.HasPrefix(layout, "stereo"), strings.HasPrefix(layout, "2.0"):
		return 2
	case strings.HasPrefix(layout, "mono"), strings.HasPrefix(layout, "1.0"):
		return 1
	}
	return 0
}

// isSideTrack detects commentary and audio-description tracks by their
// disposition flags and title tags.
func isSideTrack(stream ffprobe.Stream) bool {
	if stream.Disposition != nil {
		if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
			return true
		}
	}
	if len(stream.Tags) == 0 {
		return false
	}
	title := strings.ToLower(stream.Tags["title"])
	if title == "" {
		title = strings.ToLower(stream.Tags["TITLE"])
	}
	for _, keyword := range []string{"commentary", "description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}
