package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// wordForms maps full language names that transcription services sometimes
// report in place of a code.
var wordForms = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
	"danish":     "da",
	"norwegian":  "no",
	"finnish":    "fi",
	"turkish":    "tr",
	"ukrainian":  "uk",
	"vietnamese": "vi",
	"thai":       "th",
}

// Normalize canonicalizes a language identifier to its ISO 639-1 base code.
// Accepts 2-letter codes, 3-letter codes, BCP 47 tags ("pt-BR"), and common
// full names ("english"). Returns "" when the input is unrecognizable.
func Normalize(code string) string {
	trimmed := strings.ToLower(strings.TrimSpace(code))
	if trimmed == "" {
		return ""
	}
	if mapped, ok := wordForms[trimmed]; ok {
		return mapped
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

// Equal reports whether two language identifiers name the same base language.
// Unrecognized values only compare equal to themselves verbatim.
func Equal(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
	}
	return na == nb
}

// DisplayName returns the English name of a language for prompts and logs.
// Returns "Unknown" for empty input, or the uppercased input when the code is
// unrecognized.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "Unknown"
	}
	normalized := Normalize(trimmed)
	if normalized == "" {
		return strings.ToUpper(trimmed)
	}
	tag := language.Make(normalized)
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(trimmed)
}

// IsValid reports whether the identifier names a recognizable language.
// Parse is permissive about registered ISO 639-3 subtags, so validity also
// requires the base to carry a two-letter ISO 639-1 code; that is the code
// space the transcription and translation services speak.
func IsValid(code string) bool {
	base := Normalize(code)
	return len(base) == 2
}
