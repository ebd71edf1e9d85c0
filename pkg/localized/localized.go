package localized

import (
	"strings"

	"golang.org/x/text/language"
)

type Locale string

const (
	English Locale = "en"
	Hindi   Locale = "hi"

	DefaultLocale = English
)

// Text is a bilingual string as returned by the backend.
type Text struct {
	En string `json:"en"`
	Hi string `json:"hi,omitempty"`
}

// Get returns the text for locale, falling back to English when the
// locale is unknown or has no value.
func (t Text) Get(locale Locale) string {
	if locale == Hindi && t.Hi != "" {
		return t.Hi
	}
	return t.En
}

func (t Text) IsZero() bool {
	return t.En == "" && t.Hi == ""
}

// supported is ordered like the Locale values returned for each index.
var (
	supported = []Locale{English, Hindi}
	matcher   = language.NewMatcher([]language.Tag{language.English, language.Hindi})
)

// ParseLocale accepts a bare tag ("hi"), a region tag ("hi-IN") or an
// Accept-Language list and returns the best supported locale by q-weight.
// Entries weighted q=0 are never chosen.
func ParseLocale(raw string) Locale {
	tags, _, err := language.ParseAcceptLanguage(strings.ReplaceAll(raw, "_", "-"))
	if err != nil || len(tags) == 0 {
		return DefaultLocale
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLocale
	}
	return supported[idx]
}
