package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun    = regexp.MustCompile(`\s+`)
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
	underscores = regexp.MustCompile(`_+`)
)

// StripDiacritics decomposes s (NFD) and drops the combining marks: "Éloïse" -> "Eloise".
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeLabel is the comparison form used by searches: lower-cased, no diacritics.
func NormalizeLabel(s string) string {
	return StripDiacritics(strings.ToLower(s))
}

// SanitizeFilename turns a client name into something safe for a file name.
// "Jean-François Dupont" -> "Jean-Francois_Dupont".
func SanitizeFilename(name string) string {
	s := StripDiacritics(strings.TrimSpace(name))
	s = spaceRun.ReplaceAllString(s, "_")
	s = unsafeChars.ReplaceAllString(s, "_")
	s = underscores.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if s == "" {
		return "Client"
	}
	return s
}
