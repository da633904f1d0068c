package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	millisecondUnits = regexp.MustCompile(`\b(?:msecs?|milliseconds?)\b`)
	secondUnits      = regexp.MustCompile(`\b(?:secs?|seconds)\b`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
)

// Normalize prepares raw requirement text for pattern matching: width
// folding (NFKC), Unicode lowercase, unit unification and whitespace
// collapse. Offsets reported by later stages index into its output.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := norm.NFKC.String(raw)

	// cases.Caser keeps state between calls and must not be shared across goroutines
	text = cases.Lower(language.Und).String(text)

	text = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(text)
	text = millisecondUnits.ReplaceAllString(text, "ms")
	text = secondUnits.ReplaceAllString(text, "s")
	text = whitespaceRun.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
