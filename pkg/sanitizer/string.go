package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims the string and collapses internal whitespace runs
// into single spaces. Control characters are dropped.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		case unicode.IsControl(r):
			// dropped
		default:
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return strings.TrimSpace(result.String())
}

// NormalizeName normalizes a patient or staff display name.
func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeLabel normalizes a booking label shown on calendar cells.
func NormalizeLabel(label string) string {
	return TrimAndNormalize(label)
}

// NormalizeNotes normalizes free-form operator notes.
func NormalizeNotes(notes string) string {
	return TrimAndNormalize(notes)
}
