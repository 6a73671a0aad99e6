// Package textutil provides transcript and label normalization shared by
// deduplication and planning.
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeTranscript canonicalizes a transcript for comparison: Unicode
// NFC, half/full-width folding, and whitespace collapsing. Datasets mix
// full-width and half-width variants of the same Japanese text, so byte
// comparison alone misses equal transcripts.
func NormalizeTranscript(text string) string {
	folded := width.Fold.String(norm.NFC.String(text))
	fields := strings.Fields(folded)
	return strings.Join(fields, " ")
}

// SanitizeLabel reduces an emotion label to a filesystem-safe folder name.
// Runs outside [A-Za-z0-9 _-] are dropped and surrounding whitespace is
// trimmed. An empty result means the label is unusable as a folder.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '_' || r == '-':
			b.WriteRune(r)
		default:
			// drop other runes
		}
	}
	return strings.TrimSpace(b.String())
}

// SlugLabel converts a label to a lowercase hyphenated slug for use in
// generated filenames.
func SlugLabel(label string) string {
	sanitized := strings.ToLower(SanitizeLabel(label))
	var b strings.Builder
	lastHyphen := false
	for _, r := range sanitized {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
