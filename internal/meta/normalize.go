package meta

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// editionMarkers is the fixed vocabulary of edition/version annotations.
// A title carrying one of these is potentially an alternate edition of the
// same work rather than an accidental duplicate.
var editionMarkers = []string{
	"edition",
	"anniversary",
	"revised",
	"unabridged",
	"abridged",
	"complete",
	"expanded",
	"deluxe",
	"special",
	"collectors",
	"annotated",
	"illustrated",
}

var (
	// Parenthetical or bracketed segment containing an edition marker,
	// e.g. "(Unabridged)", "[25th Anniversary Edition]"
	parenMarkerRe = regexp.MustCompile(`(?i)\s*[(\[][^)\]]*(edition|anniversary|revised|unabridged|abridged|complete|expanded|deluxe|special|collectors|annotated|illustrated)[^)\]]*[)\]]`)

	// Year-in-parentheses suffix, e.g. "(1965)"
	parenYearRe = regexp.MustCompile(`\s*\((19|20)\d{2}\)\s*$`)

	// Bare ordinal token, e.g. "25th", "1st", "3rd"
	ordinalRe = regexp.MustCompile(`^\d+(st|nd|rd|th)$`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeTitle canonicalizes an audiobook title for cross-edition
// matching: lowercase, trimmed, edition/anniversary/abridgement
// annotations stripped, year suffix removed, punctuation collapsed.
// Idempotent: NormalizeTitle(NormalizeTitle(x)) == NormalizeTitle(x).
// Empty input yields an empty string, never an error.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	// Unicode NFC normalization
	title = norm.NFC.String(title)

	// Lowercase + trim
	title = strings.ToLower(strings.TrimSpace(title))

	// Strip edition/anniversary parentheticals and year suffix
	title = parenMarkerRe.ReplaceAllString(title, "")
	title = parenYearRe.ReplaceAllString(title, "")

	// Collapse punctuation that varies between editions
	title = strings.ReplaceAll(title, ":", " ")
	title = strings.ReplaceAll(title, "-", " ")
	title = collapseWhitespace(title)

	// Strip trailing edition annotations token by token:
	// "dune 25th anniversary edition" -> "dune"
	title = stripTrailingMarkers(title)

	return title
}

// stripTrailingMarkers removes trailing edition-marker tokens (and their
// ordinal qualifiers) until the title ends in a regular word. Operating on
// tokens keeps the function a fixpoint, which NormalizeTitle relies on for
// idempotence.
func stripTrailingMarkers(title string) string {
	words := strings.Fields(title)
	for len(words) > 1 {
		last := words[len(words)-1]
		if isEditionMarker(last) || ordinalRe.MatchString(last) {
			words = words[:len(words)-1]
			continue
		}
		break
	}
	return strings.Join(words, " ")
}

func isEditionMarker(word string) bool {
	for _, marker := range editionMarkers {
		if word == marker {
			return true
		}
	}
	return false
}

// HasEditionMarker reports whether a title contains any annotation from the
// fixed edition vocabulary. Used to decide whether near-duplicate titles
// represent true alternate editions rather than accidental duplicates.
func HasEditionMarker(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range editionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// NormalizeAuthor normalizes an author name for comparison
func NormalizeAuthor(author string) string {
	if author == "" {
		return ""
	}

	author = norm.NFC.String(author)
	author = strings.ToLower(strings.TrimSpace(author))
	author = collapseWhitespace(author)

	return author
}

// IsPlaceholderAuthor reports whether an author value is one of the
// placeholder strings the import pipeline writes when the real author is
// unknown. Placeholder-authored records never anchor a title-mode duplicate
// group and lose keeper tie-breaks.
func IsPlaceholderAuthor(author string) bool {
	switch NormalizeAuthor(author) {
	case "", "audiobook", "unknown author":
		return true
	}
	return false
}

// collapseWhitespace replaces runs of whitespace with a single space
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
