package dupes

import (
	"strings"

	"shelfkeeper/internal/meta"
	"shelfkeeper/internal/store"
)

// formatPriority orders file formats by preference for keeper selection.
// Anything not listed ranks below mp3.
var formatPriority = map[string]int{
	"opus": 0,
	"m4b":  1,
	"m4a":  2,
	"mp3":  3,
}

const unknownFormatRank = 4

// formatRank returns the keeper priority of a format, lower is better
func formatRank(format string) int {
	format = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	if rank, ok := formatPriority[format]; ok {
		return rank
	}
	return unknownFormatRank
}

// SelectKeeper returns the index of the group member to retain. The
// tie-break chain is applied lexicographically and is identical for hash
// and title mode, so keeper selection is predictable regardless of which
// signal found the group:
//
//  1. a member whose author is not a placeholder
//  2. format priority: opus > m4b > m4a > mp3 > other
//  3. larger file size
//  4. lowest id (always decisive)
func SelectKeeper(members []*store.Book) int {
	if len(members) == 0 {
		return -1
	}

	keeper := 0
	for i := 1; i < len(members); i++ {
		if keeperBefore(members[i], members[keeper]) {
			keeper = i
		}
	}
	return keeper
}

// keeperBefore reports whether a outranks b as the keeper
func keeperBefore(a, b *store.Book) bool {
	aPlaceholder := meta.IsPlaceholderAuthor(a.Author)
	bPlaceholder := meta.IsPlaceholderAuthor(b.Author)
	if aPlaceholder != bPlaceholder {
		return !aPlaceholder
	}

	aRank := formatRank(a.Format)
	bRank := formatRank(b.Format)
	if aRank != bRank {
		return aRank < bRank
	}

	if a.FileSize != b.FileSize {
		return a.FileSize > b.FileSize
	}

	return a.ID < b.ID
}
