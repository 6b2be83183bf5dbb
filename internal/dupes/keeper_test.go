package dupes

import (
	"testing"

	"shelfkeeper/internal/store"
)

func TestFormatRank(t *testing.T) {
	tests := []struct {
		format   string
		expected int
	}{
		{"opus", 0},
		{".opus", 0},
		{"OPUS", 0},
		{"m4b", 1},
		{"m4a", 2},
		{"mp3", 3},
		{"flac", 4},
		{"ogg", 4},
		{"", 4},
	}

	for _, tt := range tests {
		if result := formatRank(tt.format); result != tt.expected {
			t.Errorf("formatRank(%q) = %d, expected %d", tt.format, result, tt.expected)
		}
	}
}

func TestSelectKeeper(t *testing.T) {
	tests := []struct {
		name     string
		members  []*store.Book
		expected int
	}{
		{
			name:     "empty",
			members:  nil,
			expected: -1,
		},
		{
			name: "real author beats placeholder regardless of format and size",
			members: []*store.Book{
				{ID: 1, Author: "audiobook", Format: "opus", FileSize: 900},
				{ID: 2, Author: "Frank Herbert", Format: "mp3", FileSize: 100},
			},
			expected: 1,
		},
		{
			name: "format priority beats size",
			members: []*store.Book{
				{ID: 1, Author: "Frank Herbert", Format: "mp3", FileSize: 900},
				{ID: 2, Author: "Frank Herbert", Format: "m4b", FileSize: 100},
			},
			expected: 1,
		},
		{
			name: "opus outranks m4b",
			members: []*store.Book{
				{ID: 1, Author: "Frank Herbert", Format: "m4b", FileSize: 500},
				{ID: 2, Author: "Frank Herbert", Format: "opus", FileSize: 500},
			},
			expected: 1,
		},
		{
			name: "larger size wins within a format",
			members: []*store.Book{
				{ID: 1, Author: "Frank Herbert", Format: "m4b", FileSize: 100},
				{ID: 2, Author: "Frank Herbert", Format: "m4b", FileSize: 900},
			},
			expected: 1,
		},
		{
			name: "lowest id decides full ties",
			members: []*store.Book{
				{ID: 7, Author: "Frank Herbert", Format: "m4b", FileSize: 500},
				{ID: 3, Author: "Frank Herbert", Format: "m4b", FileSize: 500},
				{ID: 9, Author: "Frank Herbert", Format: "m4b", FileSize: 500},
			},
			expected: 1,
		},
		{
			name: "all placeholders falls through to format",
			members: []*store.Book{
				{ID: 1, Author: "audiobook", Format: "mp3", FileSize: 500},
				{ID: 2, Author: "unknown author", Format: "m4a", FileSize: 500},
			},
			expected: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SelectKeeper(tt.members)
			if result != tt.expected {
				t.Errorf("SelectKeeper() = %d, expected %d", result, tt.expected)
			}
		})
	}
}

func TestSelectKeeperDeterministic(t *testing.T) {
	members := []*store.Book{
		{ID: 1, Author: "Frank Herbert", Format: "mp3", FileSize: 300},
		{ID: 2, Author: "audiobook", Format: "opus", FileSize: 900},
		{ID: 3, Author: "Frank Herbert", Format: "m4b", FileSize: 300},
	}

	first := SelectKeeper(members)
	for i := 0; i < 10; i++ {
		if result := SelectKeeper(members); result != first {
			t.Fatalf("SelectKeeper changed across calls: %d then %d", first, result)
		}
	}
	if first != 2 {
		t.Errorf("SelectKeeper() = %d, expected 2 (real author, best format)", first)
	}
}
