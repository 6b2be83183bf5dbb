package dupes

import (
	"testing"

	"shelfkeeper/internal/store"
)

func TestDurationBucket(t *testing.T) {
	tests := []struct {
		hours    float64
		expected int
	}{
		{0, 0},
		{8.0, 80},
		{8.04, 80},
		{8.05, 81},
		{7.96, 80},
		{12.34, 123},
	}

	for _, tt := range tests {
		if result := DurationBucket(tt.hours); result != tt.expected {
			t.Errorf("DurationBucket(%v) = %d, expected %d", tt.hours, result, tt.expected)
		}
	}
}

func TestGroupByHash(t *testing.T) {
	books := []*store.Book{
		{ID: 1, Title: "Dune", ContentHash: "aaa", FileSize: 100},
		{ID: 2, Title: "Dune", ContentHash: "aaa", FileSize: 200},
		{ID: 3, Title: "Hobbit", ContentHash: "bbb", FileSize: 300},
		{ID: 4, Title: "No Hash", ContentHash: "", FileSize: 400},
		{ID: 5, Title: "Dune copy", ContentHash: "aaa", FileSize: 150},
	}

	groups := GroupByHash(books)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	group := groups[0]
	if group.Key != "aaa" {
		t.Errorf("group key = %q, expected %q", group.Key, "aaa")
	}
	if len(group.Members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(group.Members))
	}

	// Members ordered by id ascending
	for i, expectedID := range []int64{1, 2, 5} {
		if group.Members[i].ID != expectedID {
			t.Errorf("member[%d].ID = %d, expected %d", i, group.Members[i].ID, expectedID)
		}
	}
}

func TestGroupByHashSingletonsExcluded(t *testing.T) {
	books := []*store.Book{
		{ID: 1, ContentHash: "aaa"},
		{ID: 2, ContentHash: "bbb"},
	}

	if groups := GroupByHash(books); len(groups) != 0 {
		t.Errorf("expected no groups for unique hashes, got %d", len(groups))
	}
}

func TestGroupByTitle(t *testing.T) {
	books := []*store.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", DurationHours: 21.0, FileSize: 100},
		{ID: 2, Title: "Dune (Unabridged)", Author: "Frank Herbert", DurationHours: 21.02, FileSize: 200},
		{ID: 3, Title: "Dune", Author: "Brian Herbert", DurationHours: 21.0, FileSize: 300},
		{ID: 4, Title: "The Hobbit", Author: "J.R.R. Tolkien", DurationHours: 11.0, FileSize: 400},
	}

	groups := GroupByTitle(books)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}

	group := groups[0]
	if len(group.Members) != 2 {
		t.Fatalf("expected 2 members, got %d", len(group.Members))
	}
	if group.Members[0].ID != 1 || group.Members[1].ID != 2 {
		t.Errorf("unexpected member ids: %d, %d", group.Members[0].ID, group.Members[1].ID)
	}
	if group.Title != "dune" {
		t.Errorf("group title = %q, expected %q", group.Title, "dune")
	}
	if group.Author != "frank herbert" {
		t.Errorf("group author = %q, expected %q", group.Author, "frank herbert")
	}
}

func TestGroupByTitleDurationSeparates(t *testing.T) {
	// Same title and author, but durations two buckets apart: different works
	books := []*store.Book{
		{ID: 1, Title: "Collected Stories", Author: "Ray Bradbury", DurationHours: 8.0},
		{ID: 2, Title: "Collected Stories", Author: "Ray Bradbury", DurationHours: 12.0},
	}

	if groups := GroupByTitle(books); len(groups) != 0 {
		t.Errorf("expected no groups across duration buckets, got %d", len(groups))
	}
}

func TestGroupByTitlePlaceholderFolding(t *testing.T) {
	books := []*store.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", DurationHours: 21.0},
		{ID: 2, Title: "Dune", Author: "audiobook", DurationHours: 21.0},
		{ID: 3, Title: "Dune", Author: "unknown author", DurationHours: 21.04},
	}

	groups := GroupByTitle(books)

	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if len(groups[0].Members) != 3 {
		t.Fatalf("expected placeholders folded into real-author group, got %d members", len(groups[0].Members))
	}

	// The real-author member must be the keeper
	if keeper := groups[0].Keeper(); keeper.ID != 1 {
		t.Errorf("keeper id = %d, expected 1", keeper.ID)
	}
}

func TestGroupByTitlePlaceholdersNeverAnchor(t *testing.T) {
	// Two placeholder-authored copies of the same title with no real-author
	// record: no group may form
	books := []*store.Book{
		{ID: 1, Title: "Dune", Author: "audiobook", DurationHours: 21.0},
		{ID: 2, Title: "Dune", Author: "unknown author", DurationHours: 21.0},
	}

	if groups := GroupByTitle(books); len(groups) != 0 {
		t.Errorf("expected no placeholder-only groups, got %d", len(groups))
	}
}

func TestGroupByTitleFoldAnchorDeterministic(t *testing.T) {
	// Two real authors share title and bucket; the placeholder folds into
	// the lexicographically smallest author
	books := []*store.Book{
		{ID: 1, Title: "Dune", Author: "Zed Zed", DurationHours: 21.0},
		{ID: 2, Title: "Dune", Author: "Ann Author", DurationHours: 21.0},
		{ID: 3, Title: "Dune", Author: "audiobook", DurationHours: 21.0},
		{ID: 4, Title: "Dune", Author: "Ann Author", DurationHours: 21.0},
	}

	groups := GroupByTitle(books)

	var annGroup *Group
	for _, g := range groups {
		if g.Author == "ann author" {
			annGroup = g
		}
	}
	if annGroup == nil {
		t.Fatal("no group anchored on ann author")
	}
	if len(annGroup.Members) != 3 {
		t.Errorf("expected placeholder folded into smallest author, got %d members", len(annGroup.Members))
	}
}

func TestGroupSortOrder(t *testing.T) {
	books := []*store.Book{
		{ID: 1, ContentHash: "zzz"},
		{ID: 2, ContentHash: "zzz"},
		{ID: 3, ContentHash: "aaa"},
		{ID: 4, ContentHash: "aaa"},
		{ID: 5, ContentHash: "aaa"},
	}

	groups := GroupByHash(books)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Key != "aaa" {
		t.Errorf("largest group first: got key %q", groups[0].Key)
	}
	if groups[1].Key != "zzz" {
		t.Errorf("second group key = %q, expected %q", groups[1].Key, "zzz")
	}
}
