package dupes

import (
	"testing"

	"shelfkeeper/internal/store"
)

func TestGroupSpaceAccounting(t *testing.T) {
	group := newGroup("k", []*store.Book{
		{ID: 1, Author: "A", Format: "mp3", FileSize: 100},
		{ID: 2, Author: "A", Format: "m4b", FileSize: 300},
		{ID: 3, Author: "A", Format: "mp3", FileSize: 500},
	})

	if got := group.TotalSize(); got != 900 {
		t.Errorf("TotalSize() = %d, expected 900", got)
	}

	// Keeper is the m4b (format priority beats size)
	if keeper := group.Keeper(); keeper.ID != 2 {
		t.Fatalf("keeper id = %d, expected 2", keeper.ID)
	}
	if got := group.WastedSpace(); got != 600 {
		t.Errorf("WastedSpace() = %d, expected 600", got)
	}

	// PotentialSavings keeps the largest member instead
	if got := group.PotentialSavings(); got != 400 {
		t.Errorf("PotentialSavings() = %d, expected 400", got)
	}
}

func TestTotalWasted(t *testing.T) {
	groups := []*Group{
		newGroup("a", []*store.Book{
			{ID: 1, Author: "A", Format: "mp3", FileSize: 100},
			{ID: 2, Author: "A", Format: "mp3", FileSize: 100},
		}),
		newGroup("b", []*store.Book{
			{ID: 3, Author: "A", Format: "mp3", FileSize: 200},
			{ID: 4, Author: "A", Format: "mp3", FileSize: 300},
		}),
	}

	if got := TotalWasted(groups); got != 300 {
		t.Errorf("TotalWasted() = %d, expected 300", got)
	}
}
