package dupes

import "shelfkeeper/internal/store"

// Group is a set of catalog records believed to represent the same work.
// Derived, never persisted.
type Group struct {
	Key       string
	Title     string // set in title mode
	Author    string // set in title mode
	Members   []*store.Book
	KeeperIdx int
}

// Keeper returns the member designated to survive a deletion
func (g *Group) Keeper() *store.Book {
	return g.Members[g.KeeperIdx]
}

// TotalSize returns the combined size of all members in bytes
func (g *Group) TotalSize() int64 {
	var total int64
	for _, m := range g.Members {
		total += m.FileSize
	}
	return total
}

// WastedSpace returns the bytes reclaimable by removing everything but
// the keeper
func (g *Group) WastedSpace() int64 {
	return g.TotalSize() - g.Keeper().FileSize
}

// PotentialSavings returns the bytes reclaimable by keeping only the
// single largest member
func (g *Group) PotentialSavings() int64 {
	var largest int64
	for _, m := range g.Members {
		if m.FileSize > largest {
			largest = m.FileSize
		}
	}
	return g.TotalSize() - largest
}

// TotalWasted sums wasted space across groups
func TotalWasted(groups []*Group) int64 {
	var total int64
	for _, g := range groups {
		total += g.WastedSpace()
	}
	return total
}
