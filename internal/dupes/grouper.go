// Package dupes implements duplicate detection and safe deletion for the
// audiobook catalog. Groups are discovered from three independent signals:
// stored content hashes, normalized title/author/duration, and the
// filesystem checksum index. Deletion is planned so that no operation can
// remove the last surviving copy of a work.
package dupes

import (
	"fmt"
	"math"
	"sort"

	"shelfkeeper/internal/meta"
	"shelfkeeper/internal/store"
)

// Grouper derives duplicate groups from the current catalog state.
// Groups are recomputed fresh on every call, never cached.
type Grouper struct {
	store *store.Store
}

// NewGrouper creates a new Grouper
func NewGrouper(s *store.Store) *Grouper {
	return &Grouper{store: s}
}

// ByHash groups catalog records sharing an identical content hash.
// Records without a hash are excluded entirely: hash mode cannot reason
// about them.
func (g *Grouper) ByHash() ([]*Group, error) {
	books, err := g.store.GetBooksWithHash()
	if err != nil {
		return nil, fmt.Errorf("failed to load hashed records: %w", err)
	}
	return GroupByHash(books), nil
}

// ByTitle groups catalog records by normalized title, author and duration
// bucket.
func (g *Grouper) ByTitle() ([]*Group, error) {
	books, err := g.store.GetAllBooks()
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	return GroupByTitle(books), nil
}

// ByMode dispatches to the grouper for a planner mode
func (g *Grouper) ByMode(mode Mode) ([]*Group, error) {
	switch mode {
	case ModeHash:
		return g.ByHash()
	case ModeTitle:
		return g.ByTitle()
	}
	return nil, fmt.Errorf("no catalog grouper for mode %q", mode)
}

// GroupByHash is the pure grouping function behind ByHash
func GroupByHash(books []*store.Book) []*Group {
	byHash := make(map[string][]*store.Book)
	for _, book := range books {
		if !book.HasContentHash() {
			continue
		}
		byHash[book.ContentHash] = append(byHash[book.ContentHash], book)
	}

	var groups []*Group
	for hash, members := range byHash {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, newGroup(hash, members))
	}

	sortGroups(groups)
	return groups
}

// titleKey is the title-mode grouping key
type titleKey struct {
	title  string
	author string
	bucket int
}

// foldKey matches placeholder-authored records against real-author groups
type foldKey struct {
	title  string
	bucket int
}

// GroupByTitle is the pure grouping function behind ByTitle.
//
// Records whose author is a placeholder ("audiobook", "unknown author")
// never anchor a group of their own: they are folded into a real-author
// group with the same normalized title and duration bucket when one
// exists, and dropped otherwise. Duration bucketing at 0.1h keeps
// unrelated books sharing a title apart while tolerating re-encoding
// drift between formats of the same recording.
func GroupByTitle(books []*store.Book) []*Group {
	real := make(map[titleKey][]*store.Book)
	var placeholders []*store.Book

	for _, book := range books {
		title := meta.NormalizeTitle(book.Title)
		if title == "" {
			continue
		}

		if meta.IsPlaceholderAuthor(book.Author) {
			placeholders = append(placeholders, book)
			continue
		}

		key := titleKey{
			title:  title,
			author: meta.NormalizeAuthor(book.Author),
			bucket: DurationBucket(book.DurationHours),
		}
		real[key] = append(real[key], book)
	}

	// Map (title, bucket) to candidate anchor keys. When several real
	// authors share a title and bucket, fold into the lexicographically
	// smallest author for determinism.
	anchors := make(map[foldKey]titleKey)
	for key := range real {
		fk := foldKey{title: key.title, bucket: key.bucket}
		if existing, ok := anchors[fk]; !ok || key.author < existing.author {
			anchors[fk] = key
		}
	}

	sort.Slice(placeholders, func(i, j int) bool {
		return placeholders[i].ID < placeholders[j].ID
	})

	for _, book := range placeholders {
		fk := foldKey{
			title:  meta.NormalizeTitle(book.Title),
			bucket: DurationBucket(book.DurationHours),
		}
		if anchor, ok := anchors[fk]; ok {
			real[anchor] = append(real[anchor], book)
		}
	}

	var groups []*Group
	for key, members := range real {
		if len(members) < 2 {
			continue
		}

		group := newGroup(fmt.Sprintf("%s|%s|%d", key.title, key.author, key.bucket), members)
		group.Title = key.title
		group.Author = key.author
		groups = append(groups, group)
	}

	sortGroups(groups)
	return groups
}

// newGroup orders members by id and selects the keeper
func newGroup(key string, members []*store.Book) *Group {
	sort.Slice(members, func(i, j int) bool {
		return members[i].ID < members[j].ID
	})

	return &Group{
		Key:       key,
		Members:   members,
		KeeperIdx: SelectKeeper(members),
	}
}

// sortGroups makes output order deterministic: largest groups first,
// then by key
func sortGroups(groups []*Group) {
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].Members) != len(groups[j].Members) {
			return len(groups[i].Members) > len(groups[j].Members)
		}
		return groups[i].Key < groups[j].Key
	})
}

// DurationBucket rounds a duration to 0.1-hour precision for grouping
func DurationBucket(hours float64) int {
	return int(math.Round(hours * 10))
}
