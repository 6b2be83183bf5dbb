package dupes

import (
	"errors"
	"path/filepath"
	"testing"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedBook inserts a catalog row, optionally with a content hash
func seedBook(t *testing.T, s *store.Store, b *store.Book, hash string) int64 {
	t.Helper()
	id, err := s.UpsertBook(b)
	if err != nil {
		t.Fatalf("failed to seed book: %v", err)
	}
	if hash != "" {
		if err := s.UpdateContentHash(id, hash); err != nil {
			t.Fatalf("failed to set hash: %v", err)
		}
	}
	return id
}

func blockedReason(t *testing.T, plan *Plan, id int64) string {
	t.Helper()
	for _, b := range plan.Blocked {
		if b.ID == id {
			return b.Reason
		}
	}
	t.Fatalf("id %d not in blocked set", id)
	return ""
}

func TestPlanPartialGroupAllSafe(t *testing.T) {
	s := newTestStore(t)
	id1 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/a", FileSize: 100, Format: "m4b"}, "h1")
	id2 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/b", FileSize: 200, Format: "m4b"}, "h1")
	id3 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/c", FileSize: 300, Format: "m4b"}, "h1")

	// Requesting two of three leaves the group nonempty: both safe
	plan, err := NewPlanner(s).Plan([]int64{id1, id2}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(plan.SafeIDs) != 2 || len(plan.Blocked) != 0 {
		t.Fatalf("safe=%v blocked=%v, expected both requested ids safe", plan.SafeIDs, plan.Blocked)
	}
	_ = id3
}

func TestPlanWholeGroupBlocksKeeper(t *testing.T) {
	s := newTestStore(t)
	id1 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/a", FileSize: 100, Format: "mp3"}, "h1")
	id2 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/b", FileSize: 200, Format: "m4b"}, "h1")

	plan, err := NewPlanner(s).Plan([]int64{id1, id2}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	// id2 is the keeper (better format); it is blocked, id1 is safe
	if len(plan.SafeIDs) != 1 || plan.SafeIDs[0] != id1 {
		t.Errorf("SafeIDs = %v, expected [%d]", plan.SafeIDs, id1)
	}
	if len(plan.Blocked) != 1 || plan.Blocked[0].ID != id2 {
		t.Fatalf("Blocked = %v, expected keeper %d", plan.Blocked, id2)
	}
	if plan.Blocked[0].Reason != ReasonLastCopy {
		t.Errorf("reason = %q, expected %q", plan.Blocked[0].Reason, ReasonLastCopy)
	}
}

func TestPlanUnhashedBlocked(t *testing.T) {
	s := newTestStore(t)
	id := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/a"}, "")

	plan, err := NewPlanner(s).Plan([]int64{id}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(plan.SafeIDs) != 0 {
		t.Errorf("SafeIDs = %v, expected none", plan.SafeIDs)
	}
	if reason := blockedReason(t, plan, id); reason != ReasonNoHash {
		t.Errorf("reason = %q, expected %q", reason, ReasonNoHash)
	}
}

func TestPlanUngroupedBlocked(t *testing.T) {
	s := newTestStore(t)
	id := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/a"}, "unique-hash")

	plan, err := NewPlanner(s).Plan([]int64{id}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if reason := blockedReason(t, plan, id); reason != ReasonNoGroup {
		t.Errorf("reason = %q, expected %q", reason, ReasonNoGroup)
	}
}

func TestPlanUnknownIDsSkipped(t *testing.T) {
	s := newTestStore(t)
	id1 := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/a", FileSize: 100}, "h1")
	id2 := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/b", FileSize: 200}, "h1")

	plan, err := NewPlanner(s).Plan([]int64{id1, 9999}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(plan.SafeIDs) != 1 || plan.SafeIDs[0] != id1 {
		t.Errorf("SafeIDs = %v, expected [%d]", plan.SafeIDs, id1)
	}
	if len(plan.Blocked) != 0 {
		t.Errorf("Blocked = %v, expected unknown id silently skipped", plan.Blocked)
	}
	_ = id2
}

func TestPlanValidation(t *testing.T) {
	s := newTestStore(t)
	planner := NewPlanner(s)

	if _, err := planner.Plan(nil, ModeHash); !errors.Is(err, util.ErrValidation) {
		t.Errorf("empty request: expected ErrValidation, got %v", err)
	}
	if _, err := planner.Plan([]int64{1}, Mode("bogus")); !errors.Is(err, util.ErrValidation) {
		t.Errorf("bad mode: expected ErrValidation, got %v", err)
	}
	if _, err := planner.Plan([]int64{1}, ModeChecksum); !errors.Is(err, util.ErrValidation) {
		t.Errorf("checksum mode by id: expected ErrValidation, got %v", err)
	}
}

func TestPlanRecomputesAfterDeletion(t *testing.T) {
	s := newTestStore(t)
	id1 := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/a", FileSize: 100}, "h1")
	id2 := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/b", FileSize: 200}, "h1")
	id3 := seedBook(t, s, &store.Book{Title: "Dune", FilePath: "/c", FileSize: 300}, "h1")

	planner := NewPlanner(s)

	// First pass deletes one member
	plan, err := planner.Plan([]int64{id1}, ModeHash)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.SafeIDs) != 1 {
		t.Fatalf("SafeIDs = %v", plan.SafeIDs)
	}

	executor := NewExecutor(&ExecutorConfig{Store: s, KeepFiles: true})
	if _, err := executor.Execute(plan); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	// Second pass sees a two-member group: requesting both blocks the keeper
	plan, err = planner.Plan([]int64{id2, id3}, ModeHash)
	if err != nil {
		t.Fatalf("second Plan failed: %v", err)
	}
	if len(plan.SafeIDs) != 1 || len(plan.Blocked) != 1 {
		t.Fatalf("safe=%v blocked=%v, expected one of each", plan.SafeIDs, plan.Blocked)
	}
	if plan.Blocked[0].Reason != ReasonLastCopy {
		t.Errorf("reason = %q, expected %q", plan.Blocked[0].Reason, ReasonLastCopy)
	}
}

func TestPlanTitleMode(t *testing.T) {
	s := newTestStore(t)
	id1 := seedBook(t, s, &store.Book{Title: "Dune", Author: "Frank Herbert", FilePath: "/a", DurationHours: 21.0, FileSize: 100}, "")
	id2 := seedBook(t, s, &store.Book{Title: "Dune (Unabridged)", Author: "Frank Herbert", FilePath: "/b", DurationHours: 21.0, FileSize: 200}, "")

	// No hashes anywhere, but title mode can still group them
	plan, err := NewPlanner(s).Plan([]int64{id1, id2}, ModeTitle)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(plan.SafeIDs) != 1 || len(plan.Blocked) != 1 {
		t.Fatalf("safe=%v blocked=%v", plan.SafeIDs, plan.Blocked)
	}
}

func TestPlanPaths(t *testing.T) {
	s := newTestStore(t)
	indexDir := t.TempDir()
	fileDir := t.TempDir()

	a := filepath.Join(fileDir, "a.m4b")
	b := filepath.Join(fileDir, "b.m4b")
	writeTestFile(t, a, 500)
	writeTestFile(t, b, 300)

	writeTestIndex(t, indexDir, chkindex.TreeSources,
		"aaa|"+a+"\n"+
			"aaa|"+b+"\n")

	planner := NewPlanner(s)

	// Partial request: safe
	plan, err := planner.PlanPaths([]string{b}, indexDir, chkindex.TreeSources)
	if err != nil {
		t.Fatalf("PlanPaths failed: %v", err)
	}
	if len(plan.SafePaths) != 1 || plan.SafePaths[0] != b {
		t.Errorf("SafePaths = %v, expected [%s]", plan.SafePaths, b)
	}

	// Whole group: keeper (largest existing file) blocked
	plan, err = planner.PlanPaths([]string{a, b}, indexDir, chkindex.TreeSources)
	if err != nil {
		t.Fatalf("PlanPaths failed: %v", err)
	}
	if len(plan.SafePaths) != 1 || plan.SafePaths[0] != b {
		t.Errorf("SafePaths = %v, expected [%s]", plan.SafePaths, b)
	}
	if len(plan.Blocked) != 1 || plan.Blocked[0].Path != a || plan.Blocked[0].Reason != ReasonLastCopy {
		t.Errorf("Blocked = %+v", plan.Blocked)
	}
}

func TestPlanPathsNotIndexed(t *testing.T) {
	s := newTestStore(t)
	indexDir := t.TempDir()
	writeTestIndex(t, indexDir, chkindex.TreeSources, "aaa|/somewhere/a.m4b\n")

	plan, err := NewPlanner(s).PlanPaths([]string{"/not/indexed.m4b"}, indexDir, chkindex.TreeSources)
	if err != nil {
		t.Fatalf("PlanPaths failed: %v", err)
	}
	if len(plan.SafePaths) != 0 {
		t.Errorf("SafePaths = %v, expected none", plan.SafePaths)
	}
	if len(plan.Blocked) != 1 || plan.Blocked[0].Reason != ReasonNotIndexed {
		t.Errorf("Blocked = %+v, expected %q", plan.Blocked, ReasonNotIndexed)
	}
}

func TestPlanPathsMissingIndex(t *testing.T) {
	s := newTestStore(t)

	plan, err := NewPlanner(s).PlanPaths([]string{"/a", "/b"}, t.TempDir(), chkindex.TreeLibrary)
	if err != nil {
		t.Fatalf("PlanPaths failed: %v", err)
	}
	if len(plan.SafePaths) != 0 || len(plan.Blocked) != 2 {
		t.Fatalf("safe=%v blocked=%v, expected everything blocked", plan.SafePaths, plan.Blocked)
	}
	for _, blocked := range plan.Blocked {
		if blocked.Reason != ReasonNotIndexed {
			t.Errorf("reason = %q, expected %q", blocked.Reason, ReasonNotIndexed)
		}
	}
}
