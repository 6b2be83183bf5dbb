package dupes

import (
	"fmt"
	"os"
	"sort"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"
)

// Mode selects which duplicate signal a plan is computed against
type Mode string

const (
	ModeHash     Mode = "hash"
	ModeTitle    Mode = "title"
	ModeChecksum Mode = "checksum"
)

// ParseMode validates a mode string from a request
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeHash, ModeTitle, ModeChecksum:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", util.ErrValidation, s)
}

// Reasons surfaced for blocked deletions. Blocking is a normal planner
// outcome, not an error.
const (
	ReasonLastCopy   = "last remaining copy — protected from deletion"
	ReasonNoHash     = "no hash — cannot verify duplicate status"
	ReasonNoGroup    = "not part of any duplicate group — cannot verify duplicate status"
	ReasonNotIndexed = "not in checksum index — cannot verify duplicate status"
)

// Blocked is a refused deletion with a human-readable reason
type Blocked struct {
	ID     int64  `json:"id,omitempty"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason"`
}

// Plan partitions a requested deletion set into safe and blocked.
// Computed per request from current catalog state; never persisted.
type Plan struct {
	Mode    Mode
	SafeIDs []int64
	Blocked []Blocked
}

// PathPlan is the checksum-mode equivalent of Plan, keyed by path
type PathPlan struct {
	Tree      chkindex.Tree
	SafePaths []string
	Blocked   []Blocked
}

// Planner computes deletion plans. It is stateless: group membership and
// group sizes are recomputed from current state on every call, so planning
// an already-partially-deleted group never blocks more than necessary.
type Planner struct {
	store   *store.Store
	grouper *Grouper
}

// NewPlanner creates a new Planner
func NewPlanner(s *store.Store) *Planner {
	return &Planner{
		store:   s,
		grouper: NewGrouper(s),
	}
}

// Plan partitions the requested record ids under the chosen grouping.
//
// The central invariant: for every group, after any planner-approved
// deletion, at least one member remains. A group is only at risk when the
// request covers all of its current members; in that case the keeper is
// blocked and the rest are safe. Records the grouping cannot reason about
// (no hash in hash mode, or no group at all) are always blocked; the
// planner never guesses safety for unverifiable records. Requested ids
// absent from the catalog are skipped silently.
func (p *Planner) Plan(ids []int64, mode Mode) (*Plan, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no record ids given", util.ErrValidation)
	}
	if mode != ModeHash && mode != ModeTitle {
		return nil, fmt.Errorf("%w: unknown mode %q", util.ErrValidation, mode)
	}

	groups, err := p.grouper.ByMode(mode)
	if err != nil {
		return nil, err
	}

	membership := make(map[int64]*Group)
	for _, group := range groups {
		for _, member := range group.Members {
			membership[member.ID] = group
		}
	}

	plan := &Plan{Mode: mode}

	// Deduplicate the request and drop unknown ids
	requested := uniqueSorted(ids)
	byGroup := make(map[*Group][]int64)

	for _, id := range requested {
		book, err := p.store.GetBookByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load record %d: %w", id, err)
		}
		if book == nil {
			continue // NotFound: skipped, never fails the batch
		}

		group, ok := membership[id]
		if !ok {
			reason := ReasonNoGroup
			if mode == ModeHash && !book.HasContentHash() {
				reason = ReasonNoHash
			}
			plan.Blocked = append(plan.Blocked, Blocked{ID: id, Path: book.FilePath, Reason: reason})
			continue
		}

		byGroup[group] = append(byGroup[group], id)
	}

	for group, groupIDs := range byGroup {
		wholeGroup := len(groupIDs) >= len(group.Members)
		keeperID := group.Keeper().ID

		for _, id := range groupIDs {
			if wholeGroup && id == keeperID {
				plan.Blocked = append(plan.Blocked, Blocked{
					ID:     id,
					Path:   group.Keeper().FilePath,
					Reason: ReasonLastCopy,
				})
				continue
			}
			plan.SafeIDs = append(plan.SafeIDs, id)
		}
	}

	sort.Slice(plan.SafeIDs, func(i, j int) bool { return plan.SafeIDs[i] < plan.SafeIDs[j] })
	sort.Slice(plan.Blocked, func(i, j int) bool { return plan.Blocked[i].ID < plan.Blocked[j].ID })

	return plan, nil
}

// PlanPaths partitions a requested path set against the checksum index of
// one filesystem tree. The same last-copy invariant applies; the keeper is
// chosen by the reduced rule (file existence, then size descending) since
// no catalog metadata exists at this layer. Paths missing from the index
// are blocked since the index cannot verify them.
func (p *Planner) PlanPaths(paths []string, indexDir string, tree chkindex.Tree) (*PathPlan, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no paths given", util.ErrValidation)
	}

	plan := &PathPlan{Tree: tree}

	idx, err := chkindex.ReadIndex(chkindex.IndexPath(indexDir, tree))
	if os.IsNotExist(err) {
		// No index at all: nothing is verifiable
		for _, path := range uniquePaths(paths) {
			plan.Blocked = append(plan.Blocked, Blocked{Path: path, Reason: ReasonNotIndexed})
		}
		return plan, nil
	}
	if err != nil {
		return nil, err
	}

	pathChecksum := make(map[string]string)
	for checksum, groupPaths := range idx.Groups {
		for _, path := range groupPaths {
			pathChecksum[path] = checksum
		}
	}

	byChecksum := make(map[string][]string)
	for _, path := range uniquePaths(paths) {
		checksum, ok := pathChecksum[path]
		if !ok {
			plan.Blocked = append(plan.Blocked, Blocked{Path: path, Reason: ReasonNotIndexed})
			continue
		}
		byChecksum[checksum] = append(byChecksum[checksum], path)
	}

	for checksum, requested := range byChecksum {
		groupPaths := idx.Groups[checksum]

		if len(requested) < len(groupPaths) {
			plan.SafePaths = append(plan.SafePaths, requested...)
			continue
		}

		// The request would empty the group: protect the keeper
		files := chkindex.StatFiles(groupPaths)
		keeperIdx := chkindex.SelectKeeper(files)
		keeperPath := ""
		if keeperIdx >= 0 {
			keeperPath = files[keeperIdx].Path
		} else {
			// No member exists on disk; still retain one entry deterministically
			keeperPath = groupPaths[0]
		}

		for _, path := range requested {
			if path == keeperPath {
				plan.Blocked = append(plan.Blocked, Blocked{Path: path, Reason: ReasonLastCopy})
				continue
			}
			plan.SafePaths = append(plan.SafePaths, path)
		}
	}

	sort.Strings(plan.SafePaths)
	sort.Slice(plan.Blocked, func(i, j int) bool { return plan.Blocked[i].Path < plan.Blocked[j].Path })

	return plan, nil
}

// uniqueSorted deduplicates ids and sorts them ascending
func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	var out []int64
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// uniquePaths deduplicates paths preserving first-seen order
func uniquePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		out = append(out, path)
	}
	return out
}
