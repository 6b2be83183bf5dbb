package dupes

import (
	"database/sql"
	"fmt"
	"os"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/report"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"
)

// Executor performs planner-approved deletions. Ordering is fixed:
// snapshot file paths, commit one catalog transaction, then best-effort
// filesystem unlinks, then best-effort index pruning. The database is
// authoritative: a file that fails to unlink is an orphan the scanner can
// rediscover, whereas a half-committed batch would corrupt catalog state,
// so the transaction either commits whole or rolls back whole.
type Executor struct {
	store     *store.Store
	indexDir  string
	keepFiles bool
	dryRun    bool
	logger    *report.EventLogger
}

// ExecutorConfig holds executor configuration
type ExecutorConfig struct {
	Store     *store.Store
	IndexDir  string // checksum index directory; empty disables pruning
	KeepFiles bool   // remove catalog rows but leave files on disk
	DryRun    bool   // report what would happen without mutating anything
	Logger    *report.EventLogger
}

// NewExecutor creates a new Executor
func NewExecutor(cfg *ExecutorConfig) *Executor {
	return &Executor{
		store:     cfg.Store,
		indexDir:  cfg.IndexDir,
		keepFiles: cfg.KeepFiles,
		dryRun:    cfg.DryRun,
		logger:    cfg.Logger,
	}
}

// DeletedItem describes one removed record
type DeletedItem struct {
	ID    int64  `json:"id,omitempty"`
	Title string `json:"title,omitempty"`
	Path  string `json:"path"`
}

// ItemError is a per-item failure that did not abort the batch
type ItemError struct {
	ID    int64  `json:"id,omitempty"`
	Path  string `json:"path,omitempty"`
	Error string `json:"error"`
}

// Result reports the outcome of a deletion batch
type Result struct {
	Deleted    []DeletedItem `json:"deleted"`
	Blocked    []Blocked     `json:"blocked"`
	Errors     []ItemError   `json:"errors"`
	BytesFreed int64         `json:"bytes_freed"`
}

// snapshot carries the file information captured before any mutation, so a
// later failure cannot lose what is needed for the filesystem phase
type snapshot struct {
	id    int64
	title string
	path  string
	size  int64
}

// Execute removes the plan's safe records. The blocked set is carried
// through to the result untouched; it is never acted on.
func (e *Executor) Execute(plan *Plan) (*Result, error) {
	result := &Result{Blocked: plan.Blocked}

	// Snapshot phase: capture paths before mutating anything
	var snaps []snapshot
	for _, id := range plan.SafeIDs {
		book, err := e.store.GetBookByID(id)
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot record %d: %w", id, err)
		}
		if book == nil {
			continue
		}
		snaps = append(snaps, snapshot{id: book.ID, title: book.Title, path: book.FilePath, size: book.FileSize})
	}

	if len(snaps) == 0 {
		return result, nil
	}

	if e.dryRun {
		for _, s := range snaps {
			util.InfoLog("DRY-RUN: would delete record %d (%s)", s.id, s.path)
			result.Deleted = append(result.Deleted, DeletedItem{ID: s.id, Title: s.title, Path: s.path})
		}
		return result, nil
	}

	// Transaction phase: child associations and rows in one transaction.
	// Any failure aborts the whole batch with no partial mutation.
	ids := make([]int64, len(snaps))
	for i, s := range snaps {
		ids[i] = s.id
	}

	err := e.store.Transaction(func(tx *sql.Tx) error {
		return e.store.DeleteBooks(tx, ids)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: deletion batch aborted: %v", util.ErrTransaction, err)
	}

	for _, s := range snaps {
		result.Deleted = append(result.Deleted, DeletedItem{ID: s.id, Title: s.title, Path: s.path})
		e.logger.LogDelete(s.id, s.path, s.size)
	}

	// Filesystem phase: per-file failures are collected, never rolled
	// back into the committed transaction
	var deletedPaths []string
	if !e.keepFiles {
		for _, s := range snaps {
			deletedPaths = append(deletedPaths, s.path)

			err := os.Remove(s.path)
			if os.IsNotExist(err) {
				// Already gone counts as deleted
				err = nil
			}
			e.logger.LogUnlink(s.path, err)

			if err != nil {
				util.ErrorLog("Failed to remove %s: %v", s.path, err)
				result.Errors = append(result.Errors, ItemError{ID: s.id, Path: s.path, Error: err.Error()})
				continue
			}
			result.BytesFreed += s.size
		}
	}

	e.pruneIndex(deletedPaths)

	return result, nil
}

// ExecutePaths removes files named by a checksum-mode path plan. No
// snapshot or batch transaction applies here: each path is handled on its
// own, removing the matching catalog row first when one exists (library
// tree only), then the file. Sources paths never touch the catalog.
func (e *Executor) ExecutePaths(plan *PathPlan) (*Result, error) {
	result := &Result{Blocked: plan.Blocked}

	var deletedPaths []string
	for _, path := range plan.SafePaths {
		if e.dryRun {
			util.InfoLog("DRY-RUN: would delete %s", path)
			result.Deleted = append(result.Deleted, DeletedItem{Path: path})
			continue
		}

		item := DeletedItem{Path: path}

		if plan.Tree == chkindex.TreeLibrary {
			book, err := e.store.GetBookByPath(path)
			if err != nil {
				result.Errors = append(result.Errors, ItemError{Path: path, Error: err.Error()})
				continue
			}
			if book != nil {
				err := e.store.Transaction(func(tx *sql.Tx) error {
					return e.store.DeleteBooks(tx, []int64{book.ID})
				})
				if err != nil {
					// Catalog removal failed; leave the file alone so the
					// database stays authoritative
					result.Errors = append(result.Errors, ItemError{ID: book.ID, Path: path, Error: err.Error()})
					continue
				}
				item.ID = book.ID
				item.Title = book.Title
				e.logger.LogDelete(book.ID, path, book.FileSize)
			}
		}

		var size int64
		if stat, err := os.Stat(path); err == nil {
			size = stat.Size()
		}

		err := os.Remove(path)
		if os.IsNotExist(err) {
			err = nil
		}
		e.logger.LogUnlink(path, err)

		if err != nil {
			util.ErrorLog("Failed to remove %s: %v", path, err)
			result.Errors = append(result.Errors, ItemError{ID: item.ID, Path: path, Error: err.Error()})
			continue
		}

		result.Deleted = append(result.Deleted, item)
		result.BytesFreed += size
		deletedPaths = append(deletedPaths, path)
	}

	e.pruneIndex(deletedPaths)

	return result, nil
}

// pruneIndex removes deleted paths from the flat checksum index files.
// Best effort: index staleness self-heals on the next regeneration.
func (e *Executor) pruneIndex(paths []string) {
	if e.indexDir == "" || len(paths) == 0 {
		return
	}

	removed, err := chkindex.PrunePaths(e.indexDir, paths)
	if err != nil {
		util.WarnLog("Failed to prune checksum index: %v", err)
	} else if removed > 0 {
		util.DebugLog("Pruned %d lines from checksum index", removed)
	}
	e.logger.LogPrune(e.indexDir, removed, err)
}
