package chkindex

import (
	"os"
	"sort"
)

// FileInfo describes one indexed file with live filesystem state
type FileInfo struct {
	Path   string
	Size   int64
	Exists bool
}

// Group is a set of indexed paths sharing a checksum
type Group struct {
	Checksum    string
	Files       []FileInfo
	KeeperIdx   int // -1 when no member exists on disk
	WastedSpace int64
}

// TreeReport summarizes duplicate state for one filesystem tree
type TreeReport struct {
	Tree            Tree
	Exists          bool
	TotalFiles      int
	UniqueChecksums int
	DuplicateGroups []*Group
}

// Report builds a duplicate report for the tree covered by one index file.
// File existence and size are checked live on every call, never cached.
func Report(indexDir string, tree Tree) (*TreeReport, error) {
	report := &TreeReport{Tree: tree}

	idx, err := ReadIndex(IndexPath(indexDir, tree))
	if os.IsNotExist(err) {
		return report, nil
	}
	if err != nil {
		return nil, err
	}

	report.Exists = true
	report.TotalFiles = idx.TotalFiles
	report.UniqueChecksums = len(idx.Groups)

	for checksum, paths := range idx.Groups {
		if len(paths) < 2 {
			continue
		}

		group := &Group{Checksum: checksum, Files: StatFiles(paths)}

		// Largest existing file first; nonexistent files sink to the end
		sort.SliceStable(group.Files, func(i, j int) bool {
			a, b := group.Files[i], group.Files[j]
			if a.Exists != b.Exists {
				return a.Exists
			}
			if a.Size != b.Size {
				return a.Size > b.Size
			}
			return a.Path < b.Path
		})

		group.KeeperIdx = SelectKeeper(group.Files)
		group.WastedSpace = wastedSpace(group.Files, group.KeeperIdx)

		report.DuplicateGroups = append(report.DuplicateGroups, group)
	}

	sort.Slice(report.DuplicateGroups, func(i, j int) bool {
		a, b := report.DuplicateGroups[i], report.DuplicateGroups[j]
		if len(a.Files) != len(b.Files) {
			return len(a.Files) > len(b.Files)
		}
		return a.Checksum < b.Checksum
	})

	return report, nil
}

// StatFiles checks existence and size live for each path, never cached
func StatFiles(paths []string) []FileInfo {
	files := make([]FileInfo, 0, len(paths))
	for _, path := range paths {
		info := FileInfo{Path: path}
		if stat, err := os.Stat(path); err == nil {
			info.Exists = true
			info.Size = stat.Size()
		}
		files = append(files, info)
	}
	return files
}

// SelectKeeper picks the member to retain: existing file first, then
// largest size. Only metadata available at this layer is the filesystem
// itself, so the catalog tie-break chain does not apply here.
func SelectKeeper(files []FileInfo) int {
	keeper := -1
	for i, f := range files {
		if !f.Exists {
			continue
		}
		if keeper == -1 || f.Size > files[keeper].Size {
			keeper = i
		}
	}
	return keeper
}

// wastedSpace sums the sizes of all existing non-keeper members.
// Nonexistent files are excluded from the total.
func wastedSpace(files []FileInfo, keeperIdx int) int64 {
	var wasted int64
	for i, f := range files {
		if i == keeperIdx || !f.Exists {
			continue
		}
		wasted += f.Size
	}
	return wasted
}
