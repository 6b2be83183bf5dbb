// Package chkindex reads and prunes the flat checksum index files produced
// by the index generation job. Each line is "<hex-checksum>|<absolute-path>"
// with no escaping, so malformed lines are skipped rather than treated as
// fatal.
package chkindex

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"shelfkeeper/internal/util"
)

// Tree identifies which filesystem tree an index file covers
type Tree string

const (
	TreeSources Tree = "sources"
	TreeLibrary Tree = "library"
)

// IndexPath returns the index file location for a tree
func IndexPath(indexDir string, tree Tree) string {
	return filepath.Join(indexDir, string(tree)+".idx")
}

// ParseTree validates a tree name from a request
func ParseTree(s string) (Tree, error) {
	switch Tree(s) {
	case TreeSources, TreeLibrary:
		return Tree(s), nil
	}
	return "", fmt.Errorf("%w: unknown tree %q", util.ErrValidation, s)
}

// Index holds the parsed contents of one checksum index file
type Index struct {
	Path       string
	TotalFiles int
	// Groups maps checksum to the paths sharing it, in file order
	Groups map[string][]string
}

// ReadIndex parses an index file, streaming line by line. Lines without a
// separator are skipped; a path listed twice under the same checksum is
// recorded once.
func ReadIndex(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	idx := &Index{
		Path:   path,
		Groups: make(map[string][]string),
	}

	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	// Paths can be long; allow lines up to 1MB
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	skipped := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" {
			continue
		}

		checksum, filePath, ok := strings.Cut(line, "|")
		if !ok || checksum == "" || filePath == "" {
			skipped++
			continue
		}

		if seen[checksum+"|"+filePath] {
			continue
		}
		seen[checksum+"|"+filePath] = true

		idx.Groups[checksum] = append(idx.Groups[checksum], filePath)
		idx.TotalFiles++
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read index %s: %w", path, err)
	}

	if skipped > 0 {
		util.WarnLog("Skipped %d malformed lines in %s", skipped, path)
	}

	return idx, nil
}

// ChecksumForPath returns the checksum recorded for a path, if any
func (idx *Index) ChecksumForPath(path string) (string, bool) {
	for checksum, paths := range idx.Groups {
		for _, p := range paths {
			if p == path {
				return checksum, true
			}
		}
	}
	return "", false
}
