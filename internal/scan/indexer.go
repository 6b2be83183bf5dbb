package scan

import (
	"bufio"
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shelfkeeper/internal/chkindex"
	"shelfkeeper/internal/util"
)

// indexPrefixBytes bounds how much of each file the index checksum covers.
// A fixed prefix keeps index generation fast on large audiobooks while
// still fingerprinting content.
const indexPrefixBytes = 1024 * 1024

// Indexer writes the flat checksum index file for one filesystem tree.
// Each line is "<hex-checksum>|<absolute-path>". The deletion engine only
// consumes and prunes these files; regeneration always starts fresh.
type Indexer struct {
	extensions map[string]bool
}

// NewIndexer creates a new Indexer
func NewIndexer() *Indexer {
	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[ext] = true
	}
	return &Indexer{extensions: extMap}
}

// IndexResult represents an index generation run
type IndexResult struct {
	FilesIndexed int
	IndexPath    string
	Errors       []error
}

// Build walks root and writes the index for the given tree. The index is
// written to a .part temp file and renamed into place so a crash never
// leaves a truncated index behind.
func (ix *Indexer) Build(ctx context.Context, root, indexDir string, tree chkindex.Tree) (*IndexResult, error) {
	if err := os.MkdirAll(indexDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	indexPath := chkindex.IndexPath(indexDir, tree)
	result := &IndexResult{
		IndexPath: indexPath,
		Errors:    make([]error, 0),
	}

	util.InfoLog("Indexing %s tree: %s", tree, root)

	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			util.WarnLog("Cannot access %s: %v", path, err)
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			return nil
		}
		if !ix.extensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		abs, err := filepath.Abs(path)
		if err != nil {
			return nil
		}
		paths = append(paths, abs)
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("walk failed: %w", err)
	}

	sort.Strings(paths)

	tempPath := indexPath + ".part"
	out, err := os.Create(tempPath)
	if err != nil {
		return result, fmt.Errorf("failed to create index: %w", err)
	}

	writer := bufio.NewWriter(out)
	for _, path := range paths {
		checksum, err := prefixChecksum(path)
		if err != nil {
			util.WarnLog("Failed to checksum %s: %v", path, err)
			result.Errors = append(result.Errors, err)
			continue
		}

		fmt.Fprintf(writer, "%s|%s\n", checksum, path)
		result.FilesIndexed++
	}

	if err := writer.Flush(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return result, fmt.Errorf("failed to write index: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return result, fmt.Errorf("failed to close index: %w", err)
	}

	if err := os.Rename(tempPath, indexPath); err != nil {
		os.Remove(tempPath)
		return result, fmt.Errorf("failed to rename index: %w", err)
	}

	util.SuccessLog("Indexed %d files into %s", result.FilesIndexed, indexPath)

	return result, nil
}

// prefixChecksum hashes the first indexPrefixBytes of a file
func prefixChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyN(h, f, indexPrefixBytes); err != nil && err != io.EOF {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
