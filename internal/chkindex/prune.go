package chkindex

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PrunePaths removes index lines referring to any of the given paths from
// every index file under indexDir. The rewrite is atomic per file (.part
// temp then rename) and only happens when a file actually contains a
// matching line. Checksums are never rewritten, only whole lines removed.
// Returns the number of lines removed across all index files.
func PrunePaths(indexDir string, paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}

	deleted := make(map[string]bool, len(paths))
	for _, p := range paths {
		deleted[p] = true
	}

	indexFiles, err := filepath.Glob(filepath.Join(indexDir, "*.idx"))
	if err != nil {
		return 0, err
	}

	totalRemoved := 0
	for _, indexPath := range indexFiles {
		removed, err := pruneFile(indexPath, deleted)
		if err != nil {
			return totalRemoved, fmt.Errorf("failed to prune %s: %w", indexPath, err)
		}
		totalRemoved += removed
	}

	return totalRemoved, nil
}

// pruneFile rewrites one index file without lines matching deleted paths
func pruneFile(indexPath string, deleted map[string]bool) (int, error) {
	f, err := os.Open(indexPath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	tempPath := indexPath + ".part"
	out, err := os.Create(tempPath)
	if err != nil {
		f.Close()
		return 0, err
	}

	writer := bufio.NewWriter(out)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	removed := 0
	for scanner.Scan() {
		line := scanner.Text()
		if _, path, ok := strings.Cut(line, "|"); ok && deleted[path] {
			removed++
			continue
		}
		fmt.Fprintln(writer, line)
	}

	scanErr := scanner.Err()
	f.Close()

	if scanErr != nil {
		out.Close()
		os.Remove(tempPath)
		return 0, scanErr
	}

	if err := writer.Flush(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return 0, err
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return 0, err
	}

	if removed == 0 {
		os.Remove(tempPath)
		return 0, nil
	}

	if err := os.Rename(tempPath, indexPath); err != nil {
		os.Remove(tempPath)
		return 0, err
	}

	return removed, nil
}
