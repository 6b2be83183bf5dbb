package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"shelfkeeper/internal/store"
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

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.m4b")
	content := []byte("some audio content")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	hash, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile failed: %v", err)
	}

	expected := fmt.Sprintf("%x", sha256.Sum256(content))
	if hash != expected {
		t.Errorf("HashFile() = %s, expected %s", hash, expected)
	}
}

func TestHashFileMissing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "nope.m4b")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestHasherRun(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	pathA := filepath.Join(dir, "a.m4b")
	pathB := filepath.Join(dir, "b.m4b")
	if err := os.WriteFile(pathA, []byte("content a"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(pathB, []byte("content a"), 0644); err != nil {
		t.Fatal(err)
	}

	idA, err := s.UpsertBook(&store.Book{Title: "A", FilePath: pathA, FileSize: 9})
	if err != nil {
		t.Fatal(err)
	}
	idB, err := s.UpsertBook(&store.Book{Title: "B", FilePath: pathB, FileSize: 9})
	if err != nil {
		t.Fatal(err)
	}

	hasher := NewHasher(&HasherConfig{Store: s, Concurrency: 2})
	result, err := hasher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.FilesHashed != 2 {
		t.Errorf("FilesHashed = %d, expected 2", result.FilesHashed)
	}

	bookA, _ := s.GetBookByID(idA)
	bookB, _ := s.GetBookByID(idB)
	if !bookA.HasContentHash() || !bookB.HasContentHash() {
		t.Fatal("hashes not stored")
	}

	// Identical content yields identical hashes
	if bookA.ContentHash != bookB.ContentHash {
		t.Errorf("identical files hashed differently: %s vs %s", bookA.ContentHash, bookB.ContentHash)
	}

	// A second run has nothing left to do
	result, err = hasher.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if result.FilesHashed != 0 {
		t.Errorf("second run hashed %d files", result.FilesHashed)
	}
}

func TestHasherRunCancelled(t *testing.T) {
	s := newTestStore(t)
	dir := t.TempDir()

	for _, name := range []string{"a.m4b", "b.m4b", "c.m4b"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := s.UpsertBook(&store.Book{Title: name, FilePath: path, FileSize: 5}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewHasher(&HasherConfig{Store: s, Concurrency: 1}).Run(ctx)
	if err != context.Canceled {
		t.Fatalf("err = %v, expected context.Canceled", err)
	}
	if result.FilesHashed != 0 {
		t.Errorf("cancelled run hashed %d files", result.FilesHashed)
	}

	remaining, err := s.GetBooksWithoutHash()
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 3 {
		t.Errorf("%d records left unhashed, expected all 3", len(remaining))
	}
}
