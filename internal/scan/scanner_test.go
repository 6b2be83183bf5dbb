package scan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScanImportsAudioFiles(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()

	write := func(rel, content string) string {
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		return path
	}

	write("herbert/dune.m4b", "audio one")
	write("tolkien/hobbit.mp3", "audio two")
	write("cover.jpg", "not audio")

	scanner := New(&Config{Store: s, Concurrency: 2})

	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if result.FilesDiscovered != 2 {
		t.Errorf("FilesDiscovered = %d, expected 2", result.FilesDiscovered)
	}
	if result.FilesImported != 2 {
		t.Errorf("FilesImported = %d, expected 2", result.FilesImported)
	}

	// Untagged files fall back to the filename as title
	abs, _ := filepath.Abs(filepath.Join(root, "herbert/dune.m4b"))
	book, err := s.GetBookByPath(abs)
	if err != nil {
		t.Fatal(err)
	}
	if book == nil {
		t.Fatal("scanned file missing from catalog")
	}
	if book.Title != "dune" {
		t.Errorf("Title = %q, expected filename fallback", book.Title)
	}
	if book.Format != "m4b" {
		t.Errorf("Format = %q, expected m4b", book.Format)
	}
	if book.FileSize != int64(len("audio one")) {
		t.Errorf("FileSize = %d", book.FileSize)
	}
}

func TestScanSkipsUnchangedFiles(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()

	path := filepath.Join(root, "dune.m4b")
	if err := os.WriteFile(path, []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	scanner := New(&Config{Store: s, Concurrency: 1})

	if _, err := scanner.Scan(context.Background(), root); err != nil {
		t.Fatalf("first Scan failed: %v", err)
	}

	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("second Scan failed: %v", err)
	}
	if result.FilesImported != 0 || result.FilesSkipped != 1 {
		t.Errorf("imported=%d skipped=%d, expected unchanged file skipped",
			result.FilesImported, result.FilesSkipped)
	}

	// Changed size triggers a re-import
	if err := os.WriteFile(path, []byte("longer audio"), 0644); err != nil {
		t.Fatal(err)
	}
	result, err = scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("third Scan failed: %v", err)
	}
	if result.FilesImported != 1 {
		t.Errorf("FilesImported = %d after size change, expected 1", result.FilesImported)
	}

	count, err := s.CountBooks()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("catalog holds %d rows for one file", count)
	}
}

func TestScanAdditionalExtensions(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()

	if err := os.WriteFile(filepath.Join(root, "book.wma"), []byte("audio"), 0644); err != nil {
		t.Fatal(err)
	}

	// Not imported by default
	scanner := New(&Config{Store: s, Concurrency: 1})
	result, err := scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesDiscovered != 0 {
		t.Errorf("FilesDiscovered = %d, expected 0 for unknown extension", result.FilesDiscovered)
	}

	// Imported once the extension is registered
	scanner = New(&Config{Store: s, Concurrency: 1, AdditionalExts: []string{".wma"}})
	result, err = scanner.Scan(context.Background(), root)
	if err != nil {
		t.Fatal(err)
	}
	if result.FilesImported != 1 {
		t.Errorf("FilesImported = %d with registered extension, expected 1", result.FilesImported)
	}
}

func TestScanCancelled(t *testing.T) {
	s := newTestStore(t)
	root := t.TempDir()

	for _, name := range []string{"a.m4b", "b.m4b", "c.m4b"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("audio"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scanner := New(&Config{Store: s, Concurrency: 1})
	_, err := scanner.Scan(ctx, root)
	if err == nil {
		t.Fatal("expected error from cancelled scan")
	}

	count, err := s.CountBooks()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("cancelled scan imported %d files", count)
	}
}
