package scan

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"shelfkeeper/internal/meta"
	"shelfkeeper/internal/report"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"

	"github.com/schollz/progressbar/v3"
)

// AudioExtensions are the supported audiobook file extensions
var AudioExtensions = []string{
	".opus",
	".m4b",
	".m4a",
	".mp3",
	".aac",
	".flac",
	".ogg",
}

// Scanner discovers audiobook files in a directory tree and imports them
// into the catalog. Content hashes are left empty; the hashing job fills
// them in separately.
type Scanner struct {
	store       *store.Store
	extensions  map[string]bool
	concurrency int
	logger      *report.EventLogger
}

// Config holds scanner configuration
type Config struct {
	Store          *store.Store
	AdditionalExts []string
	Concurrency    int
	Logger         *report.EventLogger
}

// New creates a new Scanner
func New(cfg *Config) *Scanner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	extMap := make(map[string]bool)
	for _, ext := range AudioExtensions {
		extMap[strings.ToLower(ext)] = true
	}
	for _, ext := range cfg.AdditionalExts {
		extMap[strings.ToLower(ext)] = true
	}

	return &Scanner{
		store:       cfg.Store,
		extensions:  extMap,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// Result represents a scan result
type Result struct {
	FilesDiscovered int
	FilesImported   int
	FilesSkipped    int
	Errors          []error
}

// Scan walks the root directory and imports audiobook files
func (s *Scanner) Scan(ctx context.Context, root string) (*Result, error) {
	util.InfoLog("Starting scan of: %s", root)

	result := &Result{
		Errors: make([]error, 0),
	}

	filePaths := make(chan string, 100)

	var filesFound atomic.Int64
	var filesImported atomic.Int64
	var filesSkipped atomic.Int64

	var errMu sync.Mutex
	appendErr := func(err error) {
		errMu.Lock()
		result.Errors = append(result.Errors, err)
		errMu.Unlock()
	}

	isTTY := util.IsTerminal(os.Stdout.Fd())
	var bar *progressbar.ProgressBar
	if isTTY && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Scanning"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	// Worker pool extracting metadata and upserting catalog rows
	var wg sync.WaitGroup
	for i := 0; i < s.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range filePaths {
				select {
				case <-ctx.Done():
					return
				default:
				}

				imported, err := s.importFile(path)
				if err != nil {
					util.ErrorLog("Failed to import %s: %v", path, err)
					appendErr(err)
				} else if imported {
					filesImported.Add(1)
				} else {
					filesSkipped.Add(1)
				}

				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

	// Walk the tree on the main goroutine
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
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

		ext := strings.ToLower(filepath.Ext(path))
		if !s.extensions[ext] {
			return nil
		}

		filesFound.Add(1)
		select {
		case filePaths <- path:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	close(filePaths)
	wg.Wait()

	if bar != nil {
		bar.Finish()
	}

	if walkErr != nil {
		return result, fmt.Errorf("walk failed: %w", walkErr)
	}

	result.FilesDiscovered = int(filesFound.Load())
	result.FilesImported = int(filesImported.Load())
	result.FilesSkipped = int(filesSkipped.Load())

	util.SuccessLog("Scan complete: %d discovered, %d imported, %d unchanged",
		result.FilesDiscovered, result.FilesImported, result.FilesSkipped)

	return result, nil
}

// importFile extracts metadata and upserts one catalog row. Returns false
// when the row already existed with the same size (unchanged file).
func (s *Scanner) importFile(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}

	stat, err := os.Stat(abs)
	if err != nil {
		return false, err
	}

	existing, err := s.store.GetBookByPath(abs)
	if err != nil {
		return false, err
	}
	if existing != nil && existing.FileSize == stat.Size() {
		return false, nil
	}

	bookMeta, err := meta.ExtractFile(abs)
	if err != nil {
		return false, fmt.Errorf("metadata extraction failed for %s: %w", abs, err)
	}

	book := &store.Book{
		Title:         bookMeta.Title,
		Author:        bookMeta.Author,
		Narrator:      bookMeta.Narrator,
		FilePath:      abs,
		FileSize:      stat.Size(),
		Format:        bookMeta.Format,
		DurationHours: bookMeta.DurationHours,
	}

	id, err := s.store.UpsertBook(book)
	if err != nil {
		return false, fmt.Errorf("failed to upsert %s: %w", abs, err)
	}

	if bookMeta.Genre != "" {
		if genreID, err := s.store.UpsertGenre(bookMeta.Genre); err == nil {
			if err := s.store.LinkBookGenre(id, genreID); err != nil {
				util.WarnLog("Failed to link genre for %s: %v", abs, err)
			}
		}
	}

	s.logger.LogScan(id, abs, stat.Size())

	return true, nil
}
