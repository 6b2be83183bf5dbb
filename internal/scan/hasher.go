package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"shelfkeeper/internal/report"
	"shelfkeeper/internal/store"
	"shelfkeeper/internal/util"

	"github.com/schollz/progressbar/v3"
)

// Hasher backfills content hashes for catalog records that lack one.
// The hash is SHA-256 over the full file content; the deletion engine
// treats it as authoritative for exact-content equality.
type Hasher struct {
	store       *store.Store
	concurrency int
	logger      *report.EventLogger
}

// HasherConfig holds hasher configuration
type HasherConfig struct {
	Store       *store.Store
	Concurrency int
	Logger      *report.EventLogger
}

// NewHasher creates a new Hasher
func NewHasher(cfg *HasherConfig) *Hasher {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	return &Hasher{
		store:       cfg.Store,
		concurrency: cfg.Concurrency,
		logger:      cfg.Logger,
	}
}

// HashResult represents a hashing run
type HashResult struct {
	FilesHashed int
	Errors      []error
}

// Run hashes every record without a content hash
func (h *Hasher) Run(ctx context.Context) (*HashResult, error) {
	books, err := h.store.GetBooksWithoutHash()
	if err != nil {
		return nil, fmt.Errorf("failed to load unhashed records: %w", err)
	}

	result := &HashResult{
		Errors: make([]error, 0),
	}

	if len(books) == 0 {
		util.InfoLog("All records already hashed")
		return result, nil
	}

	util.InfoLog("Hashing %d files", len(books))

	var hashed atomic.Int64
	var errMu sync.Mutex

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(len(books),
			progressbar.OptionSetDescription("Hashing"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	bookChan := make(chan *store.Book, h.concurrency*2)

	var wg sync.WaitGroup
	for i := 0; i < h.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for book := range bookChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				hash, err := HashFile(book.FilePath)
				if err == nil {
					err = h.store.UpdateContentHash(book.ID, hash)
				}
				h.logger.LogHash(book.ID, book.FilePath, hash, err)

				if err != nil {
					util.ErrorLog("Failed to hash %s: %v", book.FilePath, err)
					errMu.Lock()
					result.Errors = append(result.Errors, err)
					errMu.Unlock()
				} else {
					hashed.Add(1)
				}

				if bar != nil {
					bar.Add(1)
				}
			}
		}()
	}

feed:
	for _, book := range books {
		select {
		case <-ctx.Done():
			break feed
		case bookChan <- book:
		}
	}
	close(bookChan)
	wg.Wait()

	if bar != nil {
		bar.Finish()
	}

	result.FilesHashed = int(hashed.Load())
	util.SuccessLog("Hashing complete: %d files hashed, %d errors",
		result.FilesHashed, len(result.Errors))

	return result, ctx.Err()
}

// HashFile computes the SHA-256 hash of a file's full content
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
