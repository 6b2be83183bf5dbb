package meta

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// BookMeta holds the metadata extracted from an audiobook file
type BookMeta struct {
	Title         string
	Author        string
	Narrator      string
	Genre         string
	Format        string  // container format from the file extension: opus, m4b, ...
	DurationHours float64 // 0 when ffprobe is unavailable
}

// ExtractFile reads embedded tags from an audiobook file and fills in
// sensible fallbacks from the filename. Audiobook rips conventionally store
// the author in the artist tag and the narrator in the composer tag.
func ExtractFile(path string) (*BookMeta, error) {
	meta := &BookMeta{
		Format: FormatFromPath(path),
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err == nil {
		meta.Title = strings.TrimSpace(m.Title())
		meta.Author = strings.TrimSpace(m.Artist())
		if meta.Author == "" {
			meta.Author = strings.TrimSpace(m.AlbumArtist())
		}
		meta.Narrator = strings.TrimSpace(m.Composer())
		meta.Genre = strings.TrimSpace(m.Genre())
	}

	// Fall back to the filename when the file carries no usable tags
	if meta.Title == "" {
		base := filepath.Base(path)
		meta.Title = strings.TrimSuffix(base, filepath.Ext(base))
	}

	// Duration requires ffprobe; tolerate its absence
	if CheckFFprobeAvailable() {
		if hours, err := ProbeDurationHours(path); err == nil {
			meta.DurationHours = hours
		}
	}

	return meta, nil
}

// FormatFromPath derives the catalog format value from a file extension
func FormatFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	return strings.TrimPrefix(ext, ".")
}
