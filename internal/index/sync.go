package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/copyleftdev/skilldex/internal/checksum"
	"github.com/copyleftdev/skilldex/internal/parser"
	"github.com/copyleftdev/skilldex/internal/storage"
)

// Sync walks the library and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it into the DB.
func indexFile(db *DB, path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	row := DocRow{
		Path:        path,
		Title:       res.Title,
		Description: res.Description,
		Category:    CategoryOf(path),
		Checksum:    checksum.Sum(data),
		Tags:        res.Tags,
		UpdatedAt:   time.Now(),
	}
	return db.UpsertDoc(row, res.Body, res.AllLinks())
}

// CategoryOf derives the collection category from the first path element.
// Root-level files have no category.
func CategoryOf(path string) string {
	i := strings.Index(path, "/")
	if i <= 0 {
		return ""
	}
	return path[:i]
}
