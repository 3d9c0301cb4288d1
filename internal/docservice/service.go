// Package docservice coordinates storage and index operations on library documents.
package docservice

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/copyleftdev/skilldex/internal/apperr"
	"github.com/copyleftdev/skilldex/internal/checksum"
	"github.com/copyleftdev/skilldex/internal/index"
	"github.com/copyleftdev/skilldex/internal/parser"
	"github.com/copyleftdev/skilldex/internal/storage"
)

// DocDetail is the full representation of a document.
type DocDetail struct {
	Path        string         `json:"path"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Category    string         `json:"category,omitempty"`
	Content     string         `json:"content"`
	Checksum    string         `json:"checksum"`
	Tags        []string       `json:"tags"`
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
	Backlinks   []string       `json:"backlinks"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// DocListItem is a lightweight item in a list response.
type DocListItem struct {
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Category  string    `json:"category,omitempty"`
	Checksum  string    `json:"checksum"`
	Tags      []string  `json:"tags"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Service coordinates storage and index operations.
type Service struct {
	store storage.Provider
	db    *index.DB
}

// NewService creates a new document service.
func NewService(store storage.Provider, db *index.DB) *Service {
	return &Service{store: store, db: db}
}

// GetDoc reads a document from storage, parses it, and enriches with backlinks.
func (s *Service) GetDoc(_ context.Context, path string) (*DocDetail, error) {
	data, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return s.buildDocDetail(path, data)
}

// CreateDoc writes a new document and indexes it.
func (s *Service) CreateDoc(_ context.Context, path string, content []byte) (*DocDetail, error) {
	if _, err := s.store.Read(path); err == nil {
		return nil, apperr.ErrAlreadyExists
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDocDetail(path, content)
}

// UpdateDoc writes updated content with optimistic concurrency.
func (s *Service) UpdateDoc(_ context.Context, path string, content []byte, ifMatch string) (*DocDetail, error) {
	existing, err := s.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	if ifMatch != "" && ifMatch != checksum.Sum(existing) {
		return nil, apperr.ErrConflict
	}
	if err := s.store.Write(path, content); err != nil {
		return nil, err
	}
	if err := s.IndexFile(path, content); err != nil {
		return nil, err
	}
	return s.buildDocDetail(path, content)
}

// DeleteDoc removes a document from storage and index.
func (s *Service) DeleteDoc(_ context.Context, path string) error {
	if err := s.store.Delete(path); err != nil {
		return err
	}
	return s.db.DeleteDoc(path)
}

// ListDocs returns paginated documents with optional tag and category filters.
func (s *Service) ListDocs(_ context.Context, limit, offset int, tag, category, sort string) ([]DocListItem, int, error) {
	rows, total, err := s.db.ListDocs(limit, offset, tag, category, sort)
	if err != nil {
		return nil, 0, err
	}
	items := make([]DocListItem, len(rows))
	for i, r := range rows {
		items[i] = DocListItem{
			Path:      r.Path,
			Title:     r.Title,
			Category:  r.Category,
			Checksum:  r.Checksum,
			Tags:      nonNilSlice(r.Tags),
			UpdatedAt: r.UpdatedAt,
		}
	}
	return items, total, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]index.SearchResult, error) {
	return s.db.Search(query, limit)
}

// Backlinks returns all document paths that link to the given target.
func (s *Service) Backlinks(_ context.Context, target string) ([]string, error) {
	return s.db.Backlinks(target)
}

// Categories returns every collection category with its document count.
func (s *Service) Categories(_ context.Context) ([]index.CategoryCount, error) {
	return s.db.Categories()
}

// IndexFile parses data and upserts it into the index.
// Exported so that sync and watcher paths can reuse it.
func (s *Service) IndexFile(path string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}
	return s.db.UpsertDoc(index.DocRow{
		Path:        path,
		Title:       res.Title,
		Description: res.Description,
		Category:    index.CategoryOf(path),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		UpdatedAt:   time.Now(),
	}, res.Body, res.AllLinks())
}

// buildDocDetail constructs a DocDetail from raw data without re-reading the file.
func (s *Service) buildDocDetail(path string, data []byte) (*DocDetail, error) {
	res, err := parser.Parse(data)
	if err != nil {
		return nil, err
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return nil, err
	}
	return &DocDetail{
		Path:        path,
		Title:       res.Title,
		Description: res.Description,
		Category:    index.CategoryOf(path),
		Content:     string(data),
		Checksum:    checksum.Sum(data),
		Tags:        nonNilSlice(res.Tags),
		Frontmatter: res.Frontmatter,
		Backlinks:   nonNilSlice(bl),
		UpdatedAt:   time.Now(),
	}, nil
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
