package docservice

import (
	"context"
	"errors"
	"testing"

	"github.com/copyleftdev/skilldex/internal/apperr"
	"github.com/copyleftdev/skilldex/internal/checksum"
	"github.com/copyleftdev/skilldex/internal/testutil"
)

func newService(t *testing.T) *Service {
	t.Helper()
	_, store := testutil.TestLibrary(t)
	db := testutil.TestDB(t)
	return NewService(store, db)
}

func TestCreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	content := []byte("---\nname: sre\ndescription: Error budgets\n---\n# SRE\nSee [notes](notes.md).\n")
	doc, err := svc.CreateDoc(ctx, "domains/sre/SKILL.md", content)
	if err != nil {
		t.Fatalf("CreateDoc: %v", err)
	}
	if doc.Title != "sre" || doc.Category != "domains" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Checksum != checksum.Sum(content) {
		t.Errorf("checksum mismatch")
	}

	got, err := svc.GetDoc(ctx, "domains/sre/SKILL.md")
	if err != nil {
		t.Fatalf("GetDoc: %v", err)
	}
	if got.Description != "Error budgets" {
		t.Errorf("description = %q", got.Description)
	}
}

func TestCreate_Conflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateDoc(ctx, "a.md", []byte("one"))
	_, err := svc.CreateDoc(ctx, "a.md", []byte("two"))
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc := newService(t)
	_, err := svc.GetDoc(context.Background(), "missing.md")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_OptimisticConcurrency(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	orig := []byte("v1")
	_, _ = svc.CreateDoc(ctx, "doc.md", orig)

	// Wrong checksum conflicts.
	_, err := svc.UpdateDoc(ctx, "doc.md", []byte("v2"), "bogus")
	if !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}

	// Matching checksum succeeds.
	doc, err := svc.UpdateDoc(ctx, "doc.md", []byte("v2"), checksum.Sum(orig))
	if err != nil {
		t.Fatalf("UpdateDoc: %v", err)
	}
	if doc.Content != "v2" {
		t.Errorf("content = %q", doc.Content)
	}

	// Empty If-Match skips the check.
	if _, err := svc.UpdateDoc(ctx, "doc.md", []byte("v3"), ""); err != nil {
		t.Fatalf("UpdateDoc without If-Match: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc := newService(t)
	_, err := svc.UpdateDoc(context.Background(), "nope.md", []byte("x"), "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateDoc(ctx, "del.md", []byte("bye"))
	if err := svc.DeleteDoc(ctx, "del.md"); err != nil {
		t.Fatalf("DeleteDoc: %v", err)
	}
	items, total, err := svc.ListDocs(ctx, 10, 0, "", "", "")
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("expected empty index, got %d items", total)
	}
}

func TestBacklinksAcrossDocs(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateDoc(ctx, "a/one.md", []byte("see [two](../b/two.md)"))
	_, _ = svc.CreateDoc(ctx, "b/two.md", []byte("# Two"))

	bl, err := svc.Backlinks(ctx, "../b/two.md")
	if err != nil {
		t.Fatalf("Backlinks: %v", err)
	}
	if len(bl) != 1 || bl[0] != "a/one.md" {
		t.Errorf("backlinks = %v", bl)
	}
}

func TestListAndCategories(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	_, _ = svc.CreateDoc(ctx, "domains/sre/SKILL.md", []byte("# SRE #sre"))
	_, _ = svc.CreateDoc(ctx, "languages/go/SKILL.md", []byte("# Go"))

	items, total, err := svc.ListDocs(ctx, 10, 0, "", "domains", "path")
	if err != nil {
		t.Fatalf("ListDocs: %v", err)
	}
	if total != 1 || items[0].Category != "domains" {
		t.Errorf("items = %+v, total = %d", items, total)
	}

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 2 {
		t.Errorf("categories = %+v", cats)
	}
}
