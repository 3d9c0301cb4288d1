package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	input := []byte("---\nname: lamport\ndescription: Distributed systems reasoning\ntags:\n  - distributed\n  - theory\n---\n# Lamport\nBody text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "lamport" {
		t.Errorf("title = %q, want %q", r.Title, "lamport")
	}
	if r.Description != "Distributed systems reasoning" {
		t.Errorf("description = %q", r.Description)
	}
	if len(r.Tags) < 2 || r.Tags[0] != "distributed" || r.Tags[1] != "theory" {
		t.Errorf("tags = %v, want [distributed theory]", r.Tags)
	}
	if r.Body != "# Lamport\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	input := []byte("# Just a heading\nSome text.\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_TitleOverName(t *testing.T) {
	input := []byte("---\ntitle: Display Title\nname: slug-name\n---\ncontent\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Title != "Display Title" {
		t.Errorf("title = %q, want %q", r.Title, "Display Title")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	input := []byte("---\n: invalid: yaml: {{{\n---\nBody\n")
	r, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestFrontmatter_Missing(t *testing.T) {
	if fm := Frontmatter([]byte("plain text, no fences")); fm != nil {
		t.Errorf("expected nil, got %v", fm)
	}
}

func TestExtractLinks_MarkdownAndImages(t *testing.T) {
	body := []byte("See [the guide](guide.md) and ![diagram](img/flow.png).\n" +
		"External [site](https://example.com) and [frag](#section) are skipped.\n" +
		"[anchored](guide.md#setup) dedupes against the plain link.")
	links := extractLinks(body, parseMarkdown(body))
	if len(links) != 2 {
		t.Fatalf("links = %v, want [guide.md img/flow.png]", links)
	}
	if links[0] != "guide.md" || links[1] != "img/flow.png" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractWikilinks(t *testing.T) {
	links := extractWikilinks("See [[Note A]] and [[Note B|alias]].\nAlso [[Note A]] again.")
	if len(links) != 2 {
		t.Fatalf("len(links) = %d, want 2: %v", len(links), links)
	}
	if links[0] != "Note A" || links[1] != "Note B" {
		t.Errorf("links = %v", links)
	}
}

func TestExtractWikilinks_EmptyTarget(t *testing.T) {
	links := extractWikilinks("see [[ ]] and [[|alias]]")
	if len(links) != 0 {
		t.Errorf("expected no links, got %v", links)
	}
}

func TestExtractTags_InlineAndFrontmatter(t *testing.T) {
	fm := map[string]any{
		"tags": []any{"alpha"},
	}
	body := "Some text #beta and #alpha again."
	tags := extractTags(body, fm)
	// alpha from frontmatter, beta from body; alpha not duplicated.
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("tags = %v, want [alpha beta]", tags)
	}
}

func TestDeriveTitle_H1Fallback(t *testing.T) {
	body := []byte("some text\n\n# My Heading\nmore")
	title := deriveTitle(nil, body, parseMarkdown(body))
	if title != "My Heading" {
		t.Errorf("title = %q, want %q", title, "My Heading")
	}
}
