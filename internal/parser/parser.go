// Package parser extracts frontmatter, links, and tags from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var (
	wikilinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)
	tagRe      = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
)

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]interface{}
	Body        string
	Links       []string // relative Markdown link/image destinations
	Wikilinks   []string // [[wikilink]] targets
	Tags        []string
	Title       string
	Description string
}

// AllLinks returns Links and Wikilinks combined, preserving order.
func (r *Result) AllLinks() []string {
	if len(r.Wikilinks) == 0 {
		return r.Links
	}
	out := make([]string, 0, len(r.Links)+len(r.Wikilinks))
	out = append(out, r.Links...)
	out = append(out, r.Wikilinks...)
	return out
}

// Parse extracts frontmatter, body, links, and tags from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	doc := parseMarkdown([]byte(body))
	links := extractLinks([]byte(body), doc)
	wikilinks := extractWikilinks(body)
	tags := extractTags(body, fm)
	title := deriveTitle(fm, []byte(body), doc)

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Links:       links,
		Wikilinks:   wikilinks,
		Tags:        tags,
		Title:       title,
		Description: fmString(fm, "description"),
	}, nil
}

func parseMarkdown(body []byte) ast.Node {
	return goldmark.DefaultParser().Parse(text.NewReader(body))
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]interface{}, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		// No closing delimiter; treat everything as body.
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Invalid YAML falls back to body-only.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// Frontmatter returns just the parsed frontmatter of data, or nil when the
// file has no closed, valid --- fence block.
func Frontmatter(data []byte) map[string]interface{} {
	fm, _, _ := splitFrontmatter(data)
	return fm
}

// extractLinks returns deduplicated relative Markdown link and image
// destinations from the AST. External URLs and pure fragments are skipped.
func extractLinks(body []byte, doc ast.Node) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(target string) {
		target = strings.TrimSpace(target)
		if target == "" {
			return
		}
		if _, ok := seen[target]; ok {
			return
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var dest string
		switch node := n.(type) {
		case *ast.Link:
			dest = string(node.Destination)
		case *ast.Image:
			dest = string(node.Destination)
		default:
			return ast.WalkContinue, nil
		}
		if isExternal(dest) || strings.HasPrefix(dest, "#") {
			return ast.WalkContinue, nil
		}
		// Drop a trailing fragment: guide.md#section resolves to guide.md.
		if i := strings.Index(dest, "#"); i >= 0 {
			dest = dest[:i]
		}
		add(dest)
		return ast.WalkContinue, nil
	})

	return out
}

// extractWikilinks returns deduplicated [[wikilink]] targets, normalising aliases.
func extractWikilinks(body string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range wikilinkRe.FindAllStringSubmatch(body, -1) {
		target := m[1]
		// Handle aliases: [[Target|Alias]] → Target.
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

func isExternal(dest string) bool {
	return strings.Contains(dest, "://") || strings.HasPrefix(dest, "mailto:")
}

// extractTags collects #tags from body and from frontmatter "tags" field.
func extractTags(body string, fm map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var out []string

	if fm != nil {
		if raw, ok := fm["tags"]; ok {
			if list, ok := raw.([]interface{}); ok {
				for _, item := range list {
					s, ok := item.(string)
					if !ok {
						continue
					}
					s = strings.TrimSpace(s)
					if s == "" {
						continue
					}
					if _, dup := seen[s]; !dup {
						seen[s] = struct{}{}
						out = append(out, s)
					}
				}
			}
		}
	}

	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		t := m[1]
		if _, dup := seen[t]; !dup {
			seen[t] = struct{}{}
			out = append(out, t)
		}
	}

	return out
}

// deriveTitle returns frontmatter "title" or "name" if present, otherwise
// the first H1 heading, otherwise empty string.
func deriveTitle(fm map[string]interface{}, body []byte, doc ast.Node) string {
	for _, key := range []string{"title", "name"} {
		if s := fmString(fm, key); s != "" {
			return s
		}
	}

	var title string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering && n.Kind() == ast.KindHeading {
			heading := n.(*ast.Heading)
			if heading.Level == 1 {
				title = string(n.Text(body))
				return ast.WalkStop, nil
			}
		}
		return ast.WalkContinue, nil
	})
	return title
}

func fmString(fm map[string]interface{}, key string) string {
	if fm == nil {
		return ""
	}
	if v, ok := fm[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
