// Package validate lints a skill library: frontmatter structure, Markdown
// health, relative-link integrity, and manifest consistency.
package validate

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/copyleftdev/skilldex/internal/manifest"
	"github.com/copyleftdev/skilldex/internal/models"
	"github.com/copyleftdev/skilldex/internal/parser"
	"github.com/copyleftdev/skilldex/internal/storage"
)

// Severity classifies an issue.
type Severity string

// Issue severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// requiredFields must be present in every SKILL.md frontmatter.
var requiredFields = []string{"name", "description"}

// Issue is a single finding against one library path.
type Issue struct {
	Path     string   `json:"path"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Report is the result of a full library lint.
type Report struct {
	ScannedDocs   int     `json:"scanned_docs"`
	ScannedSkills int     `json:"scanned_skills"`
	Issues        []Issue `json:"issues"`
}

// Errors returns the number of error-severity issues.
func (r *Report) Errors() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// Warnings returns the number of warning-severity issues.
func (r *Report) Warnings() int {
	return len(r.Issues) - r.Errors()
}

// OK reports whether the library passed (warnings allowed).
func (r *Report) OK() bool {
	return r.Errors() == 0
}

func (r *Report) errorf(p string, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: p, Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(p string, format string, args ...any) {
	r.Issues = append(r.Issues, Issue{Path: p, Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Library lints every Markdown document under the store and checks the
// skills.json manifest (when present at the library root) for consistency.
func Library(store storage.Provider) (*Report, error) {
	report := &Report{}

	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("validate: walk library: %w", err)
	}

	skillDirs := make(map[string]struct{})

	for _, m := range metas {
		report.ScannedDocs++

		data, err := store.Read(m.Path)
		if err != nil {
			report.errorf(m.Path, "read failed: %v", err)
			continue
		}

		checkMarkdown(report, m.Path, data)
		checkLinks(report, store, m.Path, data)

		if path.Base(m.Path) == models.SkillFileName {
			report.ScannedSkills++
			skillDirs[path.Dir(m.Path)] = struct{}{}
			checkFrontmatter(report, m.Path, data)
		}
	}

	checkManifest(report, store, skillDirs)

	return report, nil
}

// checkFrontmatter enforces the SKILL.md contract: a closed YAML fence
// carrying the required fields.
func checkFrontmatter(report *Report, p string, data []byte) {
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\n\r"), []byte("---")) {
		report.errorf(p, "missing YAML frontmatter start (---)")
		return
	}
	fm := parser.Frontmatter(data)
	if fm == nil {
		report.errorf(p, "invalid frontmatter format")
		return
	}
	for _, field := range requiredFields {
		v, ok := fm[field]
		if !ok {
			report.errorf(p, "missing required field: %s", field)
			continue
		}
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) == "" {
			report.errorf(p, "required field %s must be a non-empty string", field)
		}
	}
}

// checkMarkdown verifies the body converts cleanly under goldmark.
func checkMarkdown(report *Report, p string, data []byte) {
	if err := goldmark.New().Convert(data, io.Discard); err != nil {
		report.errorf(p, "markdown parse error: %v", err)
	}
}

// checkLinks resolves every relative link destination against the
// document's directory and reports targets that do not exist.
func checkLinks(report *Report, store storage.Provider, p string, data []byte) {
	res, err := parser.Parse(data)
	if err != nil {
		report.errorf(p, "parse failed: %v", err)
		return
	}
	base := path.Dir(p)
	for _, target := range res.Links {
		resolved := path.Clean(path.Join(base, filepath.ToSlash(target)))
		if strings.HasPrefix(resolved, "..") {
			report.errorf(p, "link escapes library root: %s", target)
			continue
		}
		if !store.Exists(resolved) {
			report.errorf(p, "broken link: %s", target)
		}
	}
}

// checkManifest cross-checks skills.json against the skill directories on
// disk. A missing manifest or an uncataloged skill is a warning; a manifest
// entry whose path is gone is an error.
func checkManifest(report *Report, store storage.Provider, skillDirs map[string]struct{}) {
	manifestPath := filepath.Join(store.Root(), manifest.FileName)
	if _, err := os.Stat(manifestPath); err != nil {
		report.warnf(manifest.FileName, "manifest not found; run the manifest command to generate it")
		return
	}
	m, err := manifest.Load(manifestPath)
	if err != nil {
		report.errorf(manifest.FileName, "manifest unreadable: %v", err)
		return
	}

	cataloged := make(map[string]struct{}, len(m.Skills))
	for _, s := range m.Skills {
		cataloged[s.Path] = struct{}{}
		if !store.Exists(path.Join(s.Path, models.SkillFileName)) {
			report.errorf(manifest.FileName, "manifest entry %s has no %s on disk", s.Path, models.SkillFileName)
		}
	}
	for dir := range skillDirs {
		if strings.Contains(dir, "skill-template") {
			continue
		}
		if _, ok := cataloged[dir]; !ok {
			report.warnf(dir, "skill found on disk but missing from %s", manifest.FileName)
		}
	}
}
