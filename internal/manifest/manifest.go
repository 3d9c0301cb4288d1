// Package manifest builds and persists the skills.json catalog of a library.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/copyleftdev/skilldex/internal/models"
	"github.com/copyleftdev/skilldex/internal/parser"
	"github.com/copyleftdev/skilldex/internal/storage"
)

// Version is the manifest schema version.
const Version = "1.0.0"

// FileName is the manifest file name at the library root.
const FileName = "skills.json"

// templateDir marks the authoring template, which is never cataloged.
const templateDir = "skill-template"

// Generate walks the library for SKILL.md files and builds the manifest.
// repository and rawBaseURL are recorded verbatim for consumers.
func Generate(store storage.Provider, repository, rawBaseURL string) (*models.Manifest, error) {
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("manifest: walk library: %w", err)
	}

	var skills []models.Skill
	for _, m := range metas {
		if path.Base(m.Path) != models.SkillFileName {
			continue
		}
		if strings.Contains(m.Path, templateDir) {
			continue
		}
		skill, err := buildSkill(store, m.Path)
		if err != nil {
			return nil, err
		}
		skills = append(skills, *skill)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Path < skills[j].Path })

	return &models.Manifest{
		Version:     Version,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Repository:  repository,
		RawBaseURL:  rawBaseURL,
		SkillCount:  len(skills),
		Skills:      skills,
	}, nil
}

// buildSkill derives one manifest entry from a SKILL.md path like
// "languages/python/hettinger/SKILL.md".
func buildSkill(store storage.Provider, skillPath string) (*models.Skill, error) {
	data, err := store.Read(skillPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", skillPath, err)
	}
	res, err := parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", skillPath, err)
	}

	dir := path.Dir(skillPath)
	parts := strings.Split(dir, "/")

	// Skill name is the directory name; id prefers frontmatter "name".
	name := parts[len(parts)-1]
	id := name
	if fm := res.Frontmatter; fm != nil {
		if v, ok := fm["name"].(string); ok && strings.TrimSpace(v) != "" {
			id = strings.TrimSpace(v)
		}
	}

	category := parts[0]
	subcategory := ""
	if len(parts) > 2 {
		subcategory = parts[1]
	}

	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		tags = append(tags, strings.ReplaceAll(p, "-", "_"))
	}

	files, err := store.ListFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("manifest: list %s: %w", dir, err)
	}

	return &models.Skill{
		ID:          id,
		Name:        name,
		Description: res.Description,
		Category:    category,
		Subcategory: subcategory,
		Path:        dir,
		Files:       files,
		Tags:        tags,
	}, nil
}

// Write marshals the manifest with stable two-space indentation.
func Write(m *models.Manifest, filename string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("manifest: marshal: %w", err)
	}
	if err := os.WriteFile(filename, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("manifest: write %s: %w", filename, err)
	}
	return nil
}

// Load reads and unmarshals a manifest file.
func Load(filename string) (*models.Manifest, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("manifest: read %s: %w", filename, err)
	}
	var m models.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", filename, err)
	}
	return &m, nil
}
