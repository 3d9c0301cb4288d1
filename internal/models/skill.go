// Package models defines the domain types for Skilldex.
package models

import (
	"strings"
	"time"
)

// SkillFileName is the canonical entry document of a skill directory.
const SkillFileName = "SKILL.md"

// Document represents a parsed Markdown file in the library.
type Document struct {
	Path        string                 `json:"path"`
	Content     []byte                 `json:"-"`
	Body        string                 `json:"body"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
	Title       string                 `json:"title,omitempty"`
	Links       []string               `json:"links,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Checksum    string                 `json:"checksum"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// FileMetadata is a lightweight representation returned by list operations.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Link represents a directed edge between two documents.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"` // "inline" or "wikilink"
}

// Skill is a manifest entry: one skill directory in the library.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Path        string   `json:"path"`
	Files       []string `json:"files"`
	Tags        []string `json:"tags"`
}

// Manifest is the skills.json catalog of the whole library.
type Manifest struct {
	Version     string  `json:"version"`
	GeneratedAt string  `json:"generated_at"`
	Repository  string  `json:"repository"`
	RawBaseURL  string  `json:"raw_base_url"`
	SkillCount  int     `json:"skill_count"`
	Skills      []Skill `json:"skills"`
}

// Find returns the manifest skill whose name or id matches
// (case-insensitive), or nil.
func (m *Manifest) Find(name string) *Skill {
	for i := range m.Skills {
		s := &m.Skills[i]
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.ID, name) {
			return s
		}
	}
	return nil
}
