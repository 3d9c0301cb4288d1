package api

import (
	"time"

	"github.com/copyleftdev/skilldex/internal/docservice"
	"github.com/copyleftdev/skilldex/internal/validate"
)

// CreateSkillRequest is the request body for creating a skill document.
type CreateSkillRequest struct {
	Path    string `json:"path" example:"domains/sre/SKILL.md" validate:"required"`
	Content string `json:"content" example:"---\nname: sre\n---\n# SRE" validate:"required"`
}

// UpdateSkillRequest is the request body for updating a skill document.
type UpdateSkillRequest struct {
	Content string `json:"content" example:"# Updated\nContent" validate:"required"`
}

// DocDetail is the full document response type (aliased from the domain layer).
type DocDetail = docservice.DocDetail

// DocListItem is a lightweight item in a list response (aliased from the domain layer).
type DocListItem = docservice.DocListItem

// SkillListResponse wraps paginated document listings.
type SkillListResponse struct {
	Skills []DocListItem `json:"skills" validate:"required"`
	Total  int           `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"domains/sre/SKILL.md" validate:"required"`
	Title   string `json:"title" example:"sre" validate:"required"`
	Snippet string `json:"snippet" example:"...matched text..." validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// CategoryEntry is a collection category with its document count.
type CategoryEntry struct {
	Category string `json:"category" example:"domains" validate:"required"`
	Count    int    `json:"count" example:"12" validate:"required"`
}

// ValidateResponse wraps a library lint report.
type ValidateResponse struct {
	OK            bool             `json:"ok" validate:"required"`
	ScannedDocs   int              `json:"scanned_docs" validate:"required"`
	ScannedSkills int              `json:"scanned_skills" validate:"required"`
	Issues        []validate.Issue `json:"issues" validate:"required"`
}

// DocListItemDTO mirrors DocListItem for swag.
type DocListItemDTO struct {
	Path      string    `json:"path" example:"domains/sre/SKILL.md"`
	Title     string    `json:"title" example:"sre"`
	Category  string    `json:"category" example:"domains"`
	Checksum  string    `json:"checksum" example:"abc123..."`
	Tags      []string  `json:"tags" example:"domains,sre"`
	UpdatedAt time.Time `json:"updated_at"`
}
