// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Skilldex tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/copyleftdev/skilldex/internal/index"
	"github.com/copyleftdev/skilldex/internal/storage"
	"github.com/copyleftdev/skilldex/internal/validate"
)

// Server wraps the MCP server with Skilldex tools.
type Server struct {
	mcp   *server.MCPServer
	store storage.Provider
	db    *index.DB
}

// New creates a new MCP server with all Skilldex tools registered.
func New(store storage.Provider, db *index.DB) *Server {
	s := &Server{store: store, db: db}

	s.mcp = server.NewMCPServer(
		"Skilldex",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_skills",
		mcp.WithDescription("Full-text search through skill content and titles."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchSkills)

	s.mcp.AddTool(mcp.NewTool("read_skill",
		mcp.WithDescription("Read the full content of a Markdown document from the library."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. domains/sre/SKILL.md)")),
	), s.readSkill)

	s.mcp.AddTool(mcp.NewTool("list_skills",
		mcp.WithDescription("List all library documents or documents under a specific category."),
		mcp.WithString("category", mcp.Description("Optional category to list (empty for all)")),
	), s.listSkills)

	s.mcp.AddTool(mcp.NewTool("get_backlinks",
		mcp.WithDescription("Find all documents that link to the specified document."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the document to find backlinks for")),
	), s.getBacklinks)

	s.mcp.AddTool(mcp.NewTool("validate_library",
		mcp.WithDescription("Lint the whole library: Markdown parse errors, broken relative links, "+
			"missing SKILL.md frontmatter fields, and catalog drift."),
	), s.validateLibrary)

	s.mcp.AddTool(mcp.NewTool("get_skill_contract",
		mcp.WithDescription("Returns the canonical SKILL.md format contract. "+
			"Call this before authoring skills to ensure correct structure."),
	), s.getSkillContract)

	// Resource: skill format contract.
	s.mcp.AddResource(
		mcp.NewResource("skilldex://skill-format", "Skill Format Contract",
			mcp.WithResourceDescription("Canonical SKILL.md format that all skills must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSkillFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) searchSkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.db.Search(query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readSkill(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listSkills(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}

	metas, err := s.store.List(category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) getBacklinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	bl, err := s.db.Backlinks(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(bl) == 0 {
		return mcp.NewToolResultText("no backlinks found"), nil
	}
	return mcp.NewToolResultText(strings.Join(bl, "\n")), nil
}

func (s *Server) validateLibrary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := validate.Library(s.store)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSkillContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SkillFormatContract), nil
}

func (s *Server) readSkillFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "skilldex://skill-format",
			MIMEType: "text/markdown",
			Text:     SkillFormatContract,
		},
	}, nil
}
