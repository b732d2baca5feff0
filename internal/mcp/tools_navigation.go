package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSourceTools() {
	// ── set_active_source ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_active_source",
		mcp.WithDescription("Set the active source (page or layout) for subsequent tool calls. Tools that accept source will default to this."),
		mcp.WithString("source",
			mcp.Description("Name of the source to make active"),
			mcp.Required(),
		),
	), s.handleSetActiveSource)

	// ── list_section_types ─────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_section_types",
		mcp.WithDescription("List the section types of the catalog with their settings and block types"),
	), s.handleListSectionTypes)

	// ── list_sections ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the sections of a source in render order"),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
	), s.handleListSections)
}

func (s *Server) handleSetActiveSource(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := req.GetString("source", "")
	if source == "" {
		return nil, fmt.Errorf("source is required")
	}
	s.mu.Lock()
	s.activeSource = source
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Active source set to %s", source)), nil
}

func (s *Server) handleListSectionTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	catalog := s.editor.Catalog()
	types := catalog.Types()
	summaries := make([]sectionTypeSummary, 0, len(types))
	for _, t := range types {
		if def, ok := catalog.Section(t); ok {
			summaries = append(summaries, summarizeDefinition(def))
		}
	}
	return jsonResult(summaries)
}

func (s *Server) handleListSections(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := s.resolveSource(req)
	if err != nil {
		return nil, err
	}
	refs, contents, err := s.editor.Sections(source)
	if err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return jsonResult(summarizeSections(refs, contents))
}
