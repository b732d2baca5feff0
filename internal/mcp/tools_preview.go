package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"pagebuilder/internal/surface"
)

func (s *Server) registerPreviewTools() {
	// ── preview_section ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_section",
		mcp.WithDescription("Show a new section of the given type in the preview without saving it. Use add_section to keep it or cancel_preview to drop it."),
		mcp.WithString("sectionType", mcp.Description("Section type from list_section_types"), mcp.Required()),
	), s.handlePreviewSection)

	// ── cancel_preview ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("cancel_preview",
		mcp.WithDescription("Drop the section shown by preview_section"),
	), s.handleCancelPreview)

	// ── add_section ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_section",
		mcp.WithDescription("Save the previewed section at the end of a source"),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
	), s.handleAddSection)

	// ── preview_status ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("preview_status",
		mcp.WithDescription("Report whether the preview is loaded, which section is previewed and which refresh it has not applied yet"),
	), s.handlePreviewStatus)
}

type previewStatus struct {
	Loaded            bool   `json:"loaded"`
	SectionID         string `json:"sectionId,omitempty"`
	SectionType       string `json:"sectionType,omitempty"`
	PreviousSectionID string `json:"previousSectionId,omitempty"`
	Pending           string `json:"pending"`
}

func (s *Server) handlePreviewSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sectionType := req.GetString("sectionType", "")
	if sectionType == "" {
		return nil, fmt.Errorf("sectionType is required")
	}
	section, err := s.editor.PreviewSection(ctx, sectionType)
	if err != nil {
		return nil, fmt.Errorf("preview section: %w", err)
	}
	return jsonResult(section)
}

func (s *Server) handleCancelPreview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.editor.CancelPreview(ctx)
	return textResult("Preview cancelled"), nil
}

func (s *Server) handleAddSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := s.resolveSource(req)
	if err != nil {
		return nil, err
	}
	ref, err := s.editor.AddSection(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("add section: %w", err)
	}
	return jsonResult(ref)
}

func (s *Server) handlePreviewStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := s.editor.Session().State()
	status := previewStatus{
		Loaded:            state.Loaded,
		PreviousSectionID: state.PreviousSectionID,
		Pending:           string(surface.KindNone),
	}
	if state.Section != nil {
		status.SectionID, status.SectionType = state.Section.ID, state.Section.Type
	}
	if d := state.Pending.Peek(); !surface.IsNone(d) {
		status.Pending = string(d.Kind())
	}
	return jsonResult(status)
}
