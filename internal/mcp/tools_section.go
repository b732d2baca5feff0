package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSectionTools() {
	// ── move_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_section",
		mcp.WithDescription("Move a section to a new position within its source"),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithNumber("newIndex", mcp.Description("Zero-based target position, clamped to the source"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
	), s.handleMoveSection)

	// ── remove_section (destructive) ───────────────────
	s.mcp.AddTool(mcp.NewTool("remove_section",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a section, its blocks and its undo history. Requires user approval."),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveSection)
}

func (s *Server) handleMoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	newIndex, err := getIndex(req.GetArguments(), "newIndex")
	if err != nil {
		return nil, err
	}

	if err := s.editor.MoveSection(ctx, ref, newIndex); err != nil {
		return nil, fmt.Errorf("move section: %w", err)
	}
	return textResult(fmt.Sprintf("Section %s moved to %d", ref, newIndex)), nil
}

func (s *Server) handleRemoveSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}

	err = s.requestApproval(ctx, "remove_section",
		fmt.Sprintf("Remove section %s", ref),
		map[string]any{"sectionKey": ref.Key})
	if err != nil {
		return textResult(fmt.Sprintf("Section %s kept: %v", ref, err)), nil
	}

	if err := s.editor.RemoveSection(ctx, ref); err != nil {
		return nil, fmt.Errorf("remove section: %w", err)
	}
	return textResult(fmt.Sprintf("Section %s removed", ref)), nil
}
