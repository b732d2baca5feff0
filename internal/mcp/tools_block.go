package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerBlockTools() {
	// ── list_blocks ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_blocks",
		mcp.WithDescription("List the blocks of a section in render order, with their display label"),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
	), s.handleListBlocks)

	// ── locate_block ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("locate_block",
		mcp.WithDescription("Return the position of a block inside its section (-1 when the section has no such block)"),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
	), s.handleLocateBlock)

	// ── add_block ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_block",
		mcp.WithDescription("Append a block with default settings to a section. The preview refreshes the section."),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("blockType", mcp.Description("Block type from list_section_types"), mcp.Required()),
		mcp.WithString("sectionType",
			mcp.Description("Section type, required when the section has no content yet"),
		),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		withScope(),
	), s.handleAddBlock)

	// ── remove_block (destructive) ─────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_block",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a block from a section. Requires user approval."),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID to remove"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		withScope(),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemoveBlock)

	// ── move_block ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("move_block",
		mcp.WithDescription("Move a block to a new position inside its section"),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("blockId", mcp.Description("Block ID"), mcp.Required()),
		mcp.WithNumber("newIndex", mcp.Description("Zero-based target position, clamped to the section"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		withScope(),
	), s.handleMoveBlock)

	// ── update_setting ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_setting",
		mcp.WithDescription("Change one setting of a block, or of the section when blockId is omitted. Text settings are patched in the preview, other types refresh the section."),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("fieldId", mcp.Description("Setting ID"), mcp.Required()),
		mcp.WithString("value",
			mcp.Description(`New value as JSON ("text", 42, true, {"ref":"target"}). Plain text is taken as a string.`),
			mcp.Required(),
		),
		mcp.WithString("blockId", mcp.Description("Block ID (optional, section setting when omitted)")),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		withScope(),
	), s.handleUpdateSetting)

	// ── undo_section ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo_section",
		mcp.WithDescription("Revert the last structural block edit of a section"),
		mcp.WithString("sectionKey", mcp.Description("Section key"), mcp.Required()),
		mcp.WithString("source", mcp.Description("Source (optional, defaults to active source)")),
		withScope(),
	), s.handleUndoSection)
}

func boolPtr(v bool) *bool { return &v }

func withScope() mcp.ToolOption {
	return mcp.WithString("scope",
		mcp.Description(`"section" (default) for page sections, "static-section" for layout-wide sections`),
		mcp.Enum("section", "static-section"),
	)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListBlocks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	blocks, err := s.editor.ListBlocks(ref)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	return jsonResult(blocks)
}

func (s *Server) handleLocateBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	index, err := s.editor.LocateBlock(ref, blockID)
	if err != nil {
		return nil, fmt.Errorf("locate block: %w", err)
	}
	return jsonResult(map[string]int{"index": index})
}

func (s *Server) handleAddBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(req)
	if err != nil {
		return nil, err
	}
	blockType := req.GetString("blockType", "")
	if blockType == "" {
		return nil, fmt.Errorf("blockType is required")
	}

	block, err := s.editor.AddBlock(ctx, ref, req.GetString("sectionType", ""), blockType, scope)
	if err != nil {
		return nil, fmt.Errorf("add block: %w", err)
	}
	return jsonResult(block)
}

func (s *Server) handleRemoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(req)
	if err != nil {
		return nil, err
	}
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}

	// Require approval (with metadata for frontend highlight)
	err = s.requestApproval(ctx, "remove_block",
		fmt.Sprintf("Remove block %s from section %s", blockID, ref),
		map[string]any{"sectionKey": ref.Key, "blockIds": []string{blockID}})
	if err != nil {
		return textResult(fmt.Sprintf("Block %s kept: %v", blockID, err)), nil
	}

	if err := s.editor.RemoveBlock(ctx, ref, blockID, scope); err != nil {
		return nil, fmt.Errorf("remove block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s removed", blockID)), nil
}

func (s *Server) handleMoveBlock(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(req)
	if err != nil {
		return nil, err
	}
	blockID := req.GetString("blockId", "")
	if blockID == "" {
		return nil, fmt.Errorf("blockId is required")
	}
	newIndex, err := getIndex(req.GetArguments(), "newIndex")
	if err != nil {
		return nil, err
	}

	if err := s.editor.MoveBlock(ctx, ref, blockID, newIndex, scope); err != nil {
		return nil, fmt.Errorf("move block: %w", err)
	}
	return textResult(fmt.Sprintf("Block %s moved to %d", blockID, newIndex)), nil
}

func (s *Server) handleUpdateSetting(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(req)
	if err != nil {
		return nil, err
	}
	fieldID := req.GetString("fieldId", "")
	if fieldID == "" {
		return nil, fmt.Errorf("fieldId is required")
	}
	raw, ok := req.GetArguments()["value"].(string)
	if !ok {
		return nil, fmt.Errorf("value is required")
	}

	blockID := req.GetString("blockId", "")
	value := parseValue(raw)
	if err := s.editor.UpdateSetting(ctx, ref, blockID, fieldID, value, scope); err != nil {
		return nil, fmt.Errorf("update setting: %w", err)
	}
	return textResult(fmt.Sprintf("Setting %s set to %s", fieldID, value)), nil
}

func (s *Server) handleUndoSection(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.resolveRef(req)
	if err != nil {
		return nil, err
	}
	scope, err := resolveScope(req)
	if err != nil {
		return nil, err
	}

	snap, err := s.editor.UndoSection(ctx, ref, scope)
	if err != nil {
		return nil, fmt.Errorf("undo: %w", err)
	}
	return textResult(fmt.Sprintf("Reverted %q on section %s", snap.Label, ref)), nil
}
