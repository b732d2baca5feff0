package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerPrompts() {
	s.mcp.AddPrompt(mcp.NewPrompt("build_page",
		mcp.WithPromptDescription("Guide through composing a page from catalog sections with the live preview"),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("Source (page) to compose"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("brief",
			mcp.ArgumentDescription("What the page is about"),
			mcp.RequiredArgument(),
		),
	), s.handleBuildPagePrompt)

	s.mcp.AddPrompt(mcp.NewPrompt("polish_section",
		mcp.WithPromptDescription("Review the blocks of one section and improve their texts"),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("Source holding the section"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("sectionKey",
			mcp.ArgumentDescription("Key of the section to polish"),
			mcp.RequiredArgument(),
		),
	), s.handlePolishSectionPrompt)
}

func (s *Server) handleBuildPagePrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	source := req.Params.Arguments["source"]
	brief := req.Params.Arguments["brief"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compose %s", source),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Compose the page "%s" about: %s. Follow these steps:

1. Call set_active_source with source "%s", then list_sections to see what is already there
2. Call list_section_types to learn the available sections and their block types
3. For each section you want, call preview_section and check it with preview_status, then add_section to keep it or cancel_preview to drop it
4. Fill the section with add_block and update_setting; text settings update the preview as you type
5. Use move_section and move_block to put things in order

Prefer few well-filled sections over many empty ones. Use undo_section if an edit goes wrong.`, source, brief, source),
				},
			},
		},
	}, nil
}

func (s *Server) handlePolishSectionPrompt(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	source := req.Params.Arguments["source"]
	key := req.Params.Arguments["sectionKey"]
	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Polish section %s/%s", source, key),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: fmt.Sprintf(`Polish section "%s" of "%s":

1. Call list_blocks with source "%s" and sectionKey "%s"
2. For each block whose text is empty or weak, rewrite it with update_setting
3. Keep the order unless a different one reads clearly better, then use move_block

Do not remove blocks without asking.`, key, source, source, key),
				},
			},
		},
	}, nil
}
