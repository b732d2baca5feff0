package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// Server is the MCP server of the page builder.
// It exposes tools, resources, and prompts so AI agents can edit sections.
type Server struct {
	mcp      *server.MCPServer
	editor   *service.EditorService
	approval *ApprovalQueue // nil when destructive tools run without asking
	log      *zap.Logger

	mu sync.Mutex
	// Active source context (set by set_active_source tool)
	activeSource string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Editor          *service.EditorService
	Emitter         service.EventEmitter
	Logger          *zap.Logger
	DefaultSource   string
	RequireApproval bool
	ApprovalTimeout time.Duration
	// When set, approvals go through the database (standalone mode)
	Approvals *storage.ApprovalStore
}

// New creates and configures a new MCP server with all tools and resources.
func New(deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		editor:       deps.Editor,
		log:          log.Named("mcp"),
		activeSource: deps.DefaultSource,
	}
	if deps.RequireApproval {
		s.approval = NewApprovalQueue(deps.Emitter, deps.ApprovalTimeout, s.log)
		if deps.Approvals != nil {
			s.approval.UseStore(deps.Approvals)
		}
	}

	s.mcp = server.NewMCPServer(
		"pagebuilder-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerSourceTools()
	s.registerSectionTools()
	s.registerBlockTools()
	s.registerPreviewTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.log.Info("Starting stdio server")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) bool {
	return s.approval != nil && s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) bool {
	return s.approval != nil && s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// resolveSource returns the source from tool args or falls back to the
// active source.
func (s *Server) resolveSource(req mcp.CallToolRequest) (string, error) {
	if source := req.GetString("source", ""); source != "" {
		return source, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeSource != "" {
		return s.activeSource, nil
	}
	return "", fmt.Errorf("no source provided and no active source set (use set_active_source first)")
}

// resolveRef builds the section reference from the source and sectionKey args.
func (s *Server) resolveRef(req mcp.CallToolRequest) (domain.SectionRef, error) {
	source, err := s.resolveSource(req)
	if err != nil {
		return domain.SectionRef{}, err
	}
	key := req.GetString("sectionKey", "")
	if key == "" {
		return domain.SectionRef{}, fmt.Errorf("sectionKey is required")
	}
	return domain.SectionRef{Source: source, Key: key}, nil
}

// resolveScope reads the optional scope arg.
func resolveScope(req mcp.CallToolRequest) (preview.Scope, error) {
	return preview.ParseScope(req.GetString("scope", ""))
}

// requestApproval asks the user before a destructive tool runs. Without an
// approval queue every request passes.
func (s *Server) requestApproval(ctx context.Context, tool, description string, metadata any) error {
	if s.approval == nil {
		return nil
	}
	return s.approval.Request(ctx, tool, description, metadata)
}
