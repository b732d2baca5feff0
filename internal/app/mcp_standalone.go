package app

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pagebuilder/internal/config"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
)

// ServeMCP runs the app as a standalone MCP server on stdin/stdout with no GUI.
// Destructive tools wait for approval from a desktop app sharing the same
// database. It returns when stdin closes or ctx is done.
func ServeMCP(ctx context.Context, cfg *config.Config, log *zap.Logger) (err error) {
	emitter := service.NopEmitter{}

	c, err := openCore(ctx, cfg, emitter, log)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, c.Close()) }()

	// No surface ever reports ready here: the session only tracks directives
	// for preview_status.

	srv := mcpserver.New(mcpserver.Deps{
		Editor:          c.editor,
		Emitter:         emitter,
		Logger:          log,
		DefaultSource:   cfg.MCP.DefaultSource,
		RequireApproval: cfg.MCP.RequireApproval,
		ApprovalTimeout: cfg.MCP.ApprovalTimeout,
		Approvals:       c.approvals, // approvals go through SQLite
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ServeStdio() }()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("mcp server: %w", err)
		}
		return nil
	case <-ctx.Done():
		return nil
	}
}
