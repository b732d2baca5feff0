package app

import (
	"context"

	"github.com/robfig/cron/v3"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/service"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx context.Context
	cfg *config.Config
	log *zap.Logger

	core    *core
	editor  *service.EditorService
	watcher *contentWatcher
	pruner  *cron.Cron
}

var _ service.EventEmitter = (*App)(nil)

// New creates a new App.
func New(cfg *config.Config, log *zap.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	c, err := openCore(ctx, a.cfg, a, a.log)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to start: %v", err)
		return
	}
	a.core = c
	a.editor = c.editor

	a.pruner, err = c.startPruning(a.cfg.History.PruneSchedule, a.log.Named("history"))
	if err != nil {
		a.log.Warn("History cleanup disabled", zap.Error(err))
	}

	// Picks up edits and approval requests of a standalone MCP process
	a.watcher = newContentWatcher(ctx, c, a, a.log.Named("watcher"))
	a.watcher.SetSource(a.cfg.MCP.DefaultSource)
	a.watcher.Start()

	a.log.Info("Started", zap.String("database", c.db.Path()))
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.pruner != nil {
		<-a.pruner.Stop().Done()
	}
	var err error
	if a.core != nil {
		err = multierr.Append(err, a.core.Close())
	}
	err = multierr.Append(err, a.log.Sync())
	if err != nil {
		a.log.Debug("Shutdown", zap.Error(err))
	}
}

// Emit forwards an event to the frontend.
func (a *App) Emit(_ context.Context, event string, data any) {
	if a.ctx == nil {
		return
	}
	wailsRuntime.EventsEmit(a.ctx, event, data)
}

// ============================================================
// Preview surface
// ============================================================

// SurfaceReady is called by the preview iframe once it can take directives.
func (a *App) SurfaceReady() {
	a.editor.Session().Dispatch(a.ctx, preview.SurfaceReady{})
}

// SurfaceDone acknowledges the last directive.
func (a *App) SurfaceDone() {
	a.editor.Session().Dispatch(a.ctx, preview.SurfaceDone{})
}

// DispatchAction feeds a raw editor action into the preview session.
// Unknown action types are ignored.
func (a *App) DispatchAction(raw string) error {
	action, err := preview.DecodeAction([]byte(raw))
	if err != nil {
		return err
	}
	a.editor.Session().Dispatch(a.ctx, action)
	return nil
}

// SetActiveSource tells the watcher which source the user is editing.
func (a *App) SetActiveSource(source string) {
	a.watcher.SetSource(source)
}

// ============================================================
// MCP approvals
// ============================================================

// ApproveMCPAction lets a waiting destructive MCP call proceed.
func (a *App) ApproveMCPAction(id string) error {
	return a.core.approvals.Resolve(id, true)
}

// RejectMCPAction refuses a waiting destructive MCP call.
func (a *App) RejectMCPAction(id string) error {
	return a.core.approvals.Resolve(id, false)
}
