package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"pagebuilder/internal/blocks"
	"pagebuilder/internal/catalog"
	"pagebuilder/internal/config"
	"pagebuilder/internal/markup"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/surface"
)

// EventCatalogChanged is emitted with the section types after the definition
// directory changed on disk.
const EventCatalogChanged = "catalog:changed"

// core is everything the desktop app and the standalone MCP server share:
// storage, the definition catalog, and the editor with its preview session.
type core struct {
	db        *storage.DB
	content   *storage.ContentStore
	history   *storage.HistoryStore
	approvals *storage.ApprovalStore
	catalog   *catalog.Catalog
	watch     *catalog.Watcher
	editor    *service.EditorService
}

func openCore(ctx context.Context, cfg *config.Config, emitter service.EventEmitter, log *zap.Logger) (*core, error) {
	db, err := storage.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	c := &core{
		db:        db,
		content:   storage.NewContentStore(db),
		history:   storage.NewHistoryStore(db, cfg.History.Limit),
		approvals: storage.NewApprovalStore(db),
	}

	c.catalog, err = catalog.Load(cfg.CatalogDir())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Info("Catalog loaded", zap.String("dir", cfg.CatalogDir()), zap.Strings("types", c.catalog.Types()))

	if cfg.Catalog.Watch {
		c.watch, err = catalog.Watch(c.catalog, log, func(types []string) {
			emitter.Emit(ctx, EventCatalogChanged, types)
		})
		if err != nil {
			// editing still works, only without live reload
			log.Warn("Unable to watch catalog", zap.Error(err))
		}
	}

	session := preview.NewSession(surface.NewChannel(emitter),
		preview.WithLogger(log.Named("preview")),
		preview.WithInputDebounce(cfg.Preview.InputDebounce),
	)
	c.editor = service.NewEditorService(service.EditorDeps{
		Catalog: c.catalog,
		Store:   c.content,
		History: c.history,
		Blocks:  blocks.NewService(markup.HTML{}, uuid.NewString),
		Session: session,
		Emitter: emitter,
		Logger:  log.Named("editor"),
	})
	return c, nil
}

// startPruning schedules the history cleanup. An empty schedule returns nil.
func (c *core) startPruning(schedule string, log *zap.Logger) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}
	keep := c.history.Limit()
	sched := cron.New()
	_, err := sched.AddFunc(schedule, func() {
		n, err := c.history.Prune(keep)
		if err != nil {
			log.Warn("History cleanup failed", zap.Error(err))
			return
		}
		if n > 0 {
			log.Debug("History cleaned up", zap.Int64("removed", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("schedule history cleanup: %w", err)
	}
	sched.Start()
	return sched, nil
}

func (c *core) Close() error {
	var err error
	if c.watch != nil {
		err = multierr.Append(err, c.watch.Close())
	}
	return multierr.Append(err, c.db.Close())
}
