package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

// Events emitted for changes made by another process.
const (
	EventExternalChange = "mcp:content-changed"
	EventMCPActivity    = "mcp:activity"
)

// contentWatcher polls the database for changes to the active source,
// detecting external modifications (e.g. from the standalone MCP process)
// and emitting events so the frontend refreshes. It also forwards approvals
// the standalone process is waiting for.
type contentWatcher struct {
	ctx       context.Context
	content   *storage.ContentStore
	approvals *storage.ApprovalStore
	emitter   service.EventEmitter
	log       *zap.Logger
	interval  time.Duration

	mu          sync.Mutex
	source      string
	lastContent string // count + max updated_at of the source
	// Track emitted approval IDs to avoid re-emission
	emittedApprovals map[string]bool

	stopCh chan struct{}
	done   chan struct{}
}

func newContentWatcher(ctx context.Context, c *core, emitter service.EventEmitter, log *zap.Logger) *contentWatcher {
	return &contentWatcher{
		ctx:              ctx,
		content:          c.content,
		approvals:        c.approvals,
		emitter:          emitter,
		log:              log,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// SetSource updates the watched source. Called when the user opens a page.
func (w *contentWatcher) SetSource(source string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.source = source
	w.lastContent = ""
}

// Start begins the polling loop. Should be called once on app startup.
func (w *contentWatcher) Start() {
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	go w.pollLoop()
}

// Stop terminates the polling loop and waits for it.
func (w *contentWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		<-w.done
		w.stopCh = nil
	}
}

func (w *contentWatcher) pollLoop() {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-w.stopCh:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *contentWatcher) check() {
	w.checkContent()
	w.checkApprovals()
}

func (w *contentWatcher) checkContent() {
	w.mu.Lock()
	source := w.source
	w.mu.Unlock()
	if source == "" {
		return
	}

	fingerprint, err := w.content.Fingerprint(source)
	if err != nil {
		w.log.Debug("Fingerprint failed", zap.String("source", source), zap.Error(err))
		return
	}

	w.mu.Lock()
	// a source switch while reading makes this result stale
	if w.source != source {
		w.mu.Unlock()
		return
	}
	changed := w.lastContent != "" && w.lastContent != fingerprint
	w.lastContent = fingerprint
	w.mu.Unlock()

	if changed {
		w.emitter.Emit(w.ctx, EventExternalChange, map[string]string{"source": source})
	}
}

func (w *contentWatcher) checkApprovals() {
	pending, err := w.approvals.Pending()
	if err != nil {
		w.log.Debug("Unable to list approvals", zap.Error(err))
		return
	}

	live := make(map[string]bool, len(pending))
	var fresh []storage.Approval
	w.mu.Lock()
	for _, a := range pending {
		live[a.ID] = true
		if !w.emittedApprovals[a.ID] {
			w.emittedApprovals[a.ID] = true
			fresh = append(fresh, a)
		}
	}
	// Clean up tracking for resolved/deleted approvals (standalone MCP deletes after reading)
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()

	for _, a := range fresh {
		w.emitter.Emit(w.ctx, EventMCPActivity, map[string]any{"changes": 1})
		w.emitter.Emit(w.ctx, mcpserver.EventApprovalRequired, mcpserver.PendingAction{
			ID:          a.ID,
			Tool:        a.Tool,
			Description: a.Description,
			CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
			Metadata:    a.Metadata,
		})
	}
}
