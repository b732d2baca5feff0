package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pagebuilder/internal/config"
	"pagebuilder/internal/domain"
	mcpserver "pagebuilder/internal/mcp"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
)

const heroYAML = `
type: hero
name: Hero
blocks:
  - type: slide
    name: Slide
    settings:
      - id: title
        type: text
        default: New slide
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Catalog.Watch = false
	require.NoError(t, os.MkdirAll(cfg.CatalogDir(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.CatalogDir(), "hero.yaml"), []byte(heroYAML), 0o644))
	return cfg
}

func openTestCore(t *testing.T, emitter service.EventEmitter) *core {
	t.Helper()
	c, err := openCore(context.Background(), testConfig(t), emitter, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestOpenCore(t *testing.T) {
	c := openTestCore(t, service.NopEmitter{})

	assert.Equal(t, []string{"hero"}, c.catalog.Types())

	ref := domain.SectionRef{Source: "home", Key: "hero-1"}
	block, err := c.editor.AddBlock(context.Background(), ref, "hero", "slide", "section")
	require.NoError(t, err)
	assert.Equal(t, domain.String("New slide"), block.Setting("title"))

	content, err := c.content.GetSection(ref)
	require.NoError(t, err)
	assert.Len(t, content.Blocks, 1)
}

func TestOpenCore_WatchesCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Watch = true
	c, err := openCore(context.Background(), cfg, &service.MockEmitter{}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, c.watch)
	assert.NoError(t, c.Close())
}

func TestStartPruning(t *testing.T) {
	c := openTestCore(t, service.NopEmitter{})

	sched, err := c.startPruning("", zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, sched)

	_, err = c.startPruning("every tuesday", zap.NewNop())
	assert.Error(t, err)

	sched, err = c.startPruning("@every 1h", zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Len(t, sched.Entries(), 1)
	<-sched.Stop().Done()
}

// ── Content watcher ────────────────────────────────────────

func TestContentWatcher_ExternalChange(t *testing.T) {
	emitter := &service.MockEmitter{}
	c := openTestCore(t, emitter)
	w := newContentWatcher(context.Background(), c, emitter, zap.NewNop())

	// nothing watched yet
	w.check()
	assert.Empty(t, emitter.Named(EventExternalChange))

	w.SetSource("home")
	w.check()
	assert.Empty(t, emitter.Named(EventExternalChange), "first look only records")

	require.NoError(t, c.content.SaveSection(domain.SectionRef{Source: "home", Key: "a"}, domain.SectionContent{Type: "hero"}))
	w.check()
	changes := emitter.Named(EventExternalChange)
	require.Len(t, changes, 1)
	assert.Equal(t, map[string]string{"source": "home"}, changes[0].Data)

	w.check()
	assert.Len(t, emitter.Named(EventExternalChange), 1)

	// other sources do not count
	require.NoError(t, c.content.SaveSection(domain.SectionRef{Source: "about", Key: "b"}, domain.SectionContent{Type: "hero"}))
	w.check()
	assert.Len(t, emitter.Named(EventExternalChange), 1)

	// a reorder alone is a change
	require.NoError(t, c.content.SaveSection(domain.SectionRef{Source: "home", Key: "c"}, domain.SectionContent{Type: "hero"}))
	w.check()
	require.Len(t, emitter.Named(EventExternalChange), 2)
	require.NoError(t, c.content.MoveSection(domain.SectionRef{Source: "home", Key: "c"}, 0))
	w.check()
	assert.Len(t, emitter.Named(EventExternalChange), 3)
}

func TestContentWatcher_Approvals(t *testing.T) {
	emitter := &service.MockEmitter{}
	c := openTestCore(t, emitter)
	w := newContentWatcher(context.Background(), c, emitter, zap.NewNop())

	require.NoError(t, c.approvals.Insert(storage.Approval{ID: "a1", Tool: "remove_block", Description: "Remove block"}))
	w.check()
	w.check()

	required := emitter.Named(mcpserver.EventApprovalRequired)
	require.Len(t, required, 1, "each approval is announced once")
	action := required[0].Data.(mcpserver.PendingAction)
	assert.Equal(t, "a1", action.ID)
	assert.Equal(t, "remove_block", action.Tool)
	assert.Len(t, emitter.Named(EventMCPActivity), 1)

	require.NoError(t, c.approvals.Resolve("a1", true))
	w.check()
	w.mu.Lock()
	assert.Empty(t, w.emittedApprovals)
	w.mu.Unlock()
}

func TestContentWatcher_StartStop(t *testing.T) {
	c := openTestCore(t, service.NopEmitter{})
	w := newContentWatcher(context.Background(), c, service.NopEmitter{}, zap.NewNop())
	w.Start()
	w.Stop()
	w.Stop()
}
