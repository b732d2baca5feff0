package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "nested", "pagebuilder.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func heroContent(titles ...string) domain.SectionContent {
	content := domain.SectionContent{Type: "hero"}
	for i, title := range titles {
		content.Blocks = append(content.Blocks, domain.Block{
			ID:       string(rune('a' + i)),
			Type:     "slide",
			Settings: domain.Settings{"title": domain.String(title), "image": domain.None()},
		})
	}
	return content
}

func TestNew_MigrationsAreRepeatable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pagebuilder.db")
	db, err := storage.New(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = storage.New(path)
	require.NoError(t, err)
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Close())
}

// ── ContentStore ────────────────────────────────────────────

func TestContentStore_SaveAndGet(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	ref := domain.SectionRef{Source: "home", Key: "hero-1"}

	want := heroContent("One", "Two")
	want.Settings = domain.Settings{"heading": domain.String("Hi"), "full_width": domain.Bool(true)}
	require.NoError(t, store.SaveSection(ref, want))

	got, err := store.GetSection(ref)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	want.Blocks = want.Blocks[:1]
	require.NoError(t, store.SaveSection(ref, want))
	got, err = store.GetSection(ref)
	require.NoError(t, err)
	assert.Len(t, got.Blocks, 1)
}

func TestContentStore_GetMissing(t *testing.T) {
	store := storage.NewContentStore(openDB(t))

	_, err := store.GetSection(domain.SectionRef{Source: "home", Key: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = store.DeleteSection(domain.SectionRef{Source: "home", Key: "nope"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentStore_EmptySectionKeepsEmptyBlocks(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	ref := domain.SectionRef{Source: "home", Key: "empty"}

	require.NoError(t, store.SaveSection(ref, domain.SectionContent{Type: "hero"}))

	got, err := store.GetSection(ref)
	require.NoError(t, err)
	assert.NotNil(t, got.Blocks)
	assert.Empty(t, got.Blocks)
	assert.Nil(t, got.Settings)
}

func TestContentStore_LoadTree(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: "hero"}, heroContent("A")))
	require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: "footer"}, heroContent()))
	require.NoError(t, store.SaveSection(domain.SectionRef{Source: "layout", Key: "header"}, heroContent("B", "C")))

	tree, err := store.LoadTree()
	require.NoError(t, err)

	require.Len(t, tree, 2)
	assert.Len(t, tree["home"].SectionsContent, 2)
	assert.Equal(t, "B", tree["layout"].SectionsContent["header"].Blocks[0].Setting("title").Text())

	sources, err := store.ListSources()
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "layout"}, sources)
}

func TestContentStore_Order(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: key}, heroContent()))
	}

	order, err := store.SectionOrder("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, order)

	require.NoError(t, store.MoveSection(domain.SectionRef{Source: "home", Key: "a"}, 2))
	order, _ = store.SectionOrder("home")
	assert.Equal(t, []string{"b", "c", "a", "d"}, order)

	require.NoError(t, store.MoveSection(domain.SectionRef{Source: "home", Key: "d"}, -5))
	order, _ = store.SectionOrder("home")
	assert.Equal(t, []string{"d", "b", "c", "a"}, order)

	require.NoError(t, store.MoveSection(domain.SectionRef{Source: "home", Key: "d"}, 99))
	order, _ = store.SectionOrder("home")
	assert.Equal(t, []string{"b", "c", "a", "d"}, order)

	// updates keep the position
	require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: "b"}, heroContent("x")))
	order, _ = store.SectionOrder("home")
	assert.Equal(t, []string{"b", "c", "a", "d"}, order)

	err = store.MoveSection(domain.SectionRef{Source: "home", Key: "zz"}, 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestContentStore_Fingerprint(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	ref := domain.SectionRef{Source: "home", Key: "hero"}

	empty, err := store.Fingerprint("home")
	require.NoError(t, err)

	require.NoError(t, store.SaveSection(ref, heroContent("A")))
	first, err := store.Fingerprint("home")
	require.NoError(t, err)
	assert.NotEqual(t, empty, first)

	require.NoError(t, store.DeleteSection(ref))
	second, err := store.Fingerprint("home")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestContentStore_FingerprintChangesOnMove(t *testing.T) {
	store := storage.NewContentStore(openDB(t))
	for _, key := range []string{"a", "b", "c"} {
		require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: key}, heroContent("A")))
	}
	before, err := store.Fingerprint("home")
	require.NoError(t, err)

	require.NoError(t, store.MoveSection(domain.SectionRef{Source: "home", Key: "a"}, 2))
	order, err := store.SectionOrder("home")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, order)

	after, err := store.Fingerprint("home")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestContentStore_TimestampsAreClean(t *testing.T) {
	db := openDB(t)
	store := storage.NewContentStore(db)
	require.NoError(t, store.SaveSection(domain.SectionRef{Source: "home", Key: "a"}, heroContent("A")))

	var updatedAt string
	require.NoError(t, db.Conn().QueryRow(`SELECT CAST(updated_at AS TEXT) FROM section_contents`).Scan(&updatedAt))
	assert.NotContains(t, updatedAt, "m=")

	fingerprint, err := store.Fingerprint("home")
	require.NoError(t, err)
	assert.NotContains(t, fingerprint, "m=")
}

// ── HistoryStore ────────────────────────────────────────────

func TestHistoryStore_PushPop(t *testing.T) {
	history := storage.NewHistoryStore(openDB(t), 0)
	ref := domain.SectionRef{Source: "home", Key: "hero"}

	require.NoError(t, history.Push(ref, "add block", heroContent("A")))
	require.NoError(t, history.Push(ref, "move block", heroContent("A", "B")))

	n, err := history.Count(ref)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	snap, err := history.Pop(ref)
	require.NoError(t, err)
	assert.Equal(t, "move block", snap.Label)
	assert.Len(t, snap.Content.Blocks, 2)
	assert.Equal(t, ref, snap.Ref)

	snap, err = history.Pop(ref)
	require.NoError(t, err)
	assert.Equal(t, "add block", snap.Label)

	_, err = history.Pop(ref)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryStore_LimitPerSection(t *testing.T) {
	history := storage.NewHistoryStore(openDB(t), 3)
	hero := domain.SectionRef{Source: "home", Key: "hero"}
	footer := domain.SectionRef{Source: "home", Key: "footer"}

	for i := 0; i < 5; i++ {
		require.NoError(t, history.Push(hero, "edit", heroContent()))
	}
	require.NoError(t, history.Push(footer, "edit", heroContent()))

	n, _ := history.Count(hero)
	assert.Equal(t, 3, n)
	n, _ = history.Count(footer)
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, history.Limit())
}

func TestHistoryStore_Prune(t *testing.T) {
	history := storage.NewHistoryStore(openDB(t), 0)
	hero := domain.SectionRef{Source: "home", Key: "hero"}
	footer := domain.SectionRef{Source: "home", Key: "footer"}
	for i := 0; i < 4; i++ {
		require.NoError(t, history.Push(hero, "edit", heroContent()))
		require.NoError(t, history.Push(footer, "edit", heroContent()))
	}
	require.NoError(t, history.Push(hero, "latest", heroContent("kept")))

	removed, err := history.Prune(1)
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)

	snap, err := history.Pop(hero)
	require.NoError(t, err)
	assert.Equal(t, "latest", snap.Label)

	require.NoError(t, history.Clear(footer))
	n, _ := history.Count(footer)
	assert.Zero(t, n)
}

func TestApprovalStore_Lifecycle(t *testing.T) {
	s := storage.NewApprovalStore(openDB(t))

	require.NoError(t, s.Insert(storage.Approval{ID: "a1", Tool: "remove_block", Description: "Remove block"}))
	require.NoError(t, s.Insert(storage.Approval{ID: "a2", Tool: "remove_section"}))

	pending, err := s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "{}", pending[0].Metadata)

	require.NoError(t, s.Resolve("a1", true))
	status, err := s.Status("a1")
	require.NoError(t, err)
	assert.Equal(t, storage.ApprovalApproved, status)

	// only pending rows resolve
	assert.ErrorIs(t, s.Resolve("a1", false), domain.ErrNotFound)

	pending, err = s.Pending()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a2", pending[0].ID)

	require.NoError(t, s.Delete("a1"))
	require.NoError(t, s.Delete("a1"))
	_, err = s.Status("a1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
