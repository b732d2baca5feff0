package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/catalog"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/service"
	"pagebuilder/internal/storage"
	"pagebuilder/internal/surface"
)

type editorFixture struct {
	svc     *service.EditorService
	store   *storage.ContentStore
	history *storage.HistoryStore
	emitter *service.MockEmitter
}

func heroDefinition() domain.SectionDefinition {
	return domain.SectionDefinition{
		Type: "hero",
		Name: "Hero",
		Settings: []domain.SettingDefinition{
			{ID: "heading", Type: domain.SettingText, Default: domain.String("Welcome")},
			{ID: "layout", Type: "select", Default: domain.String("wide")},
		},
		Blocks: []domain.BlockDefinition{
			{Type: "slide", Name: "Slide", Settings: []domain.SettingDefinition{
				{ID: "image", Type: domain.SettingImagePicker},
				{ID: "title", Type: domain.SettingText, Default: domain.String("<b>New</b> slide")},
			}},
			{Type: "spacer", Name: "Spacer", Settings: []domain.SettingDefinition{
				{ID: "height", Type: "range", Default: domain.Number(24)},
			}},
		},
	}
}

func newEditor(t *testing.T) *editorFixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "pagebuilder.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	defs, err := catalog.New(heroDefinition())
	require.NoError(t, err)

	emitter := &service.MockEmitter{}
	session := preview.NewSession(surface.NewChannel(emitter))
	session.Dispatch(context.Background(), preview.SurfaceReady{})

	f := &editorFixture{
		store:   storage.NewContentStore(db),
		history: storage.NewHistoryStore(db, 10),
		emitter: emitter,
	}
	f.svc = service.NewEditorService(service.EditorDeps{
		Catalog: defs,
		Store:   f.store,
		History: f.history,
		Session: session,
		Emitter: emitter,
	})
	return f
}

// lastDirective decodes the last directive sent to the surface.
func (f *editorFixture) lastDirective(t *testing.T) surface.Directive {
	t.Helper()
	sent := f.emitter.Named(surface.EventDirective)
	require.NotEmpty(t, sent, "no directive sent")
	d, err := surface.Decode([]byte(sent[len(sent)-1].Data.(string)))
	require.NoError(t, err)
	return d
}

func blockIDs(content domain.SectionContent) []string {
	ids := make([]string, 0, len(content.Blocks))
	for _, b := range content.Blocks {
		ids = append(ids, b.ID)
	}
	return ids
}

var heroRef = domain.SectionRef{Source: "home", Key: "hero-1"}

// ── Blocks ──────────────────────────────────────────────────

func TestEditor_AddBlock(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()

	block, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)
	assert.Equal(t, domain.String("<b>New</b> slide"), block.Setting("title"))

	content, err := f.store.GetSection(heroRef)
	require.NoError(t, err)
	assert.Equal(t, "hero", content.Type)
	assert.Equal(t, []string{block.ID}, blockIDs(content))

	assert.Equal(t, surface.RefreshSection{SectionType: "hero"}, f.lastDirective(t))
	changes := f.emitter.Named(service.EventContentChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, service.ContentChange{Source: "home", Key: "hero-1", Reason: "block:add"}, changes[0].Data)
}

func TestEditor_AddBlock_Errors(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()

	_, err := f.svc.AddBlock(ctx, heroRef, "hero", "carousel", preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrUnknownBlockType)

	_, err = f.svc.AddBlock(ctx, heroRef, "footer", "slide", preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)
	_, err = f.svc.AddBlock(ctx, heroRef, "footer", "slide", preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	assert.Empty(t, f.emitter.Named(service.EventContentChanged)[1:])
}

func TestEditor_MoveAndRemoveBlock(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	var ids []string
	for _, blockType := range []string{"slide", "spacer", "slide"} {
		b, err := f.svc.AddBlock(ctx, heroRef, "hero", blockType, preview.ScopeStaticSection)
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	require.NoError(t, f.svc.MoveBlock(ctx, heroRef, ids[0], 5, preview.ScopeStaticSection))
	content, _ := f.store.GetSection(heroRef)
	assert.Equal(t, []string{ids[1], ids[2], ids[0]}, blockIDs(content))
	assert.Equal(t, surface.RefreshSection{SectionType: "hero"}, f.lastDirective(t))

	require.NoError(t, f.svc.RemoveBlock(ctx, heroRef, ids[2], preview.ScopeStaticSection))
	content, _ = f.store.GetSection(heroRef)
	assert.Equal(t, []string{ids[1], ids[0]}, blockIDs(content))

	assert.ErrorIs(t, f.svc.RemoveBlock(ctx, heroRef, "nope", preview.ScopeSection), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.MoveBlock(ctx, heroRef, "nope", 0, preview.ScopeSection), domain.ErrNotFound)
}

func TestEditor_MoveBlockToSamePlaceIsNoop(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	b, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)
	before := len(f.emitter.Events)

	require.NoError(t, f.svc.MoveBlock(ctx, heroRef, b.ID, 0, preview.ScopeSection))
	assert.Len(t, f.emitter.Events, before)
}

func TestEditor_UpdateSetting(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	b, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateSetting(ctx, heroRef, b.ID, "title", domain.String("Hi"), preview.ScopeSection))
	assert.Equal(t, surface.UpdateInput{
		SectionType: "hero",
		SectionID:   "hero-1",
		BlockID:     b.ID,
		FieldID:     "title",
		NewValue:    domain.String("Hi"),
	}, f.lastDirective(t))

	require.NoError(t, f.svc.UpdateSetting(ctx, heroRef, b.ID, "image", domain.Ref("cat.png"), preview.ScopeSection))
	assert.Equal(t, surface.RefreshSection{SectionType: "hero"}, f.lastDirective(t))

	require.NoError(t, f.svc.UpdateSetting(ctx, heroRef, "", "heading", domain.String("Hello"), preview.ScopeSection))
	assert.Equal(t, surface.UpdateInput{
		SectionType: "hero",
		SectionID:   "hero-1",
		FieldID:     "heading",
		NewValue:    domain.String("Hello"),
	}, f.lastDirective(t))

	content, err := f.store.GetSection(heroRef)
	require.NoError(t, err)
	assert.Equal(t, domain.String("Hi"), content.Blocks[0].Setting("title"))
	assert.Equal(t, domain.Ref("cat.png"), content.Blocks[0].Setting("image"))
	assert.Equal(t, domain.String("Hello"), content.Settings["heading"])

	// settings edits are not undo steps
	n, _ := f.history.Count(heroRef)
	assert.Equal(t, 1, n)
}

func TestEditor_UpdateSetting_UnknownField(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	b, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)

	err = f.svc.UpdateSetting(ctx, heroRef, b.ID, "subtitle", domain.String("x"), preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	err = f.svc.UpdateSetting(ctx, heroRef, "", "subtitle", domain.String("x"), preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrSchemaMismatch)

	err = f.svc.UpdateSetting(ctx, heroRef, "nope", "title", domain.String("x"), preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditor_ListBlocks(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	slide, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)
	_, err = f.svc.AddBlock(ctx, heroRef, "hero", "spacer", preview.ScopeSection)
	require.NoError(t, err)
	require.NoError(t, f.svc.UpdateSetting(ctx, heroRef, slide.ID, "image", domain.Ref("cat.png"), preview.ScopeSection))

	summaries, err := f.svc.ListBlocks(heroRef)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "New slide", summaries[0].Name)
	assert.Equal(t, domain.Ref("cat.png"), summaries[0].Image)
	assert.Equal(t, "New slide", summaries[0].Text)

	assert.Equal(t, "Spacer", summaries[1].Name)
	assert.Empty(t, summaries[1].Text)
	assert.Equal(t, 1, summaries[1].Position)
}

func TestEditor_UndoSection(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	first, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
	require.NoError(t, err)
	_, err = f.svc.AddBlock(ctx, heroRef, "hero", "spacer", preview.ScopeSection)
	require.NoError(t, err)

	snap, err := f.svc.UndoSection(ctx, heroRef, preview.ScopeSection)
	require.NoError(t, err)
	assert.Equal(t, "add spacer", snap.Label)

	content, _ := f.store.GetSection(heroRef)
	assert.Equal(t, []string{first.ID}, blockIDs(content))
	assert.Equal(t, surface.RefreshSection{SectionType: "hero"}, f.lastDirective(t))

	_, err = f.svc.UndoSection(ctx, heroRef, preview.ScopeSection)
	require.NoError(t, err)
	_, err = f.svc.UndoSection(ctx, heroRef, preview.ScopeSection)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Sections ────────────────────────────────────────────────

func TestEditor_PreviewThenAddSection(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()

	section, err := f.svc.PreviewSection(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, surface.PreviewSection{Section: section}, f.lastDirective(t))

	ref, err := f.svc.AddSection(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, domain.SectionRef{Source: "home", Key: section.ID}, ref)

	content, err := f.store.GetSection(ref)
	require.NoError(t, err)
	assert.Equal(t, domain.String("Welcome"), content.Settings["heading"])

	assert.Nil(t, f.svc.Session().State().Section)
	_, err = f.svc.AddSection(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditor_PreviewThenCancel(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()

	section, err := f.svc.PreviewSection(ctx, "hero")
	require.NoError(t, err)
	f.svc.CancelPreview(ctx)

	assert.Equal(t, surface.RemoveSection{SectionID: section.ID}, f.lastDirective(t))
	assert.Empty(t, f.emitter.Named(service.EventContentChanged))

	_, err = f.svc.PreviewSection(ctx, "footer")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditor_CancelledPreviewIsNotAdded(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()

	section, err := f.svc.PreviewSection(ctx, "hero")
	require.NoError(t, err)
	f.svc.CancelPreview(ctx)

	_, err = f.svc.AddSection(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.store.GetSection(domain.SectionRef{Source: "home", Key: section.ID})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, surface.RemoveSection{SectionID: section.ID}, f.lastDirective(t))

	// a later preview is still committable
	next, err := f.svc.PreviewSection(ctx, "hero")
	require.NoError(t, err)
	ref, err := f.svc.AddSection(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, next.ID, ref.Key)
}

func TestEditor_LocateBlock(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	var ids []string
	for range 2 {
		b, err := f.svc.AddBlock(ctx, heroRef, "hero", "slide", preview.ScopeSection)
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	index, err := f.svc.LocateBlock(heroRef, ids[1])
	require.NoError(t, err)
	assert.Equal(t, 1, index)

	index, err = f.svc.LocateBlock(heroRef, "nope")
	require.NoError(t, err)
	assert.Equal(t, -1, index)

	_, err = f.svc.LocateBlock(domain.SectionRef{Source: "home", Key: "missing"}, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.LocateBlock(domain.SectionRef{Source: "about", Key: heroRef.Key}, ids[0])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEditor_MoveAndRemoveSection(t *testing.T) {
	f := newEditor(t)
	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		_, err := f.svc.AddBlock(ctx, domain.SectionRef{Source: "home", Key: key}, "hero", "slide", preview.ScopeSection)
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.MoveSection(ctx, domain.SectionRef{Source: "home", Key: "a"}, 2))
	assert.Equal(t, surface.MoveSection{SectionID: "a", TargetSectionID: "c", Direction: surface.After}, f.lastDirective(t))
	order, _ := f.store.SectionOrder("home")
	assert.Equal(t, []string{"b", "c", "a"}, order)

	require.NoError(t, f.svc.MoveSection(ctx, domain.SectionRef{Source: "home", Key: "a"}, 0))
	assert.Equal(t, surface.MoveSection{SectionID: "a", TargetSectionID: "b", Direction: surface.Before}, f.lastDirective(t))

	require.NoError(t, f.svc.RemoveSection(ctx, domain.SectionRef{Source: "home", Key: "b"}))
	assert.Equal(t, surface.RemoveSection{SectionID: "b"}, f.lastDirective(t))
	refs, contents, err := f.svc.Sections("home")
	require.NoError(t, err)
	assert.Len(t, contents, 2)
	assert.Equal(t, "a", refs[0].Key)

	n, _ := f.history.Count(domain.SectionRef{Source: "home", Key: "b"})
	assert.Zero(t, n)

	assert.ErrorIs(t, f.svc.RemoveSection(ctx, domain.SectionRef{Source: "home", Key: "b"}), domain.ErrNotFound)
	assert.ErrorIs(t, f.svc.MoveSection(ctx, domain.SectionRef{Source: "home", Key: "b"}, 0), domain.ErrNotFound)
}
