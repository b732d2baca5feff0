package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"go.uber.org/zap"

	"pagebuilder/internal/blocks"
	"pagebuilder/internal/domain"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Editor Service: section and block edits with live preview
// ─────────────────────────────────────────────────────────────

// EventContentChanged is emitted after every persisted content change.
const EventContentChanged = "content:changed"

// ContentChange is the payload of EventContentChanged.
type ContentChange struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

// History is the undo stack the editor pushes to before structural edits.
type History interface {
	Push(ref domain.SectionRef, label string, content domain.SectionContent) error
	Pop(ref domain.SectionRef) (storage.Snapshot, error)
	Clear(ref domain.SectionRef) error
}

// EditorDeps groups the collaborators of an EditorService.
type EditorDeps struct {
	Catalog domain.Catalog
	Store   domain.ContentStore
	History History
	Blocks  *blocks.Service
	Session *preview.Session
	Emitter EventEmitter
	Logger  *zap.Logger
}

// EditorService persists edits and tells the preview session about them.
// Every method persists first and dispatches second, so a failed write never
// reaches the surface.
type EditorService struct {
	catalog domain.Catalog
	store   domain.ContentStore
	history History
	blocks  *blocks.Service
	session *preview.Session
	emitter EventEmitter
	log     *zap.Logger

	mu sync.Mutex
	// previewed is the section AddSection commits. The session state keeps a
	// cancelled section around, so it cannot serve for this.
	previewed *domain.Section
}

// NewEditorService creates an EditorService. Blocks, Emitter and Logger are
// optional.
func NewEditorService(deps EditorDeps) *EditorService {
	s := &EditorService{
		catalog: deps.Catalog,
		store:   deps.Store,
		history: deps.History,
		blocks:  deps.Blocks,
		session: deps.Session,
		emitter: deps.Emitter,
		log:     deps.Logger,
	}
	if s.blocks == nil {
		s.blocks = blocks.NewService(nil, nil)
	}
	if s.emitter == nil {
		s.emitter = NopEmitter{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.session == nil {
		s.session = preview.NewSession(nil, preview.WithLogger(s.log))
	}
	return s
}

// Session returns the preview session driven by this service.
func (s *EditorService) Session() *preview.Session { return s.session }

// Catalog returns the definition catalog.
func (s *EditorService) Catalog() domain.Catalog { return s.catalog }

// ── Blocks ──────────────────────────────────────────────────

// BlockSummary describes a block as shown in the sidebar.
type BlockSummary struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Name     string       `json:"name"`
	Image    domain.Value `json:"image"`
	Text     string       `json:"text,omitempty"`
	Position int          `json:"position"`
}

// ListBlocks summarizes the blocks of a section in render order.
func (s *EditorService) ListBlocks(ref domain.SectionRef) ([]BlockSummary, error) {
	content, def, err := s.section(ref, "")
	if err != nil {
		return nil, err
	}

	summaries := make([]BlockSummary, 0, len(content.Blocks))
	for i := range content.Blocks {
		block := content.Blocks[i]
		summary := BlockSummary{ID: block.ID, Type: block.Type, Name: block.Type, Position: i}
		blockDef, ok := def.Block(block.Type)
		if ok {
			label := s.blocks.LabelElements(blockDef, block)
			summary.Name, summary.Image = label.Name, label.Image
			text, found, err := s.blocks.FindBetterText(&block, blockDef)
			if err != nil && !errors.Is(err, domain.ErrSchemaMismatch) {
				return nil, err
			}
			if found {
				summary.Text = text
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// AddBlock appends a new block of blockType to the section. A section without
// stored content starts empty.
func (s *EditorService) AddBlock(ctx context.Context, ref domain.SectionRef, sectionType, blockType string, scope preview.Scope) (domain.Block, error) {
	content, def, err := s.section(ref, sectionType)
	if err != nil {
		return domain.Block{}, err
	}
	block, err := s.blocks.Build(def, blockType)
	if err != nil {
		return domain.Block{}, err
	}

	if err := s.snapshot(ref, "add "+blockType, content); err != nil {
		return domain.Block{}, err
	}
	content.Blocks = append(content.Blocks, block)
	if err := s.save(ctx, ref, content, "block:add"); err != nil {
		return domain.Block{}, err
	}

	s.session.Dispatch(ctx, preview.AddBlock{
		Scope:       scope,
		SectionType: def.Type,
		SectionID:   ref.Key,
		BlockType:   blockType,
	})
	return block, nil
}

// RemoveBlock deletes a block from the section.
func (s *EditorService) RemoveBlock(ctx context.Context, ref domain.SectionRef, blockID string, scope preview.Scope) error {
	content, def, err := s.section(ref, "")
	if err != nil {
		return err
	}
	index := blocks.FindDropzoneBlockIndex(content, blockID)
	if index < 0 {
		return fmt.Errorf("block %s in %s: %w", blockID, ref, domain.ErrNotFound)
	}

	if err := s.snapshot(ref, "remove "+content.Blocks[index].Type, content); err != nil {
		return err
	}
	content.Blocks = append(content.Blocks[:index:index], content.Blocks[index+1:]...)
	if err := s.save(ctx, ref, content, "block:remove"); err != nil {
		return err
	}

	s.session.Dispatch(ctx, preview.RemoveBlock{
		Scope:       scope,
		SectionType: def.Type,
		SectionID:   ref.Key,
		BlockID:     blockID,
	})
	return nil
}

// MoveBlock moves a block to newIndex, clamped to the section bounds.
func (s *EditorService) MoveBlock(ctx context.Context, ref domain.SectionRef, blockID string, newIndex int, scope preview.Scope) error {
	content, def, err := s.section(ref, "")
	if err != nil {
		return err
	}
	oldIndex := blocks.FindDropzoneBlockIndex(content, blockID)
	if oldIndex < 0 {
		return fmt.Errorf("block %s in %s: %w", blockID, ref, domain.ErrNotFound)
	}
	newIndex = clamp(newIndex, len(content.Blocks)-1)
	if newIndex == oldIndex {
		return nil
	}

	if err := s.snapshot(ref, "move "+content.Blocks[oldIndex].Type, content); err != nil {
		return err
	}
	content.Blocks = moveBlock(content.Blocks, oldIndex, newIndex)
	if err := s.save(ctx, ref, content, "block:move"); err != nil {
		return err
	}

	s.session.Dispatch(ctx, preview.MoveBlock{
		Scope:       scope,
		SectionType: def.Type,
		SectionID:   ref.Key,
		OldIndex:    oldIndex,
		NewIndex:    newIndex,
	})
	return nil
}

// UpdateSetting stores value under fieldID, on the block when blockID is set
// and on the section otherwise. The field type decides whether the surface
// patches the value in place or re-renders the section.
func (s *EditorService) UpdateSetting(ctx context.Context, ref domain.SectionRef, blockID, fieldID string, value domain.Value, scope preview.Scope) error {
	content, def, err := s.section(ref, "")
	if err != nil {
		return err
	}

	var setting domain.SettingDefinition
	var ok bool
	if blockID == "" {
		setting, ok = def.Setting(fieldID)
		if !ok {
			return fmt.Errorf("setting %q of section %q: %w", fieldID, def.Type, domain.ErrSchemaMismatch)
		}
		content.Settings = maps.Clone(content.Settings)
		if content.Settings == nil {
			content.Settings = domain.Settings{}
		}
		content.Settings[fieldID] = value
	} else {
		content.Blocks = append([]domain.Block(nil), content.Blocks...)
		block, found := blocks.FetchBlockContent(content, blockID)
		if !found {
			return fmt.Errorf("block %s in %s: %w", blockID, ref, domain.ErrNotFound)
		}
		if blockDef, known := def.Block(block.Type); known {
			setting, ok = blockDef.Setting(fieldID)
		}
		if !ok {
			return fmt.Errorf("setting %q of block %q: %w", fieldID, block.Type, domain.ErrSchemaMismatch)
		}
		block.Settings = maps.Clone(block.Settings)
		if block.Settings == nil {
			block.Settings = domain.Settings{}
		}
		block.Settings[fieldID] = value
	}

	if err := s.save(ctx, ref, content, "setting"); err != nil {
		return err
	}

	s.session.Dispatch(ctx, preview.UpdateInput{
		Scope:       scope,
		SectionType: def.Type,
		SectionID:   ref.Key,
		BlockID:     blockID,
		FieldID:     fieldID,
		NewValue:    value,
		FieldType:   setting.Type,
	})
	return nil
}

// UndoSection restores the last snapshot of the section.
func (s *EditorService) UndoSection(ctx context.Context, ref domain.SectionRef, scope preview.Scope) (storage.Snapshot, error) {
	if s.history == nil {
		return storage.Snapshot{}, fmt.Errorf("history of %s: %w", ref, domain.ErrNotFound)
	}
	snap, err := s.history.Pop(ref)
	if err != nil {
		return storage.Snapshot{}, err
	}
	if err := s.save(ctx, ref, snap.Content, "undo"); err != nil {
		return storage.Snapshot{}, err
	}
	s.session.Dispatch(ctx, preview.ReloadSection{Scope: scope, SectionType: snap.Content.Type})
	return snap, nil
}

// ── Sections ────────────────────────────────────────────────

// PreviewSection shows a new, unsaved section of sectionType in the surface.
func (s *EditorService) PreviewSection(ctx context.Context, sectionType string) (domain.Section, error) {
	def, ok := s.catalog.Section(sectionType)
	if !ok {
		return domain.Section{}, fmt.Errorf("section type %q: %w", sectionType, domain.ErrNotFound)
	}
	section := s.blocks.NewSection(def)
	s.mu.Lock()
	s.previewed = &section
	s.mu.Unlock()
	s.session.Dispatch(ctx, preview.PreviewSection{Section: section})
	return section, nil
}

// CancelPreview discards the previewed section. Without one it does nothing.
func (s *EditorService) CancelPreview(ctx context.Context) {
	s.mu.Lock()
	s.previewed = nil
	s.mu.Unlock()
	s.session.Dispatch(ctx, preview.CancelPreview{})
}

// AddSection saves the previewed section at the end of source. A cancelled or
// already added preview is domain.ErrNotFound.
func (s *EditorService) AddSection(ctx context.Context, source string) (domain.SectionRef, error) {
	s.mu.Lock()
	section := s.previewed
	s.mu.Unlock()
	if section == nil {
		return domain.SectionRef{}, fmt.Errorf("previewed section: %w", domain.ErrNotFound)
	}

	ref := domain.SectionRef{Source: source, Key: section.ID}
	content := domain.SectionContent{
		Type:     section.Type,
		Settings: section.Settings,
		Blocks:   section.Blocks,
	}
	if err := s.save(ctx, ref, content, "section:add"); err != nil {
		return domain.SectionRef{}, err
	}
	s.mu.Lock()
	if s.previewed == section {
		s.previewed = nil
	}
	s.mu.Unlock()

	s.session.Dispatch(ctx, preview.AddSection{SectionType: section.Type})
	return ref, nil
}

// MoveSection moves a section to newIndex within its source.
func (s *EditorService) MoveSection(ctx context.Context, ref domain.SectionRef, newIndex int) error {
	order, err := s.store.SectionOrder(ref.Source)
	if err != nil {
		return err
	}
	oldIndex := -1
	for i, key := range order {
		if key == ref.Key {
			oldIndex = i
			break
		}
	}
	if oldIndex < 0 {
		return fmt.Errorf("section %s: %w", ref, domain.ErrNotFound)
	}
	newIndex = clamp(newIndex, len(order)-1)
	if newIndex == oldIndex {
		return nil
	}
	target := order[newIndex]

	if err := s.store.MoveSection(ref, newIndex); err != nil {
		return err
	}
	s.emit(ctx, ref, "section:move")

	s.session.Dispatch(ctx, preview.MoveSection{
		SectionID:       ref.Key,
		TargetSectionID: target,
		OldIndex:        oldIndex,
		NewIndex:        newIndex,
	})
	return nil
}

// RemoveSection deletes a section and its history.
func (s *EditorService) RemoveSection(ctx context.Context, ref domain.SectionRef) error {
	if err := s.store.DeleteSection(ref); err != nil {
		return err
	}
	if s.history != nil {
		if err := s.history.Clear(ref); err != nil {
			s.log.Warn("Unable to clear section history", zap.Stringer("section", ref), zap.Error(err))
		}
	}
	s.emit(ctx, ref, "section:remove")

	s.session.Dispatch(ctx, preview.RemoveSection{SectionID: ref.Key})
	return nil
}

// LocateBlock returns the position of blockID inside the section addressed by
// ref, or -1 when the section holds no such block. A missing section is
// domain.ErrNotFound.
func (s *EditorService) LocateBlock(ref domain.SectionRef, blockID string) (int, error) {
	tree, err := s.store.LoadTree()
	if err != nil {
		return -1, err
	}
	return blocks.FindBlockIndex(tree, ref, blockID)
}

// Sections returns the content of source in render order.
func (s *EditorService) Sections(source string) ([]domain.SectionRef, []domain.SectionContent, error) {
	order, err := s.store.SectionOrder(source)
	if err != nil {
		return nil, nil, err
	}
	refs := make([]domain.SectionRef, 0, len(order))
	contents := make([]domain.SectionContent, 0, len(order))
	for _, key := range order {
		ref := domain.SectionRef{Source: source, Key: key}
		content, err := s.store.GetSection(ref)
		if err != nil {
			return nil, nil, err
		}
		refs = append(refs, ref)
		contents = append(contents, content)
	}
	return refs, contents, nil
}

// ── Helpers ─────────────────────────────────────────────────

// section loads the stored content of ref together with its definition. When
// sectionType is set, missing content is an empty section of that type.
func (s *EditorService) section(ref domain.SectionRef, sectionType string) (domain.SectionContent, domain.SectionDefinition, error) {
	content, err := s.store.GetSection(ref)
	switch {
	case errors.Is(err, domain.ErrNotFound) && sectionType != "":
		content = domain.SectionContent{Type: sectionType}
	case err != nil:
		return content, domain.SectionDefinition{}, err
	}
	if content.Type == "" {
		content.Type = sectionType
	}
	if sectionType != "" && content.Type != sectionType {
		return content, domain.SectionDefinition{}, fmt.Errorf("section %s is %q, not %q: %w", ref, content.Type, sectionType, domain.ErrSchemaMismatch)
	}

	def, ok := s.catalog.Section(content.Type)
	if !ok {
		return content, def, fmt.Errorf("section type %q: %w", content.Type, domain.ErrNotFound)
	}
	return content, def, nil
}

func (s *EditorService) snapshot(ref domain.SectionRef, label string, content domain.SectionContent) error {
	if s.history == nil {
		return nil
	}
	if err := s.history.Push(ref, label, content); err != nil {
		return fmt.Errorf("snapshot %s: %w", ref, err)
	}
	return nil
}

func (s *EditorService) save(ctx context.Context, ref domain.SectionRef, content domain.SectionContent, reason string) error {
	if err := s.store.SaveSection(ref, content); err != nil {
		return err
	}
	s.emit(ctx, ref, reason)
	return nil
}

func (s *EditorService) emit(ctx context.Context, ref domain.SectionRef, reason string) {
	s.log.Debug("Content changed", zap.Stringer("section", ref), zap.String("reason", reason))
	s.emitter.Emit(ctx, EventContentChanged, ContentChange{Source: ref.Source, Key: ref.Key, Reason: reason})
}

func clamp(i, hi int) int {
	if i > hi {
		i = hi
	}
	if i < 0 {
		i = 0
	}
	return i
}

func moveBlock(list []domain.Block, from, to int) []domain.Block {
	out := make([]domain.Block, 0, len(list))
	out = append(out, list[:from]...)
	out = append(out, list[from+1:]...)
	out = append(out[:to], append([]domain.Block{list[from]}, out[to:]...)...)
	return out
}
