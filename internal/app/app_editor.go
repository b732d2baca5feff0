package app

import (
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/preview"
	"pagebuilder/internal/service"
)

// ============================================================
// Catalog
// ============================================================

// ListSectionTypes returns the definitions of the catalog, sorted by type.
func (a *App) ListSectionTypes() []domain.SectionDefinition {
	catalog := a.editor.Catalog()
	types := catalog.Types()
	defs := make([]domain.SectionDefinition, 0, len(types))
	for _, t := range types {
		if def, ok := catalog.Section(t); ok {
			defs = append(defs, def)
		}
	}
	return defs
}

// ============================================================
// Sections
// ============================================================

// ListSections returns the content of source in render order.
func (a *App) ListSections(source string) ([]SectionView, error) {
	refs, contents, err := a.editor.Sections(source)
	if err != nil {
		return nil, err
	}
	views := make([]SectionView, len(refs))
	for i := range refs {
		views[i] = SectionView{Key: refs[i].Key, SectionContent: contents[i]}
	}
	return views, nil
}

func (a *App) PreviewSection(sectionType string) (domain.Section, error) {
	return a.editor.PreviewSection(a.ctx, sectionType)
}

func (a *App) CancelPreview() {
	a.editor.CancelPreview(a.ctx)
}

// AddSection keeps the previewed section and returns its key.
func (a *App) AddSection(source string) (string, error) {
	ref, err := a.editor.AddSection(a.ctx, source)
	return ref.Key, err
}

func (a *App) MoveSection(source, key string, newIndex int) error {
	return a.editor.MoveSection(a.ctx, sectionRef(source, key), newIndex)
}

func (a *App) RemoveSection(source, key string) error {
	return a.editor.RemoveSection(a.ctx, sectionRef(source, key))
}

// ============================================================
// Blocks
// ============================================================

func (a *App) ListBlocks(source, key string) ([]service.BlockSummary, error) {
	return a.editor.ListBlocks(sectionRef(source, key))
}

// LocateBlock returns the position of blockID in the section, -1 when the
// section has no such block.
func (a *App) LocateBlock(source, key, blockID string) (int, error) {
	return a.editor.LocateBlock(sectionRef(source, key), blockID)
}

func (a *App) AddBlock(input BlockInput, sectionType, blockType string) (domain.Block, error) {
	scope, err := preview.ParseScope(input.Scope)
	if err != nil {
		return domain.Block{}, err
	}
	return a.editor.AddBlock(a.ctx, input.ref(), sectionType, blockType, scope)
}

func (a *App) RemoveBlock(input BlockInput, blockID string) error {
	scope, err := preview.ParseScope(input.Scope)
	if err != nil {
		return err
	}
	return a.editor.RemoveBlock(a.ctx, input.ref(), blockID, scope)
}

func (a *App) MoveBlock(input BlockInput, blockID string, newIndex int) error {
	scope, err := preview.ParseScope(input.Scope)
	if err != nil {
		return err
	}
	return a.editor.MoveBlock(a.ctx, input.ref(), blockID, newIndex, scope)
}

// UpdateSetting stores a setting value given as JSON. An empty blockID
// targets the section itself.
func (a *App) UpdateSetting(input BlockInput, blockID, fieldID, valueJSON string) error {
	scope, err := preview.ParseScope(input.Scope)
	if err != nil {
		return err
	}
	var value domain.Value
	if err := json.Unmarshal([]byte(valueJSON), &value); err != nil {
		return fmt.Errorf("setting %s: %w", fieldID, err)
	}
	return a.editor.UpdateSetting(a.ctx, input.ref(), blockID, fieldID, value, scope)
}

// UndoSection reverts the last structural edit and returns its label.
func (a *App) UndoSection(input BlockInput) (string, error) {
	scope, err := preview.ParseScope(input.Scope)
	if err != nil {
		return "", err
	}
	snap, err := a.editor.UndoSection(a.ctx, input.ref(), scope)
	return snap.Label, err
}

func sectionRef(source, key string) domain.SectionRef {
	return domain.SectionRef{Source: source, Key: key}
}
