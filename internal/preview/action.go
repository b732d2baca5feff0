package preview

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// Action tags as sent by the editor UI.
const (
	TypeSurfaceReady  = "surface:ready"
	TypeSurfaceDone   = "surface:done"
	TypePreview       = "section:preview"
	TypeAddSection    = "section:add"
	TypeCancelPreview = "section:cancel-preview"
	TypeMoveSection   = "section:move"
	TypeRemoveSection = "section:remove"
)

// Scope tells whether an edit targets a page section or a static section
// shared by every page of a layout.
type Scope string

const (
	ScopeSection       Scope = "section"
	ScopeStaticSection Scope = "static-section"
)

// ParseScope reads a scope name. Empty means ScopeSection.
func ParseScope(name string) (Scope, error) {
	switch s := Scope(name); s {
	case "":
		return ScopeSection, nil
	case ScopeSection, ScopeStaticSection:
		return s, nil
	default:
		return "", fmt.Errorf("unknown scope %q", name)
	}
}

func (s Scope) prefix() string {
	if s == ScopeStaticSection {
		return string(ScopeStaticSection)
	}
	return string(ScopeSection)
}

// Action is an editing event. The set is closed: every implementation decides
// its own classification, so a new action cannot be added without one.
type Action interface {
	Type() string
	classify(s State) State
}

// SurfaceReady is sent once the preview surface finished loading. Handle is
// an opaque reference kept for collaborators that talk to the surface directly.
type SurfaceReady struct {
	Handle any
}

// SurfaceDone acknowledges the last directive.
type SurfaceDone struct{}

// PreviewSection shows an unsaved section in the surface.
type PreviewSection struct {
	Section domain.Section `json:"newSection"`
}

// AddSection commits a section. The surface is reloaded upstream.
type AddSection struct {
	SectionType string `json:"sectionType,omitempty"`
}

// CancelPreview discards the previewed section.
type CancelPreview struct{}

type MoveSection struct {
	SectionID       string `json:"sectionId"`
	TargetSectionID string `json:"targetSectionId"`
	OldIndex        int    `json:"oldIndex"`
	NewIndex        int    `json:"newIndex"`
}

type RemoveSection struct {
	SectionID string `json:"sectionId"`
}

// UpdateInput is a change of one setting value. BlockID is empty for
// section-level settings.
type UpdateInput struct {
	Scope       Scope        `json:"-"`
	SectionType string       `json:"sectionType"`
	SectionID   string       `json:"sectionId"`
	BlockID     string       `json:"blockId,omitempty"`
	FieldID     string       `json:"id"`
	NewValue    domain.Value `json:"newValue"`
	FieldType   string       `json:"fieldType"`
}

type AddBlock struct {
	Scope       Scope  `json:"-"`
	SectionType string `json:"sectionType"`
	SectionID   string `json:"sectionId,omitempty"`
	BlockType   string `json:"blockType,omitempty"`
}

type RemoveBlock struct {
	Scope       Scope  `json:"-"`
	SectionType string `json:"sectionType"`
	SectionID   string `json:"sectionId,omitempty"`
	BlockID     string `json:"blockId,omitempty"`
}

type MoveBlock struct {
	Scope       Scope  `json:"-"`
	SectionType string `json:"sectionType"`
	SectionID   string `json:"sectionId,omitempty"`
	OldIndex    int    `json:"oldIndex"`
	NewIndex    int    `json:"newIndex"`
}

// ReloadSection re-renders a section whose content was replaced wholesale,
// as after an undo.
type ReloadSection struct {
	Scope       Scope  `json:"-"`
	SectionType string `json:"sectionType"`
}

// Unknown carries an action tag this package does not classify.
type Unknown struct {
	Tag string `json:"-"`
}

func (SurfaceReady) Type() string    { return TypeSurfaceReady }
func (SurfaceDone) Type() string     { return TypeSurfaceDone }
func (PreviewSection) Type() string  { return TypePreview }
func (AddSection) Type() string      { return TypeAddSection }
func (CancelPreview) Type() string   { return TypeCancelPreview }
func (MoveSection) Type() string     { return TypeMoveSection }
func (RemoveSection) Type() string   { return TypeRemoveSection }
func (a AddBlock) Type() string      { return a.Scope.prefix() + ":block:add" }
func (a RemoveBlock) Type() string   { return a.Scope.prefix() + ":block:remove" }
func (a MoveBlock) Type() string     { return a.Scope.prefix() + ":block:move" }
func (a ReloadSection) Type() string { return a.Scope.prefix() + ":reload" }
func (a Unknown) Type() string       { return a.Tag }

func (a UpdateInput) Type() string {
	if a.BlockID != "" {
		return a.Scope.prefix() + ":block:update-input"
	}
	return a.Scope.prefix() + ":update-input"
}
