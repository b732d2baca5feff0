// Package surface defines the refresh directives understood by the preview
// surface and the channel they travel on.
package surface

import "pagebuilder/internal/domain"

// Kind is the wire tag of a directive.
type Kind string

const (
	KindNone           Kind = "none"
	KindPreviewSection Kind = "previewSection"
	KindRemoveSection  Kind = "removeSection"
	KindMoveSection    Kind = "moveSection"
	KindUpdateInput    Kind = "updateInput"
	KindRefreshSection Kind = "refreshSection"
)

// Direction tells the surface where a moved section lands relative to its target.
type Direction string

const (
	Before Direction = "before"
	After  Direction = "after"
)

// Directive is the minimal instruction handed to the preview surface. The set
// of implementations is closed.
type Directive interface {
	Kind() Kind
	directive()
}

// None means the surface has nothing to do.
type None struct{}

// PreviewSection renders an unsaved section.
type PreviewSection struct {
	Section domain.Section `json:"section"`
}

// RemoveSection drops a section from the surface.
type RemoveSection struct {
	SectionID string `json:"sectionId"`
}

// MoveSection moves a section next to another one.
type MoveSection struct {
	SectionID       string    `json:"sectionId"`
	TargetSectionID string    `json:"targetSectionId"`
	Direction       Direction `json:"direction"`
}

// UpdateInput patches one text value in place without re-rendering the section.
type UpdateInput struct {
	SectionType string       `json:"sectionType"`
	SectionID   string       `json:"sectionId"`
	BlockID     string       `json:"blockId,omitempty"`
	FieldID     string       `json:"fieldId"`
	NewValue    domain.Value `json:"newValue"`
}

// RefreshSection re-renders every section of a type from current state.
type RefreshSection struct {
	SectionType string `json:"sectionType"`
}

func (None) Kind() Kind           { return KindNone }
func (PreviewSection) Kind() Kind { return KindPreviewSection }
func (RemoveSection) Kind() Kind  { return KindRemoveSection }
func (MoveSection) Kind() Kind    { return KindMoveSection }
func (UpdateInput) Kind() Kind    { return KindUpdateInput }
func (RefreshSection) Kind() Kind { return KindRefreshSection }

func (None) directive()           {}
func (PreviewSection) directive() {}
func (RemoveSection) directive()  {}
func (MoveSection) directive()    {}
func (UpdateInput) directive()    {}
func (RefreshSection) directive() {}

// IsNone reports whether d asks nothing of the surface. A nil directive is None.
func IsNone(d Directive) bool {
	return d == nil || d.Kind() == KindNone
}
