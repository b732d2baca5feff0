// Package preview keeps the live preview surface in sync with the editor. It
// classifies editing actions into refresh directives and tracks the single
// directive the surface has not acknowledged yet.
package preview

import (
	"pagebuilder/internal/domain"
	"pagebuilder/internal/surface"
)

// State is owned by one editing session and never persisted.
type State struct {
	Loaded  bool
	Surface any
	Pending Mailbox
	// Section is the section currently previewed, if any.
	Section           *domain.Section
	PreviousSectionID string
}

// Reduce classifies a and returns the next state. It never fails: actions it
// does not know leave the state as it is.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.classify(s)
}

func (a SurfaceReady) classify(s State) State {
	pending := s.Pending
	pending.Clear()
	return State{Loaded: true, Surface: a.Handle, Pending: pending}
}

func (SurfaceDone) classify(s State) State {
	s.Pending.Clear()
	return s
}

func (a PreviewSection) classify(s State) State {
	previous := ""
	if s.Section != nil {
		previous = s.Section.ID
	}
	section := a.Section
	s.Pending.Replace(surface.PreviewSection{Section: section})
	s.PreviousSectionID = previous
	s.Section = &section
	return s
}

func (AddSection) classify(s State) State {
	s.Pending.Clear()
	s.Section = nil
	return s
}

func (CancelPreview) classify(s State) State {
	if s.Section == nil {
		return s
	}
	s.Pending.Replace(surface.RemoveSection{SectionID: s.Section.ID})
	s.PreviousSectionID = ""
	return s
}

func (a MoveSection) classify(s State) State {
	direction := surface.Before
	if a.NewIndex > a.OldIndex {
		direction = surface.After
	}
	s.Pending.Replace(surface.MoveSection{
		SectionID:       a.SectionID,
		TargetSectionID: a.TargetSectionID,
		Direction:       direction,
	})
	return s
}

func (a RemoveSection) classify(s State) State {
	s.Pending.Replace(surface.RemoveSection{SectionID: a.SectionID})
	return s
}

// Only text edits are patched in place; any other field type re-renders the
// section.
func (a UpdateInput) classify(s State) State {
	if a.FieldType != domain.SettingText {
		return refreshSection(s, a.SectionType)
	}
	s.Pending.Replace(surface.UpdateInput{
		SectionType: a.SectionType,
		SectionID:   a.SectionID,
		BlockID:     a.BlockID,
		FieldID:     a.FieldID,
		NewValue:    a.NewValue,
	})
	return s
}

func (a AddBlock) classify(s State) State      { return refreshSection(s, a.SectionType) }
func (a RemoveBlock) classify(s State) State   { return refreshSection(s, a.SectionType) }
func (a MoveBlock) classify(s State) State     { return refreshSection(s, a.SectionType) }
func (a ReloadSection) classify(s State) State { return refreshSection(s, a.SectionType) }
func (Unknown) classify(s State) State         { return s }

// refreshSection is the catch-all for structural changes: the surface
// re-renders the section type from current state instead of patching.
func refreshSection(s State, sectionType string) State {
	s.Pending.Replace(surface.RefreshSection{SectionType: sectionType})
	return s
}
