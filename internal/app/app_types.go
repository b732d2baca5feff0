package app

import "pagebuilder/internal/domain"

// SectionView is the frontend view of a stored section.
type SectionView struct {
	Key string `json:"key"`
	domain.SectionContent
}

// BlockInput addresses the section a block edit applies to.
type BlockInput struct {
	Source string `json:"source"`
	Key    string `json:"key"`
	Scope  string `json:"scope"` // "section" (default) or "static-section"
}

func (in BlockInput) ref() domain.SectionRef {
	return sectionRef(in.Source, in.Key)
}
