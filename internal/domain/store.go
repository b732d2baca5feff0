package domain

// ContentStore persists section content. The editing core only reads the tree;
// the editor service writes through this interface.
type ContentStore interface {
	LoadTree() (ContentTree, error)
	GetSection(ref SectionRef) (SectionContent, error)
	SaveSection(ref SectionRef, content SectionContent) error
	DeleteSection(ref SectionRef) error
	ListSources() ([]string, error)
	// SectionOrder returns the section keys of source in render order.
	SectionOrder(source string) ([]string, error)
	MoveSection(ref SectionRef, newIndex int) error
}

// Catalog resolves section definitions by type.
type Catalog interface {
	Section(sectionType string) (SectionDefinition, bool)
	Types() []string
}
