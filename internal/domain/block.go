package domain

// Settings maps a setting id to its value.
type Settings map[string]Value

// Block is a typed content unit owned by a section. ID never changes once assigned.
type Block struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Settings Settings `json:"settings"`
}

// Setting returns the value stored under id, or None.
func (b Block) Setting(id string) Value {
	if b.Settings == nil {
		return None()
	}
	return b.Settings[id]
}

// SectionContent holds the ordered blocks of one section. Order is render order.
// Type and Settings are kept alongside so a section can be rendered without
// its definition.
type SectionContent struct {
	Type     string   `json:"type,omitempty"`
	Settings Settings `json:"settings,omitempty"`
	Blocks   []Block  `json:"blocks"`
}

// SectionsContent maps a section key to its content. A missing key means the
// section has no content yet.
type SectionsContent map[string]SectionContent

// SourceContent is everything stored for one content origin (a page or a layout).
type SourceContent struct {
	SectionsContent SectionsContent `json:"sectionsContent"`
}

// ContentTree maps a source to its sections content.
type ContentTree map[string]SourceContent

// SectionRef addresses one section inside a ContentTree.
type SectionRef struct {
	Source string `json:"source"`
	Key    string `json:"key"`
}

func (r SectionRef) String() string { return r.Source + "/" + r.Key }

// Section is the payload shown in the preview surface when a section is
// previewed before being saved.
type Section struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Settings Settings `json:"settings,omitempty"`
	Blocks   []Block  `json:"blocks,omitempty"`
}
