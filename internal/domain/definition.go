package domain

// Setting type tags consulted by the editing core. Every other type is opaque.
const (
	SettingImagePicker = "image_picker"
	SettingText        = "text"
)

// SettingDefinition describes one setting of a section or block type.
type SettingDefinition struct {
	ID      string `json:"id" yaml:"id"`
	Type    string `json:"type" yaml:"type"`
	Label   string `json:"label,omitempty" yaml:"label,omitempty"`
	Default Value  `json:"default" yaml:"default"`
}

// BlockDefinition is the static schema of a block type.
type BlockDefinition struct {
	Type     string              `json:"type" yaml:"type"`
	Name     string              `json:"name" yaml:"name"`
	Settings []SettingDefinition `json:"settings" yaml:"settings"`
}

// SectionDefinition is the static schema of a section type. Definitions come
// from the catalog and are never mutated.
type SectionDefinition struct {
	Type     string              `json:"type" yaml:"type"`
	Name     string              `json:"name" yaml:"name"`
	Settings []SettingDefinition `json:"settings,omitempty" yaml:"settings,omitempty"`
	Blocks   []BlockDefinition   `json:"blocks" yaml:"blocks"`
}

// Block returns the definition of blockType.
func (d SectionDefinition) Block(blockType string) (BlockDefinition, bool) {
	for _, b := range d.Blocks {
		if b.Type == blockType {
			return b, true
		}
	}
	return BlockDefinition{}, false
}

// FirstSetting returns the first setting of the given type.
func (d BlockDefinition) FirstSetting(settingType string) (SettingDefinition, bool) {
	for _, s := range d.Settings {
		if s.Type == settingType {
			return s, true
		}
	}
	return SettingDefinition{}, false
}

// Setting returns the setting with the given id.
func (d BlockDefinition) Setting(id string) (SettingDefinition, bool) {
	for _, s := range d.Settings {
		if s.ID == id {
			return s, true
		}
	}
	return SettingDefinition{}, false
}

// Setting returns the section-level setting with the given id.
func (d SectionDefinition) Setting(id string) (SettingDefinition, bool) {
	for _, s := range d.Settings {
		if s.ID == id {
			return s, true
		}
	}
	return SettingDefinition{}, false
}
