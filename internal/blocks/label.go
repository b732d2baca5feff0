package blocks

import "pagebuilder/internal/domain"

// Label is what a block list shows for a block.
type Label struct {
	Name  string       `json:"name"`
	Image domain.Value `json:"image"`
}

// LabelElements derives the label of block. The image comes from the first
// setting when it is an image picker, the name from the first text setting.
// Missing values keep the definition's name and no image.
func (s *Service) LabelElements(def domain.BlockDefinition, block domain.Block) Label {
	label := Label{Name: def.Name}

	if len(def.Settings) > 0 && def.Settings[0].Type == domain.SettingImagePicker {
		label.Image = block.Setting(def.Settings[0].ID)
	}

	if setting, ok := def.FirstSetting(domain.SettingText); ok {
		if v := block.Setting(setting.ID); !v.IsNone() {
			label.Name = s.strip.StripTags(v.Text())
		}
	}
	return label
}
