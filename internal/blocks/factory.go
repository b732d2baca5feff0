package blocks

import (
	"fmt"

	"pagebuilder/internal/domain"
)

// Build creates a block of blockType with every setting set to its default.
// Settings without a default hold domain.None.
func (s *Service) Build(def domain.SectionDefinition, blockType string) (domain.Block, error) {
	blockDef, ok := def.Block(blockType)
	if !ok {
		return domain.Block{}, fmt.Errorf("build %q in section %q: %w", blockType, def.Type, domain.ErrUnknownBlockType)
	}
	settings := make(domain.Settings, len(blockDef.Settings))
	for _, setting := range blockDef.Settings {
		settings[setting.ID] = setting.Default
	}
	return domain.Block{
		ID:       s.newID(),
		Type:     blockType,
		Settings: settings,
	}, nil
}

// NewSection creates an unsaved section of def's type with a fresh id, its
// settings at their defaults and no blocks.
func (s *Service) NewSection(def domain.SectionDefinition) domain.Section {
	settings := make(domain.Settings, len(def.Settings))
	for _, setting := range def.Settings {
		settings[setting.ID] = setting.Default
	}
	return domain.Section{
		ID:       s.newID(),
		Type:     def.Type,
		Settings: settings,
	}
}
