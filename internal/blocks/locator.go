package blocks

import (
	"fmt"
	"strings"

	"pagebuilder/internal/domain"
)

// ─────────────────────────────────────────────────────────────
// Content Locator: resolve block identities inside the tree
// ─────────────────────────────────────────────────────────────

// FetchBlockContent returns the block with blockID. An empty blockID or no
// match is reported as absent, never as an error.
func FetchBlockContent(content domain.SectionContent, blockID string) (*domain.Block, bool) {
	if blockID == "" {
		return nil, false
	}
	for i := range content.Blocks {
		if content.Blocks[i].ID == blockID {
			return &content.Blocks[i], true
		}
	}
	return nil, false
}

// FindBlockIndex returns the position of blockID inside the section addressed
// by ref, or -1 when the section has no such block. The section itself must
// exist: a missing source or key is domain.ErrNotFound.
func FindBlockIndex(tree domain.ContentTree, ref domain.SectionRef, blockID string) (int, error) {
	source, ok := tree[ref.Source]
	if !ok {
		return -1, fmt.Errorf("find block index: source %q: %w", ref.Source, domain.ErrNotFound)
	}
	content, ok := source.SectionsContent[ref.Key]
	if !ok {
		return -1, fmt.Errorf("find block index: section %q: %w", ref, domain.ErrNotFound)
	}
	return FindDropzoneBlockIndex(content, blockID), nil
}

// FindDropzoneBlockIndex is FindBlockIndex for callers holding a single section.
func FindDropzoneBlockIndex(content domain.SectionContent, blockID string) int {
	for i, b := range content.Blocks {
		if b.ID == blockID {
			return i
		}
	}
	return -1
}

// FindBetterText returns a plain-text excerpt of the block, read from the first
// text setting of its definition. A nil or blank block, or an empty excerpt,
// is absent.
// A definition without a text setting is domain.ErrSchemaMismatch.
func (s *Service) FindBetterText(block *domain.Block, def domain.BlockDefinition) (string, bool, error) {
	if isBlank(block) {
		return "", false, nil
	}
	setting, ok := def.FirstSetting(domain.SettingText)
	if !ok {
		return "", false, fmt.Errorf("better text for %q: no %s setting: %w", def.Type, domain.SettingText, domain.ErrSchemaMismatch)
	}
	raw := block.Setting(setting.ID)
	if raw.IsNone() {
		return "", false, nil
	}
	text := strings.TrimSpace(s.strip.StripHTML(raw.Text()))
	if text == "" {
		return "", false, nil
	}
	return text, true, nil
}

func isBlank(b *domain.Block) bool {
	return b == nil || (b.ID == "" && b.Type == "" && len(b.Settings) == 0)
}
