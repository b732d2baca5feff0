package mcpserver

import (
	"encoding/json"
	"fmt"

	"pagebuilder/internal/domain"
)

// parseValue reads a setting value passed as JSON. Text that is not valid
// JSON is taken as a plain string, so agents may omit the quotes.
func parseValue(raw string) domain.Value {
	var v domain.Value
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return domain.String(raw)
	}
	return v
}

type sectionSummary struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Blocks int    `json:"blocks"`
}

func summarizeSections(refs []domain.SectionRef, contents []domain.SectionContent) []sectionSummary {
	out := make([]sectionSummary, len(refs))
	for i, ref := range refs {
		out[i] = sectionSummary{Key: ref.Key, Type: contents[i].Type, Blocks: len(contents[i].Blocks)}
	}
	return out
}

type sectionTypeSummary struct {
	Type     string   `json:"type"`
	Name     string   `json:"name"`
	Settings []string `json:"settings,omitempty"`
	Blocks   []string `json:"blocks"`
}

func summarizeDefinition(def domain.SectionDefinition) sectionTypeSummary {
	out := sectionTypeSummary{Type: def.Type, Name: def.Name, Blocks: make([]string, 0, len(def.Blocks))}
	for _, s := range def.Settings {
		out.Settings = append(out.Settings, s.ID)
	}
	for _, b := range def.Blocks {
		out.Blocks = append(out.Blocks, b.Type)
	}
	return out
}

// getIndex reads a required integer arg. JSON numbers arrive as float64.
func getIndex(args map[string]any, key string) (int, error) {
	v, ok := args[key].(float64)
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}
	if v < 0 || v != float64(int(v)) {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %v", key, v)
	}
	return int(v), nil
}
