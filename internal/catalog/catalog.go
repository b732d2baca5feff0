// Package catalog loads section definitions from a directory of YAML or JSON
// files, one section type per file.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
)

// Catalog is safe for concurrent use. Reload swaps the whole definition set,
// so readers never observe a half-loaded directory.
type Catalog struct {
	dir string

	mu       sync.RWMutex
	sections map[string]domain.SectionDefinition
}

// Load reads every definition file in dir. A missing directory yields an
// empty catalog.
func Load(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// New creates an in-memory catalog, mostly useful to tests and headless tools.
func New(defs ...domain.SectionDefinition) (*Catalog, error) {
	sections := make(map[string]domain.SectionDefinition, len(defs))
	for _, def := range defs {
		if _, dup := sections[def.Type]; dup {
			return nil, fmt.Errorf("section type %q defined twice", def.Type)
		}
		sections[def.Type] = def
	}
	return &Catalog{sections: sections}, nil
}

// Dir returns the directory the catalog reads from.
func (c *Catalog) Dir() string { return c.dir }

// Reload re-reads the directory. On error the previous definitions stay.
func (c *Catalog) Reload() error {
	sections, err := readDir(c.dir)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.sections = sections
	c.mu.Unlock()
	return nil
}

func (c *Catalog) Section(sectionType string) (domain.SectionDefinition, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.sections[sectionType]
	return def, ok
}

// Block returns the definition of blockType inside sectionType.
func (c *Catalog) Block(sectionType, blockType string) (domain.BlockDefinition, bool) {
	def, ok := c.Section(sectionType)
	if !ok {
		return domain.BlockDefinition{}, false
	}
	return def.Block(blockType)
}

// Types returns the known section types, sorted.
func (c *Catalog) Types() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	types := make([]string, 0, len(c.sections))
	for t := range c.sections {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// ── Files ───────────────────────────────────────────────────

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}

func readDir(dir string) (map[string]domain.SectionDefinition, error) {
	sections := map[string]domain.SectionDefinition{}
	if dir == "" {
		return sections, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return sections, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	origin := map[string]string{}
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		def, err := readFile(path)
		if err != nil {
			return nil, err
		}
		if prev, dup := origin[def.Type]; dup {
			return nil, fmt.Errorf("section type %q defined in both %s and %s", def.Type, prev, entry.Name())
		}
		origin[def.Type] = entry.Name()
		sections[def.Type] = def
	}
	return sections, nil
}

func readFile(path string) (domain.SectionDefinition, error) {
	var def domain.SectionDefinition
	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read definition: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &def)
	} else {
		err = yaml.Unmarshal(data, &def)
	}
	if err != nil {
		return def, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if def.Type == "" {
		return def, fmt.Errorf("parse %s: missing section type", filepath.Base(path))
	}
	return def, nil
}
