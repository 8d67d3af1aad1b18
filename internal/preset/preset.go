// Package preset bundles a wheel, an orientation and styling under one name
// and resolves the bundle into the complete configuration a renderer needs.
package preset

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"astrowheel/internal/orientation"
	"astrowheel/internal/style"
	"astrowheel/internal/wheel"
)

// Preset names a wheel and an orientation preset and carries the styling
// overrides applied on top of the wheel's own.
type Preset struct {
	Name        string                 `json:"name" yaml:"name"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Wheel       string                 `json:"wheel" yaml:"wheel"`
	Orientation string                 `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	Visual      *style.VisualOverrides `json:"visual,omitempty" yaml:"visual,omitempty"`
	Glyphs      *style.GlyphOverrides  `json:"glyphs,omitempty" yaml:"glyphs,omitempty"`
}

// Resolved is a preset with every layer merged.
type Resolved struct {
	Name        string              `json:"name"`
	Wheel       *wheel.Definition   `json:"wheel"`
	Orientation orientation.Preset  `json:"-"`
	Program     orientation.Program `json:"program"`
	Visual      style.VisualConfig  `json:"visual"`
	Glyphs      style.GlyphConfig   `json:"glyphs"`
}

// DefaultOrientation is used by presets that name none.
const DefaultOrientation = "asc-left"

// Compose resolves p against reg. Styling merges package defaults, then the
// wheel's overrides, then the preset's, later layers winning.
func Compose(reg *wheel.Registry, p Preset) (*Resolved, error) {
	def, ok := reg.Get(p.Wheel)
	if !ok {
		return nil, fmt.Errorf("preset %q: wheel %q not found", p.Name, p.Wheel)
	}
	name := p.Orientation
	if strings.TrimSpace(name) == "" {
		name = DefaultOrientation
	}
	orient, ok := orientation.LookupPreset(name)
	if !ok {
		return nil, fmt.Errorf("preset %q: unknown orientation preset %q", p.Name, name)
	}

	return &Resolved{
		Name:        p.Name,
		Wheel:       def,
		Orientation: orient,
		Program:     orientation.ProgramFromPreset(orient),
		Visual:      style.MergeVisual(style.DefaultVisualConfig(), def.Visual, p.Visual),
		Glyphs:      style.MergeGlyphs(style.DefaultGlyphConfig(), def.Glyphs, p.Glyphs),
	}, nil
}

// Catalog is a named set of presets, looked up ignoring case and extra
// whitespace. It is safe for concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]Preset
}

// NewCatalog returns a catalog holding the built-in presets.
func NewCatalog() *Catalog {
	c := &Catalog{presets: make(map[string]Preset)}
	for _, p := range Builtins() {
		c.presets[wheel.NormalizeName(p.Name)] = p
	}
	return c
}

// Register adds p, replacing any preset with the same name.
func (c *Catalog) Register(p Preset) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("preset name is required")
	}
	if strings.TrimSpace(p.Wheel) == "" {
		return fmt.Errorf("preset %q: wheel is required", p.Name)
	}
	if p.Orientation != "" {
		if _, ok := orientation.LookupPreset(p.Orientation); !ok {
			return fmt.Errorf("preset %q: unknown orientation preset %q", p.Name, p.Orientation)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presets[wheel.NormalizeName(p.Name)] = p
	return nil
}

// LoadJSON registers every preset in a JSON array.
func (c *Catalog) LoadJSON(data []byte) error {
	var presets []Preset
	if err := json.Unmarshal(data, &presets); err != nil {
		return fmt.Errorf("decoding presets: %w", err)
	}
	for _, p := range presets {
		if err := c.Register(p); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Get(name string) (Preset, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.presets[wheel.NormalizeName(name)]
	return p, ok
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.presets))
	for _, p := range c.presets {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Compose looks up a preset by name and resolves it against reg.
func (c *Catalog) Compose(reg *wheel.Registry, name string) (*Resolved, error) {
	p, ok := c.Get(name)
	if !ok {
		return nil, fmt.Errorf("preset %q not found", name)
	}
	return Compose(reg, p)
}
