// Package wheel describes chart layouts as ordered rings bound to data
// sources, and keeps named layouts in a Registry.
package wheel

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"astrowheel/internal/style"
)

// Definition is one wheel layout. Rings are kept sorted by OrderIndex, innermost
// data first as the file declares it.
type Definition struct {
	Name        string                 `json:"name"`
	Version     string                 `json:"version"`
	Description string                 `json:"description,omitempty"`
	Rings       []Ring                 `json:"rings"`
	Visual      *style.VisualOverrides `json:"visual,omitempty"`
	Glyphs      *style.GlyphOverrides  `json:"glyphs,omitempty"`
}

type Ring struct {
	Slug        string
	Type        string
	Label       string
	OrderIndex  int
	RadiusInner float64
	RadiusOuter float64
	DataSource  DataSource
}

type ringWire struct {
	Slug        string          `json:"slug"`
	Type        string          `json:"type"`
	Label       string          `json:"label"`
	OrderIndex  int             `json:"orderIndex"`
	RadiusInner float64         `json:"radiusInner"`
	RadiusOuter float64         `json:"radiusOuter"`
	DataSource  json.RawMessage `json:"dataSource"`
}

func (r Ring) MarshalJSON() ([]byte, error) {
	src, err := MarshalDataSource(r.DataSource)
	if err != nil {
		return nil, fmt.Errorf("ring %s: %w", r.Slug, err)
	}
	return json.Marshal(ringWire{
		Slug:        r.Slug,
		Type:        r.Type,
		Label:       r.Label,
		OrderIndex:  r.OrderIndex,
		RadiusInner: r.RadiusInner,
		RadiusOuter: r.RadiusOuter,
		DataSource:  src,
	})
}

// UnmarshalJSON decodes a ring without the checks ParseJSON performs.
func (r *Ring) UnmarshalJSON(data []byte) error {
	var w ringWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding ring: %w", err)
	}
	src, err := UnmarshalDataSource(w.DataSource)
	if err != nil {
		return fmt.Errorf("ring %s: %w", w.Slug, err)
	}
	*r = Ring{
		Slug:        w.Slug,
		Type:        w.Type,
		Label:       w.Label,
		OrderIndex:  w.OrderIndex,
		RadiusInner: w.RadiusInner,
		RadiusOuter: w.RadiusOuter,
		DataSource:  src,
	}
	return nil
}

// Ring returns the ring with the given slug.
func (d *Definition) Ring(slug string) (Ring, bool) {
	for _, ring := range d.Rings {
		if ring.Slug == slug {
			return ring, true
		}
	}
	return Ring{}, false
}

// Clone returns a copy that shares no mutable state with d.
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	out := *d
	out.Rings = slices.Clone(d.Rings)
	if d.Visual != nil {
		v := *d.Visual
		v.AspectColors = maps.Clone(d.Visual.AspectColors)
		out.Visual = &v
	}
	if d.Glyphs != nil {
		g := *d.Glyphs
		g.SignGlyphs = maps.Clone(d.Glyphs.SignGlyphs)
		g.PlanetGlyphs = maps.Clone(d.Glyphs.PlanetGlyphs)
		g.AspectGlyphs = maps.Clone(d.Glyphs.AspectGlyphs)
		out.Glyphs = &g
	}
	return &out
}

func sortRings(rings []Ring) {
	slices.SortStableFunc(rings, func(a, b Ring) int {
		return a.OrderIndex - b.OrderIndex
	})
}

// NormalizeName is the registry key for a wheel name: lower case with runs of
// whitespace collapsed to one space.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
