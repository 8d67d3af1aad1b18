// Package style holds the visual and glyph configuration a renderer draws a
// wheel with, and the layered merge that produces it from partial overrides.
package style

import "maps"

// VisualConfig is a complete set of drawing parameters. Every field has a
// value; partial configurations are expressed as VisualOverrides.
type VisualConfig struct {
	Theme           string            `json:"theme"`
	BackgroundColor string            `json:"backgroundColor"`
	StrokeColor     string            `json:"strokeColor"`
	StrokeWidth     float64           `json:"strokeWidth"`
	HouseLineColor  string            `json:"houseLineColor"`
	AngleLineColor  string            `json:"angleLineColor"`
	AspectLineWidth float64           `json:"aspectLineWidth"`
	FontFamily      string            `json:"fontFamily"`
	FontSize        float64           `json:"fontSize"`
	ShowDegreeTicks bool              `json:"showDegreeTicks"`
	AspectColors    map[string]string `json:"aspectColors"`
}

// GlyphConfig is a complete glyph table.
type GlyphConfig struct {
	FontFamily   string            `json:"fontFamily"`
	Size         float64           `json:"size"`
	Color        string            `json:"color"`
	SignGlyphs   map[string]string `json:"signGlyphs"`
	PlanetGlyphs map[string]string `json:"planetGlyphs"`
	AspectGlyphs map[string]string `json:"aspectGlyphs"`
}

func DefaultVisualConfig() VisualConfig {
	return VisualConfig{
		Theme:           "light",
		BackgroundColor: "#ffffff",
		StrokeColor:     "#333333",
		StrokeWidth:     1,
		HouseLineColor:  "#888888",
		AngleLineColor:  "#111111",
		AspectLineWidth: 1,
		FontFamily:      "sans-serif",
		FontSize:        12,
		ShowDegreeTicks: true,
		AspectColors: map[string]string{
			"conjunction": "#555555",
			"opposition":  "#d62728",
			"trine":       "#2ca02c",
			"square":      "#d62728",
			"sextile":     "#1f77b4",
		},
	}
}

func DefaultGlyphConfig() GlyphConfig {
	return GlyphConfig{
		FontFamily: "serif",
		Size:       16,
		Color:      "#222222",
		SignGlyphs: map[string]string{
			"aries":       "♈",
			"taurus":      "♉",
			"gemini":      "♊",
			"cancer":      "♋",
			"leo":         "♌",
			"virgo":       "♍",
			"libra":       "♎",
			"scorpio":     "♏",
			"sagittarius": "♐",
			"capricorn":   "♑",
			"aquarius":    "♒",
			"pisces":      "♓",
		},
		PlanetGlyphs: map[string]string{
			"Sun":     "☉",
			"Moon":    "☽",
			"Mercury": "☿",
			"Venus":   "♀",
			"Mars":    "♂",
			"Jupiter": "♃",
			"Saturn":  "♄",
			"Uranus":  "♅",
			"Neptune": "♆",
			"Pluto":   "♇",
		},
		AspectGlyphs: map[string]string{
			"conjunction": "☌",
			"opposition":  "☍",
			"trine":       "△",
			"square":      "□",
			"sextile":     "⚹",
		},
	}
}

// VisualOverrides is a partial VisualConfig. Nil fields leave the base value
// alone; AspectColors entries replace matching keys only.
type VisualOverrides struct {
	Theme           *string           `json:"theme,omitempty" yaml:"theme,omitempty"`
	BackgroundColor *string           `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	StrokeColor     *string           `json:"strokeColor,omitempty" yaml:"strokeColor,omitempty"`
	StrokeWidth     *float64          `json:"strokeWidth,omitempty" yaml:"strokeWidth,omitempty"`
	HouseLineColor  *string           `json:"houseLineColor,omitempty" yaml:"houseLineColor,omitempty"`
	AngleLineColor  *string           `json:"angleLineColor,omitempty" yaml:"angleLineColor,omitempty"`
	AspectLineWidth *float64          `json:"aspectLineWidth,omitempty" yaml:"aspectLineWidth,omitempty"`
	FontFamily      *string           `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	FontSize        *float64          `json:"fontSize,omitempty" yaml:"fontSize,omitempty"`
	ShowDegreeTicks *bool             `json:"showDegreeTicks,omitempty" yaml:"showDegreeTicks,omitempty"`
	AspectColors    map[string]string `json:"aspectColors,omitempty" yaml:"aspectColors,omitempty"`
}

// GlyphOverrides is a partial GlyphConfig. The three glyph tables merge key by
// key.
type GlyphOverrides struct {
	FontFamily   *string           `json:"fontFamily,omitempty" yaml:"fontFamily,omitempty"`
	Size         *float64          `json:"size,omitempty" yaml:"size,omitempty"`
	Color        *string           `json:"color,omitempty" yaml:"color,omitempty"`
	SignGlyphs   map[string]string `json:"signGlyphs,omitempty" yaml:"signGlyphs,omitempty"`
	PlanetGlyphs map[string]string `json:"planetGlyphs,omitempty" yaml:"planetGlyphs,omitempty"`
	AspectGlyphs map[string]string `json:"aspectGlyphs,omitempty" yaml:"aspectGlyphs,omitempty"`
}

// MergeVisual applies overrides to base in order, later layers winning.
// Neither base nor any override is modified.
func MergeVisual(base VisualConfig, overrides ...*VisualOverrides) VisualConfig {
	out := base
	out.AspectColors = maps.Clone(base.AspectColors)
	for _, o := range overrides {
		if o == nil {
			continue
		}
		set(&out.Theme, o.Theme)
		set(&out.BackgroundColor, o.BackgroundColor)
		set(&out.StrokeColor, o.StrokeColor)
		set(&out.StrokeWidth, o.StrokeWidth)
		set(&out.HouseLineColor, o.HouseLineColor)
		set(&out.AngleLineColor, o.AngleLineColor)
		set(&out.AspectLineWidth, o.AspectLineWidth)
		set(&out.FontFamily, o.FontFamily)
		set(&out.FontSize, o.FontSize)
		set(&out.ShowDegreeTicks, o.ShowDegreeTicks)
		out.AspectColors = overlay(out.AspectColors, o.AspectColors)
	}
	return out
}

// MergeGlyphs is MergeVisual for glyph tables.
func MergeGlyphs(base GlyphConfig, overrides ...*GlyphOverrides) GlyphConfig {
	out := base
	out.SignGlyphs = maps.Clone(base.SignGlyphs)
	out.PlanetGlyphs = maps.Clone(base.PlanetGlyphs)
	out.AspectGlyphs = maps.Clone(base.AspectGlyphs)
	for _, o := range overrides {
		if o == nil {
			continue
		}
		set(&out.FontFamily, o.FontFamily)
		set(&out.Size, o.Size)
		set(&out.Color, o.Color)
		out.SignGlyphs = overlay(out.SignGlyphs, o.SignGlyphs)
		out.PlanetGlyphs = overlay(out.PlanetGlyphs, o.PlanetGlyphs)
		out.AspectGlyphs = overlay(out.AspectGlyphs, o.AspectGlyphs)
	}
	return out
}

// ResolveVisual fills a partial config from the package defaults.
func ResolveVisual(o *VisualOverrides) VisualConfig {
	return MergeVisual(DefaultVisualConfig(), o)
}

func ResolveGlyphs(o *GlyphOverrides) GlyphConfig {
	return MergeGlyphs(DefaultGlyphConfig(), o)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// overlay writes src into dst, allocating dst if needed. dst must already be
// owned by the caller.
func overlay(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(map[string]string, len(src))
	}
	maps.Copy(dst, src)
	return dst
}
