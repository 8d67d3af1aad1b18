package preset

import (
	"astrowheel/internal/style"
	"astrowheel/internal/wheel"
)

func Builtins() []Preset {
	sepia := "sepia"
	glyphSize := 14.0
	return []Preset{
		{
			Name:        "Classic Natal",
			Description: "Standard natal wheel with the ascendant on the left.",
			Wheel:       wheel.StandardNatalWheel,
			Orientation: "asc-left",
		},
		{
			Name:        "Vedic Sidereal",
			Description: "Nakshatra wheel with Aries fixed on the left.",
			Wheel:       wheel.VedicNakshatraWheel,
			Orientation: "aries-left",
			Visual:      &style.VisualOverrides{Theme: &sepia},
		},
		{
			Name:        "Navamsa Study",
			Description: "Natal and navamsa planets side by side, MC at the top.",
			Wheel:       wheel.NavamsaOverlayWheel,
			Orientation: "mc-top",
			Glyphs:      &style.GlyphOverrides{Size: &glyphSize},
		},
	}
}
