package orientation

import (
	"astrowheel/internal/angle"
)

// HouseOf returns the house (1..12) containing longitude, measured forward
// from each cusp to the next. It reports false unless all twelve cusps are
// known.
func HouseOf(longitude float64, r AnchorResolver) (int, bool) {
	var cusps [12]float64
	for house := 1; house <= 12; house++ {
		cusp, ok := r.HouseCusp(house)
		if !ok {
			return 0, false
		}
		cusps[house-1] = cusp
	}
	for i, cusp := range cusps {
		width := angle.Normalize(cusps[(i+1)%12] - cusp)
		if width == 0 {
			continue
		}
		if angle.Within(longitude, cusp, width) {
			return i + 1, true
		}
	}
	return 0, false
}
