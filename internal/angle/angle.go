// Package angle holds the degree arithmetic shared by the orientation transforms.
// Every value is in degrees; nothing here works in radians.
package angle

import "math"

const FullTurn = 360.0

// Normalize reduces any finite value into [0, 360).
func Normalize(deg float64) float64 {
	d := math.Mod(deg, FullTurn)
	if d < 0 {
		d += FullTurn
	}
	// -1e-17 + 360 rounds to exactly 360.
	if d >= FullTurn {
		d -= FullTurn
	}
	return d
}

// ShortestDelta returns a-b folded onto the shortest signed arc, in (-180, 180].
func ShortestDelta(a, b float64) float64 {
	d := Normalize(a - b)
	if d > 180 {
		d -= FullTurn
	}
	return d
}

// Distance is the unsigned length of the shortest arc between a and b, in [0, 180].
func Distance(a, b float64) float64 {
	return math.Abs(ShortestDelta(a, b))
}

// Within reports whether deg lies on the forward arc that starts at from and spans
// width degrees. A width of 360 or more covers the whole circle.
func Within(deg, from, width float64) bool {
	if width >= FullTurn {
		return true
	}
	return Normalize(deg-from) < width
}
