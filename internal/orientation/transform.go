package orientation

import (
	"astrowheel/internal/angle"
)

// WorldToScreen maps a world longitude to a screen angle. anchorLongitude is the
// resolved world longitude of f.Anchor; zero-point frames ignore it.
func WorldToScreen(worldLongitude float64, f ViewFrame, anchorLongitude float64) float64 {
	switch m := f.model().(type) {
	case ZeroPoint:
		offset := m.Direction.factor() * angle.ShortestDelta(worldLongitude, m.WorldZero) * m.Scale
		if f.AngularFlip {
			offset = -offset
		}
		return angle.Normalize(m.ScreenZero + offset)
	case AnchorRelative:
		offset := angle.ShortestDelta(worldLongitude, anchorLongitude)
		if m.Direction == CounterClockwise {
			offset = -offset
		}
		screen := m.ScreenAngleDeg + offset
		if f.AngularFlip {
			screen = m.ScreenAngleDeg - (screen - m.ScreenAngleDeg)
		}
		return angle.Normalize(screen)
	}
	return angle.Normalize(worldLongitude)
}

// ScreenToWorld inverts WorldToScreen by undoing its steps in reverse order.
// For zero-point frames the inverse is exact only while |Scale| <= 1; larger
// scales map several world longitudes to one screen angle, and
// ViewFrame.Validate rejects them.
func ScreenToWorld(screenAngle float64, f ViewFrame, anchorLongitude float64) float64 {
	switch m := f.model().(type) {
	case ZeroPoint:
		offset := angle.ShortestDelta(screenAngle, m.ScreenZero)
		if f.AngularFlip {
			offset = -offset
		}
		return angle.Normalize(m.WorldZero + offset/(m.Direction.factor()*m.Scale))
	case AnchorRelative:
		offset := angle.ShortestDelta(screenAngle, m.ScreenAngleDeg)
		if f.AngularFlip {
			offset = -offset
		}
		if m.Direction == CounterClockwise {
			offset = -offset
		}
		return angle.Normalize(anchorLongitude + offset)
	}
	return angle.Normalize(screenAngle)
}

// BoundFrame is a frame whose anchor has been resolved against one snapshot.
// Its transforms do no lookups, so a renderer binds once per pass and then
// projects every element through it.
type BoundFrame struct {
	Frame           ViewFrame
	AnchorLongitude float64
}

// Bind resolves f's anchor through r. Zero-point frames carry their world
// reference literally and always bind. A false result means the anchor is not
// present in the chart and nothing can be drawn under this frame.
func Bind(f ViewFrame, r AnchorResolver) (BoundFrame, bool) {
	if z, ok := f.Model.(ZeroPoint); ok {
		return BoundFrame{Frame: f, AnchorLongitude: z.WorldZero}, true
	}
	lon, ok := ResolveAnchor(f.Anchor, r)
	if !ok {
		return BoundFrame{}, false
	}
	return BoundFrame{Frame: f, AnchorLongitude: lon}, true
}

func (b BoundFrame) WorldToScreen(worldLongitude float64) float64 {
	return WorldToScreen(worldLongitude, b.Frame, b.AnchorLongitude)
}

func (b BoundFrame) ScreenToWorld(screenAngle float64) float64 {
	return ScreenToWorld(screenAngle, b.Frame, b.AnchorLongitude)
}

// ZeroPoint returns the literal zero-point frame equivalent to b.
func (b BoundFrame) ZeroPoint() ViewFrame {
	return ToZeroPoint(b.Frame, b.AnchorLongitude)
}

// ToZeroPoint rewrites an anchor-relative frame as the equivalent zero-point
// frame with WorldZero fixed at anchorLongitude. Zero-point frames are returned
// unchanged.
func ToZeroPoint(f ViewFrame, anchorLongitude float64) ViewFrame {
	m, ok := f.model().(AnchorRelative)
	if !ok {
		return f
	}
	f.Model = ZeroPoint{
		WorldZero:  angle.Normalize(anchorLongitude),
		ScreenZero: m.ScreenAngleDeg,
		Direction:  SignOf(m.Direction),
		Scale:      1,
	}
	return f
}
