package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astrowheel/internal/angle"
)

const tolerance = 1e-9

func legacyFrame(screenDeg float64, dir Rotation, flip bool) ViewFrame {
	return ViewFrame{
		ReferenceFrame: FrameHouses,
		Anchor:         AngleAnchor{Type: AngleASC},
		Model:          AnchorRelative{ScreenAngleDeg: screenDeg, Direction: dir},
		AngularFlip:    flip,
	}
}

func assertAngle(t *testing.T, want, got float64) {
	t.Helper()
	assert.LessOrEqual(t, angle.Distance(want, got), tolerance, "want %v, got %v", want, got)
}

func TestWorldToScreenLegacyScenario(t *testing.T) {
	frame := legacyFrame(180, CounterClockwise, false)

	assert.Equal(t, 180.0, WorldToScreen(95, frame, 95))
	assertAngle(t, 90, WorldToScreen(185, frame, 95))
}

func TestWorldToScreenZeroPointMirrored(t *testing.T) {
	frame := ViewFrame{
		ReferenceFrame: FrameEcliptic,
		Anchor:         AngleAnchor{Type: AngleASC},
		Model:          ZeroPoint{WorldZero: 95, ScreenZero: 90, Direction: Negative, Scale: 1},
	}

	assertAngle(t, 0, WorldToScreen(185, frame, 0))
}

func TestAnchorFixedPoint(t *testing.T) {
	for _, dir := range []Rotation{Clockwise, CounterClockwise} {
		for _, flip := range []bool{false, true} {
			frame := legacyFrame(137.5, dir, flip)
			for anchorLon := 0.0; anchorLon < 360; anchorLon += 23.7 {
				assert.Equal(t, 137.5, WorldToScreen(anchorLon, frame, anchorLon), "dir=%s flip=%v anchor=%v", dir, flip, anchorLon)
			}
		}
	}
}

func TestRoundTripLegacy(t *testing.T) {
	for _, dir := range []Rotation{Clockwise, CounterClockwise} {
		for _, flip := range []bool{false, true} {
			frame := legacyFrame(200, dir, flip)
			for _, anchorLon := range []float64{0, 95, 179.99, 180, 359.5} {
				for world := 0.0; world < 360; world += 0.75 {
					screen := WorldToScreen(world, frame, anchorLon)
					require.GreaterOrEqual(t, screen, 0.0)
					require.Less(t, screen, 360.0)
					back := ScreenToWorld(screen, frame, anchorLon)
					require.LessOrEqual(t, angle.Distance(world, back), tolerance,
						"dir=%s flip=%v anchor=%v world=%v back=%v", dir, flip, anchorLon, world, back)
				}
			}
		}
	}
}

func TestRoundTripZeroPoint(t *testing.T) {
	for _, dir := range []Sign{Positive, Negative} {
		for _, flip := range []bool{false, true} {
			for _, scale := range []float64{1, 0.5} {
				frame := ViewFrame{
					Anchor:      AngleAnchor{Type: AngleASC},
					Model:       ZeroPoint{WorldZero: 95, ScreenZero: 90, Direction: dir, Scale: scale},
					AngularFlip: flip,
				}
				for world := 0.0; world < 360; world += 1.25 {
					back := ScreenToWorld(WorldToScreen(world, frame, 0), frame, 0)
					require.LessOrEqual(t, angle.Distance(world, back), tolerance,
						"dir=%d flip=%v scale=%v world=%v", dir, flip, scale, world)
				}
			}
		}
	}
}

func TestZeroPointLinearity(t *testing.T) {
	frame := ViewFrame{
		Anchor: AngleAnchor{Type: AngleASC},
		Model:  ZeroPoint{WorldZero: 350, ScreenZero: 725, Direction: Positive, Scale: 1},
	}

	at := WorldToScreen(350, frame, 0)
	assertAngle(t, angle.Normalize(725), at)

	next := WorldToScreen(360, frame, 0)
	assert.InDelta(t, 10, angle.ShortestDelta(next, at), tolerance)
}

func TestZeroPointDefaults(t *testing.T) {
	frame := ViewFrame{Model: ZeroPoint{WorldZero: 10, ScreenZero: 20}}

	assertAngle(t, 50, WorldToScreen(40, frame, 0))
}

func TestToZeroPointEquivalent(t *testing.T) {
	for _, dir := range []Rotation{Clockwise, CounterClockwise} {
		for _, flip := range []bool{false, true} {
			legacy := legacyFrame(180, dir, flip)
			zp := ToZeroPoint(legacy, 95)
			require.True(t, zp.IsZeroPoint())
			for world := 0.0; world < 360; world += 5 {
				assertAngle(t, WorldToScreen(world, legacy, 95), WorldToScreen(world, zp, 0))
			}
		}
	}
}

func TestRadialFlipIgnoredByTransform(t *testing.T) {
	plain := legacyFrame(180, CounterClockwise, false)
	flipped := plain
	flipped.RadialFlip = true

	for world := 0.0; world < 360; world += 30 {
		assert.Equal(t, WorldToScreen(world, plain, 95), WorldToScreen(world, flipped, 95))
	}
}

func TestBind(t *testing.T) {
	snap := &ChartSnapshot{
		Objects: map[ObjectID]float64{"Sun": 95},
		Angles:  map[AngleType]float64{AngleASC: 95},
	}

	t.Run("resolves anchor once", func(t *testing.T) {
		bound, ok := Bind(legacyFrame(180, CounterClockwise, false), snap)
		require.True(t, ok)
		assert.Equal(t, 95.0, bound.AnchorLongitude)
		assertAngle(t, 90, bound.WorldToScreen(185))
		assertAngle(t, 185, bound.ScreenToWorld(90))
	})

	t.Run("missing anchor is not zero", func(t *testing.T) {
		frame := legacyFrame(180, CounterClockwise, false)
		frame.Anchor = ObjectAnchor{ID: "Pluto"}
		_, ok := Bind(frame, snap)
		assert.False(t, ok)
	})

	t.Run("zero-point frames bind without the anchor", func(t *testing.T) {
		frame := ViewFrame{Anchor: ObjectAnchor{ID: "Pluto"}, Model: ZeroPoint{WorldZero: 95, ScreenZero: 90}}
		_, ok := Bind(frame, snap)
		assert.True(t, ok)
	})

	t.Run("derived angles", func(t *testing.T) {
		frame := legacyFrame(0, Clockwise, false)
		frame.Anchor = AngleAnchor{Type: AngleDESC}
		bound, ok := Bind(frame, snap)
		require.True(t, ok)
		assert.Equal(t, 275.0, bound.AnchorLongitude)
	})
}

func TestResolveAnchorSigns(t *testing.T) {
	lon, ok := ResolveAnchor(SignAnchor{Index: 4}, nil)
	require.True(t, ok)
	assert.Equal(t, 120.0, lon)

	_, ok = ResolveAnchor(HouseAnchor{Index: 1}, &ChartSnapshot{})
	assert.False(t, ok)
}

func TestFrameHelpers(t *testing.T) {
	base := legacyFrame(180, CounterClockwise, false)

	rotated := base.Rotated(200)
	assert.Equal(t, 20.0, rotated.ScreenAnchor())
	assert.Equal(t, 180.0, base.ScreenAnchor(), "original frame must not change")

	mirrored := base.Mirrored()
	assert.True(t, mirrored.AngularFlip)
	assert.False(t, base.AngularFlip)

	zp := ViewFrame{Anchor: AngleAnchor{Type: AngleASC}, Model: ZeroPoint{WorldZero: 1, ScreenZero: 2, Direction: Negative}}
	snapped := zp.Snapped(HouseAnchor{Index: 10}, 270)
	require.False(t, snapped.IsZeroPoint())
	assert.Equal(t, HouseAnchor{Index: 10}, snapped.Anchor)
	assert.Equal(t, AnchorRelative{ScreenAngleDeg: 270, Direction: CounterClockwise}, snapped.Model)
}

func TestValidateRejectsWrappingScale(t *testing.T) {
	frame := ViewFrame{
		ReferenceFrame: FrameEcliptic,
		Anchor:         AngleAnchor{Type: AngleASC},
		Model:          ZeroPoint{WorldZero: 0, ScreenZero: 0, Direction: Positive, Scale: 2},
	}
	// 100 and 280 land on the same screen angle.
	assertAngle(t, WorldToScreen(100, frame, 0), WorldToScreen(280, frame, 0))
	assert.Error(t, frame.Validate())

	for _, scale := range []float64{1, -1, 0.5} {
		frame.Model = ZeroPoint{Direction: Positive, Scale: scale}
		assert.NoError(t, frame.Validate(), "scale %v", scale)
	}
}
