package orientation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeViewFrameDefaults(t *testing.T) {
	frame := NormalizeViewFrame(FrameSpec{})

	assert.Equal(t, FrameEcliptic, frame.ReferenceFrame)
	assert.Equal(t, AngleAnchor{Type: AngleASC}, frame.Anchor)
	assert.Equal(t, AnchorRelative{ScreenAngleDeg: 180, Direction: CounterClockwise}, frame.Model)
	assert.False(t, frame.RadialFlip)
	assert.False(t, frame.AngularFlip)
	assert.Equal(t, DefaultViewFrame(), frame)
}

func TestViewFrameJSON(t *testing.T) {
	t.Run("partial legacy frame", func(t *testing.T) {
		var frame ViewFrame
		require.NoError(t, json.Unmarshal([]byte(`{"referenceFrame":"houses","anchor":{"house":10},"direction":"cw"}`), &frame))
		assert.Equal(t, FrameHouses, frame.ReferenceFrame)
		assert.Equal(t, HouseAnchor{Index: 10}, frame.Anchor)
		assert.Equal(t, AnchorRelative{ScreenAngleDeg: 180, Direction: Clockwise}, frame.Model)
	})

	t.Run("zero-point selected by worldZero and screenZero", func(t *testing.T) {
		var frame ViewFrame
		require.NoError(t, json.Unmarshal([]byte(`{"worldZero":95,"screenZero":90,"direction":-1}`), &frame))
		assert.Equal(t, ZeroPoint{WorldZero: 95, ScreenZero: 90, Direction: Negative, Scale: 1}, frame.Model)
	})

	t.Run("worldZero alone stays anchor-relative", func(t *testing.T) {
		var frame ViewFrame
		require.NoError(t, json.Unmarshal([]byte(`{"worldZero":95,"screenAngleDeg":45}`), &frame))
		assert.Equal(t, AnchorRelative{ScreenAngleDeg: 45, Direction: CounterClockwise}, frame.Model)
	})

	t.Run("numeric object ids", func(t *testing.T) {
		var frame ViewFrame
		require.NoError(t, json.Unmarshal([]byte(`{"anchor":{"object":3}}`), &frame))
		assert.Equal(t, ObjectAnchor{ID: "3"}, frame.Anchor)
	})

	t.Run("rejects two anchor variants", func(t *testing.T) {
		var frame ViewFrame
		assert.Error(t, json.Unmarshal([]byte(`{"anchor":{"house":1,"sign":2}}`), &frame))
	})

	t.Run("rejects unknown direction", func(t *testing.T) {
		var frame ViewFrame
		assert.Error(t, json.Unmarshal([]byte(`{"direction":"up"}`), &frame))
	})

	t.Run("encodes every field", func(t *testing.T) {
		frame := ViewFrame{
			ReferenceFrame: FrameSigns,
			Anchor:         SignAnchor{Index: 0},
			Model:          ZeroPoint{WorldZero: 0, ScreenZero: 180, Direction: Negative, Scale: 1},
			AngularFlip:    true,
		}
		data, err := json.Marshal(frame)
		require.NoError(t, err)
		assert.JSONEq(t, `{"referenceFrame":"signs","anchor":{"sign":0},"direction":-1,"angularFlip":true,"worldZero":0,"screenZero":180,"scale":1}`, string(data))

		var decoded ViewFrame
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, FrameKey(frame), FrameKey(decoded))
	})
}

func TestFrameKey(t *testing.T) {
	base := DefaultViewFrame()

	assert.Equal(t, FrameKey(base), FrameKey(NormalizeViewFrame(FrameSpec{})))

	variants := []ViewFrame{
		base.Rotated(1),
		base.Mirrored(),
		func() ViewFrame { f := base; f.RadialFlip = true; return f }(),
		func() ViewFrame { f := base; f.ReferenceFrame = FrameHouses; return f }(),
		func() ViewFrame { f := base; f.Anchor = AngleAnchor{Type: AngleMC}; return f }(),
		func() ViewFrame { f := base; f.Model = AnchorRelative{ScreenAngleDeg: 180, Direction: Clockwise}; return f }(),
		ToZeroPoint(base, 0),
	}
	seen := map[string]bool{FrameKey(base): true}
	for i, v := range variants {
		key := FrameKey(v)
		assert.False(t, seen[key], "variant %d collides: %s", i, key)
		seen[key] = true
	}

	// Object ids containing separators must not forge another frame's key.
	a := ViewFrame{Anchor: ObjectAnchor{ID: `Sun"|rel=0`}, Model: AnchorRelative{ScreenAngleDeg: 1, Direction: Clockwise}}
	b := ViewFrame{Anchor: ObjectAnchor{ID: "Sun"}, Model: AnchorRelative{ScreenAngleDeg: 1, Direction: Clockwise}}
	assert.NotEqual(t, FrameKey(a), FrameKey(b))
}

func TestParseProgram(t *testing.T) {
	data := []byte(`{
		"baseFrame": {"referenceFrame": "houses", "anchor": {"angle": "ASC"}},
		"locks": [{"subject": {"kind": "house"}, "frame": "screen", "mode": "exact"}],
		"rules": [
			{
				"id": "asc-out-of-first",
				"trigger": {"kind": "ascLeavesHouse", "house": 1},
				"effect": {"kind": "snapHouseToAngle", "house": 2, "screenAngleDeg": 180},
				"animationMs": 400,
				"locks": [{"subject": {"kind": "object", "ids": ["Sun"]}, "frame": "world", "mode": "follow-anchor", "followAnchor": {"house": 2}}]
			},
			{
				"id": "sun-on-mc",
				"trigger": {"kind": "planetCrossesAngle", "planet": "Sun", "angle": "MC"},
				"effect": {"kind": "setViewFrame", "wheel": "outer", "frame": {"worldZero": 0, "screenZero": 180}},
				"recurring": true
			},
			{
				"id": "flip",
				"trigger": {"kind": "custom", "id": "user-flip"},
				"effect": {"kind": "mirror"}
			}
		]
	}`)

	program, err := ParseProgram(data)
	require.NoError(t, err)
	require.Len(t, program.Rules, 3)

	assert.Equal(t, AscLeavesHouse{House: 1}, program.Rules[0].Trigger)
	assert.Equal(t, SnapHouseToAngle{House: 2, ScreenAngleDeg: 180}, program.Rules[0].Effect)
	assert.Equal(t, 400, program.Rules[0].AnimationMs)
	require.Len(t, program.Rules[0].Locks, 1)
	assert.Equal(t, HouseAnchor{Index: 2}, program.Rules[0].Locks[0].FollowAnchor)

	effect, ok := program.Rules[1].Effect.(SetViewFrame)
	require.True(t, ok)
	assert.Equal(t, "outer", effect.Wheel)
	assert.True(t, effect.Frame.IsZeroPoint())
	assert.True(t, program.Rules[1].Recurring)

	assert.Equal(t, CustomTrigger{ID: "user-flip"}, program.Rules[2].Trigger)

	encoded, err := json.Marshal(program)
	require.NoError(t, err)
	again, err := ParseProgram(encoded)
	require.NoError(t, err)
	assert.Equal(t, program.Rules[0].Effect, again.Rules[0].Effect)
	assert.Equal(t, FrameKey(program.BaseFrame), FrameKey(again.BaseFrame))
}

func TestSnapAnchorToAngleJSON(t *testing.T) {
	data := []byte(`{"rules": [{
		"id": "sun-left",
		"trigger": {"kind": "planetCrossesHouse", "planet": "Sun", "house": 5, "edge": "enter"},
		"effect": {"kind": "snapAnchorToAngle", "wheel": "transits", "anchor": {"object": "Sun"}, "screenAngleDeg": 180}
	}]}`)

	program, err := ParseProgram(data)
	require.NoError(t, err)
	want := SnapAnchorToAngle{Wheel: "transits", Anchor: ObjectAnchor{ID: "Sun"}, ScreenAngleDeg: 180}
	assert.Equal(t, want, program.Rules[0].Effect)
	assert.Equal(t, PlanetCrossesHouse{Planet: "Sun", House: 5, Edge: EdgeEnter}, program.Rules[0].Trigger)

	encoded, err := json.Marshal(program)
	require.NoError(t, err)
	again, err := ParseProgram(encoded)
	require.NoError(t, err)
	assert.Equal(t, want, again.Rules[0].Effect)
	assert.Equal(t, program.Rules[0].Trigger, again.Rules[0].Trigger)
}

func TestParseProgramRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "duplicate ids", data: `{"rules":[
			{"id":"a","trigger":{"kind":"custom","id":"x"},"effect":{"kind":"mirror"}},
			{"id":"a","trigger":{"kind":"custom","id":"y"},"effect":{"kind":"mirror"}}]}`},
		{name: "missing id", data: `{"rules":[{"trigger":{"kind":"custom","id":"x"},"effect":{"kind":"mirror"}}]}`},
		{name: "house out of range", data: `{"rules":[{"id":"a","trigger":{"kind":"ascLeavesHouse","house":13},"effect":{"kind":"mirror"}}]}`},
		{name: "unknown trigger", data: `{"rules":[{"id":"a","trigger":{"kind":"eclipse"},"effect":{"kind":"mirror"}}]}`},
		{name: "missing effect", data: `{"rules":[{"id":"a","trigger":{"kind":"custom","id":"x"}}]}`},
		{name: "snap without anchor", data: `{"rules":[{"id":"a","trigger":{"kind":"custom","id":"x"},"effect":{"kind":"snapAnchorToAngle","screenAngleDeg":90}}]}`},
		{name: "snap with bad anchor", data: `{"rules":[{"id":"a","trigger":{"kind":"custom","id":"x"},"effect":{"kind":"snapAnchorToAngle","anchor":{"house":13}}}]}`},
		{name: "unknown house edge", data: `{"rules":[{"id":"a","trigger":{"kind":"planetCrossesHouse","planet":"Sun","house":5,"edge":"sideways"},"effect":{"kind":"mirror"}}]}`},
		{name: "bad lock frame", data: `{"locks":[{"subject":{"kind":"house"},"frame":"galactic"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProgram([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}
