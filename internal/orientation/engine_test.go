package orientation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// equalHouses builds a snapshot with equal 30 degree houses starting at asc.
func equalHouses(asc float64, objects map[ObjectID]float64) *ChartSnapshot {
	houses := make(map[int]float64, 12)
	for house := 1; house <= 12; house++ {
		houses[house] = asc + float64(house-1)*30
		if houses[house] >= 360 {
			houses[house] -= 360
		}
	}
	return &ChartSnapshot{
		Objects: objects,
		Houses:  houses,
		Angles:  map[AngleType]float64{AngleASC: asc, AngleMC: asc + 270 - 360*float64(int((asc+270)/360))},
	}
}

type recordingObserver struct {
	ticks int
	fired []string
}

func (r *recordingObserver) TickEvaluated() { r.ticks++ }

func (r *recordingObserver) RuleFired(ruleID, triggerKind string) {
	r.fired = append(r.fired, ruleID+"/"+triggerKind)
}

func TestHouseOf(t *testing.T) {
	snap := equalHouses(350, nil)

	tests := []struct {
		lon  float64
		want int
	}{
		{lon: 350, want: 1},
		{lon: 5, want: 1},
		{lon: 20, want: 2},
		{lon: 349.9, want: 12},
		{lon: 170, want: 7},
	}
	for _, tt := range tests {
		got, ok := HouseOf(tt.lon, snap)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "lon %v", tt.lon)
	}

	_, ok := HouseOf(10, &ChartSnapshot{Houses: map[int]float64{1: 0}})
	assert.False(t, ok)
}

func TestEngineAscLeavesHouse(t *testing.T) {
	program := Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{{
			ID:          "next-house",
			Trigger:     AscLeavesHouse{House: 1},
			Effect:      SnapHouseToAngle{House: 2, ScreenAngleDeg: 180},
			AnimationMs: 300,
			Locks:       []LockRule{{Subject: HouseSubject{Indices: []int{2}}, Frame: LockScreen, Mode: LockExact}},
		}},
	}
	observer := &recordingObserver{}
	engine, err := NewEngine(program, WithObserver(observer))
	require.NoError(t, err)

	// The house cusps stay fixed while the ascendant moves through them.
	snap := equalHouses(0, nil)
	state := NewRuntimeState()

	snap.Angles[AngleASC] = 10
	out := engine.Evaluate(state, snap)
	assert.Empty(t, out.Transitions, "first tick has no previous position")

	snap.Angles[AngleASC] = 25
	out = engine.Evaluate(state, snap)
	assert.Empty(t, out.Transitions)

	snap.Angles[AngleASC] = 35
	out = engine.Evaluate(state, snap)
	require.Len(t, out.Transitions, 1)
	transition := out.Transitions[0]
	assert.Equal(t, "next-house", transition.RuleID)
	assert.Equal(t, 300, transition.AnimationMs)
	assert.Equal(t, HouseAnchor{Index: 2}, out.Frame.Anchor)
	assert.True(t, state.Applied("next-house"))
	assert.Len(t, out.Locks, 1)

	// One-shot: moving back and out again does not fire a second time.
	snap.Angles[AngleASC] = 15
	engine.Evaluate(state, snap)
	snap.Angles[AngleASC] = 45
	out = engine.Evaluate(state, snap)
	assert.Empty(t, out.Transitions)
	assert.Equal(t, HouseAnchor{Index: 2}, out.Frame.Anchor, "effect stays in force")

	assert.Equal(t, 5, observer.ticks)
	assert.Equal(t, []string{"next-house/ascLeavesHouse"}, observer.fired)
}

func TestEnginePlanetCrossesHouse(t *testing.T) {
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{{
			ID:        "mars-tenth",
			Trigger:   PlanetCrossesHouse{Planet: "Mars", House: 10, Edge: EdgeEither},
			Effect:    Rotate{Delta: 15},
			Recurring: true,
		}},
	})
	require.NoError(t, err)

	state := NewRuntimeState()
	snap := equalHouses(0, map[ObjectID]float64{"Mars": 255})
	engine.Evaluate(state, snap)

	snap.Objects["Mars"] = 275 // enters the 10th
	out := engine.Evaluate(state, snap)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, 195.0, out.Frame.ScreenAnchor())

	snap.Objects["Mars"] = 285 // still inside
	out = engine.Evaluate(state, snap)
	assert.Empty(t, out.Transitions)

	snap.Objects["Mars"] = 301 // leaves, recurring rules fire again
	out = engine.Evaluate(state, snap)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, 210.0, out.Frame.ScreenAnchor())
}

func TestEnginePlanetCrossesHouseEdges(t *testing.T) {
	tests := []struct {
		name      string
		edge      HouseEdge
		enterFire bool
		leaveFire bool
	}{
		{name: "leaving by default", leaveFire: true},
		{name: "entering", edge: EdgeEnter, enterFire: true},
		{name: "either", edge: EdgeEither, enterFire: true, leaveFire: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := NewEngine(Program{
				BaseFrame: DefaultViewFrame(),
				Rules: []OrientationRule{{
					ID:        "sun-fifth",
					Trigger:   PlanetCrossesHouse{Planet: "Sun", House: 5, Edge: tt.edge},
					Effect:    Mirror{},
					Recurring: true,
				}},
			})
			require.NoError(t, err)

			state := NewRuntimeState()
			snap := equalHouses(0, map[ObjectID]float64{"Sun": 115})
			engine.Evaluate(state, snap)

			snap.Objects["Sun"] = 125 // 4th to 5th
			out := engine.Evaluate(state, snap)
			assert.Equal(t, tt.enterFire, len(out.Transitions) == 1, "entering")

			snap.Objects["Sun"] = 155 // 5th to 6th
			out = engine.Evaluate(state, snap)
			assert.Equal(t, tt.leaveFire, len(out.Transitions) == 1, "leaving")
		})
	}
}

func TestEnginePlanetCrossesAngle(t *testing.T) {
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{{
			ID:      "sun-asc",
			Trigger: PlanetCrossesAngle{Planet: "Sun", Angle: AngleASC},
			Effect:  Mirror{Wheel: "outer"},
		}},
	})
	require.NoError(t, err)

	t.Run("crossing the angle fires", func(t *testing.T) {
		state := NewRuntimeState()
		snap := equalHouses(100, map[ObjectID]float64{"Sun": 98})
		engine.Evaluate(state, snap)

		snap.Objects["Sun"] = 101
		out := engine.Evaluate(state, snap)
		require.Len(t, out.Transitions, 1)
		assert.True(t, out.FrameFor("outer").AngularFlip)
		assert.False(t, out.Frame.AngularFlip, "base frame untouched")
	})

	t.Run("passing the opposition does not fire", func(t *testing.T) {
		state := NewRuntimeState()
		snap := equalHouses(100, map[ObjectID]float64{"Sun": 279})
		engine.Evaluate(state, snap)

		snap.Objects["Sun"] = 281
		out := engine.Evaluate(state, snap)
		assert.Empty(t, out.Transitions)
	})
}

func TestEngineLastAppliedWins(t *testing.T) {
	first := ViewFrame{ReferenceFrame: FrameEcliptic, Anchor: SignAnchor{Index: 0}, Model: AnchorRelative{ScreenAngleDeg: 0, Direction: Clockwise}}
	second := ViewFrame{ReferenceFrame: FrameEcliptic, Anchor: SignAnchor{Index: 3}, Model: AnchorRelative{ScreenAngleDeg: 90, Direction: Clockwise}}

	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{
			{ID: "a", Trigger: CustomTrigger{ID: "always"}, Effect: SetViewFrame{Frame: first}},
			{ID: "b", Trigger: CustomTrigger{ID: "always"}, Effect: SetViewFrame{Frame: second}},
		},
	}, WithPredicate("always", func(TriggerContext) bool { return true }))
	require.NoError(t, err)

	state := NewRuntimeState()
	out := engine.Evaluate(state, equalHouses(0, nil))
	require.Len(t, out.Transitions, 2)
	assert.Equal(t, FrameKey(first), FrameKey(out.Transitions[1].From))
	assert.Equal(t, FrameKey(second), FrameKey(out.Frame))

	out = engine.Evaluate(state, equalHouses(0, nil))
	assert.Empty(t, out.Transitions)
}

func TestEngineCustomPredicate(t *testing.T) {
	var seen []string
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{
			{ID: "known", Trigger: CustomTrigger{ID: "moon-visible"}, Effect: Rotate{Delta: -30}},
			{ID: "unknown", Trigger: CustomTrigger{ID: "not-registered"}, Effect: Mirror{}},
		},
	}, WithPredicate("moon-visible", func(ctx TriggerContext) bool {
		seen = append(seen, ctx.Rule.ID)
		_, ok := ctx.Snapshot.ObjectLongitude("Moon")
		return ok
	}))
	require.NoError(t, err)

	state := NewRuntimeState()
	out := engine.Evaluate(state, equalHouses(0, nil))
	assert.Empty(t, out.Transitions)

	out = engine.Evaluate(state, equalHouses(0, map[ObjectID]float64{"Moon": 12}))
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, 150.0, out.Frame.ScreenAnchor())
	assert.False(t, state.Applied("unknown"))
	assert.Equal(t, []string{"known", "known"}, seen)
}

func TestEngineRejectsInvalidProgram(t *testing.T) {
	_, err := NewEngine(Program{
		Rules: []OrientationRule{{ID: "x", Trigger: AscLeavesHouse{House: 0}, Effect: Mirror{}}},
	})
	assert.Error(t, err)
}

func TestRuntimeStateReset(t *testing.T) {
	engine, err := NewEngine(Program{
		Rules: []OrientationRule{{ID: "x", Trigger: CustomTrigger{ID: "t"}, Effect: Mirror{}}},
	}, WithPredicate("t", func(TriggerContext) bool { return true }))
	require.NoError(t, err)

	state := NewRuntimeState()
	engine.Evaluate(state, equalHouses(0, nil))
	require.True(t, state.Applied("x"))

	state.Reset()
	assert.False(t, state.Applied("x"))
	assert.Empty(t, state.ActiveFrames)
	out := engine.Evaluate(state, equalHouses(0, nil))
	assert.Len(t, out.Transitions, 1)
}

func TestEngineSnapAnchorToAngle(t *testing.T) {
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{{
			ID:      "sun-top",
			Trigger: CustomTrigger{ID: "now"},
			Effect:  SnapAnchorToAngle{Anchor: ObjectAnchor{ID: "Sun"}, ScreenAngleDeg: 270},
		}},
	}, WithPredicate("now", func(TriggerContext) bool { return true }))
	require.NoError(t, err)

	snap := equalHouses(0, map[ObjectID]float64{"Sun": 42})
	out := engine.Evaluate(NewRuntimeState(), snap)
	require.Len(t, out.Transitions, 1)
	assert.Equal(t, ObjectAnchor{ID: "Sun"}, out.Frame.Anchor)
	assert.Equal(t, 270.0, out.Frame.ScreenAnchor())
	assert.Equal(t, DefaultViewFrame().ReferenceFrame, out.Frame.ReferenceFrame)

	bound, ok := Bind(out.Frame, snap)
	require.True(t, ok)
	assertAngle(t, 270, bound.WorldToScreen(42))
}

// sequence returns predicates that each fire on a single tick.
func sequence(ticks map[string]int) []EngineOption {
	var opts []EngineOption
	for id, tick := range ticks {
		opts = append(opts, WithPredicate(id, func(ctx TriggerContext) bool {
			return ctx.State.Ticks == tick
		}))
	}
	return opts
}

func TestEngineLocksEndWhenFrameReplaced(t *testing.T) {
	houseLock := LockRule{Subject: HouseSubject{Indices: []int{1}}, Frame: LockScreen, Mode: LockExact}
	signLock := LockRule{Subject: SignSubject{}, Frame: LockScreen, Mode: LockExact}
	replacement := ViewFrame{ReferenceFrame: FrameSigns, Anchor: SignAnchor{Index: 0}, Model: AnchorRelative{ScreenAngleDeg: 180, Direction: CounterClockwise}}

	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{
			{ID: "outer-flip", Trigger: CustomTrigger{ID: "first"}, Effect: Mirror{Wheel: "outer"}, Locks: []LockRule{signLock}},
			{ID: "flip", Trigger: CustomTrigger{ID: "first"}, Effect: Mirror{}, Locks: []LockRule{houseLock}},
			{ID: "reset", Trigger: CustomTrigger{ID: "second"}, Effect: SetViewFrame{Frame: replacement}},
		},
	}, sequence(map[string]int{"first": 0, "second": 1})...)
	require.NoError(t, err)

	state := NewRuntimeState()
	out := engine.Evaluate(state, equalHouses(0, nil))
	require.Len(t, out.Transitions, 2)
	assert.True(t, out.Frame.AngularFlip)
	assert.Equal(t, []LockRule{signLock, houseLock}, out.Locks)

	out = engine.Evaluate(state, equalHouses(0, nil))
	require.Len(t, out.Transitions, 1)
	assert.False(t, out.Frame.AngularFlip)
	assert.Equal(t, []LockRule{signLock}, out.Locks, "the mirror on the base wheel is gone, and so is its lock")
	_, locked := ResolveLock(out.Locks, HouseElement(1))
	assert.False(t, locked)
	assert.True(t, out.FrameFor("outer").AngularFlip)
}

func TestEngineRecurringRuleKeepsOneLockSet(t *testing.T) {
	lock := LockRule{Subject: AngleSubject{}, Frame: LockScreen, Mode: LockExact}
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules: []OrientationRule{{
			ID:        "spin",
			Trigger:   CustomTrigger{ID: "always"},
			Effect:    Rotate{Delta: 1},
			Locks:     []LockRule{lock},
			Recurring: true,
		}},
	}, WithPredicate("always", func(TriggerContext) bool { return true }))
	require.NoError(t, err)

	state := NewRuntimeState()
	snap := equalHouses(0, nil)
	for i := 0; i < 1000; i++ {
		engine.Evaluate(state, snap)
	}
	require.Len(t, state.ActiveLocks, 1)
	assert.Equal(t, []LockRule{lock}, engine.Locks(state))
}

func TestEngineEvaluateNilState(t *testing.T) {
	engine, err := NewEngine(Program{
		BaseFrame: DefaultViewFrame(),
		Rules:     []OrientationRule{{ID: "x", Trigger: CustomTrigger{ID: "t"}, Effect: Mirror{}}},
	}, WithPredicate("t", func(TriggerContext) bool { return true }))
	require.NoError(t, err)

	out := engine.Evaluate(nil, equalHouses(0, nil))
	assert.Len(t, out.Transitions, 1)
	assert.True(t, out.Frame.AngularFlip)
}
