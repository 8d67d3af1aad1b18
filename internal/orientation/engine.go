package orientation

import (
	"fmt"

	"astrowheel/internal/angle"
)

// Predicate evaluates a custom trigger.
type Predicate func(ctx TriggerContext) bool

// TriggerContext is what a custom Predicate sees on each tick.
type TriggerContext struct {
	Rule     OrientationRule
	Snapshot *ChartSnapshot
	State    *RuntimeState
}

// Observer receives engine activity. Implementations must be cheap; they run
// inside the evaluation loop.
type Observer interface {
	TickEvaluated()
	RuleFired(ruleID, triggerKind string)
}

// Transition records one fired rule and the frame change it caused.
type Transition struct {
	RuleID      string    `json:"ruleId"`
	Wheel       string    `json:"wheel,omitempty"`
	From        ViewFrame `json:"from"`
	To          ViewFrame `json:"to"`
	AnimationMs int       `json:"animationMs,omitempty"`
}

// Outcome is the orientation in force after a tick.
type Outcome struct {
	// Frame is the base frame, used by every wheel without its own entry in Frames.
	Frame       ViewFrame            `json:"frame"`
	Frames      map[string]ViewFrame `json:"frames,omitempty"`
	Locks       []LockRule           `json:"locks"`
	Transitions []Transition         `json:"transitions,omitempty"`
}

// FrameFor returns the frame a named wheel should render with.
func (o Outcome) FrameFor(wheel string) ViewFrame {
	if f, ok := o.Frames[wheel]; ok {
		return f
	}
	return o.Frame
}

type EngineOption func(*Engine)

// WithPredicate registers the predicate behind CustomTrigger{ID: id}.
func WithPredicate(id string, p Predicate) EngineOption {
	return func(e *Engine) {
		e.predicates[id] = p
	}
}

func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		e.observer = o
	}
}

// Engine evaluates an orientation program against successive snapshots. The
// engine itself is immutable; all per-session state lives in RuntimeState.
type Engine struct {
	program    Program
	predicates map[string]Predicate
	observer   Observer
}

func NewEngine(program Program, opts ...EngineOption) (*Engine, error) {
	program = program.withDefaults()
	if err := program.Validate(); err != nil {
		return nil, fmt.Errorf("invalid orientation program: %w", err)
	}
	e := &Engine{
		program:    program,
		predicates: make(map[string]Predicate),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Program() Program {
	return e.program
}

// Evaluate runs one tick. Rules are visited in program order, so when two
// fired rules change the same wheel the later one wins. Previous positions are
// refreshed from snap after every rule has been considered.
//
// A rule's locks stay active while its effect is in force: until the same
// wheel's frame is replaced by a SetViewFrame effect. A recurring rule keeps a
// single set of locks however often it fires. A nil state evaluates against a
// fresh state that is then discarded.
func (e *Engine) Evaluate(state *RuntimeState, snap *ChartSnapshot) Outcome {
	if state == nil {
		state = NewRuntimeState()
	}
	state.init()
	houses, longitudes := positions(snap)

	var transitions []Transition
	for _, rule := range e.program.Rules {
		if state.AppliedRuleIDs[rule.ID] && !rule.Recurring {
			continue
		}
		if !e.fires(rule, state, snap, houses, longitudes) {
			continue
		}

		wheel := rule.Effect.TargetWheel()
		from := e.frameFor(state, wheel)
		to := rule.Effect.apply(from)
		state.ActiveFrames[wheel] = to
		state.AppliedRuleIDs[rule.ID] = true
		state.activate(rule, wheel, replacesFrame(rule.Effect))

		transitions = append(transitions, Transition{
			RuleID:      rule.ID,
			Wheel:       wheel,
			From:        from,
			To:          to,
			AnimationMs: rule.AnimationMs,
		})
		if e.observer != nil {
			e.observer.RuleFired(rule.ID, rule.Trigger.TriggerKind())
		}
	}

	state.PreviousHousePositions = houses
	state.PreviousLongitudes = longitudes
	state.Ticks++
	if e.observer != nil {
		e.observer.TickEvaluated()
	}

	outcome := e.Current(state)
	outcome.Transitions = transitions
	return outcome
}

// Current reports the orientation in force without evaluating anything.
func (e *Engine) Current(state *RuntimeState) Outcome {
	out := Outcome{
		Frame: e.program.BaseFrame,
		Locks: e.Locks(state),
	}
	if state == nil {
		return out
	}
	for wheel, frame := range state.ActiveFrames {
		if wheel == "" {
			out.Frame = frame
			continue
		}
		if out.Frames == nil {
			out.Frames = make(map[string]ViewFrame)
		}
		out.Frames[wheel] = frame
	}
	return out
}

// Locks returns the base locks followed by the locks of fired rules in firing
// order, which is the order ResolveLock expects.
func (e *Engine) Locks(state *RuntimeState) []LockRule {
	locks := append([]LockRule(nil), e.program.Locks...)
	return append(locks, state.LockRules()...)
}

func (e *Engine) frameFor(state *RuntimeState, wheel string) ViewFrame {
	if f, ok := state.ActiveFrames[wheel]; ok {
		return f
	}
	if f, ok := state.ActiveFrames[""]; ok {
		return f
	}
	return e.program.BaseFrame
}

func (e *Engine) fires(rule OrientationRule, state *RuntimeState, snap *ChartSnapshot, houses map[string]int, longitudes map[string]float64) bool {
	switch t := rule.Trigger.(type) {
	case AscLeavesHouse:
		key := AngleElement(AngleASC).Key()
		prev, ok := state.PreviousHousePositions[key]
		if !ok {
			return false
		}
		cur, ok := houses[key]
		return ok && prev == t.House && cur != t.House
	case PlanetCrossesHouse:
		key := ObjectElement(t.Planet).Key()
		prev, ok := state.PreviousHousePositions[key]
		if !ok {
			return false
		}
		cur, ok := houses[key]
		return ok && t.Edge.matches(t.House, prev, cur)
	case PlanetCrossesAngle:
		planet := ObjectElement(t.Planet).Key()
		point := AngleElement(t.Angle).Key()
		prevPlanet, ok1 := state.PreviousLongitudes[planet]
		prevPoint, ok2 := state.PreviousLongitudes[point]
		curPlanet, ok3 := longitudes[planet]
		curPoint, ok4 := longitudes[point]
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return false
		}
		return crossed(angle.ShortestDelta(prevPlanet, prevPoint), angle.ShortestDelta(curPlanet, curPoint))
	case CustomTrigger:
		predicate, ok := e.predicates[t.ID]
		if !ok {
			return false
		}
		return predicate(TriggerContext{Rule: rule, Snapshot: snap, State: state})
	}
	return false
}

// crossed reports whether the signed separation changed side between ticks.
// Separations near 180 degrees flip sign at the opposition, not at the angle,
// so only moves that stay within a quarter turn of the angle count.
func crossed(before, after float64) bool {
	if before == 0 {
		return false
	}
	if before < -90 || before > 90 || after < -90 || after > 90 {
		return false
	}
	if before < 0 {
		return after >= 0
	}
	return after <= 0
}

// positions computes the house and longitude of every object and angle in snap.
func positions(snap *ChartSnapshot) (map[string]int, map[string]float64) {
	houses := make(map[string]int)
	longitudes := make(map[string]float64)
	if snap == nil {
		return houses, longitudes
	}
	record := func(el Element) {
		lon, ok := el.Longitude(snap)
		if !ok {
			return
		}
		key := el.Key()
		longitudes[key] = lon
		if house, ok := HouseOf(lon, snap); ok {
			houses[key] = house
		}
	}
	for id := range snap.Objects {
		record(ObjectElement(id))
	}
	for _, t := range AngleTypes {
		record(AngleElement(t))
	}
	return houses, longitudes
}
