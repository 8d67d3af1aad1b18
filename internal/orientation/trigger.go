package orientation

import (
	"encoding/json"
	"fmt"
)

// Trigger is the condition half of an OrientationRule. The concrete types are
// AscLeavesHouse, PlanetCrossesHouse, PlanetCrossesAngle and CustomTrigger.
type Trigger interface {
	TriggerKind() string
	isTrigger()
}

// AscLeavesHouse fires on the tick the ascendant moves out of House.
type AscLeavesHouse struct {
	House int
}

// PlanetCrossesHouse fires on the tick Planet crosses a boundary of House.
// Like AscLeavesHouse it fires on leaving unless Edge says otherwise.
type PlanetCrossesHouse struct {
	Planet ObjectID
	House  int
	Edge   HouseEdge
}

// HouseEdge selects which boundary crossings of a house count.
type HouseEdge string

const (
	EdgeLeave  HouseEdge = "leave"
	EdgeEnter  HouseEdge = "enter"
	EdgeEither HouseEdge = "either"
)

func (e HouseEdge) Valid() bool {
	return e == "" || e == EdgeLeave || e == EdgeEnter || e == EdgeEither
}

// matches reports whether a move from house prev to house cur crosses the
// selected boundary of house.
func (e HouseEdge) matches(house, prev, cur int) bool {
	if prev == cur {
		return false
	}
	switch e {
	case EdgeEnter:
		return cur == house
	case EdgeEither:
		return prev == house || cur == house
	}
	return prev == house
}

// PlanetCrossesAngle fires on the tick Planet passes over the chart angle.
type PlanetCrossesAngle struct {
	Planet ObjectID
	Angle  AngleType
}

// CustomTrigger delegates to the Predicate registered under ID.
type CustomTrigger struct {
	ID string
}

func (AscLeavesHouse) TriggerKind() string     { return "ascLeavesHouse" }
func (PlanetCrossesHouse) TriggerKind() string { return "planetCrossesHouse" }
func (PlanetCrossesAngle) TriggerKind() string { return "planetCrossesAngle" }
func (CustomTrigger) TriggerKind() string      { return "custom" }

func (AscLeavesHouse) isTrigger()     {}
func (PlanetCrossesHouse) isTrigger() {}
func (PlanetCrossesAngle) isTrigger() {}
func (CustomTrigger) isTrigger()      {}

func validateTrigger(t Trigger) error {
	switch v := t.(type) {
	case nil:
		return fmt.Errorf("trigger is required")
	case AscLeavesHouse:
		return validateHouse(v.House)
	case PlanetCrossesHouse:
		if v.Planet == "" {
			return fmt.Errorf("planet is required")
		}
		if !v.Edge.Valid() {
			return fmt.Errorf("unknown house edge %q", v.Edge)
		}
		return validateHouse(v.House)
	case PlanetCrossesAngle:
		if v.Planet == "" {
			return fmt.Errorf("planet is required")
		}
		if !v.Angle.Valid() {
			return fmt.Errorf("unknown angle type %q", v.Angle)
		}
	case CustomTrigger:
		if v.ID == "" {
			return fmt.Errorf("custom trigger id is required")
		}
	}
	return nil
}

func validateHouse(house int) error {
	if house < 1 || house > 12 {
		return fmt.Errorf("house %d out of range 1..12", house)
	}
	return nil
}

type triggerWire struct {
	Kind   string    `json:"kind"`
	House  int       `json:"house,omitempty"`
	Planet ObjectID  `json:"planet,omitempty"`
	Angle  AngleType `json:"angle,omitempty"`
	ID     string    `json:"id,omitempty"`
	Edge   HouseEdge `json:"edge,omitempty"`
}

func marshalTrigger(t Trigger) ([]byte, error) {
	var w triggerWire
	switch v := t.(type) {
	case nil:
		return []byte("null"), nil
	case AscLeavesHouse:
		w = triggerWire{House: v.House}
	case PlanetCrossesHouse:
		w = triggerWire{Planet: v.Planet, House: v.House, Edge: v.Edge}
	case PlanetCrossesAngle:
		w = triggerWire{Planet: v.Planet, Angle: v.Angle}
	case CustomTrigger:
		w = triggerWire{ID: v.ID}
	}
	w.Kind = t.TriggerKind()
	return json.Marshal(w)
}

func unmarshalTrigger(data []byte) (Trigger, error) {
	if isNull(data) {
		return nil, nil
	}
	var w triggerWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding trigger: %w", err)
	}
	switch w.Kind {
	case "ascLeavesHouse":
		return AscLeavesHouse{House: w.House}, nil
	case "planetCrossesHouse":
		return PlanetCrossesHouse{Planet: w.Planet, House: w.House, Edge: w.Edge}, nil
	case "planetCrossesAngle":
		return PlanetCrossesAngle{Planet: w.Planet, Angle: w.Angle}, nil
	case "custom":
		return CustomTrigger{ID: w.ID}, nil
	}
	return nil, fmt.Errorf("decoding trigger: unknown kind %q", w.Kind)
}
