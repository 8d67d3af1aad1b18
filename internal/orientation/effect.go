package orientation

import (
	"encoding/json"
	"fmt"
)

// Effect is the action half of an OrientationRule. The concrete types are
// Rotate, SetViewFrame, Mirror, SnapHouseToAngle and SnapAnchorToAngle.
//
// Wheel names the wheel whose frame the effect changes. The empty wheel is
// the program's base frame, which every wheel without its own frame uses.
type Effect interface {
	EffectKind() string
	TargetWheel() string
	apply(f ViewFrame) ViewFrame
}

// Rotate shifts the frame's screen reference point by Delta degrees.
type Rotate struct {
	Wheel string
	Delta float64
}

// SetViewFrame replaces the frame outright.
type SetViewFrame struct {
	Wheel string
	Frame ViewFrame
}

// Mirror toggles the frame's angular flip.
type Mirror struct {
	Wheel string
}

// SnapHouseToAngle re-anchors the frame on a house cusp placed at ScreenAngleDeg.
type SnapHouseToAngle struct {
	Wheel          string
	House          int
	ScreenAngleDeg float64
}

// SnapAnchorToAngle re-anchors the frame on Anchor placed at ScreenAngleDeg.
type SnapAnchorToAngle struct {
	Wheel          string
	Anchor         AnchorTarget
	ScreenAngleDeg float64
}

func (Rotate) EffectKind() string            { return "rotate" }
func (SetViewFrame) EffectKind() string      { return "setViewFrame" }
func (Mirror) EffectKind() string            { return "mirror" }
func (SnapHouseToAngle) EffectKind() string  { return "snapHouseToAngle" }
func (SnapAnchorToAngle) EffectKind() string { return "snapAnchorToAngle" }

func (e Rotate) TargetWheel() string            { return e.Wheel }
func (e SetViewFrame) TargetWheel() string      { return e.Wheel }
func (e Mirror) TargetWheel() string            { return e.Wheel }
func (e SnapHouseToAngle) TargetWheel() string  { return e.Wheel }
func (e SnapAnchorToAngle) TargetWheel() string { return e.Wheel }

func (e Rotate) apply(f ViewFrame) ViewFrame {
	return f.Rotated(e.Delta)
}

func (e SetViewFrame) apply(ViewFrame) ViewFrame {
	return e.Frame
}

func (e Mirror) apply(f ViewFrame) ViewFrame {
	return f.Mirrored()
}

func (e SnapHouseToAngle) apply(f ViewFrame) ViewFrame {
	return f.Snapped(HouseAnchor{Index: e.House}, e.ScreenAngleDeg)
}

func (e SnapAnchorToAngle) apply(f ViewFrame) ViewFrame {
	return f.Snapped(e.Anchor, e.ScreenAngleDeg)
}

// replacesFrame reports whether e discards the frame it is applied to rather
// than adjusting it.
func replacesFrame(e Effect) bool {
	_, ok := e.(SetViewFrame)
	return ok
}

func validateEffect(e Effect) error {
	switch v := e.(type) {
	case nil:
		return fmt.Errorf("effect is required")
	case SetViewFrame:
		return v.Frame.Validate()
	case SnapHouseToAngle:
		return validateHouse(v.House)
	case SnapAnchorToAngle:
		return validateAnchor(v.Anchor)
	}
	return nil
}

type effectWire struct {
	Kind           string      `json:"kind"`
	Wheel          string      `json:"wheel,omitempty"`
	Delta          float64     `json:"delta,omitempty"`
	Frame          *ViewFrame  `json:"frame,omitempty"`
	House          int         `json:"house,omitempty"`
	Anchor         *anchorWire `json:"anchor,omitempty"`
	ScreenAngleDeg float64     `json:"screenAngleDeg,omitempty"`
}

func marshalEffect(e Effect) ([]byte, error) {
	if e == nil {
		return []byte("null"), nil
	}
	w := effectWire{Kind: e.EffectKind(), Wheel: e.TargetWheel()}
	switch v := e.(type) {
	case Rotate:
		w.Delta = v.Delta
	case SetViewFrame:
		frame := v.Frame
		w.Frame = &frame
	case SnapHouseToAngle:
		w.House = v.House
		w.ScreenAngleDeg = v.ScreenAngleDeg
	case SnapAnchorToAngle:
		w.Anchor = toAnchorWire(v.Anchor)
		w.ScreenAngleDeg = v.ScreenAngleDeg
	}
	return json.Marshal(w)
}

func unmarshalEffect(data []byte) (Effect, error) {
	if isNull(data) {
		return nil, nil
	}
	var w effectWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding effect: %w", err)
	}
	switch w.Kind {
	case "rotate":
		return Rotate{Wheel: w.Wheel, Delta: w.Delta}, nil
	case "setViewFrame":
		if w.Frame == nil {
			return nil, fmt.Errorf("decoding effect: setViewFrame requires a frame")
		}
		return SetViewFrame{Wheel: w.Wheel, Frame: *w.Frame}, nil
	case "mirror":
		return Mirror{Wheel: w.Wheel}, nil
	case "snapHouseToAngle":
		return SnapHouseToAngle{Wheel: w.Wheel, House: w.House, ScreenAngleDeg: w.ScreenAngleDeg}, nil
	case "snapAnchorToAngle":
		anchor, err := w.Anchor.target()
		if err != nil {
			return nil, fmt.Errorf("decoding effect: %w", err)
		}
		if anchor == nil {
			return nil, fmt.Errorf("decoding effect: snapAnchorToAngle requires an anchor")
		}
		return SnapAnchorToAngle{Wheel: w.Wheel, Anchor: anchor, ScreenAngleDeg: w.ScreenAngleDeg}, nil
	}
	return nil, fmt.Errorf("decoding effect: unknown kind %q", w.Kind)
}
