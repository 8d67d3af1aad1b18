package orientation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// UnmarshalJSON accepts both string and numeric object ids.
func (id *ObjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ObjectID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("object id must be a string or number: %w", err)
	}
	*id = ObjectID(n.String())
	return nil
}

// anchorWire is the JSON shape of an AnchorTarget: exactly one of the fields is
// set, e.g. {"angle":"ASC"} or {"object":"Sun"} or {"house":10}.
type anchorWire struct {
	Object *ObjectID  `json:"object,omitempty"`
	House  *int       `json:"house,omitempty"`
	Sign   *int       `json:"sign,omitempty"`
	Angle  *AngleType `json:"angle,omitempty"`
}

func toAnchorWire(target AnchorTarget) *anchorWire {
	switch a := target.(type) {
	case ObjectAnchor:
		id := a.ID
		return &anchorWire{Object: &id}
	case HouseAnchor:
		index := a.Index
		return &anchorWire{House: &index}
	case SignAnchor:
		index := a.Index
		return &anchorWire{Sign: &index}
	case AngleAnchor:
		t := a.Type
		return &anchorWire{Angle: &t}
	}
	return nil
}

func (w *anchorWire) target() (AnchorTarget, error) {
	if w == nil {
		return nil, nil
	}
	var found []AnchorTarget
	if w.Object != nil {
		found = append(found, ObjectAnchor{ID: *w.Object})
	}
	if w.House != nil {
		found = append(found, HouseAnchor{Index: *w.House})
	}
	if w.Sign != nil {
		found = append(found, SignAnchor{Index: *w.Sign})
	}
	if w.Angle != nil {
		found = append(found, AngleAnchor{Type: *w.Angle})
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("anchor must set one of object, house, sign or angle")
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("anchor sets %d variants, expected exactly one", len(found))
}

// MarshalAnchor encodes an AnchorTarget in its JSON wire form.
func MarshalAnchor(target AnchorTarget) ([]byte, error) {
	w := toAnchorWire(target)
	if w == nil {
		return []byte("null"), nil
	}
	return json.Marshal(w)
}

// UnmarshalAnchor decodes the JSON wire form of an AnchorTarget.
func UnmarshalAnchor(data []byte) (AnchorTarget, error) {
	if isNull(data) {
		return nil, nil
	}
	var w anchorWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding anchor: %w", err)
	}
	return w.target()
}

// Direction holds the raw "direction" field of a FrameSpec, which is "cw" or
// "ccw" for anchor-relative frames and +1 or -1 for zero-point frames.
type Direction struct {
	Rotation Rotation
	Sign     Sign
}

func (d Direction) MarshalJSON() ([]byte, error) {
	if d.Sign != 0 {
		return []byte(strconv.Itoa(int(d.Sign))), nil
	}
	return json.Marshal(string(d.Rotation))
}

func (d *Direction) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r := Rotation(s)
		if !r.Valid() {
			return fmt.Errorf("unknown direction %q", s)
		}
		*d = Direction{Rotation: r}
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("direction must be \"cw\", \"ccw\", 1 or -1: %w", err)
	}
	switch {
	case n > 0:
		*d = Direction{Sign: Positive}
	case n < 0:
		*d = Direction{Sign: Negative}
	default:
		return fmt.Errorf("direction must not be 0")
	}
	return nil
}

func (d Direction) rotation() Rotation {
	if d.Sign != 0 {
		return RotationOf(d.Sign)
	}
	return d.Rotation
}

func (d Direction) sign() Sign {
	if d.Rotation != "" {
		return SignOf(d.Rotation)
	}
	return d.Sign
}

// FrameSpec is a partially specified ViewFrame as it appears in user JSON.
// Omitted fields take their defaults in NormalizeViewFrame.
type FrameSpec struct {
	ReferenceFrame ReferenceFrame `json:"referenceFrame,omitempty"`
	Anchor         AnchorTarget   `json:"-"`
	ScreenAngleDeg *float64       `json:"screenAngleDeg,omitempty"`
	Direction      *Direction     `json:"direction,omitempty"`
	RadialFlip     bool           `json:"radialFlip,omitempty"`
	AngularFlip    bool           `json:"angularFlip,omitempty"`
	WorldZero      *float64       `json:"worldZero,omitempty"`
	ScreenZero     *float64       `json:"screenZero,omitempty"`
	Scale          *float64       `json:"scale,omitempty"`
}

type frameSpecAlias FrameSpec

type frameSpecWire struct {
	frameSpecAlias
	Anchor *anchorWire `json:"anchor,omitempty"`
}

func (s FrameSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(frameSpecWire{frameSpecAlias: frameSpecAlias(s), Anchor: toAnchorWire(s.Anchor)})
}

func (s *FrameSpec) UnmarshalJSON(data []byte) error {
	var w frameSpecWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	anchor, err := w.Anchor.target()
	if err != nil {
		return err
	}
	*s = FrameSpec(w.frameSpecAlias)
	s.Anchor = anchor
	return nil
}

// NormalizeViewFrame builds a total ViewFrame from a partial spec. Defaults:
// referenceFrame "ecliptic", anchor ASC, screenAngleDeg 180, direction "ccw",
// flips off. When both worldZero and screenZero are present the zero-point
// model is used instead, with direction +1 and scale 1 by default.
func NormalizeViewFrame(spec FrameSpec) ViewFrame {
	f := ViewFrame{
		ReferenceFrame: spec.ReferenceFrame,
		Anchor:         spec.Anchor,
		RadialFlip:     spec.RadialFlip,
		AngularFlip:    spec.AngularFlip,
	}
	if f.ReferenceFrame == "" {
		f.ReferenceFrame = DefaultReferenceFrame
	}
	if f.Anchor == nil {
		f.Anchor = AngleAnchor{Type: AngleASC}
	}

	if spec.WorldZero != nil && spec.ScreenZero != nil {
		z := ZeroPoint{
			WorldZero:  *spec.WorldZero,
			ScreenZero: *spec.ScreenZero,
			Direction:  Positive,
			Scale:      1,
		}
		if spec.Direction != nil {
			if s := spec.Direction.sign(); s != 0 {
				z.Direction = s
			}
		}
		if spec.Scale != nil {
			z.Scale = *spec.Scale
		}
		f.Model = z
		return f
	}

	m := AnchorRelative{ScreenAngleDeg: DefaultScreenAngleDeg, Direction: DefaultRotation}
	if spec.ScreenAngleDeg != nil {
		m.ScreenAngleDeg = *spec.ScreenAngleDeg
	}
	if spec.Direction != nil {
		if r := spec.Direction.rotation(); r.Valid() {
			m.Direction = r
		}
	}
	f.Model = m
	return f
}

// Spec returns the fully populated FrameSpec for f.
func (f ViewFrame) Spec() FrameSpec {
	spec := FrameSpec{
		ReferenceFrame: f.ReferenceFrame,
		Anchor:         f.Anchor,
		RadialFlip:     f.RadialFlip,
		AngularFlip:    f.AngularFlip,
	}
	switch m := f.model().(type) {
	case ZeroPoint:
		wz, sz, scale := m.WorldZero, m.ScreenZero, m.Scale
		spec.WorldZero = &wz
		spec.ScreenZero = &sz
		spec.Scale = &scale
		spec.Direction = &Direction{Sign: m.Direction}
	case AnchorRelative:
		deg := m.ScreenAngleDeg
		spec.ScreenAngleDeg = &deg
		spec.Direction = &Direction{Rotation: m.Direction}
	}
	return spec
}

func (f ViewFrame) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Spec())
}

func (f *ViewFrame) UnmarshalJSON(data []byte) error {
	var spec FrameSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("decoding view frame: %w", err)
	}
	*f = NormalizeViewFrame(spec)
	return nil
}

func isNull(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) == 0 || bytes.Equal(data, []byte("null"))
}
