package orientation

import (
	"strconv"
)

type ElementKind string

const (
	KindObject ElementKind = "object"
	KindHouse  ElementKind = "house"
	KindSign   ElementKind = "sign"
	KindAngle  ElementKind = "angle"
)

// Element is one renderable thing on a wheel. Only the field matching Kind is
// meaningful: Object for objects, Index for houses (1..12) and signs (0..11),
// Angle for chart angles.
type Element struct {
	Kind   ElementKind
	Object ObjectID
	Index  int
	Angle  AngleType
}

func ObjectElement(id ObjectID) Element { return Element{Kind: KindObject, Object: id} }
func HouseElement(index int) Element    { return Element{Kind: KindHouse, Index: index} }
func SignElement(index int) Element     { return Element{Kind: KindSign, Index: index} }
func AngleElement(t AngleType) Element  { return Element{Kind: KindAngle, Angle: t} }

// Key is a stable string identity, e.g. "object:Sun", "house:10", "angle:ASC".
func (e Element) Key() string {
	switch e.Kind {
	case KindObject:
		return "object:" + string(e.Object)
	case KindHouse:
		return "house:" + strconv.Itoa(e.Index)
	case KindSign:
		return "sign:" + strconv.Itoa(e.Index)
	case KindAngle:
		return "angle:" + string(e.Angle)
	}
	return string(e.Kind)
}

func (e Element) String() string { return e.Key() }

// Longitude looks the element up through r. Signs never need the resolver.
func (e Element) Longitude(r AnchorResolver) (float64, bool) {
	if e.Kind == KindSign {
		return SignStart(e.Index), true
	}
	if r == nil {
		return 0, false
	}
	switch e.Kind {
	case KindObject:
		return r.ObjectLongitude(e.Object)
	case KindHouse:
		return r.HouseCusp(e.Index)
	case KindAngle:
		return r.AngleLongitude(e.Angle)
	}
	return 0, false
}

// Anchor converts the element back into the matching AnchorTarget.
func (e Element) Anchor() AnchorTarget {
	switch e.Kind {
	case KindObject:
		return ObjectAnchor{ID: e.Object}
	case KindHouse:
		return HouseAnchor{Index: e.Index}
	case KindSign:
		return SignAnchor{Index: e.Index}
	case KindAngle:
		return AngleAnchor{Type: e.Angle}
	}
	return nil
}
