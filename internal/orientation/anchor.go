// Package orientation maps world longitudes onto screen angles for a chart wheel.
//
// A ViewFrame pins an anchor (a body, house, sign or chart angle) to a screen
// position and describes how every other longitude is laid out around it. Lock
// rules describe which elements stay fixed while the chart animates, and an
// Engine re-orients frames when triggers fire against successive chart snapshots.
//
// Screen angles are degrees in [0, 360), 0 at 3 o'clock, increasing clockwise.
package orientation

import (
	"fmt"

	"astrowheel/internal/angle"
)

// ObjectID names a celestial body. Hosts use either symbolic ids ("Sun") or
// numeric ids rendered as decimal strings ("0").
type ObjectID string

type AngleType string

const (
	AngleASC  AngleType = "ASC"
	AngleDESC AngleType = "DESC"
	AngleMC   AngleType = "MC"
	AngleIC   AngleType = "IC"
)

var AngleTypes = []AngleType{AngleASC, AngleDESC, AngleMC, AngleIC}

func (a AngleType) Valid() bool {
	switch a {
	case AngleASC, AngleDESC, AngleMC, AngleIC:
		return true
	}
	return false
}

// AnchorTarget identifies what a ViewFrame pins to its screen position. The
// concrete types are ObjectAnchor, HouseAnchor, SignAnchor and AngleAnchor.
type AnchorTarget interface {
	Element() Element
	isAnchorTarget()
}

type ObjectAnchor struct {
	ID ObjectID
}

type HouseAnchor struct {
	Index int // 1..12
}

type SignAnchor struct {
	Index int // 0..11
}

type AngleAnchor struct {
	Type AngleType
}

func (a ObjectAnchor) Element() Element { return ObjectElement(a.ID) }
func (a HouseAnchor) Element() Element  { return HouseElement(a.Index) }
func (a SignAnchor) Element() Element   { return SignElement(a.Index) }
func (a AngleAnchor) Element() Element  { return AngleElement(a.Type) }

func (ObjectAnchor) isAnchorTarget() {}
func (HouseAnchor) isAnchorTarget()  {}
func (SignAnchor) isAnchorTarget()   {}
func (AngleAnchor) isAnchorTarget()  {}

// AnchorResolver is implemented by the host against its own chart data. Each
// lookup reports false when the chart has no value for the key.
type AnchorResolver interface {
	ObjectLongitude(id ObjectID) (float64, bool)
	HouseCusp(house int) (float64, bool)
	AngleLongitude(t AngleType) (float64, bool)
}

// SignStart is the ecliptic longitude at which a zodiac sign begins.
func SignStart(index int) float64 {
	return angle.Normalize(float64(index) * 30)
}

// ResolveAnchor returns the world longitude of target. A false result means the
// element cannot be placed under this frame; it is never reported as zero.
func ResolveAnchor(target AnchorTarget, r AnchorResolver) (float64, bool) {
	if target == nil {
		return 0, false
	}
	return target.Element().Longitude(r)
}

func anchorString(target AnchorTarget) string {
	if target == nil {
		return "none"
	}
	return target.Element().Key()
}

func validateAnchor(target AnchorTarget) error {
	switch a := target.(type) {
	case nil:
		return fmt.Errorf("anchor is required")
	case ObjectAnchor:
		if a.ID == "" {
			return fmt.Errorf("object anchor id is required")
		}
	case HouseAnchor:
		if a.Index < 1 || a.Index > 12 {
			return fmt.Errorf("house anchor index %d out of range 1..12", a.Index)
		}
	case SignAnchor:
		if a.Index < 0 || a.Index > 11 {
			return fmt.Errorf("sign anchor index %d out of range 0..11", a.Index)
		}
	case AngleAnchor:
		if !a.Type.Valid() {
			return fmt.Errorf("unknown angle type %q", a.Type)
		}
	}
	return nil
}
