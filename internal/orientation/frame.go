package orientation

import (
	"fmt"
	"math"

	"astrowheel/internal/angle"
)

// ReferenceFrame tells renderers what a frame's world longitudes are measured
// against. It does not change the arithmetic of the transform.
type ReferenceFrame string

const (
	FrameEcliptic ReferenceFrame = "ecliptic"
	FrameHouses   ReferenceFrame = "houses"
	FrameSigns    ReferenceFrame = "signs"
	FrameAngles   ReferenceFrame = "angles"
)

func (r ReferenceFrame) Valid() bool {
	switch r {
	case FrameEcliptic, FrameHouses, FrameSigns, FrameAngles:
		return true
	}
	return false
}

// Rotation is the direction used by the anchor-relative model.
type Rotation string

const (
	Clockwise        Rotation = "cw"
	CounterClockwise Rotation = "ccw"
)

func (r Rotation) Valid() bool { return r == Clockwise || r == CounterClockwise }

// Sign is the direction used by the zero-point model: +1 or -1. The zero value
// is treated as +1.
type Sign int

const (
	Positive Sign = 1
	Negative Sign = -1
)

func (s Sign) factor() float64 {
	if s < 0 {
		return -1
	}
	return 1
}

// SignOf returns the zero-point direction equivalent to r.
func SignOf(r Rotation) Sign {
	if r == CounterClockwise {
		return Negative
	}
	return Positive
}

// RotationOf returns the anchor-relative direction equivalent to s.
func RotationOf(s Sign) Rotation {
	if s < 0 {
		return CounterClockwise
	}
	return Clockwise
}

const (
	DefaultReferenceFrame = FrameEcliptic
	DefaultScreenAngleDeg = 180.0
	DefaultRotation       = CounterClockwise
)

// FrameModel selects the transform algorithm of a ViewFrame. The concrete
// types are AnchorRelative and ZeroPoint.
type FrameModel interface {
	isFrameModel()
}

// AnchorRelative places the anchor at ScreenAngleDeg and lays every other
// longitude out by its shortest offset from the anchor.
type AnchorRelative struct {
	ScreenAngleDeg float64
	Direction      Rotation
}

// ZeroPoint is a direct linear map: WorldZero lands on ScreenZero and offsets
// are multiplied by Direction*Scale. A zero Scale is treated as 1.
type ZeroPoint struct {
	WorldZero  float64
	ScreenZero float64
	Direction  Sign
	Scale      float64
}

func (AnchorRelative) isFrameModel() {}
func (ZeroPoint) isFrameModel()      {}

func (z ZeroPoint) scale() float64 {
	if z.Scale == 0 {
		return 1
	}
	return z.Scale
}

// ViewFrame is an immutable mapping configuration. Methods that change a frame
// return a new value.
type ViewFrame struct {
	ReferenceFrame ReferenceFrame
	Anchor         AnchorTarget
	Model          FrameModel
	// RadialFlip swaps inner and outer radii in rendering geometry. The angular
	// transform ignores it.
	RadialFlip  bool
	AngularFlip bool
}

// DefaultViewFrame is ASC pinned at 180 degrees, counter-clockwise.
func DefaultViewFrame() ViewFrame {
	return ViewFrame{
		ReferenceFrame: DefaultReferenceFrame,
		Anchor:         AngleAnchor{Type: AngleASC},
		Model:          AnchorRelative{ScreenAngleDeg: DefaultScreenAngleDeg, Direction: DefaultRotation},
	}
}

// model returns the frame's model with defaults applied.
func (f ViewFrame) model() FrameModel {
	switch m := f.Model.(type) {
	case AnchorRelative:
		if !m.Direction.Valid() {
			m.Direction = DefaultRotation
		}
		return m
	case ZeroPoint:
		if m.Direction == 0 {
			m.Direction = Positive
		}
		m.Scale = m.scale()
		return m
	}
	return AnchorRelative{ScreenAngleDeg: DefaultScreenAngleDeg, Direction: DefaultRotation}
}

// IsZeroPoint reports whether the frame uses the zero-point model.
func (f ViewFrame) IsZeroPoint() bool {
	_, ok := f.Model.(ZeroPoint)
	return ok
}

// ScreenAnchor is the screen angle at which the frame's reference point lands:
// ScreenAngleDeg for anchor-relative frames, ScreenZero for zero-point frames.
func (f ViewFrame) ScreenAnchor() float64 {
	switch m := f.model().(type) {
	case ZeroPoint:
		return m.ScreenZero
	case AnchorRelative:
		return m.ScreenAngleDeg
	}
	return DefaultScreenAngleDeg
}

// Rotated shifts the frame's screen reference point by delta degrees.
func (f ViewFrame) Rotated(delta float64) ViewFrame {
	switch m := f.model().(type) {
	case ZeroPoint:
		m.ScreenZero = angle.Normalize(m.ScreenZero + delta)
		f.Model = m
	case AnchorRelative:
		m.ScreenAngleDeg = angle.Normalize(m.ScreenAngleDeg + delta)
		f.Model = m
	}
	return f
}

// Mirrored toggles AngularFlip.
func (f ViewFrame) Mirrored() ViewFrame {
	f.AngularFlip = !f.AngularFlip
	return f
}

// Snapped anchors the frame at target with the anchor placed at screenDeg. The
// result always uses the anchor-relative model. Its direction is taken from
// the current model.
func (f ViewFrame) Snapped(target AnchorTarget, screenDeg float64) ViewFrame {
	direction := DefaultRotation
	switch m := f.model().(type) {
	case AnchorRelative:
		direction = m.Direction
	case ZeroPoint:
		direction = RotationOf(m.Direction)
	}
	f.Anchor = target
	f.Model = AnchorRelative{ScreenAngleDeg: screenDeg, Direction: direction}
	return f
}

// Validate checks that the frame's enumerations and anchor are well formed.
// Transforms never call it; it exists for loaders.
func (f ViewFrame) Validate() error {
	if !f.ReferenceFrame.Valid() {
		return fmt.Errorf("unknown reference frame %q", f.ReferenceFrame)
	}
	if err := validateAnchor(f.Anchor); err != nil {
		return err
	}
	switch m := f.Model.(type) {
	case nil:
		return fmt.Errorf("frame model is required")
	case AnchorRelative:
		if !m.Direction.Valid() {
			return fmt.Errorf("unknown direction %q", m.Direction)
		}
	case ZeroPoint:
		if m.Direction != 0 && m.Direction != Positive && m.Direction != Negative {
			return fmt.Errorf("zero-point direction must be +1 or -1, got %d", m.Direction)
		}
		// Beyond one screen degree per world degree the mapping wraps and
		// cannot be inverted.
		if math.Abs(m.Scale) > 1 {
			return fmt.Errorf("zero-point scale %v outside [-1, 1]", m.Scale)
		}
	}
	return nil
}
