package orientation

import (
	"strconv"
	"strings"
)

// FrameKey serialises every field that affects the transform. Two frames with
// the same key map every longitude to the same screen angle.
func FrameKey(f ViewFrame) string {
	var b strings.Builder
	b.WriteString("ref=")
	b.WriteString(string(f.ReferenceFrame))
	b.WriteString("|anchor=")
	b.WriteString(anchorKey(f.Anchor))

	switch m := f.model().(type) {
	case ZeroPoint:
		b.WriteString("|zp=")
		b.WriteString(formatFloat(m.WorldZero))
		b.WriteByte(',')
		b.WriteString(formatFloat(m.ScreenZero))
		b.WriteByte(',')
		b.WriteString(strconv.Itoa(int(m.Direction)))
		b.WriteByte(',')
		b.WriteString(formatFloat(m.Scale))
	case AnchorRelative:
		b.WriteString("|rel=")
		b.WriteString(formatFloat(m.ScreenAngleDeg))
		b.WriteByte(',')
		b.WriteString(string(m.Direction))
	}

	b.WriteString("|flip=")
	b.WriteString(flag(f.RadialFlip))
	b.WriteString(flag(f.AngularFlip))
	return b.String()
}

// anchorKey quotes object ids so that ids containing separators cannot collide
// with another frame's key.
func anchorKey(target AnchorTarget) string {
	switch a := target.(type) {
	case ObjectAnchor:
		return "object:" + strconv.Quote(string(a.ID))
	case HouseAnchor:
		return "house:" + strconv.Itoa(a.Index)
	case SignAnchor:
		return "sign:" + strconv.Itoa(a.Index)
	case AngleAnchor:
		return "angle:" + strconv.Quote(string(a.Type))
	}
	return "none"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func flag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
