package orientation

import (
	"sort"

	"astrowheel/internal/angle"
)

var _ AnchorResolver = (*ChartSnapshot)(nil)

// ChartSnapshot is the read-only chart state supplied by the host on every
// evaluation. Revision is an optional caller-chosen identity used as part of
// cache keys; leave it empty to disable caching for the snapshot.
type ChartSnapshot struct {
	Revision string                `json:"revision,omitempty"`
	Objects  map[ObjectID]float64  `json:"objects"`
	Houses   map[int]float64       `json:"houses"`
	Angles   map[AngleType]float64 `json:"angles"`
}

func (s *ChartSnapshot) ObjectLongitude(id ObjectID) (float64, bool) {
	if s == nil {
		return 0, false
	}
	lon, ok := s.Objects[id]
	return lon, ok
}

func (s *ChartSnapshot) HouseCusp(house int) (float64, bool) {
	if s == nil {
		return 0, false
	}
	lon, ok := s.Houses[house]
	return lon, ok
}

func (s *ChartSnapshot) AngleLongitude(t AngleType) (float64, bool) {
	if s == nil {
		return 0, false
	}
	if lon, ok := s.Angles[t]; ok {
		return lon, true
	}
	// DESC and IC are the points opposite ASC and MC.
	switch t {
	case AngleDESC:
		if asc, ok := s.Angles[AngleASC]; ok {
			return angle.Normalize(asc + 180), true
		}
	case AngleIC:
		if mc, ok := s.Angles[AngleMC]; ok {
			return angle.Normalize(mc + 180), true
		}
	}
	return 0, false
}

// Elements lists everything in the snapshot that can be drawn: objects in id
// order, house cusps, the twelve sign starts and the chart angles.
func (s *ChartSnapshot) Elements() []Element {
	if s == nil {
		return nil
	}
	ids := make([]string, 0, len(s.Objects))
	for id := range s.Objects {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	elements := make([]Element, 0, len(ids)+12+12+len(AngleTypes))
	for _, id := range ids {
		elements = append(elements, ObjectElement(ObjectID(id)))
	}
	for house := 1; house <= 12; house++ {
		if _, ok := s.Houses[house]; ok {
			elements = append(elements, HouseElement(house))
		}
	}
	for sign := 0; sign < 12; sign++ {
		elements = append(elements, SignElement(sign))
	}
	for _, t := range AngleTypes {
		if _, ok := s.AngleLongitude(t); ok {
			elements = append(elements, AngleElement(t))
		}
	}
	return elements
}
