package orientation

import (
	"encoding/json"
	"fmt"
)

// LockFrame is the coordinate frame a locked element is held fixed in.
type LockFrame string

const (
	LockWorld  LockFrame = "world"
	LockHouses LockFrame = "houses"
	LockSigns  LockFrame = "signs"
	LockScreen LockFrame = "screen"
)

func (f LockFrame) Valid() bool {
	switch f {
	case LockWorld, LockHouses, LockSigns, LockScreen:
		return true
	}
	return false
}

type LockMode string

const (
	LockExact        LockMode = "exact"
	LockFollowAnchor LockMode = "follow-anchor"
)

func (m LockMode) Valid() bool { return m == LockExact || m == LockFollowAnchor }

// LockSubject selects the elements a LockRule covers. The concrete types are
// ObjectSubject, HouseSubject, SignSubject and AngleSubject.
type LockSubject interface {
	Kind() ElementKind
	matches(e Element) bool
}

// ObjectSubject matches exactly the listed objects.
type ObjectSubject struct {
	IDs []ObjectID
}

// HouseSubject matches the listed houses, or every house when Indices is empty.
type HouseSubject struct {
	Indices []int
}

// SignSubject matches the listed signs, or every sign when Indices is empty.
type SignSubject struct {
	Indices []int
}

// AngleSubject matches the listed angles, or every angle when Types is empty.
type AngleSubject struct {
	Types []AngleType
}

func (ObjectSubject) Kind() ElementKind { return KindObject }
func (HouseSubject) Kind() ElementKind  { return KindHouse }
func (SignSubject) Kind() ElementKind   { return KindSign }
func (AngleSubject) Kind() ElementKind  { return KindAngle }

func (s ObjectSubject) matches(e Element) bool {
	return contains(s.IDs, e.Object)
}

func (s HouseSubject) matches(e Element) bool {
	return len(s.Indices) == 0 || contains(s.Indices, e.Index)
}

func (s SignSubject) matches(e Element) bool {
	return len(s.Indices) == 0 || contains(s.Indices, e.Index)
}

func (s AngleSubject) matches(e Element) bool {
	return len(s.Types) == 0 || contains(s.Types, e.Angle)
}

// LockRule declares that the elements selected by Subject stay fixed in Frame.
type LockRule struct {
	Subject      LockSubject
	Frame        LockFrame
	Mode         LockMode
	FollowAnchor AnchorTarget
}

// RuleApplies reports whether rule covers element. A kind mismatch is simply a
// non-match.
func RuleApplies(rule LockRule, element Element) bool {
	if rule.Subject == nil || rule.Subject.Kind() != element.Kind {
		return false
	}
	return rule.Subject.matches(element)
}

// ResolveLock returns the rule that governs element. When several rules match,
// the one declared last wins.
func ResolveLock(rules []LockRule, element Element) (LockRule, bool) {
	for i := len(rules) - 1; i >= 0; i-- {
		if RuleApplies(rules[i], element) {
			return rules[i], true
		}
	}
	return LockRule{}, false
}

// EffectiveAnchor returns the anchor a follow-anchor rule tracks: its own
// override, or the frame's anchor when the override is absent. Exact rules
// track nothing.
func (r LockRule) EffectiveAnchor(frame ViewFrame) (AnchorTarget, bool) {
	if r.Mode != LockFollowAnchor {
		return nil, false
	}
	if r.FollowAnchor != nil {
		return r.FollowAnchor, true
	}
	return frame.Anchor, frame.Anchor != nil
}

func (r LockRule) Validate() error {
	if r.Subject == nil {
		return fmt.Errorf("lock subject is required")
	}
	if !r.Frame.Valid() {
		return fmt.Errorf("unknown lock frame %q", r.Frame)
	}
	if !r.Mode.Valid() {
		return fmt.Errorf("unknown lock mode %q", r.Mode)
	}
	if r.FollowAnchor != nil {
		if err := validateAnchor(r.FollowAnchor); err != nil {
			return fmt.Errorf("follow anchor: %w", err)
		}
	}
	return nil
}

type subjectWire struct {
	Kind    ElementKind `json:"kind"`
	IDs     []ObjectID  `json:"ids,omitempty"`
	Indices []int       `json:"indices,omitempty"`
	Types   []AngleType `json:"types,omitempty"`
}

type lockRuleWire struct {
	Subject      *subjectWire `json:"subject"`
	Frame        LockFrame    `json:"frame"`
	Mode         LockMode     `json:"mode"`
	FollowAnchor *anchorWire  `json:"followAnchor,omitempty"`
}

func (r LockRule) MarshalJSON() ([]byte, error) {
	w := lockRuleWire{Frame: r.Frame, Mode: r.Mode, FollowAnchor: toAnchorWire(r.FollowAnchor)}
	switch s := r.Subject.(type) {
	case ObjectSubject:
		w.Subject = &subjectWire{Kind: KindObject, IDs: s.IDs}
	case HouseSubject:
		w.Subject = &subjectWire{Kind: KindHouse, Indices: s.Indices}
	case SignSubject:
		w.Subject = &subjectWire{Kind: KindSign, Indices: s.Indices}
	case AngleSubject:
		w.Subject = &subjectWire{Kind: KindAngle, Types: s.Types}
	}
	return json.Marshal(w)
}

func (r *LockRule) UnmarshalJSON(data []byte) error {
	var w lockRuleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding lock rule: %w", err)
	}
	if w.Subject == nil {
		return fmt.Errorf("decoding lock rule: subject is required")
	}
	var subject LockSubject
	switch w.Subject.Kind {
	case KindObject:
		subject = ObjectSubject{IDs: w.Subject.IDs}
	case KindHouse:
		subject = HouseSubject{Indices: w.Subject.Indices}
	case KindSign:
		subject = SignSubject{Indices: w.Subject.Indices}
	case KindAngle:
		subject = AngleSubject{Types: w.Subject.Types}
	default:
		return fmt.Errorf("decoding lock rule: unknown subject kind %q", w.Subject.Kind)
	}
	follow, err := w.FollowAnchor.target()
	if err != nil {
		return fmt.Errorf("decoding lock rule: %w", err)
	}
	mode := w.Mode
	if mode == "" {
		mode = LockExact
	}
	*r = LockRule{Subject: subject, Frame: w.Frame, Mode: mode, FollowAnchor: follow}
	return nil
}

func contains[T comparable](values []T, target T) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
