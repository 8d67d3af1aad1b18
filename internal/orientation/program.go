package orientation

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// OrientationRule pairs a trigger with the effect it applies. Rules fire once
// per program lifetime unless Recurring is set, in which case they fire again
// on every later crossing their trigger detects.
type OrientationRule struct {
	ID          string
	Trigger     Trigger
	Effect      Effect
	AnimationMs int
	// Locks join the active lock set when the rule fires and leave it when
	// a later SetViewFrame replaces the frame on the same wheel.
	Locks     []LockRule
	Recurring bool
}

type ruleWire struct {
	ID          string          `json:"id"`
	Trigger     json.RawMessage `json:"trigger"`
	Effect      json.RawMessage `json:"effect"`
	AnimationMs int             `json:"animationMs,omitempty"`
	Locks       []LockRule      `json:"locks,omitempty"`
	Recurring   bool            `json:"recurring,omitempty"`
}

func (r OrientationRule) MarshalJSON() ([]byte, error) {
	trigger, err := marshalTrigger(r.Trigger)
	if err != nil {
		return nil, err
	}
	effect, err := marshalEffect(r.Effect)
	if err != nil {
		return nil, err
	}
	return json.Marshal(ruleWire{
		ID:          r.ID,
		Trigger:     trigger,
		Effect:      effect,
		AnimationMs: r.AnimationMs,
		Locks:       r.Locks,
		Recurring:   r.Recurring,
	})
}

func (r *OrientationRule) UnmarshalJSON(data []byte) error {
	var w ruleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decoding rule: %w", err)
	}
	trigger, err := unmarshalTrigger(w.Trigger)
	if err != nil {
		return fmt.Errorf("rule %s: %w", w.ID, err)
	}
	effect, err := unmarshalEffect(w.Effect)
	if err != nil {
		return fmt.Errorf("rule %s: %w", w.ID, err)
	}
	*r = OrientationRule{
		ID:          w.ID,
		Trigger:     trigger,
		Effect:      effect,
		AnimationMs: w.AnimationMs,
		Locks:       w.Locks,
		Recurring:   w.Recurring,
	}
	return nil
}

// Program is the full declarative orientation behaviour of one chart view.
type Program struct {
	BaseFrame ViewFrame         `json:"baseFrame"`
	Locks     []LockRule        `json:"locks,omitempty"`
	Rules     []OrientationRule `json:"rules,omitempty"`
}

// ProgramFromPreset starts a program from an orientation preset with no rules.
func ProgramFromPreset(p Preset) Program {
	return Program{BaseFrame: p.Frame, Locks: append([]LockRule(nil), p.Locks...)}
}

func (p Program) withDefaults() Program {
	if p.BaseFrame.Model == nil && p.BaseFrame.Anchor == nil && p.BaseFrame.ReferenceFrame == "" {
		p.BaseFrame = DefaultViewFrame()
	}
	return p
}

// Validate reports every problem in the program at once.
func (p Program) Validate() error {
	var errs []error
	if err := p.BaseFrame.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("base frame: %w", err))
	}
	for i, lock := range p.Locks {
		if err := lock.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("locks[%d]: %w", i, err))
		}
	}
	seen := make(map[string]struct{}, len(p.Rules))
	for i, rule := range p.Rules {
		if strings.TrimSpace(rule.ID) == "" {
			errs = append(errs, fmt.Errorf("rules[%d]: id is required", i))
		} else if _, exists := seen[rule.ID]; exists {
			errs = append(errs, fmt.Errorf("rules[%d]: duplicate rule id %q", i, rule.ID))
		} else {
			seen[rule.ID] = struct{}{}
		}
		if err := validateTrigger(rule.Trigger); err != nil {
			errs = append(errs, fmt.Errorf("rules[%d] trigger: %w", i, err))
		}
		if err := validateEffect(rule.Effect); err != nil {
			errs = append(errs, fmt.Errorf("rules[%d] effect: %w", i, err))
		}
		if rule.AnimationMs < 0 {
			errs = append(errs, fmt.Errorf("rules[%d]: animationMs must not be negative", i))
		}
		for j, lock := range rule.Locks {
			if err := lock.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("rules[%d] locks[%d]: %w", i, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

func ParseProgram(data []byte) (*Program, error) {
	var p Program
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing orientation program: %w", err)
	}
	p = p.withDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("parsing orientation program: %w", err)
	}
	return &p, nil
}

func LoadProgram(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading orientation program: %w", err)
	}
	return ParseProgram(data)
}

// RuntimeState is the mutable evaluation state of one chart-view session. It
// must not be shared between sessions or evaluated concurrently.
type RuntimeState struct {
	AppliedRuleIDs map[string]bool `json:"appliedRuleIds"`
	// PreviousHousePositions maps an element key ("angle:ASC", "object:Sun")
	// to the house it occupied on the previous tick.
	PreviousHousePositions map[string]int `json:"previousHousePositions"`
	// PreviousLongitudes maps the same keys to the previous tick's longitude.
	PreviousLongitudes map[string]float64 `json:"previousLongitudes"`
	// ActiveFrames holds frames set by fired effects, keyed by wheel. The
	// empty key overrides the program's base frame.
	ActiveFrames map[string]ViewFrame `json:"activeFrames"`
	// ActiveLocks holds the locks of fired rules whose effect is still in
	// force, in firing order. A rule has at most one entry.
	ActiveLocks []RuleLocks `json:"activeLocks,omitempty"`
	Ticks       int         `json:"ticks"`
}

// RuleLocks are the extra locks a fired rule keeps active on its wheel.
type RuleLocks struct {
	RuleID string     `json:"ruleId"`
	Wheel  string     `json:"wheel,omitempty"`
	Locks  []LockRule `json:"locks"`
}

func NewRuntimeState() *RuntimeState {
	s := &RuntimeState{}
	s.init()
	return s
}

func (s *RuntimeState) init() {
	if s.AppliedRuleIDs == nil {
		s.AppliedRuleIDs = make(map[string]bool)
	}
	if s.PreviousHousePositions == nil {
		s.PreviousHousePositions = make(map[string]int)
	}
	if s.PreviousLongitudes == nil {
		s.PreviousLongitudes = make(map[string]float64)
	}
	if s.ActiveFrames == nil {
		s.ActiveFrames = make(map[string]ViewFrame)
	}
}

// Reset returns the state to that of a fresh session.
func (s *RuntimeState) Reset() {
	*s = RuntimeState{}
	s.init()
}

func (s *RuntimeState) Applied(ruleID string) bool {
	return s != nil && s.AppliedRuleIDs[ruleID]
}

// LockRules flattens ActiveLocks in firing order.
func (s *RuntimeState) LockRules() []LockRule {
	if s == nil {
		return nil
	}
	var locks []LockRule
	for _, entry := range s.ActiveLocks {
		locks = append(locks, entry.Locks...)
	}
	return locks
}

// activate records that rule fired on wheel. The rule's previous entry is
// replaced, and when supersede is set every other entry on the same wheel is
// dropped because its effect no longer shapes the frame.
func (s *RuntimeState) activate(rule OrientationRule, wheel string, supersede bool) {
	kept := make([]RuleLocks, 0, len(s.ActiveLocks)+1)
	for _, entry := range s.ActiveLocks {
		if entry.RuleID == rule.ID || (supersede && entry.Wheel == wheel) {
			continue
		}
		kept = append(kept, entry)
	}
	if len(rule.Locks) > 0 {
		kept = append(kept, RuleLocks{RuleID: rule.ID, Wheel: wheel, Locks: rule.Locks})
	}
	if len(kept) == 0 {
		kept = nil
	}
	s.ActiveLocks = kept
}
