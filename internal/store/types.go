package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"astrowheel/internal/orientation"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID        string
	Program   orientation.Program
	State     orientation.RuntimeState
	UpdatedAt time.Time
}

type SessionSummary struct {
	ID        string
	Ticks     int
	Rules     int
	UpdatedAt time.Time
}

// TransitionRecord is one fired rule, stored with the tick that fired it.
type TransitionRecord struct {
	SessionID  string
	Tick       int
	Seq        int
	Transition orientation.Transition
}

// ValidateID rejects session ids a backend could not key on.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("session id is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("session id %q is longer than 128 characters", id[:16]+"...")
	}
	return nil
}

// EncodeSession returns the JSON columns for s.
func EncodeSession(s *Session) (program, state []byte, err error) {
	program, err = json.Marshal(s.Program)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding session program: %w", err)
	}
	state, err = json.Marshal(s.State)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding session state: %w", err)
	}
	return program, state, nil
}

// DecodeSession rebuilds a session from its JSON columns.
func DecodeSession(id string, program, state []byte, updatedAt time.Time) (*Session, error) {
	s := &Session{ID: id, UpdatedAt: updatedAt}
	if err := json.Unmarshal(program, &s.Program); err != nil {
		return nil, fmt.Errorf("decoding program of session %q: %w", id, err)
	}
	if err := json.Unmarshal(state, &s.State); err != nil {
		return nil, fmt.Errorf("decoding state of session %q: %w", id, err)
	}
	return s, nil
}

func EncodeTransition(t orientation.Transition) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("encoding transition %q: %w", t.RuleID, err)
	}
	return data, nil
}

func DecodeTransition(data []byte) (orientation.Transition, error) {
	var t orientation.Transition
	if err := json.Unmarshal(data, &t); err != nil {
		return orientation.Transition{}, fmt.Errorf("decoding transition: %w", err)
	}
	return t, nil
}
