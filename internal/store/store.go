package store

import (
	"context"

	"astrowheel/internal/orientation"
)

// Store persists evaluation sessions so a chart view can resume where it left
// off across process restarts.
type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	ListSessions(ctx context.Context) ([]SessionSummary, error)

	AppendTransitions(ctx context.Context, sessionID string, tick int, transitions []orientation.Transition) error
	ListTransitions(ctx context.Context, sessionID string) ([]TransitionRecord, error)
}
