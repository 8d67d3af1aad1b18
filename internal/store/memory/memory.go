// Package memory is a process-local session store, used when no database
// is configured.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"astrowheel/internal/orientation"
	"astrowheel/internal/store"
)

var _ store.Store = (*Client)(nil)

// Client keeps sessions encoded the same way the database backends do, so
// callers never share maps with the stored copy.
type Client struct {
	mu          sync.RWMutex
	sessions    map[string]row
	transitions map[string][]store.TransitionRecord
}

type row struct {
	program   []byte
	state     []byte
	ticks     int
	rules     int
	updatedAt time.Time
}

func New() *Client {
	return &Client{
		sessions:    make(map[string]row),
		transitions: make(map[string][]store.TransitionRecord),
	}
}

func (c *Client) Close(ctx context.Context) error        { return nil }
func (c *Client) EnsureSchema(ctx context.Context) error { return nil }

func (c *Client) SaveSession(ctx context.Context, s *store.Session) error {
	if err := store.ValidateID(s.ID); err != nil {
		return err
	}
	program, state, err := store.EncodeSession(s)
	if err != nil {
		return err
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = row{
		program:   program,
		state:     state,
		ticks:     s.State.Ticks,
		rules:     len(s.Program.Rules),
		updatedAt: s.UpdatedAt,
	}
	return nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*store.Session, error) {
	c.mu.RLock()
	r, ok := c.sessions[id]
	c.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.DecodeSession(id, r.program, r.state, r.updatedAt)
}

func (c *Client) DeleteSession(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.sessions[id]
	delete(c.sessions, id)
	delete(c.transitions, id)
	return ok, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]store.SessionSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]store.SessionSummary, 0, len(c.sessions))
	for id, r := range c.sessions {
		out = append(out, store.SessionSummary{ID: id, Ticks: r.ticks, Rules: r.rules, UpdatedAt: r.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Client) AppendTransitions(ctx context.Context, sessionID string, tick int, transitions []orientation.Transition) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[sessionID]; !ok {
		return store.ErrNotFound
	}
	for seq, t := range transitions {
		c.transitions[sessionID] = append(c.transitions[sessionID], store.TransitionRecord{
			SessionID:  sessionID,
			Tick:       tick,
			Seq:        seq,
			Transition: t,
		})
	}
	return nil
}

func (c *Client) ListTransitions(ctx context.Context, sessionID string) ([]store.TransitionRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := append([]store.TransitionRecord(nil), c.transitions[sessionID]...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tick != out[j].Tick {
			return out[i].Tick < out[j].Tick
		}
		return out[i].Seq < out[j].Seq
	})
	return out, nil
}
