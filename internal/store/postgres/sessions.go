package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"astrowheel/internal/orientation"
	"astrowheel/internal/store"
)

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

	query := `
INSERT INTO sessions (id, program, state, ticks, rules, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    program = EXCLUDED.program,
    state = EXCLUDED.state,
    ticks = EXCLUDED.ticks,
    rules = EXCLUDED.rules,
    updated_at = EXCLUDED.updated_at
`
	_, err = c.pool.Exec(ctx, query, s.ID, string(program), string(state), s.State.Ticks, len(s.Program.Rules), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", s.ID, err)
	}
	return nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var program, state []byte
	var updatedAt time.Time
	err := c.pool.QueryRow(ctx, `SELECT program, state, updated_at FROM sessions WHERE id = $1`, id).
		Scan(&program, &state, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}
	return store.DecodeSession(id, program, state, updatedAt)
}

func (c *Client) DeleteSession(ctx context.Context, id string) (bool, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("deleting session %q: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]store.SessionSummary, error) {
	rows, err := c.pool.Query(ctx, `SELECT id, ticks, rules, updated_at FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []store.SessionSummary
	for rows.Next() {
		var s store.SessionSummary
		if err := rows.Scan(&s.ID, &s.Ticks, &s.Rules, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return out, nil
}

func (c *Client) AppendTransitions(ctx context.Context, sessionID string, tick int, transitions []orientation.Transition) error {
	if len(transitions) == 0 {
		return nil
	}

	query := `
INSERT INTO session_transitions (session_id, tick, seq, rule_id, wheel, payload)
VALUES ($1, $2, $3, $4, $5, $6)
`
	batch := &pgx.Batch{}
	for seq, t := range transitions {
		payload, err := store.EncodeTransition(t)
		if err != nil {
			return err
		}
		batch.Queue(query, sessionID, tick, seq, t.RuleID, t.Wheel, string(payload))
	}

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("recording transitions: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transitions: %w", err)
	}
	return nil
}

func (c *Client) ListTransitions(ctx context.Context, sessionID string) ([]store.TransitionRecord, error) {
	query := `
SELECT tick, seq, payload
FROM session_transitions
WHERE session_id = $1
ORDER BY tick, seq
`
	rows, err := c.pool.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing transitions: %w", err)
	}
	defer rows.Close()

	var out []store.TransitionRecord
	for rows.Next() {
		rec := store.TransitionRecord{SessionID: sessionID}
		var payload []byte
		if err := rows.Scan(&rec.Tick, &rec.Seq, &payload); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		rec.Transition, err = store.DecodeTransition(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transitions: %w", err)
	}
	return out, nil
}
