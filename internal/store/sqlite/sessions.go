package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"astrowheel/internal/orientation"
	"astrowheel/internal/store"
)

const timeLayout = time.RFC3339Nano

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
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		program = excluded.program,
		state = excluded.state,
		ticks = excluded.ticks,
		rules = excluded.rules,
		updated_at = excluded.updated_at
	`
	_, err = c.db.ExecContext(ctx, query,
		s.ID,
		string(program),
		string(state),
		s.State.Ticks,
		len(s.Program.Rules),
		s.UpdatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", s.ID, err)
	}
	return nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*store.Session, error) {
	var program, state, updated string
	row := c.db.QueryRowContext(ctx, `SELECT program, state, updated_at FROM sessions WHERE id = ?`, id)
	if err := row.Scan(&program, &state, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}
	updatedAt, err := time.Parse(timeLayout, updated)
	if err != nil {
		return nil, fmt.Errorf("parsing updated_at of session %q: %w", id, err)
	}
	return store.DecodeSession(id, []byte(program), []byte(state), updatedAt)
}

func (c *Client) DeleteSession(ctx context.Context, id string) (bool, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("deleting session %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deleting session %q: %w", id, err)
	}
	return n > 0, nil
}

func (c *Client) ListSessions(ctx context.Context) ([]store.SessionSummary, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, ticks, rules, updated_at FROM sessions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []store.SessionSummary
	for rows.Next() {
		var s store.SessionSummary
		var updated string
		if err := rows.Scan(&s.ID, &s.Ticks, &s.Rules, &updated); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		s.UpdatedAt, err = time.Parse(timeLayout, updated)
		if err != nil {
			return nil, fmt.Errorf("parsing updated_at of session %q: %w", s.ID, err)
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
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
	INSERT INTO session_transitions (session_id, tick, seq, rule_id, wheel, payload)
	VALUES (?, ?, ?, ?, ?, ?)
	`
	for seq, t := range transitions {
		payload, err := store.EncodeTransition(t)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, sessionID, tick, seq, t.RuleID, t.Wheel, string(payload)); err != nil {
			return fmt.Errorf("recording transition %q: %w", t.RuleID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transitions: %w", err)
	}
	return nil
}

func (c *Client) ListTransitions(ctx context.Context, sessionID string) ([]store.TransitionRecord, error) {
	query := `
	SELECT tick, seq, payload
	FROM session_transitions
	WHERE session_id = ?
	ORDER BY tick, seq
	`
	rows, err := c.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("listing transitions: %w", err)
	}
	defer rows.Close()

	var out []store.TransitionRecord
	for rows.Next() {
		rec := store.TransitionRecord{SessionID: sessionID}
		var payload string
		if err := rows.Scan(&rec.Tick, &rec.Seq, &payload); err != nil {
			return nil, fmt.Errorf("scanning transition: %w", err)
		}
		rec.Transition, err = store.DecodeTransition([]byte(payload))
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
