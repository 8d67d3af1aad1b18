package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	// Executed as one multi-statement call, which PostgreSQL runs in an
	// implicit transaction.
	ddl := `
CREATE TABLE IF NOT EXISTS sessions (
    id         TEXT PRIMARY KEY,
    program    JSONB NOT NULL DEFAULT '{}',
    state      JSONB NOT NULL DEFAULT '{}',
    ticks      INTEGER NOT NULL DEFAULT 0,
    rules      INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS session_transitions (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    tick       INTEGER NOT NULL,
    seq        INTEGER NOT NULL,
    rule_id    TEXT NOT NULL,
    wheel      TEXT NOT NULL DEFAULT '',
    payload    JSONB NOT NULL,
    CONSTRAINT uq_transition UNIQUE (session_id, tick, seq)
);

CREATE INDEX IF NOT EXISTS idx_transitions_session ON session_transitions (session_id, tick, seq);
CREATE INDEX IF NOT EXISTS idx_transitions_rule ON session_transitions (rule_id);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions (updated_at);
`
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
