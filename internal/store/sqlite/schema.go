package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	program    TEXT NOT NULL DEFAULT '{}',
	state      TEXT NOT NULL DEFAULT '{}',
	ticks      INTEGER NOT NULL DEFAULT 0,
	rules      INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS session_transitions (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	tick       INTEGER NOT NULL,
	seq        INTEGER NOT NULL,
	rule_id    TEXT NOT NULL,
	wheel      TEXT NOT NULL DEFAULT '',
	payload    TEXT NOT NULL,
	CONSTRAINT uq_transition UNIQUE (session_id, tick, seq)
);

-- listing is always per session, in firing order
CREATE INDEX IF NOT EXISTS idx_transitions_session ON session_transitions (session_id, tick, seq);
CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions (updated_at);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}
	return statements
}
