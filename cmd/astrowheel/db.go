package main

import (
	"context"
	"fmt"
	"strings"

	"astrowheel/internal/store"
	"astrowheel/internal/store/memory"
	"astrowheel/internal/store/postgres"
	"astrowheel/internal/store/sqlite"
)

// openStore picks the session backend by DSN scheme. An empty DSN keeps
// sessions in memory for the life of the process.
func openStore(ctx context.Context, dsn string) (store.Store, error) {
	var (
		db  store.Store
		err error
	)
	switch {
	case dsn == "":
		return memory.New(), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		db, err = sqlite.New(ctx, dsn)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		db, err = postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported store dsn scheme: %s", dsn)
	}
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close(ctx)
		return nil, err
	}
	return db, nil
}
