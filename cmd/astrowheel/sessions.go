package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"astrowheel/internal/config"
	"astrowheel/internal/store"
)

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted evaluation sessions",
	}
	cmd.AddCommand(sessionsListCmd())
	cmd.AddCommand(sessionsShowCmd())
	cmd.AddCommand(sessionsDeleteCmd())
	return cmd
}

// withStore opens the configured session store for the duration of fn.
func withStore(fn func(ctx context.Context, db store.Store) error) error {
	ctx := context.Background()
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("no session store configured: set store.dsn or %s", config.EnvStoreDSN)
	}
	db, err := openStore(ctx, cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	return fn(ctx, db)
}

func sessionsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, db store.Store) error {
				sessions, err := db.ListSessions(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTICKS\tRULES\tUPDATED")
				for _, s := range sessions {
					fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", s.ID, s.Ticks, s.Rules, s.UpdatedAt.Local().Format(time.DateTime))
				}
				return w.Flush()
			})
		},
	}
}

func sessionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session's state and the rules it has fired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, db store.Store) error {
				session, err := db.GetSession(ctx, args[0])
				if err != nil {
					return err
				}
				records, err := db.ListTransitions(ctx, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Session %s: %d ticks, %d rules, %d locks active\n",
					session.ID, session.State.Ticks, len(session.Program.Rules), len(session.State.LockRules()))
				for _, rec := range records {
					fmt.Fprintf(out, "tick %d:", rec.Tick)
					printTransition(out, rec.Transition)
				}
				return nil
			})
		},
	}
}

func sessionsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session and its history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, db store.Store) error {
				deleted, err := db.DeleteSession(ctx, args[0])
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("session %q not found", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %s.\n", args[0])
				return nil
			})
		},
	}
}
