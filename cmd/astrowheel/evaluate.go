package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"astrowheel/internal/config"
	"astrowheel/internal/orientation"
	"astrowheel/internal/snapshot"
	"astrowheel/internal/store"
)

func evaluateCmd() *cobra.Command {
	var sessionID string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "evaluate <program.json> <snapshots.yaml>",
		Short: "Run an orientation program over a sequence of snapshots",
		Long: "Evaluates the program once per snapshot document, in order, and prints the\n" +
			"rules that fired. With --session the runtime state is loaded from and saved\n" +
			"to the configured store, so later runs continue where this one stopped.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], args[1], sessionID, asJSON)
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "Persist runtime state under this session id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print one outcome per tick as JSON lines")
	return cmd
}

type tickResult struct {
	Tick     int                 `json:"tick"`
	Revision string              `json:"revision"`
	Outcome  orientation.Outcome `json:"outcome"`
}

func runEvaluate(cmd *cobra.Command, programPath, snapshotsPath, sessionID string, asJSON bool) error {
	ctx := context.Background()

	program, err := orientation.LoadProgram(programPath)
	if err != nil {
		return err
	}
	snaps, err := snapshot.ParseSequenceFile(snapshotsPath)
	if err != nil {
		return err
	}
	engine, err := orientation.NewEngine(*program)
	if err != nil {
		return err
	}

	state := orientation.NewRuntimeState()
	var db store.Store
	if sessionID != "" {
		cfg, err := config.LoadProjectConfig(configPath)
		if err != nil {
			return err
		}
		db, err = openStore(ctx, cfg.Store.DSN)
		if err != nil {
			return err
		}
		defer db.Close(ctx)

		session, err := db.GetSession(ctx, sessionID)
		switch {
		case err == nil:
			state = &session.State
		case !errors.Is(err, store.ErrNotFound):
			return err
		}
	}

	out := cmd.OutOrStdout()
	enc := json.NewEncoder(out)
	fired := make(map[int][]orientation.Transition)
	for _, snap := range snaps {
		outcome := engine.Evaluate(state, snap)
		result := tickResult{Tick: state.Ticks, Revision: snap.Revision, Outcome: outcome}
		if asJSON {
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("encoding tick %d: %w", result.Tick, err)
			}
		} else {
			printTick(out, result)
		}
		if len(outcome.Transitions) > 0 {
			fired[state.Ticks] = outcome.Transitions
		}
	}

	if db == nil {
		return nil
	}
	// The session row must exist before its transitions can reference it.
	session := &store.Session{ID: sessionID, Program: engine.Program(), State: *state, UpdatedAt: time.Now().UTC()}
	if err := db.SaveSession(ctx, session); err != nil {
		return err
	}
	ticks := make([]int, 0, len(fired))
	for tick := range fired {
		ticks = append(ticks, tick)
	}
	sort.Ints(ticks)
	for _, tick := range ticks {
		if err := db.AppendTransitions(ctx, sessionID, tick, fired[tick]); err != nil {
			return err
		}
	}
	return nil
}

func printTick(out io.Writer, r tickResult) {
	if len(r.Outcome.Transitions) == 0 {
		fmt.Fprintf(out, "tick %d (%s): no change\n", r.Tick, r.Revision)
		return
	}
	fmt.Fprintf(out, "tick %d (%s):\n", r.Tick, r.Revision)
	for _, t := range r.Outcome.Transitions {
		fmt.Fprint(out, " ")
		printTransition(out, t)
	}
}

func printTransition(out io.Writer, t orientation.Transition) {
	wheelName := t.Wheel
	if wheelName == "" {
		wheelName = "base"
	}
	fmt.Fprintf(out, " %s [%s] %.2f -> %.2f", t.RuleID, wheelName, t.From.ScreenAnchor(), t.To.ScreenAnchor())
	if t.To.AngularFlip != t.From.AngularFlip {
		fmt.Fprint(out, " mirrored")
	}
	if t.AnimationMs > 0 {
		fmt.Fprintf(out, " (%dms)", t.AnimationMs)
	}
	fmt.Fprintln(out)
}
