package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"astrowheel/internal/orientation"
	"astrowheel/internal/snapshot"
)

func orientCmd() *cobra.Command {
	var presetName string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "orient <snapshot>",
		Short: "Place every element of a chart snapshot on screen under a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			resolved, err := p.presets.Compose(p.registry, p.presetName(presetName))
			if err != nil {
				return err
			}
			snap, err := snapshot.ParseFile(args[0])
			if err != nil {
				return err
			}
			projector, err := orientation.NewProjector(p.cfg.Cache.Size, nil)
			if err != nil {
				return err
			}

			program := resolved.Program
			projections, skipped := projector.Project(program.BaseFrame, snap, snap.Elements(), program.Locks)
			if asJSON {
				data, err := json.MarshalIndent(projections, "", "  ")
				if err != nil {
					return fmt.Errorf("encoding projections: %w", err)
				}
				return writeOutput(cmd, "", data)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s on %s (%s)\n", resolved.Name, resolved.Wheel.Name, resolved.Orientation.Name)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ELEMENT\tWORLD\tSCREEN\tLOCK")
			for _, proj := range projections {
				fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%s\n", proj.Key, proj.World, proj.Screen, proj.Lock)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(skipped) > 0 {
				fmt.Fprintf(out, "\nNot drawn (%d):\n", len(skipped))
				for _, el := range skipped {
					fmt.Fprintf(out, "  - %s\n", el.Key())
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&presetName, "preset", "", "Preset name (default: project default_preset)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print projections as JSON")
	return cmd
}
