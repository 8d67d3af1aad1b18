package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func presetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List and resolve chart presets",
	}
	cmd.AddCommand(presetsListCmd())
	cmd.AddCommand(presetsShowCmd())
	return cmd
}

func presetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and project presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tWHEEL\tORIENTATION")
			for _, name := range p.presets.Names() {
				pr, _ := p.presets.Get(name)
				orient := pr.Orientation
				if orient == "" {
					orient = "(default)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", pr.Name, pr.Wheel, orient)
			}
			return w.Flush()
		},
	}
}

func presetsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a preset with its wheel, program and styling fully merged",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			resolved, err := p.presets.Compose(p.registry, strings.Join(args, " "))
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(resolved, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding preset: %w", err)
			}
			return writeOutput(cmd, "", data)
		},
	}
}
