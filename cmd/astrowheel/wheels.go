package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"astrowheel/internal/wheel"
)

func wheelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wheels",
		Short: "Inspect and maintain wheel definitions",
	}
	cmd.AddCommand(wheelsListCmd())
	cmd.AddCommand(wheelsShowCmd())
	cmd.AddCommand(wheelsExportCmd())
	cmd.AddCommand(wheelsMigrateCmd())
	return cmd
}

func wheelsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List built-in and project wheels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tRINGS\tSOURCE")
			for _, name := range p.registry.Names() {
				def, _ := p.registry.Get(name)
				source := "project"
				if p.registry.IsBuiltin(name) {
					source = "builtin"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", def.Name, def.Version, len(def.Rings), source)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			reportIngestErrors(cmd, p)
			return nil
		},
	}
}

func wheelsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Describe the rings of one wheel",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			def, ok := p.registry.Get(name)
			if !ok {
				return fmt.Errorf("wheel %q not found", name)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (version %s)\n", def.Name, def.Version)
			if def.Description != "" {
				fmt.Fprintf(out, "%s\n", def.Description)
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ORDER\tSLUG\tTYPE\tRADII\tSOURCE")
			for _, ring := range def.Rings {
				fmt.Fprintf(w, "%d\t%s\t%s\t%.2f-%.2f\t%s\n",
					ring.OrderIndex, ring.Slug, ring.Type, ring.RadiusInner, ring.RadiusOuter, ring.DataSource.Kind())
			}
			return w.Flush()
		},
	}
}

func wheelsExportCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <name>",
		Short: "Write a wheel definition as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(context.Background())
			if err != nil {
				return err
			}
			data, err := p.registry.ExportJSON(strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeOutput(cmd, output, data)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

func wheelsMigrateCmd() *cobra.Command {
	var target string
	var write bool
	cmd := &cobra.Command{
		Use:   "migrate <file>",
		Short: "Upgrade a wheel definition file to a newer version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			def, res := wheel.ParseJSON(data)
			if err := res.Err(); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}

			migrator := wheel.DefaultMigrator()
			if target == "" {
				target = migrator.Latest()
			}
			result := migrator.Migrate(def, target)
			status := cmd.ErrOrStderr()
			for _, step := range result.Applied {
				fmt.Fprintf(status, "applied %s\n", step)
			}
			if !result.Success {
				return fmt.Errorf("migrating %s: %s", path, strings.Join(result.Errors, "; "))
			}
			if len(result.Applied) == 0 {
				fmt.Fprintf(status, "%s is already at %s\n", path, def.Version)
				return nil
			}

			encoded, err := json.MarshalIndent(result.Definition, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding %s: %w", path, err)
			}
			if write {
				return writeOutput(cmd, path, encoded)
			}
			return writeOutput(cmd, "", encoded)
		},
	}
	cmd.Flags().StringVar(&target, "to", "", "Target version (default: latest)")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	return cmd
}

func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	data = append(data, '\n')
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// reportIngestErrors lists wheel files that could not be loaded. They do not
// fail the command.
func reportIngestErrors(cmd *cobra.Command, p *project) {
	if len(p.ingested.Errors) == 0 {
		return
	}
	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "\nSkipped files (%d):\n", len(p.ingested.Errors))
	for _, err := range p.ingested.Errors {
		fmt.Fprintf(errOut, "  - %v\n", err)
	}
}
