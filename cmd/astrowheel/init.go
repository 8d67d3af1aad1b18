package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"astrowheel/internal/wheel"
)

func initCmd() *cobra.Command {
	var projectName string
	var template string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Scaffold a new astrowheel project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(projectName) == "" {
				return fmt.Errorf("--name is required")
			}
			if err := runInit(filepath.Dir(configPath), configPath, projectName, template); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s and wheels/.\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&projectName, "name", "", "Project name")
	cmd.Flags().StringVar(&template, "template", wheel.StandardNatalWheel, "Built-in wheel to copy into wheels/")
	return cmd
}

func runInit(dir, configPath, projectName, template string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("%s already exists", configPath)
	}

	def, ok := wheel.NewRegistry().Get(template)
	if !ok {
		return fmt.Errorf("unknown wheel template %q", template)
	}
	def.Name = projectName + " Wheel"
	contents, err := json.MarshalIndent(def, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding wheel template: %w", err)
	}

	wheelsDir := filepath.Join(dir, "wheels")
	if err := os.MkdirAll(wheelsDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", wheelsDir, err)
	}
	wheelPath := filepath.Join(wheelsDir, "example.json")
	if err := os.WriteFile(wheelPath, append(contents, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", wheelPath, err)
	}

	configContents := fmt.Sprintf("project: %s\nversion: 1\n\nwheels:\n  paths:\n    - ./wheels/\n  exclude:\n    - \"*.draft.json\"\n\nstore:\n  dsn: sqlite://./astrowheel.db\n\ncache:\n  size: 256\n\nmetrics:\n  addr: \"\"\n\ndefault_preset: Classic Natal\n", projectName)
	if err := os.WriteFile(configPath, []byte(configContents), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}
	return nil
}
