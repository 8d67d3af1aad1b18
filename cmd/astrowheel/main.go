package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "astrowheel",
		Short: "Chart wheel orientation engine and tool server",
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "astrowheel.yaml", "Project config file")
	root.AddCommand(initCmd())
	root.AddCommand(validateCmd())
	root.AddCommand(wheelsCmd())
	root.AddCommand(presetsCmd())
	root.AddCommand(orientCmd())
	root.AddCommand(evaluateCmd())
	root.AddCommand(sessionsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(versionCmd())
	return root
}
