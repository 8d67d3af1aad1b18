package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"astrowheel/internal/config"
	"astrowheel/internal/validate"
	"astrowheel/internal/wheel"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [paths...]",
		Short: "Check wheel definition files for errors and outdated versions",
		RunE:  runValidate,
	}
	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paths := args
	var exclude []string
	if len(paths) == 0 {
		cfg, err := config.LoadProjectConfig(configPath)
		if err != nil {
			return err
		}
		paths = cfg.ResolvePaths(configPath)
		exclude = cfg.ResolveExcludes(configPath)
	}

	report, err := validate.Run(ctx, paths, exclude, wheel.DefaultMigrator())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var errorIssues []validate.Issue
	var warnIssues []validate.Issue
	for _, issue := range report.Issues {
		switch issue.Severity {
		case validate.SeverityError:
			errorIssues = append(errorIssues, issue)
		case validate.SeverityWarn:
			warnIssues = append(warnIssues, issue)
		}
	}

	if len(errorIssues) == 0 && len(warnIssues) == 0 {
		fmt.Fprintf(out, "No issues found in %d files.\n", report.Files)
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
		printIssues(out, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(out, "")
		}
		fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
		printIssues(out, warnIssues)
	}

	if report.HasErrors() {
		return fmt.Errorf("validation found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.FilePath
		if issue.Wheel != "" {
			location = fmt.Sprintf("%s (%s)", issue.Wheel, issue.FilePath)
		}
		if issue.Field != "" {
			location = fmt.Sprintf("%s %s", location, issue.Field)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
