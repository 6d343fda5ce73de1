package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"animoverride/internal/validate"
)

func lintCmd() *cobra.Command {
	var bindings bool
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check override folders and condition scripts of every configured project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(bindings)
		},
	}
	cmd.Flags().BoolVar(&bindings, "bindings", false, "Also report predicates without an implementation")
	return cmd
}

func runLint(bindings bool) error {
	ctx := context.Background()

	a, err := setup(ctx, setupOptions{})
	if err != nil {
		return err
	}

	report, err := validate.Run(ctx, a.projects, validate.Options{CheckBindings: bindings})
	if err != nil {
		return err
	}

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
		fmt.Fprintln(os.Stdout, "No issues found.")
		return nil
	}

	if len(errorIssues) > 0 {
		fmt.Fprintf(os.Stdout, "Errors (%d):\n", len(errorIssues))
		printIssues(os.Stdout, errorIssues)
	}
	if len(warnIssues) > 0 {
		if len(errorIssues) > 0 {
			fmt.Fprintln(os.Stdout, "")
		}
		fmt.Fprintf(os.Stdout, "Warnings (%d):\n", len(warnIssues))
		printIssues(os.Stdout, warnIssues)
	}

	if len(errorIssues) > 0 {
		return fmt.Errorf("lint found errors")
	}
	return nil
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		location := issue.Project
		if issue.Path != "" {
			location = fmt.Sprintf("%s (%s)", location, issue.Path)
		}
		if issue.Line > 0 {
			location = fmt.Sprintf("%s:%d", location, issue.Line)
		}
		fmt.Fprintf(out, "  - %s: %s (%s)\n", location, issue.Message, issue.Code)
	}
}
