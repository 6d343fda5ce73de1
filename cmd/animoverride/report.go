package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animoverride/internal/store"
	"animoverride/internal/validate"
)

func reportCmd() *cobra.Command {
	var dsn string
	var full bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Save the lint report and discovered overrides to a database",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(dsn, full)
		},
	}
	cmd.Flags().StringVar(&dsn, "dsn", "", "sqlite:// or postgres:// DSN (defaults to database.dsn)")
	cmd.Flags().BoolVar(&full, "full", false, "Rewrite every project even if unchanged")
	return cmd
}

func runReport(dsn string, full bool) error {
	ctx := context.Background()

	a, err := setup(ctx, setupOptions{})
	if err != nil {
		return err
	}
	if dsn == "" {
		dsn = a.cfg.Database.DSN
	}

	report, err := validate.Run(ctx, a.projects, validate.Options{})
	if err != nil {
		return err
	}

	db, err := openStore(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	var existing map[string]string
	if !full {
		existing, err = db.GetProjectHashes(ctx)
		if err != nil {
			return err
		}
	}

	inputs := store.Inputs(a.projects.Projects(), report)
	keys := make([]string, 0, len(inputs))
	skipped := 0
	for _, in := range inputs {
		keys = append(keys, in.Key)
		if hash, ok := existing[in.Key]; ok && hash == in.Hash {
			skipped++
			continue
		}
		if err := db.SaveProject(ctx, in); err != nil {
			return err
		}
	}
	removed, err := db.RemoveStaleProjects(ctx, keys)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "Report saved.")
	fmt.Fprintf(os.Stdout, "  Projects:        %d\n", len(inputs))
	fmt.Fprintf(os.Stdout, "  Unchanged:       %d\n", skipped)
	fmt.Fprintf(os.Stdout, "  Errors:          %d\n", report.Count(validate.SeverityError))
	fmt.Fprintf(os.Stdout, "  Warnings:        %d\n", report.Count(validate.SeverityWarn))
	fmt.Fprintf(os.Stdout, "  Projects pruned: %d\n", removed)
	return nil
}
