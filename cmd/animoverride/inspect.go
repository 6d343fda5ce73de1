package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"animoverride/internal/project"
)

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <project>",
		Short: "List the overrides discovered for a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
	return cmd
}

func runInspect(path string) error {
	ctx := context.Background()

	a, err := setup(ctx, setupOptions{projects: []string{path}})
	if err != nil {
		return err
	}
	p, ok := a.projects.Project(path)
	if !ok {
		return fmt.Errorf("%s: %w", path, project.ErrUnknownProject)
	}

	fmt.Fprintf(os.Stdout, "%s\n  root: %s\n", p.Key, p.Root)

	identity := p.Identity()
	fmt.Fprintf(os.Stdout, "\nIdentity overrides (%d):\n", len(identity))
	for _, l := range identity {
		fmt.Fprintf(os.Stdout, "  %08X %s -> %s\n", l.Archetype, l.Source, l.Dest)
	}

	rules := p.Rules()
	fmt.Fprintf(os.Stdout, "\nCondition folders (%d):\n", len(rules))
	for _, rule := range rules {
		if rule.Err != nil {
			fmt.Fprintf(os.Stdout, "  %d: skipped: %v\n", rule.Priority, rule.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "  %d: %d clips\n", rule.Priority, rule.Clips)
		if len(rule.Chain) == 0 {
			fmt.Fprintln(os.Stdout, "    (always)")
		}
		for _, term := range rule.Chain {
			fmt.Fprintf(os.Stdout, "    %s\n", term)
		}
	}

	if errs := p.Errors(); len(errs) > 0 {
		fmt.Fprintf(os.Stdout, "\nProblems (%d):\n", len(errs))
		for _, err := range errs {
			fmt.Fprintf(os.Stdout, "  - %v\n", err)
		}
	}
	return nil
}
