package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"animoverride/internal/config"
	"animoverride/internal/project"
	"animoverride/internal/store"
)

var queryDSN string

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Read saved reports from the database",
	}
	cmd.PersistentFlags().StringVar(&queryDSN, "dsn", "", "sqlite:// or postgres:// DSN (defaults to database.dsn)")
	cmd.AddCommand(queryProjectsCmd())
	cmd.AddCommand(queryLinksCmd())
	cmd.AddCommand(queryIssuesCmd())
	cmd.AddCommand(querySQLCmd())
	return cmd
}

func openQueryStore(ctx context.Context) (store.Store, error) {
	dsn := queryDSN
	if dsn == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		dsn = cfg.Database.DSN
	}
	return openStore(ctx, dsn)
}

func queryProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List reported projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := openQueryStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			projects, err := db.ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(os.Stdout, "No projects found.")
				return nil
			}
			for _, p := range projects {
				fmt.Fprintf(os.Stdout, "%s [%s] identity=%d condition=%d errors=%d warnings=%d (%s)\n",
					p.Key, p.Summary, p.IdentityLinks, p.ConditionLinks, p.Errors, p.Warnings,
					p.ReportedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func queryLinksCmd() *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "links <project>",
		Short: "List the saved overrides of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := openQueryStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			links, err := db.GetLinks(ctx, project.CanonicalKey(args[0]), kind)
			if err != nil {
				return err
			}
			for _, l := range links {
				if l.Kind == store.KindIdentity {
					fmt.Fprintf(os.Stdout, "%08X %s -> %s\n", l.Archetype, l.Source, l.Dest)
					continue
				}
				fmt.Fprintf(os.Stdout, "%d %s -> %s\n", l.Priority, l.Source, l.Dest)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "identity or condition")
	return cmd
}

func queryIssuesCmd() *cobra.Command {
	var severity string
	cmd := &cobra.Command{
		Use:   "issues <project>",
		Short: "List the saved lint issues of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			db, err := openQueryStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close(ctx)

			issues, err := db.GetIssues(ctx, project.CanonicalKey(args[0]), severity)
			if err != nil {
				return err
			}
			for _, issue := range issues {
				fmt.Fprintf(os.Stdout, "%s %s: %s\n", issue.Severity, issue.Code, issue.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&severity, "severity", "", "error, warning or info")
	return cmd
}

func querySQLCmd() *cobra.Command {
	var paramPairs []string
	cmd := &cobra.Command{
		Use:   "sql <query>",
		Short: "Execute a raw SQL query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			params, err := parseParamPairs(paramPairs)
			if err != nil {
				return err
			}
			return runSQL(query, params)
		},
	}
	cmd.Flags().StringArrayVar(&paramPairs, "param", nil, "Positional parameter as index=value, e.g. 1=foo (repeatable)")
	return cmd
}

func runSQL(query string, params map[string]any) error {
	ctx := context.Background()
	db, err := openQueryStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	rows, err := db.RunSQL(ctx, query, params)
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	fmt.Fprintln(os.Stdout, string(payload))
	return nil
}

func parseParamPairs(pairs []string) (map[string]any, error) {
	params := make(map[string]any)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid param %q: expected key=value", pair)
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("invalid param %q: empty key", pair)
		}
		params[key] = strings.TrimSpace(parts[1])
	}
	return params, nil
}
