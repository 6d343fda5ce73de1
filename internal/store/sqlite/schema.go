package sqlite

import (
	"context"
	"fmt"
	"strings"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS projects (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		key         TEXT NOT NULL,
		path        TEXT NOT NULL,
		folder      TEXT NOT NULL DEFAULT '',
		summary     TEXT NOT NULL DEFAULT '',
		source_hash TEXT NOT NULL DEFAULT '',
		applied     INTEGER NOT NULL DEFAULT 0,
		reported_at TEXT DEFAULT (datetime('now')),
		CONSTRAINT uq_project_key UNIQUE (key)
	);

	CREATE TABLE IF NOT EXISTS links (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		kind       TEXT NOT NULL,
		source     TEXT NOT NULL,
		dest       TEXT NOT NULL,
		priority   INTEGER NOT NULL DEFAULT 0,
		archetype  INTEGER NOT NULL DEFAULT 0,
		package    TEXT NOT NULL DEFAULT '',
		conditions TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS issues (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		project_id INTEGER NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		severity   TEXT NOT NULL,
		code       TEXT NOT NULL,
		message    TEXT NOT NULL,
		path       TEXT NOT NULL DEFAULT '',
		line       INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_links_project ON links (project_id);
	CREATE INDEX IF NOT EXISTS idx_links_project_kind ON links (project_id, kind);
	CREATE INDEX IF NOT EXISTS idx_links_source ON links (source);
	CREATE INDEX IF NOT EXISTS idx_issues_project ON issues (project_id);
	CREATE INDEX IF NOT EXISTS idx_issues_severity ON issues (severity);
	`

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	statements := splitStatements(ddl)
	for _, stmt := range statements {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}

	return nil
}

func splitStatements(ddl string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(ddl, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if current.Len() > 0 {
		statements = append(statements, current.String())
	}

	return statements
}
