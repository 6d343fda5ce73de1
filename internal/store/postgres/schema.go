package postgres

import (
	"context"
	"fmt"
)

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS projects (
    id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    key         TEXT NOT NULL,
    path        TEXT NOT NULL,
    folder      TEXT NOT NULL DEFAULT '',
    summary     TEXT NOT NULL DEFAULT '',
    source_hash TEXT NOT NULL DEFAULT '',
    applied     BOOLEAN NOT NULL DEFAULT FALSE,
    reported_at TIMESTAMPTZ DEFAULT now(),
    CONSTRAINT uq_project_key UNIQUE (key)
);

CREATE TABLE IF NOT EXISTS links (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL,
    source     TEXT NOT NULL,
    dest       TEXT NOT NULL,
    priority   INTEGER NOT NULL DEFAULT 0,
    archetype  BIGINT NOT NULL DEFAULT 0,
    package    TEXT NOT NULL DEFAULT '',
    conditions TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS issues (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    project_id BIGINT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
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
	_, err := c.pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
