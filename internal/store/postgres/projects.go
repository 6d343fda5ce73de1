package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"animoverride/internal/store"
)

// SaveProject replaces the stored links and issues of one project.
func (c *Client) SaveProject(ctx context.Context, p store.ProjectInput) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var projectID int64
	err = tx.QueryRow(ctx, `
INSERT INTO projects (key, path, folder, summary, source_hash, applied, reported_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
ON CONFLICT (key) DO UPDATE SET
    path = EXCLUDED.path,
    folder = EXCLUDED.folder,
    summary = EXCLUDED.summary,
    source_hash = EXCLUDED.source_hash,
    applied = EXCLUDED.applied,
    reported_at = now()
RETURNING id
`, p.Key, p.Path, p.Folder, p.Summary, p.Hash, p.Applied).Scan(&projectID)
	if err != nil {
		return fmt.Errorf("upserting project: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM links WHERE project_id = $1`, projectID)
	batch.Queue(`DELETE FROM issues WHERE project_id = $1`, projectID)
	for _, l := range p.Links {
		batch.Queue(`
INSERT INTO links (project_id, kind, source, dest, priority, archetype, package, conditions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, projectID, l.Kind, l.Source, l.Dest, l.Priority, int64(l.Archetype), l.Package, l.Conditions)
	}
	for _, issue := range p.Issues {
		batch.Queue(`
INSERT INTO issues (project_id, severity, code, message, path, line)
VALUES ($1, $2, $3, $4, $5, $6)
`, projectID, issue.Severity, issue.Code, issue.Message, issue.Path, issue.Line)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("writing rows for %s: %w", p.Key, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing project %s: %w", p.Key, err)
	}
	return nil
}

func (c *Client) RemoveStaleProjects(ctx context.Context, currentKeys []string) (int64, error) {
	if len(currentKeys) == 0 {
		return 0, nil
	}

	tag, err := c.pool.Exec(ctx, `DELETE FROM projects WHERE NOT (key = ANY($1))`, currentKeys)
	if err != nil {
		return 0, fmt.Errorf("removing stale projects: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) GetProjectHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.pool.Query(ctx, `SELECT key, source_hash FROM projects WHERE source_hash <> ''`)
	if err != nil {
		return nil, fmt.Errorf("query project hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var key, hash string
		if err := rows.Scan(&key, &hash); err != nil {
			return nil, fmt.Errorf("scanning project hash: %w", err)
		}
		hashes[key] = hash
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating project hashes: %w", err)
	}
	return hashes, nil
}

func (c *Client) ListProjects(ctx context.Context) ([]store.ProjectSummary, error) {
	query := `
SELECT p.key, p.path, p.folder, p.summary, p.applied, p.reported_at,
    (SELECT COUNT(*) FROM links l WHERE l.project_id = p.id AND l.kind = 'identity'),
    (SELECT COUNT(*) FROM links l WHERE l.project_id = p.id AND l.kind = 'condition'),
    (SELECT COUNT(*) FROM issues i WHERE i.project_id = p.id AND i.severity = 'error'),
    (SELECT COUNT(*) FROM issues i WHERE i.project_id = p.id AND i.severity = 'warning')
FROM projects p
ORDER BY p.key
`

	rows, err := c.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]store.ProjectSummary, 0)
	for rows.Next() {
		var s store.ProjectSummary
		var identity, conditions, errs, warnings int64
		if err := rows.Scan(&s.Key, &s.Path, &s.Folder, &s.Summary, &s.Applied, &s.ReportedAt,
			&identity, &conditions, &errs, &warnings); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		s.IdentityLinks = int(identity)
		s.ConditionLinks = int(conditions)
		s.Errors = int(errs)
		s.Warnings = int(warnings)
		projects = append(projects, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}
