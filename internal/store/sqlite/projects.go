package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"animoverride/internal/store"
)

const timeLayout = "2006-01-02 15:04:05"

// SaveProject replaces the stored links and issues of one project.
func (c *Client) SaveProject(ctx context.Context, p store.ProjectInput) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var projectID int64
	err = tx.QueryRowContext(ctx, `
	INSERT INTO projects (key, path, folder, summary, source_hash, applied, reported_at)
	VALUES (?, ?, ?, ?, ?, ?, datetime('now'))
	ON CONFLICT (key) DO UPDATE SET
		path = excluded.path,
		folder = excluded.folder,
		summary = excluded.summary,
		source_hash = excluded.source_hash,
		applied = excluded.applied,
		reported_at = datetime('now')
	RETURNING id
	`, p.Key, p.Path, p.Folder, p.Summary, p.Hash, boolToInt(p.Applied)).Scan(&projectID)
	if err != nil {
		return fmt.Errorf("upserting project: %w", err)
	}

	for _, table := range []string{"links", "issues"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE project_id = ?", projectID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	for _, l := range p.Links {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO links (project_id, kind, source, dest, priority, archetype, package, conditions)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, projectID, l.Kind, l.Source, l.Dest, l.Priority, l.Archetype, l.Package, l.Conditions)
		if err != nil {
			return fmt.Errorf("inserting link: %w", err)
		}
	}

	for _, issue := range p.Issues {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO issues (project_id, severity, code, message, path, line)
		VALUES (?, ?, ?, ?, ?, ?)
		`, projectID, issue.Severity, issue.Code, issue.Message, issue.Path, issue.Line)
		if err != nil {
			return fmt.Errorf("inserting issue: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing project %s: %w", p.Key, err)
	}
	return nil
}

func (c *Client) RemoveStaleProjects(ctx context.Context, currentKeys []string) (int64, error) {
	if len(currentKeys) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(currentKeys))
	args := make([]any, len(currentKeys))
	for i, key := range currentKeys {
		placeholders[i] = "?"
		args[i] = key
	}

	query := fmt.Sprintf(`DELETE FROM projects WHERE key NOT IN (%s)`, strings.Join(placeholders, ", "))
	result, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("removing stale projects: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}
	return affected, nil
}

func (c *Client) GetProjectHashes(ctx context.Context) (map[string]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key, source_hash FROM projects WHERE source_hash <> ''`)
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

	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	projects := make([]store.ProjectSummary, 0)
	for rows.Next() {
		var s store.ProjectSummary
		var applied int
		var reportedAt string
		if err := rows.Scan(&s.Key, &s.Path, &s.Folder, &s.Summary, &applied, &reportedAt,
			&s.IdentityLinks, &s.ConditionLinks, &s.Errors, &s.Warnings); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		s.Applied = applied != 0
		if t, err := time.Parse(timeLayout, reportedAt); err == nil {
			s.ReportedAt = t
		}
		projects = append(projects, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
