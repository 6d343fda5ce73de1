package postgres

import (
	"context"
	"fmt"

	"animoverride/internal/store"
)

func (c *Client) GetLinks(ctx context.Context, project, kind string) ([]store.Link, error) {
	query := `
SELECT l.kind, l.source, l.dest, l.priority, l.archetype, l.package, l.conditions
FROM links l
JOIN projects p ON p.id = l.project_id
WHERE p.key = $1
  AND ($2 = '' OR l.kind = $2)
ORDER BY l.kind DESC, l.source, l.priority DESC
`

	rows, err := c.pool.Query(ctx, query, project, kind)
	if err != nil {
		return nil, fmt.Errorf("getting links: %w", err)
	}
	defer rows.Close()

	links := make([]store.Link, 0)
	for rows.Next() {
		var l store.Link
		var archetype int64
		if err := rows.Scan(&l.Kind, &l.Source, &l.Dest, &l.Priority, &archetype, &l.Package, &l.Conditions); err != nil {
			return nil, fmt.Errorf("scanning link: %w", err)
		}
		l.Archetype = uint32(archetype)
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating links: %w", err)
	}
	return links, nil
}

func (c *Client) GetIssues(ctx context.Context, project, severity string) ([]store.Issue, error) {
	query := `
SELECT i.severity, i.code, i.message, i.path, i.line
FROM issues i
JOIN projects p ON p.id = i.project_id
WHERE p.key = $1
  AND ($2 = '' OR i.severity = $2)
ORDER BY i.id
`

	rows, err := c.pool.Query(ctx, query, project, severity)
	if err != nil {
		return nil, fmt.Errorf("getting issues: %w", err)
	}
	defer rows.Close()

	issues := make([]store.Issue, 0)
	for rows.Next() {
		var issue store.Issue
		var line int32
		if err := rows.Scan(&issue.Severity, &issue.Code, &issue.Message, &issue.Path, &line); err != nil {
			return nil, fmt.Errorf("scanning issue: %w", err)
		}
		issue.Line = int(line)
		issues = append(issues, issue)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating issues: %w", err)
	}
	return issues, nil
}
