// Package store persists lint reports for dashboards. Nothing in the
// runtime path reads them back.
package store

import "context"

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	SaveProject(ctx context.Context, p ProjectInput) error
	RemoveStaleProjects(ctx context.Context, currentKeys []string) (int64, error)
	GetProjectHashes(ctx context.Context) (map[string]string, error)

	ListProjects(ctx context.Context) ([]ProjectSummary, error)
	GetLinks(ctx context.Context, project, kind string) ([]Link, error)
	GetIssues(ctx context.Context, project, severity string) ([]Issue, error)

	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}
