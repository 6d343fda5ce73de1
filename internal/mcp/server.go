package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"animoverride/internal/condition"
	"animoverride/internal/predicate"
	"animoverride/internal/project"
)

// Projects is the read side of a project store.
type Projects interface {
	Projects() []*project.Project
	Project(key string) (*project.Project, bool)
}

type Server struct {
	projects Projects
	registry *predicate.Registry
	compiler *condition.Compiler
	mcp      *sdk.Server
}

func NewServer(projects Projects, registry *predicate.Registry, compiler *condition.Compiler, version string) *Server {
	s := &Server{
		projects: projects,
		registry: registry,
		compiler: compiler,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "animoverride",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
