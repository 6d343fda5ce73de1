package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"animoverride/internal/condition"
	"animoverride/internal/project"
	"animoverride/internal/validate"
)

type ListProjectsInput struct{}

type GetProjectLinksInput struct {
	Project string `json:"project" jsonschema:"behaviour file path of the project"`
	Kind    string `json:"kind,omitempty" jsonschema:"identity or condition"`
}

type CompileConditionsInput struct {
	Script string `json:"script" jsonschema:"contents of a _conditions.txt file"`
}

type LintProjectInput struct {
	Project string `json:"project,omitempty" jsonschema:"restrict to one project"`
}

type ListPredicatesInput struct {
	Unbound bool `json:"unbound,omitempty" jsonschema:"only predicates without an implementation"`
}

type ProjectOutput struct {
	Key            string `json:"key"`
	Path           string `json:"path"`
	Folder         string `json:"folder"`
	IdentityLinks  int    `json:"identity_links"`
	ConditionLinks int    `json:"condition_links"`
	Errors         int    `json:"errors"`
	Built          bool   `json:"built"`
	Summary        string `json:"summary,omitempty"`
}

type ListProjectsOutput struct {
	Projects []ProjectOutput `json:"projects"`
}

type LinkOutput struct {
	Kind       string   `json:"kind"`
	Source     string   `json:"source"`
	Dest       string   `json:"dest"`
	Archetype  string   `json:"archetype,omitempty"`
	Package    string   `json:"package,omitempty"`
	Priority   int32    `json:"priority,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
}

type GetProjectLinksOutput struct {
	Links []LinkOutput `json:"links"`
}

type TermOutput struct {
	Predicate   string   `json:"predicate"`
	Args        []string `json:"args"`
	Negate      bool     `json:"negate"`
	Operator    string   `json:"operator"`
	Unavailable []string `json:"unavailable_packages,omitempty"`
}

type CompileConditionsOutput struct {
	Terms      []TermOutput `json:"terms"`
	AlwaysTrue bool         `json:"always_true"`
}

type LintProjectOutput struct {
	Issues []validate.Issue `json:"issues"`
	Errors int              `json:"errors"`
}

type PredicateOutput struct {
	Name      string `json:"name"`
	Arity     int    `json:"arity"`
	FloatMask uint32 `json:"float_mask"`
	Bound     bool   `json:"bound"`
}

type ListPredicatesOutput struct {
	Predicates []PredicateOutput `json:"predicates"`
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_projects",
		Description: "List registered behaviour projects and their override counts",
	}, s.handleListProjects)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_project_links",
		Description: "List the identity and condition overrides of a project",
	}, s.handleGetProjectLinks)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "compile_conditions",
		Description: "Compile a condition script and return its terms or the first error",
	}, s.handleCompileConditions)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "lint_project",
		Description: "Report discovery and compile problems",
	}, s.handleLintProject)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "list_predicates",
		Description: "List the condition predicates scripts may call",
	}, s.handleListPredicates)
}

func (s *Server) handleListProjects(ctx context.Context, req *sdk.CallToolRequest, input ListProjectsInput) (*sdk.CallToolResult, ListProjectsOutput, error) {
	projects := s.projects.Projects()
	output := make([]ProjectOutput, 0, len(projects))
	for _, p := range projects {
		out := ProjectOutput{
			Key:            p.Key,
			Path:           p.Path,
			Folder:         p.Folder,
			IdentityLinks:  len(p.Identity()),
			ConditionLinks: len(p.Conditions()),
			Errors:         len(p.Errors()),
			Built:          p.Built(),
		}
		if res, ok := p.Remap(); ok {
			out.Summary = res.Summary()
		}
		output = append(output, out)
	}
	return nil, ListProjectsOutput{Projects: output}, nil
}

func (s *Server) handleGetProjectLinks(ctx context.Context, req *sdk.CallToolRequest, input GetProjectLinksInput) (*sdk.CallToolResult, GetProjectLinksOutput, error) {
	p, err := s.lookup(input.Project)
	if err != nil {
		return nil, GetProjectLinksOutput{}, err
	}
	kind := strings.ToLower(input.Kind)
	if kind != "" && kind != "identity" && kind != "condition" {
		return nil, GetProjectLinksOutput{}, fmt.Errorf("kind must be identity or condition")
	}

	output := make([]LinkOutput, 0)
	if kind == "" || kind == "identity" {
		for _, l := range p.Identity() {
			output = append(output, LinkOutput{
				Kind:      "identity",
				Source:    l.Source,
				Dest:      l.Dest,
				Archetype: fmt.Sprintf("%08X", l.Archetype),
				Package:   l.Package,
			})
		}
	}
	if kind == "" || kind == "condition" {
		for _, l := range p.Conditions() {
			terms := make([]string, len(l.Chain))
			for i, term := range l.Chain {
				terms[i] = term.String()
			}
			output = append(output, LinkOutput{
				Kind:       "condition",
				Source:     l.Source,
				Dest:       l.Dest,
				Priority:   l.Priority,
				Conditions: terms,
			})
		}
	}
	return nil, GetProjectLinksOutput{Links: output}, nil
}

func (s *Server) handleCompileConditions(ctx context.Context, req *sdk.CallToolRequest, input CompileConditionsInput) (*sdk.CallToolResult, CompileConditionsOutput, error) {
	lines, err := condition.ReadScript(strings.NewReader(input.Script))
	if err != nil {
		return nil, CompileConditionsOutput{}, err
	}
	chain, err := s.compiler.Compile(lines)
	if err != nil {
		var lineErr *condition.LineError
		if errors.As(err, &lineErr) {
			return nil, CompileConditionsOutput{}, fmt.Errorf("%s (%s)", lineErr.Error(), lineErr.Err.Code)
		}
		return nil, CompileConditionsOutput{}, err
	}

	output := CompileConditionsOutput{
		Terms:      make([]TermOutput, 0, len(chain)),
		AlwaysTrue: len(chain) == 0,
	}
	for _, term := range chain {
		out := TermOutput{
			Args:        make([]string, 0, len(term.Args)),
			Negate:      term.Negate,
			Operator:    "OR",
			Unavailable: term.MissingPackages,
		}
		if term.Predicate != nil {
			out.Predicate = term.Predicate.Name
		}
		if term.And {
			out.Operator = "AND"
		}
		for _, arg := range term.Args {
			out.Args = append(out.Args, arg.String())
		}
		output.Terms = append(output.Terms, out)
	}
	return nil, output, nil
}

func (s *Server) handleLintProject(ctx context.Context, req *sdk.CallToolRequest, input LintProjectInput) (*sdk.CallToolResult, LintProjectOutput, error) {
	var source validate.Source = s.projects
	if input.Project != "" {
		p, err := s.lookup(input.Project)
		if err != nil {
			return nil, LintProjectOutput{}, err
		}
		source = projectList{p}
	}
	report, err := validate.Run(ctx, source, validate.Options{CheckBindings: true})
	if err != nil {
		return nil, LintProjectOutput{}, err
	}
	return nil, LintProjectOutput{Issues: report.Issues, Errors: report.Count(validate.SeverityError)}, nil
}

func (s *Server) handleListPredicates(ctx context.Context, req *sdk.CallToolRequest, input ListPredicatesInput) (*sdk.CallToolResult, ListPredicatesOutput, error) {
	sigs := s.registry.Signatures()
	output := make([]PredicateOutput, 0, len(sigs))
	for _, sig := range sigs {
		p, _ := s.registry.Lookup(sig.Name)
		bound := p != nil && p.Bound()
		if input.Unbound && bound {
			continue
		}
		output = append(output, PredicateOutput{
			Name:      sig.Name,
			Arity:     sig.Arity,
			FloatMask: sig.FloatMask,
			Bound:     bound,
		})
	}
	return nil, ListPredicatesOutput{Predicates: output}, nil
}

func (s *Server) lookup(key string) (*project.Project, error) {
	if key == "" {
		return nil, fmt.Errorf("project is required")
	}
	p, ok := s.projects.Project(key)
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, project.ErrUnknownProject)
	}
	return p, nil
}

type projectList []*project.Project

func (l projectList) Projects() []*project.Project { return l }
