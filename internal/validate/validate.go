// Package validate lints discovered override rules and clip table builds.
package validate

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"animoverride/internal/discover"
	"animoverride/internal/fault"
	"animoverride/internal/remap"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
	SeverityInfo  Severity = "info"
)

const (
	codeEmptyRule        = "rule.no_clips"
	codeUnboundPredicate = "predicate.unbound"
)

type Issue struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Project  string   `json:"project"`
	Path     string   `json:"path,omitempty"`
	Line     int      `json:"line,omitempty"`
}

type Report struct {
	Issues []Issue `json:"issues"`
}

// Count returns the number of issues with the given severity.
func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

func (r *Report) HasErrors() bool {
	return r.Count(SeverityError) > 0
}

// Target is one project's discovery result and, if the clip table has been
// built, its remap result.
type Target struct {
	Project string
	Scan    *discover.Result
	Remap   *remap.Result
}

type Options struct {
	// CheckBindings reports predicates used by a rule that have no body.
	CheckBindings bool
}

// Run lints every project the source knows about.
func Run(ctx context.Context, source Source, opts Options) (*Report, error) {
	if source == nil {
		return nil, fmt.Errorf("project source is required")
	}
	targets, err := targetsOf(source)
	if err != nil {
		return nil, err
	}
	return Lint(ctx, targets, opts)
}

func Lint(ctx context.Context, targets []Target, opts Options) (*Report, error) {
	issues := make([]Issue, 0)
	for _, target := range targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if target.Scan != nil {
			issues = append(issues, scanIssues(target.Project, target.Scan, opts)...)
		}
		if target.Remap != nil {
			issues = append(issues, remapIssues(target.Project, target.Remap)...)
		}
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Project != issues[j].Project {
			return issues[i].Project < issues[j].Project
		}
		return issues[i].Path < issues[j].Path
	})
	return &Report{Issues: issues}, nil
}

func scanIssues(project string, scan *discover.Result, opts Options) []Issue {
	var issues []Issue
	for _, err := range scan.Errors {
		issues = append(issues, issueFromError(project, err))
	}

	for _, rule := range scan.Rules {
		if rule.Err != nil {
			continue
		}
		if len(rule.Chain) == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     string(fault.CodeEmptyScript),
				Message:  fmt.Sprintf("priority %d has no conditions and always applies", rule.Priority),
				Project:  project,
				Path:     rule.Dir,
			})
		}
		if rule.Clips == 0 {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeEmptyRule,
				Message:  fmt.Sprintf("priority %d has no clips", rule.Priority),
				Project:  project,
				Path:     rule.Dir,
			})
		}
		if !opts.CheckBindings {
			continue
		}
		for i, term := range rule.Chain {
			if term.Predicate != nil && !term.Predicate.Bound() {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeUnboundPredicate,
					Message:  fmt.Sprintf("%s has no implementation and always evaluates false", term.Predicate.Name),
					Project:  project,
					Path:     rule.Dir,
					Line:     i + 1,
				})
			}
		}
	}
	return issues
}

func remapIssues(project string, res *remap.Result) []Issue {
	var issues []Issue
	if res.Err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Code:     string(fault.CodeOf(res.Err)),
			Message:  "too many animation files: " + res.Summary(),
			Project:  project,
		})
	}
	for _, c := range res.Collisions {
		issues = append(issues, Issue{
			Severity: SeverityWarn,
			Code:     string(fault.CodeIndexCollision),
			Message:  fmt.Sprintf("%s: priority %d already used for slot %d", c.Name, c.Priority, c.Slot),
			Project:  project,
			Path:     c.Source,
		})
	}
	return issues
}

func issueFromError(project string, err error) Issue {
	code := fault.CodeOf(err)
	issue := Issue{
		Severity: severityOf(code),
		Code:     string(code),
		Message:  err.Error(),
		Project:  project,
		Path:     fault.MetadataOf(err, "path"),
	}
	if n, convErr := strconv.Atoi(fault.MetadataOf(err, "line_number")); convErr == nil {
		issue.Line = n
	}
	return issue
}

func severityOf(code fault.Code) Severity {
	switch code {
	case fault.CodeMissingDir:
		return SeverityInfo
	case fault.CodePackageInactive:
		return SeverityWarn
	}
	return SeverityError
}
