package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"animoverride/internal/project"
	"animoverride/internal/validate"
)

// Inputs converts loaded projects and their lint report into rows.
func Inputs(projects []*project.Project, report *validate.Report) []ProjectInput {
	issues := make(map[string][]Issue)
	if report != nil {
		for _, issue := range report.Issues {
			issues[issue.Project] = append(issues[issue.Project], Issue{
				Severity: string(issue.Severity),
				Code:     issue.Code,
				Message:  issue.Message,
				Path:     issue.Path,
				Line:     issue.Line,
			})
		}
	}

	inputs := make([]ProjectInput, 0, len(projects))
	for _, p := range projects {
		in := ProjectInput{
			Key:    p.Key,
			Path:   p.Path,
			Folder: p.Folder,
			Issues: issues[p.Key],
		}
		if res, ok := p.Remap(); ok {
			in.Summary = res.Summary()
			in.Applied = res.Applied
		}
		for _, l := range p.Identity() {
			in.Links = append(in.Links, Link{
				Kind:      KindIdentity,
				Source:    l.Source,
				Dest:      l.Dest,
				Archetype: l.Archetype,
				Package:   l.Package,
			})
		}
		for _, l := range p.Conditions() {
			in.Links = append(in.Links, Link{
				Kind:       KindCondition,
				Source:     l.Source,
				Dest:       l.Dest,
				Priority:   l.Priority,
				Conditions: l.Chain.String(),
			})
		}
		in.Hash = hashInput(in)
		inputs = append(inputs, in)
	}
	return inputs
}

func hashInput(in ProjectInput) string {
	data, err := json.Marshal(struct {
		Path    string
		Folder  string
		Summary string
		Applied bool
		Links   []Link
		Issues  []Issue
	}{in.Path, in.Folder, in.Summary, in.Applied, in.Links, in.Issues})
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
