package validate

import (
	"fmt"

	"animoverride/internal/discover"
	"animoverride/internal/project"
)

type Source interface {
	Projects() []*project.Project
}

func targetsOf(source Source) ([]Target, error) {
	projects := source.Projects()
	targets := make([]Target, 0, len(projects))
	for _, p := range projects {
		if !p.Loaded() {
			return nil, fmt.Errorf("project %s has not been loaded", p.Key)
		}
		target := Target{
			Project: p.Key,
			Scan: &discover.Result{
				Project:    p.Key,
				Identity:   p.Identity(),
				Conditions: p.Conditions(),
				Rules:      p.Rules(),
				Errors:     p.Errors(),
			},
		}
		if res, ok := p.Remap(); ok {
			target.Remap = &res
		}
		targets = append(targets, target)
	}
	return targets, nil
}
