package condition

import "animoverride/internal/predicate"

// Step records what the evaluator did with one term.
type Step struct {
	Index     int
	Evaluated bool
	Result    bool
}

// Evaluate runs the chain strictly left to right with no AND/OR precedence:
// "A OR B AND C" is "(A OR B) AND C". After a true OR-joined term the
// following terms are skipped until one joined by AND is passed. A false
// AND-joined term ends the chain as false. Falling off the end is true.
func (c Chain) Evaluate(ch predicate.Character) bool {
	return c.evaluate(ch, nil)
}

// Trace evaluates like Evaluate and also reports each step.
func (c Chain) Trace(ch predicate.Character) (bool, []Step) {
	steps := make([]Step, 0, len(c))
	ok := c.evaluate(ch, func(s Step) { steps = append(steps, s) })
	return ok, steps
}

func (c Chain) evaluate(ch predicate.Character, record func(Step)) bool {
	trueOr := false
	for i := range c {
		term := &c[i]
		if trueOr {
			if term.And {
				trueOr = false
			}
			if record != nil {
				record(Step{Index: i})
			}
			continue
		}

		// A term on an inactive package reads as false before NOT applies.
		result := false
		if !term.PackageUnavailable {
			result = term.Predicate.Call(ch, term.Args)
		}
		result = result != term.Negate
		if record != nil {
			record(Step{Index: i, Evaluated: true, Result: result})
		}

		if !result {
			if term.And {
				return false
			}
			continue
		}
		trueOr = !term.And
	}
	return true
}
