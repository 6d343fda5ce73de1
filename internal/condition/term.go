// Package condition compiles condition scripts into predicate chains and
// evaluates them against a character.
package condition

import (
	"strings"

	"animoverride/internal/predicate"
)

// Term is one compiled line of a condition script.
type Term struct {
	Predicate *predicate.Predicate
	Args      []predicate.Arg
	// FloatMask has bit i set when Args[i] was given as a bare number.
	FloatMask uint32
	Negate    bool
	// And joins this term to the next with AND; false means OR.
	And bool
	// PackageUnavailable marks a term that references a package that was not
	// active at discovery time. Such a term reads as false before NOT is applied.
	PackageUnavailable bool
	MissingPackages    []string
	Source             string
}

// Chain is an ordered list of terms evaluated left to right.
type Chain []Term

func (t Term) String() string {
	var b strings.Builder
	if t.Negate {
		b.WriteString("NOT ")
	}
	if t.Predicate != nil {
		b.WriteString(t.Predicate.Name)
	}
	b.WriteByte('(')
	for i, arg := range t.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	if t.And {
		b.WriteString(" AND")
	} else {
		b.WriteString(" OR")
	}
	return b.String()
}

func (c Chain) String() string {
	lines := make([]string, len(c))
	for i, t := range c {
		lines[i] = t.String()
	}
	return strings.Join(lines, "\n")
}

// Unavailable reports whether any term references an inactive package.
func (c Chain) Unavailable() bool {
	for _, t := range c {
		if t.PackageUnavailable {
			return true
		}
	}
	return false
}
