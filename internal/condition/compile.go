package condition

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"animoverride/internal/fault"
	"animoverride/internal/loadorder"
	"animoverride/internal/predicate"
)

// LineError reports the script line that aborted compilation.
type LineError struct {
	Number int
	Text   string
	Err    *fault.Error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Number, e.Err.Message, e.Text)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Compiler turns condition scripts into chains. It is safe for concurrent use
// as long as the registry and package set are not modified.
type Compiler struct {
	registry *predicate.Registry
	packages loadorder.Set
}

func NewCompiler(registry *predicate.Registry, packages loadorder.Set) *Compiler {
	return &Compiler{registry: registry, packages: packages}
}

// Compile compiles the non-blank, non-comment lines of one script. Any bad
// line aborts the whole script. An empty script yields an empty chain, which
// always evaluates true.
func (c *Compiler) Compile(lines []string) (Chain, error) {
	chain := make(Chain, 0, len(lines))
	for i, line := range lines {
		term, ferr := c.compileLine(strings.TrimSpace(line), i == len(lines)-1)
		if ferr != nil {
			return nil, &LineError{Number: i + 1, Text: line, Err: ferr}
		}
		chain = append(chain, term)
	}
	return chain, nil
}

// CompileFile reads and compiles the script at path.
func (c *Compiler) CompileFile(path string) (Chain, error) {
	lines, err := ReadScriptFile(path)
	if err != nil {
		return nil, fault.Wrap(fault.CodeUnreadable, "reading "+path, err)
	}
	return c.Compile(lines)
}

func (c *Compiler) compileLine(line string, last bool) (Term, *fault.Error) {
	term := Term{And: true, Source: line}

	if strings.HasPrefix(line, "NOT ") || strings.HasPrefix(line, "NOT\t") {
		term.Negate = true
		line = line[len("NOT"):]
	}

	open := strings.IndexByte(line, '(')
	if open < 0 {
		return term, fault.New(fault.CodeMissingParen, "missing '('")
	}
	name := strings.TrimSpace(line[:open])

	if stray := strings.IndexByte(line, ')'); stray >= 0 && stray < open {
		return term, fault.New(fault.CodeMissingParen, "')' before '('")
	}
	closing := closingParen(line, open)
	if closing < 0 {
		return term, fault.New(fault.CodeMissingParen, "missing ')'")
	}

	pred, ok := c.registry.Lookup(name)
	if !ok {
		return term, fault.WithMetadata(fault.CodeUnknownPredicate,
			fmt.Sprintf("unknown predicate %q", name), map[string]string{"predicate": name})
	}
	term.Predicate = pred

	rest := strings.TrimSpace(line[closing+1:])
	switch {
	case rest == "":
		if !last {
			return term, fault.New(fault.CodeMissingOperator, "missing AND/OR before next line")
		}
	case strings.HasPrefix(rest, "AND"):
		term.And = true
	case strings.HasPrefix(rest, "OR"):
		term.And = false
	default:
		return term, fault.Newf(fault.CodeBadOperator, "expected AND or OR, got %q", rest)
	}

	for _, raw := range splitArgs(line[open+1 : closing]) {
		if raw == "" || raw[0] == '"' {
			arg, missing, ferr := c.packageArg(raw)
			if ferr != nil {
				return term, ferr
			}
			if missing != "" {
				term.PackageUnavailable = true
				term.MissingPackages = append(term.MissingPackages, missing)
			}
			term.Args = append(term.Args, arg)
			continue
		}

		slot := len(term.Args)
		v, err := strconv.ParseFloat(raw, 32)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return term, fault.Newf(fault.CodeBadArgument, "argument %d: %q is not a number", slot+1, raw)
		}
		if !pred.FloatAllowed(slot) {
			return term, fault.Newf(fault.CodeFloatNotAllowed, "argument %d of %s must be a record reference", slot+1, pred.Name)
		}
		term.FloatMask |= 1 << uint(slot)
		term.Args = append(term.Args, predicate.FloatArg(float32(v)))
	}

	if len(term.Args) != pred.Arity {
		return term, fault.Newf(fault.CodeArity, "%s takes %d arguments, got %d", pred.Name, pred.Arity, len(term.Args))
	}
	return term, nil
}

// packageArg parses `"<package>" | <id>`. An inactive package is not an
// error: its name is returned so the term can be marked unavailable.
func (c *Compiler) packageArg(raw string) (predicate.Arg, string, *fault.Error) {
	tokens := splitOutsideQuotes(raw, '|')
	if len(tokens) != 2 {
		return predicate.Arg{}, "", fault.Newf(fault.CodeBadArgument, "expected \"package\" | id, got %q", raw)
	}

	quoted := strings.TrimSpace(tokens[0])
	if len(quoted) <= 2 || quoted[0] != '"' || quoted[len(quoted)-1] != '"' {
		return predicate.Arg{}, "", fault.Newf(fault.CodePackageName, "package name must be quoted: %s", quoted)
	}
	name := quoted[1 : len(quoted)-1]
	if !loadorder.HasPackageExt(name) {
		return predicate.Arg{}, "", fault.Newf(fault.CodePackageName, "%q is not a data package", name)
	}

	local, err := strconv.ParseInt(strings.TrimSpace(tokens[1]), 0, 64)
	if err != nil || local < 0 || local > math.MaxUint32 {
		return predicate.Arg{}, "", fault.Newf(fault.CodeBadArgument, "bad record id %q", strings.TrimSpace(tokens[1]))
	}

	pkg, active := loadorder.Package{}, false
	if c.packages != nil {
		pkg, active = c.packages.Lookup(name)
	}
	id, ok := pkg.Resolve(uint32(local))
	if !ok {
		return predicate.Arg{}, "", fault.Newf(fault.CodeIDOutOfRange, "record id 0x%X out of range for %s", local, name)
	}
	if !active {
		return predicate.RefArg(id), name, nil
	}
	return predicate.RefArg(id), "", nil
}
