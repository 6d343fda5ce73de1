// Package fault provides coded errors for override discovery, compilation and remapping.
package fault

import "strings"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "unknown"

	// Discovery errors
	CodeMissingDir        Code = "discovery.missing_dir"
	CodeUnreadable        Code = "discovery.unreadable"
	CodePackageInactive   Code = "discovery.package_inactive"
	CodeBadPackageName    Code = "discovery.bad_package_name"
	CodeBadArchetypeID    Code = "discovery.bad_archetype_id"
	CodeBadPriority       Code = "discovery.bad_priority"
	CodeMissingConditions Code = "discovery.missing_conditions"

	// Compile errors
	CodeMissingParen     Code = "compile.missing_paren"
	CodeUnknownPredicate Code = "compile.unknown_predicate"
	CodeBadOperator      Code = "compile.bad_operator"
	CodeMissingOperator  Code = "compile.missing_operator"
	CodeBadArgument      Code = "compile.bad_argument"
	CodePackageName      Code = "compile.package_name"
	CodeIDOutOfRange     Code = "compile.id_out_of_range"
	CodeFloatNotAllowed  Code = "compile.float_not_allowed"
	CodeArity            Code = "compile.arity"
	CodeEmptyScript      Code = "compile.empty_script"

	CodeCapacityExceeded Code = "capacity.exceeded"
	CodeIndexCollision   Code = "index.collision"
)

// Kind groups codes into the four failure classes.
type Kind string

const (
	KindDiscovery Kind = "discovery"
	KindCompile   Kind = "compile"
	KindCapacity  Kind = "capacity"
	KindCollision Kind = "index"
	KindUnknown   Kind = "unknown"
)

// Kind returns the failure class encoded in the code prefix.
func (c Code) Kind() Kind {
	prefix, _, ok := strings.Cut(string(c), ".")
	if !ok {
		return KindUnknown
	}
	switch Kind(prefix) {
	case KindDiscovery, KindCompile, KindCapacity, KindCollision:
		return Kind(prefix)
	default:
		return KindUnknown
	}
}
