// Package link holds override rules and the per-slot priority index that
// resolves them.
package link

import (
	"animoverride/internal/condition"
	"animoverride/internal/predicate"
)

// IdentityLink overrides a clip for one character archetype. It always sits
// at priority 0.
type IdentityLink struct {
	Source    string `json:"source"`
	Dest      string `json:"dest"`
	Archetype uint32 `json:"archetype"`
	Package   string `json:"package"`
}

// ConditionLink overrides a clip when its chain holds. Priority is never 0.
type ConditionLink struct {
	Source   string          `json:"source"`
	Dest     string          `json:"dest"`
	Priority int32           `json:"priority"`
	Chain    condition.Chain `json:"-"`
}

type Kind uint8

const (
	KindIdentity Kind = iota + 1
	KindCondition
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "identity"
	case KindCondition:
		return "condition"
	default:
		return "unknown"
	}
}

// Data is one candidate stored in the index: either an archetype map or a
// chain with a single destination slot.
type Data struct {
	kind        Kind
	byArchetype map[uint32]int
	chain       condition.Chain
	dest        int
}

func newIdentityData() *Data {
	return &Data{kind: KindIdentity, byArchetype: make(map[uint32]int)}
}

func newConditionData(chain condition.Chain, dest int) *Data {
	return &Data{kind: KindCondition, chain: chain, dest: dest}
}

func (d *Data) Kind() Kind {
	return d.kind
}

// Chain returns the condition chain, or nil for identity data.
func (d *Data) Chain() condition.Chain {
	return d.chain
}

// Destinations returns the archetype map for identity data, or a single
// entry keyed 0 for condition data. The map must not be modified.
func (d *Data) Destinations() map[uint32]int {
	if d.kind == KindIdentity {
		return d.byArchetype
	}
	return map[uint32]int{0: d.dest}
}

// Trace is Evaluate that also reports the chain steps of condition data.
// Identity data has no steps.
func (d *Data) Trace(c predicate.Character) (int, bool, []condition.Step) {
	if d.kind != KindCondition {
		dest, ok := d.Evaluate(c)
		return dest, ok, nil
	}
	ok, steps := d.chain.Trace(c)
	if !ok {
		return 0, false, steps
	}
	return d.dest, true, steps
}

// Evaluate returns the destination slot for c, if this candidate applies.
func (d *Data) Evaluate(c predicate.Character) (int, bool) {
	switch d.kind {
	case KindIdentity:
		id, ok := c.ArchetypeID()
		if !ok {
			return 0, false
		}
		dest, ok := d.byArchetype[id]
		return dest, ok
	case KindCondition:
		if d.chain.Evaluate(c) {
			return d.dest, true
		}
	}
	return 0, false
}
