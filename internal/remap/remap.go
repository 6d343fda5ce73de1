// Package remap merges a project's original clip table with its override
// destinations into one fixed-capacity table.
package remap

import (
	"errors"
	"fmt"
	"strings"

	"animoverride/internal/fault"
	"animoverride/internal/link"
)

const (
	DefaultCapacity = 16384
	// MaxCapacity is the widest table a 16-bit clip index can address.
	MaxCapacity = 1 << 16
)

var ErrCapacity = errors.New("combined clip count exceeds capacity")

type Input struct {
	Original   []string
	Identity   []link.IdentityLink
	Conditions []link.ConditionLink
	// Capacity is the fixed table size. Zero means DefaultCapacity.
	Capacity int
}

// Assignment records where one override landed.
type Assignment struct {
	Kind         link.Kind
	Dest         int
	Slot         int
	OriginalSlot int
	Priority     int32
	Archetype    uint32
	Source       string
	Name         string
}

// Collision is a condition override dropped because its (slot, priority)
// was already taken.
type Collision struct {
	Slot     int
	Priority int32
	Source   string
	Name     string
}

type Result struct {
	// Table is the table to serve: the remapped one when Applied, else the original.
	Table       []string
	Index       *link.Index
	Applied     bool
	Original    int
	Overrides   int
	Capacity    int
	Assignments []Assignment
	Collisions  []Collision
	// Err is set when the project is over capacity and nothing was applied.
	Err error
}

// Required is the table size the overrides would need.
func (r Result) Required() int {
	return r.Original + r.Overrides
}

// Offset is how far original slots moved in the remapped table.
func (r Result) Offset() int {
	if !r.Applied {
		return 0
	}
	return r.Capacity - r.Original
}

func (r Result) Summary() string {
	return fmt.Sprintf("%d / %d", r.Required(), r.Capacity)
}

type match[T any] struct {
	slot int
	link *T
}

// Build lays out [override destinations][empty padding][original names] so
// that every original slot i moves to i + (C - N). Identity overrides come
// before condition overrides. Overrides are all-or-nothing: if they do not
// fit, the original table is served and no index is built.
func Build(in Input) Result {
	capacity := in.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	n := len(in.Original)
	res := Result{Table: in.Original, Original: n, Capacity: capacity}
	if n == 0 {
		return res
	}

	identity := matchLinks(in.Original, in.Identity, func(l *link.IdentityLink) string { return l.Source })
	conditions := matchLinks(in.Original, in.Conditions, func(l *link.ConditionLink) string { return l.Source })
	res.Overrides = len(identity) + len(conditions)

	if n >= capacity || res.Required() >= capacity {
		res.Err = &fault.Error{
			Code:    fault.CodeCapacityExceeded,
			Message: "too many animation files " + res.Summary(),
			Metadata: map[string]string{
				"required": fmt.Sprint(res.Required()),
				"capacity": fmt.Sprint(capacity),
				"over":     fmt.Sprint(res.Required() - capacity),
			},
			Cause: ErrCapacity,
		}
		return res
	}

	offset := capacity - n
	table := make([]string, capacity)
	copy(table[offset:], in.Original)
	ix := link.NewIndex()

	for i, m := range identity {
		table[i] = m.link.Dest
		ix.AddIdentity(offset+m.slot, m.link.Archetype, i)
		res.Assignments = append(res.Assignments, Assignment{
			Kind:         link.KindIdentity,
			Dest:         i,
			Slot:         offset + m.slot,
			OriginalSlot: m.slot,
			Archetype:    m.link.Archetype,
			Source:       m.link.Source,
			Name:         m.link.Dest,
		})
	}

	for j, m := range conditions {
		dest := len(identity) + j
		table[dest] = m.link.Dest
		slot := offset + m.slot
		if err := ix.AddCondition(slot, m.link.Priority, m.link.Chain, dest); err != nil {
			res.Collisions = append(res.Collisions, Collision{
				Slot:     slot,
				Priority: m.link.Priority,
				Source:   m.link.Source,
				Name:     m.link.Dest,
			})
			continue
		}
		res.Assignments = append(res.Assignments, Assignment{
			Kind:         link.KindCondition,
			Dest:         dest,
			Slot:         slot,
			OriginalSlot: m.slot,
			Priority:     m.link.Priority,
			Source:       m.link.Source,
			Name:         m.link.Dest,
		})
	}

	res.Table = table
	res.Index = ix
	res.Applied = true
	return res
}

// matchLinks pairs every original slot with the links whose source names it,
// in table order and then discovery order. Names compare case-insensitively.
func matchLinks[T any](original []string, links []T, source func(*T) string) []match[T] {
	if len(links) == 0 {
		return nil
	}
	bySource := make(map[string][]int, len(links))
	for i := range links {
		key := strings.ToLower(source(&links[i]))
		bySource[key] = append(bySource[key], i)
	}
	var out []match[T]
	for slot, name := range original {
		for _, i := range bySource[strings.ToLower(name)] {
			out = append(out, match[T]{slot: slot, link: &links[i]})
		}
	}
	return out
}
