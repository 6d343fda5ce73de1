package link

import (
	"errors"
	"slices"
	"sort"

	"animoverride/internal/condition"
	"animoverride/internal/predicate"
)

var (
	ErrCollision    = errors.New("priority already occupied for slot")
	ErrZeroPriority = errors.New("condition priority must not be zero")
)

// Entry is one candidate bound to a slot.
type Entry struct {
	Priority int32
	Data     *Data
}

// Index maps an original clip slot to its candidates in descending priority.
// It is built once and read concurrently afterwards without locking.
type Index struct {
	slots map[int][]Entry
}

func NewIndex() *Index {
	return &Index{slots: make(map[int][]Entry)}
}

// AddIdentity records dest for archetype at slot. The first destination for
// an archetype wins; later ones report false.
func (ix *Index) AddIdentity(slot int, archetype uint32, dest int) bool {
	entries := ix.slots[slot]
	i, found := search(entries, 0)
	if !found {
		entries = slices.Insert(entries, i, Entry{Priority: 0, Data: newIdentityData()})
		ix.slots[slot] = entries
	}
	data := entries[i].Data
	if _, exists := data.byArchetype[archetype]; exists {
		return false
	}
	data.byArchetype[archetype] = dest
	return true
}

// AddCondition binds chain at priority for slot. A second chain at the same
// (slot, priority) is dropped with ErrCollision.
func (ix *Index) AddCondition(slot int, priority int32, chain condition.Chain, dest int) error {
	if priority == 0 {
		return ErrZeroPriority
	}
	entries := ix.slots[slot]
	i, found := search(entries, priority)
	if found {
		return ErrCollision
	}
	ix.slots[slot] = slices.Insert(entries, i, Entry{Priority: priority, Data: newConditionData(chain, dest)})
	return nil
}

// Resolve walks the candidates for slot from highest priority down and
// returns the first destination that applies.
func (ix *Index) Resolve(slot int, c predicate.Character) (int, bool) {
	for _, entry := range ix.slots[slot] {
		if dest, ok := entry.Data.Evaluate(c); ok {
			return dest, true
		}
	}
	return 0, false
}

// Candidates returns the entries bound to slot. The slice must not be modified.
func (ix *Index) Candidates(slot int) []Entry {
	return ix.slots[slot]
}

// Slots returns every bound slot in ascending order.
func (ix *Index) Slots() []int {
	out := make([]int, 0, len(ix.slots))
	for slot := range ix.slots {
		out = append(out, slot)
	}
	sort.Ints(out)
	return out
}

func (ix *Index) Len() int {
	return len(ix.slots)
}

// search finds priority in descending-ordered entries.
func search(entries []Entry, priority int32) (int, bool) {
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Priority <= priority })
	return i, i < len(entries) && entries[i].Priority == priority
}
