// Package predicate holds the registry of named boolean predicates that
// condition scripts may call.
package predicate

import (
	"errors"
	"fmt"
	"sort"
)

// MaxArity is the widest argument list a float mask can describe.
const MaxArity = 32

var (
	ErrDuplicate = errors.New("predicate already registered")
	ErrNotFound  = errors.New("predicate not registered")
	ErrArity     = errors.New("predicate arity out of range")
)

// ArgKind tags the value carried by an Arg.
type ArgKind uint8

const (
	ArgRef ArgKind = iota
	ArgFloat
)

func (k ArgKind) String() string {
	if k == ArgFloat {
		return "float"
	}
	return "ref"
}

// Arg is one resolved predicate argument: either a record identifier or a float literal.
type Arg struct {
	Kind ArgKind
	Ref  uint32
	Num  float32
}

func RefArg(id uint32) Arg   { return Arg{Kind: ArgRef, Ref: id} }
func FloatArg(v float32) Arg { return Arg{Kind: ArgFloat, Num: v} }
func (a Arg) IsFloat() bool  { return a.Kind == ArgFloat }

func (a Arg) String() string {
	if a.Kind == ArgFloat {
		return fmt.Sprintf("%g", a.Num)
	}
	return fmt.Sprintf("0x%08X", a.Ref)
}

// Character is the requesting in-world actor. Predicates receive it untouched;
// the only thing the core itself asks of it is the archetype identifier.
type Character interface {
	ArchetypeID() (uint32, bool)
}

// Func is a host-owned predicate body.
type Func func(c Character, args []Arg) bool

// Signature describes a predicate without its body.
type Signature struct {
	Name      string `json:"name" yaml:"name"`
	Arity     int    `json:"arity" yaml:"arity"`
	FloatMask uint32 `json:"float_mask" yaml:"float_mask"`
}

// FloatAllowed reports whether argument i may be given as a bare number.
func (s Signature) FloatAllowed(i int) bool {
	if i < 0 || i >= MaxArity {
		return false
	}
	return s.FloatMask&(1<<uint(i)) != 0
}

// Predicate is a registered signature plus its optional body. The pointer is
// the handle compiled condition terms keep.
type Predicate struct {
	Signature
	fn Func
}

// Bound reports whether a host body has been attached.
func (p *Predicate) Bound() bool {
	return p.fn != nil
}

// Call invokes the body. An unbound predicate is false.
func (p *Predicate) Call(c Character, args []Arg) bool {
	if p.fn == nil {
		return false
	}
	return p.fn(c, args)
}

// Registry maps predicate names to handles. Names are case-sensitive.
// Registration and binding happen once at startup, before any script is
// compiled or evaluated.
type Registry struct {
	byName map[string]*Predicate
	order  []*Predicate
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Predicate)}
}

// NewDefaultRegistry returns a registry holding the built-in catalog, all unbound.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, sig := range Catalog() {
		// Catalog entries are unique and in range.
		_ = r.Register(sig)
	}
	return r
}

func (r *Registry) Register(sig Signature) error {
	if sig.Name == "" {
		return fmt.Errorf("register: empty name")
	}
	if sig.Arity < 0 || sig.Arity > MaxArity {
		return fmt.Errorf("register %s: %w", sig.Name, ErrArity)
	}
	if _, ok := r.byName[sig.Name]; ok {
		return fmt.Errorf("register %s: %w", sig.Name, ErrDuplicate)
	}
	p := &Predicate{Signature: sig}
	r.byName[sig.Name] = p
	r.order = append(r.order, p)
	return nil
}

// Bind attaches a host body to a registered predicate.
func (r *Registry) Bind(name string, fn Func) error {
	p, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("bind %s: %w", name, ErrNotFound)
	}
	p.fn = fn
	return nil
}

func (r *Registry) Lookup(name string) (*Predicate, bool) {
	p, ok := r.byName[name]
	return p, ok
}

func (r *Registry) Len() int {
	return len(r.order)
}

// Signatures returns every registered signature in registration order.
func (r *Registry) Signatures() []Signature {
	out := make([]Signature, 0, len(r.order))
	for _, p := range r.order {
		out = append(out, p.Signature)
	}
	return out
}

// Unbound lists the names of predicates with no body, sorted.
func (r *Registry) Unbound() []string {
	var names []string
	for _, p := range r.order {
		if p.fn == nil {
			names = append(names, p.Name)
		}
	}
	sort.Strings(names)
	return names
}
