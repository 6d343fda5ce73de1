// Package luahost runs Lua scripts that implement condition predicates and
// describe test actors. It backs the simulate command and tests; the game
// host binds native predicates instead.
//
//	predicate("IsFemale", function(actor) return actor.female end)
//	actor("lydia", { archetype = 0x000A2C94, female = true })
package luahost

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/Shopify/go-lua"

	"animoverride/internal/predicate"
)

const (
	predicatesKey = "animoverride.predicates"
	actorsKey     = "animoverride.actors"
)

// Host owns one Lua state. All calls into it are serialised.
type Host struct {
	mu         sync.Mutex
	state      *lua.State
	log        *slog.Logger
	predicates []string
	actors     map[string]*Actor
	failures   int
}

// Actor is a character defined by a script.
type Actor struct {
	Name         string
	archetype    uint32
	hasArchetype bool
	host         *Host
}

func (a *Actor) ArchetypeID() (uint32, bool) {
	return a.archetype, a.hasArchetype
}

func New(logger *slog.Logger) *Host {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Host{
		state:  lua.NewState(),
		log:    logger,
		actors: make(map[string]*Actor),
	}
	lua.OpenLibraries(h.state)

	for _, key := range []string{predicatesKey, actorsKey} {
		h.state.NewTable()
		h.state.SetField(lua.RegistryIndex, key)
	}
	h.state.Register("predicate", h.definePredicate)
	h.state.Register("actor", h.defineActor)
	return h
}

func (h *Host) LoadFile(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := lua.LoadFile(h.state, path, ""); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	if err := h.state.ProtectedCall(0, 0, 0); err != nil {
		return fmt.Errorf("running %s: %w", path, err)
	}
	return nil
}

func (h *Host) DoString(src string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := lua.DoString(h.state, src); err != nil {
		return fmt.Errorf("running script: %w", err)
	}
	return nil
}

func (h *Host) definePredicate(l *lua.State) int {
	name := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeFunction)

	l.Field(lua.RegistryIndex, predicatesKey)
	l.Field(-1, name)
	exists := !l.IsNil(-1)
	l.Pop(1)
	l.PushValue(2)
	l.SetField(-2, name)
	l.Pop(1)

	if !exists {
		h.predicates = append(h.predicates, name)
	}
	return 0
}

func (h *Host) defineActor(l *lua.State) int {
	name := lua.CheckString(l, 1)
	lua.CheckType(l, 2, lua.TypeTable)

	a := &Actor{Name: name, host: h}
	l.Field(2, "archetype")
	if id, ok := l.ToInteger(-1); ok && id >= 0 {
		a.archetype, a.hasArchetype = uint32(id), true
	}
	l.Pop(1)

	l.Field(lua.RegistryIndex, actorsKey)
	l.PushValue(2)
	l.SetField(-2, name)
	l.Pop(1)

	h.actors[name] = a
	return 0
}

// Actor returns the actor a script defined under name.
func (h *Host) Actor(name string) (*Actor, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	a, ok := h.actors[name]
	return a, ok
}

func (h *Host) Actors() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.actors))
	for name := range h.actors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Predicates returns the predicate names scripts defined, in definition order.
func (h *Host) Predicates() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.predicates...)
}

// Failures counts predicate calls that raised a Lua error.
func (h *Host) Failures() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failures
}

// Bind installs every script predicate into reg. Each name must already be
// registered with a signature.
func (h *Host) Bind(reg *predicate.Registry) error {
	for _, name := range h.Predicates() {
		if err := reg.Bind(name, h.caller(name)); err != nil {
			return fmt.Errorf("binding %s: %w", name, err)
		}
	}
	return nil
}

func (h *Host) caller(name string) predicate.Func {
	return func(c predicate.Character, args []predicate.Arg) bool {
		return h.call(name, c, args)
	}
}

func (h *Host) call(name string, c predicate.Character, args []predicate.Arg) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	l := h.state
	top := l.Top()
	defer l.SetTop(top)

	l.Field(lua.RegistryIndex, predicatesKey)
	l.Field(-1, name)
	l.Remove(-2)

	if a, ok := c.(*Actor); ok && a.host == h {
		l.Field(lua.RegistryIndex, actorsKey)
		l.Field(-1, a.Name)
		l.Remove(-2)
	} else {
		l.PushNil()
	}

	for _, arg := range args {
		if arg.IsFloat() {
			l.PushNumber(float64(arg.Num))
		} else {
			l.PushInteger(int(arg.Ref))
		}
	}

	if err := l.ProtectedCall(1+len(args), 1, 0); err != nil {
		h.failures++
		h.log.Warn("predicate failed", "predicate", name, "error", err)
		return false
	}
	return l.ToBoolean(-1)
}
