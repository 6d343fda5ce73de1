package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"animoverride/internal/discover"
	"animoverride/internal/predicate"
	"animoverride/internal/remap"
)

var ErrUnknownProject = errors.New("project not registered")

// Notifier surfaces a message to the end user.
type Notifier interface {
	Notify(project, message string)
}

type NotifierFunc func(project, message string)

func (f NotifierFunc) Notify(project, message string) { f(project, message) }

type Options struct {
	DataDir     string
	Capacity    int
	Concurrency int
	Logger      *slog.Logger
	Notifier    Notifier
	Tracer      trace.Tracer
}

// Store is the process-wide set of projects. Registration, loading and clip
// table builds take the store lock; Resolve never does.
type Store struct {
	scanner  *discover.Scanner
	opts     Options
	log      *slog.Logger
	notifier Notifier
	tracer   trace.Tracer

	mu       sync.Mutex
	projects map[string]*Project
	order    []string
	handoff  map[string][]string

	byHandle        sync.Map
	collisionLogged atomic.Bool
}

func NewStore(scanner *discover.Scanner, opts Options) *Store {
	if opts.Capacity <= 0 {
		opts.Capacity = remap.DefaultCapacity
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NotifierFunc(func(project, message string) {
			logger.Error(message, "project", project)
		})
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("animoverride/internal/project")
	}
	return &Store{
		scanner:  scanner,
		opts:     opts,
		log:      logger,
		notifier: notifier,
		tracer:   tracer,
		projects: make(map[string]*Project),
		handoff:  make(map[string][]string),
	}
}

// Register adds the project for a behaviour file path. Registering the same
// path again returns the existing project and false.
func (s *Store) Register(path string) (*Project, bool) {
	key := CanonicalKey(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.projects[key]; ok {
		return p, false
	}
	folder := FolderOf(path)
	p := &Project{
		Key:    key,
		Path:   path,
		Folder: folder,
		Root:   clipsRoot(s.opts.DataDir, folder),
	}
	s.projects[key] = p
	s.order = append(s.order, key)
	return p, true
}

func (s *Store) Project(key string) (*Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[CanonicalKey(key)]
	return p, ok
}

// Projects returns every project in registration order.
func (s *Store) Projects() []*Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Project, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.projects[key])
	}
	return out
}

// Load discovers the override rules of every registered project that has
// not been loaded yet. Discovery problems are recorded per project.
func (s *Store) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "project.Load")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []*Project
	for _, key := range s.order {
		if p := s.projects[key]; !p.loaded {
			pending = append(pending, p)
		}
	}
	span.SetAttributes(attribute.Int("projects", len(pending)))

	results := make([]*discover.Result, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, p := range pending {
		g.Go(func() error {
			res, err := s.scanner.Scan(gctx, p.Key, p.Root)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", p.Key, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return err
	}

	for i, p := range pending {
		s.install(p, results[i])
	}
	return nil
}

// loadOne discovers a single project registered after Load ran.
func (s *Store) loadOne(ctx context.Context, p *Project) error {
	res, err := s.scanner.Scan(ctx, p.Key, p.Root)
	if err != nil {
		return fmt.Errorf("scanning %s: %w", p.Key, err)
	}
	s.install(p, res)
	return nil
}

func (s *Store) install(p *Project, res *discover.Result) {
	p.identity = res.Identity
	p.conditions = res.Conditions
	p.rules = res.Rules
	p.errors = res.Errors
	p.loaded = true
	s.log.Info("project loaded", "project", p.Key,
		"identity_links", len(p.identity), "condition_links", len(p.conditions), "errors", len(p.errors))
}

// BuildClipTable returns the table the host should use for the project.
// The first call builds it, discovering the project first if Load has not
// seen it; later calls return the same table. A non-zero handle is bound to
// the project so Resolve can find it. A failed discovery leaves the project
// unbuilt and serves the original table.
func (s *Store) BuildClipTable(ctx context.Context, key string, original []string, handle Handle) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[CanonicalKey(key)]
	if !ok {
		return original, fmt.Errorf("%s: %w", key, ErrUnknownProject)
	}
	if handle != 0 {
		s.bind(p, handle)
	}
	if p.built.Load() {
		if st := p.state.Load(); st != nil {
			return st.table, nil
		}
		return original, nil
	}

	ctx, span := s.tracer.Start(ctx, "project.BuildClipTable", trace.WithAttributes(
		attribute.String("project", p.Key),
		attribute.Int("original", len(original)),
	))
	defer span.End()

	if !p.loaded && len(original) > 0 {
		if err := s.loadOne(ctx, p); err != nil {
			span.RecordError(err)
			return original, err
		}
	}
	p.built.Store(true)
	if len(original) == 0 {
		span.SetAttributes(attribute.Bool("applied", false))
		return original, nil
	}

	res := remap.Build(remap.Input{
		Original:   original,
		Identity:   p.identity,
		Conditions: p.conditions,
		Capacity:   s.opts.Capacity,
	})
	span.SetAttributes(
		attribute.Int("overrides", res.Overrides),
		attribute.Bool("applied", res.Applied),
	)

	if res.Err != nil {
		span.RecordError(res.Err)
		s.log.Error("Too many animation files. "+res.Summary()+" : "+p.Key,
			"project", p.Key, "required", res.Required(), "capacity", res.Capacity,
			"over", res.Required()-res.Capacity)
		s.notifier.Notify(p.Key, fmt.Sprintf("Too many animation files.\n%d / %d\n", res.Required(), res.Capacity))
	} else {
		s.log.Info(res.Summary()+" : "+p.Key, "project", p.Key)
	}
	if len(res.Collisions) > 0 && s.collisionLogged.CompareAndSwap(false, true) {
		c := res.Collisions[0]
		s.log.Error("couldn't add conditions", "project", p.Key, "slot", c.Slot, "priority", c.Priority, "clip", c.Name)
	}

	p.state.Store(&state{table: res.Table, index: res.Index, result: res})
	if res.Applied {
		s.handoff[p.Key] = res.Table
	}
	return res.Table, nil
}

// TakeHandoff returns and forgets the freshly built table parked for key.
func (s *Store) TakeHandoff(key string) ([]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key = CanonicalKey(key)
	table, ok := s.handoff[key]
	if ok {
		delete(s.handoff, key)
	}
	return table, ok
}

func (s *Store) bind(p *Project, handle Handle) {
	if old := Handle(p.handle.Swap(uintptr(handle))); old != 0 && old != handle {
		s.byHandle.CompareAndDelete(old, p)
	}
	s.byHandle.Store(handle, p)
}

// ReleaseHandle forgets a destroyed host object. The project's rules stay.
func (s *Store) ReleaseHandle(handle Handle) {
	v, ok := s.byHandle.LoadAndDelete(handle)
	if !ok {
		return
	}
	v.(*Project).handle.CompareAndSwap(uintptr(handle), 0)
}

// Resolve returns the override slot for originalSlot in the project bound to
// handle, if any rule applies to c. It takes no locks.
func (s *Store) Resolve(handle Handle, originalSlot int, c predicate.Character) (int, bool) {
	v, ok := s.byHandle.Load(handle)
	if !ok {
		return 0, false
	}
	return v.(*Project).resolve(originalSlot, c)
}

// ResolveProject is Resolve keyed by project path instead of handle.
func (s *Store) ResolveProject(key string, originalSlot int, c predicate.Character) (int, bool) {
	p, ok := s.Project(key)
	if !ok {
		return 0, false
	}
	return p.resolve(originalSlot, c)
}

func (p *Project) resolve(slot int, c predicate.Character) (int, bool) {
	st := p.state.Load()
	if st == nil || st.index == nil {
		return 0, false
	}
	return st.index.Resolve(slot, c)
}

// Keys returns every registered key, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := append([]string(nil), s.order...)
	sort.Strings(keys)
	return keys
}
