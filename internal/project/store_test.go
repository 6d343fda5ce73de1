package project

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"animoverride/internal/condition"
	"animoverride/internal/discover"
	"animoverride/internal/loadorder"
	"animoverride/internal/predicate"
)

type actor struct {
	id     uint32
	female bool
}

func (a actor) ArchetypeID() (uint32, bool) { return a.id, true }

const behaviour = `Actors\Character\DefaultMale.hkx`

var original = []string{
	`Animations\Idle.hkx`,
	`Animations\Walk.hkx`,
	`Animations\Run.hkx`,
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

type fixture struct {
	store    *Store
	dataDir  string
	logs     *bytes.Buffer
	notices  []string
	recorder *tracetest.SpanRecorder
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	dataDir := t.TempDir()
	override := filepath.Join(dataDir, "meshes", "Actors", "Character", "animations", "override")
	writeFile(t, filepath.Join(override, "Skyrim.esm", "00000007", "Idle.hkx"), "")
	writeFile(t, filepath.Join(override, discover.ConditionsDir, "10", condition.ScriptFile), "IsFemale()\n")
	writeFile(t, filepath.Join(override, discover.ConditionsDir, "10", "Walk.hkx"), "")
	writeFile(t, filepath.Join(override, discover.ConditionsDir, "-1", condition.ScriptFile), "NOT IsFemale()\n")
	writeFile(t, filepath.Join(override, discover.ConditionsDir, "-1", "Walk.hkx"), "")

	lo, err := loadorder.New([]loadorder.Entry{{Name: "Skyrim.esm"}})
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	reg := predicate.NewDefaultRegistry()
	if err := reg.Bind("IsFemale", func(c predicate.Character, _ []predicate.Arg) bool {
		return c.(actor).female
	}); err != nil {
		t.Fatalf("bind: %v", err)
	}

	f := &fixture{dataDir: dataDir, logs: &bytes.Buffer{}, recorder: tracetest.NewSpanRecorder()}
	logger := slog.New(slog.NewTextHandler(f.logs, nil))
	scanner := discover.NewScanner(condition.NewCompiler(reg, lo), lo, discover.Options{Logger: logger})
	f.store = NewStore(scanner, Options{
		DataDir:  dataDir,
		Capacity: capacity,
		Logger:   logger,
		Notifier: NotifierFunc(func(project, message string) {
			f.notices = append(f.notices, project+": "+message)
		}),
		Tracer: trace.NewTracerProvider(trace.WithSpanProcessor(f.recorder)).Tracer("test"),
	})
	return f
}

func TestRegisterCanonicalises(t *testing.T) {
	f := newFixture(t, 0)
	p, created := f.store.Register(behaviour)
	if !created {
		t.Fatalf("expected new project")
	}
	if p.Key != `actors\character\defaultmale.hkx` || p.Folder != `Actors\Character` {
		t.Fatalf("unexpected project %+v", p)
	}
	again, created := f.store.Register("actors/character/DEFAULTMALE.HKX")
	if created || again != p {
		t.Fatalf("re-registering should return the existing project")
	}
	if got := f.store.Keys(); len(got) != 1 {
		t.Fatalf("keys = %v", got)
	}
}

func TestBuildAndResolve(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()
	f.store.Register(behaviour)
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	table, err := f.store.BuildClipTable(ctx, behaviour, original, 0xBEEF)
	if err != nil {
		t.Fatalf("BuildClipTable: %v", err)
	}
	if len(table) != 16 || table[13] != original[0] || table[15] != original[2] {
		t.Fatalf("unexpected table %q", table)
	}
	if !strings.Contains(f.logs.String(), `msg="6 / 16 : actors\\character\\defaultmale.hkx"`) {
		t.Fatalf("expected size line in log:\n%s", f.logs.String())
	}

	// Idle is slot 0 originally, 13 after the shift.
	tests := []struct {
		name  string
		slot  int
		actor actor
		want  string
		ok    bool
	}{
		{"identity match", 13, actor{id: 7}, `Animations\override\Skyrim.esm\00000007\Idle.hkx`, true},
		{"identity miss", 13, actor{id: 8}, "", false},
		{"condition high priority", 14, actor{female: true}, `Animations\override\_CustomConditions\10\Walk.hkx`, true},
		{"condition low priority", 14, actor{}, `Animations\override\_CustomConditions\-1\Walk.hkx`, true},
		{"no rules", 15, actor{id: 7}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest, ok := f.store.Resolve(0xBEEF, tt.slot, tt.actor)
			if ok != tt.ok {
				t.Fatalf("Resolve ok = %v", ok)
			}
			if ok && table[dest] != tt.want {
				t.Fatalf("Resolve = %q, want %q", table[dest], tt.want)
			}
		})
	}

	again, err := f.store.BuildClipTable(ctx, behaviour, original, 0)
	if err != nil {
		t.Fatalf("second BuildClipTable: %v", err)
	}
	if &again[0] != &table[0] || len(again) != len(table) {
		t.Fatalf("second build must return the same table")
	}
	if n := len(f.recorder.Ended()); n != 2 {
		t.Fatalf("expected Load and one build span, got %d", n)
	}

	handoff, ok := f.store.TakeHandoff(behaviour)
	if !ok || &handoff[0] != &table[0] {
		t.Fatalf("expected handoff of the built table")
	}
	if _, ok := f.store.TakeHandoff(behaviour); ok {
		t.Fatalf("handoff is taken once")
	}
}

func TestReleaseHandleKeepsRules(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()
	p, _ := f.store.Register(behaviour)
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := f.store.BuildClipTable(ctx, behaviour, original, 1); err != nil {
		t.Fatalf("BuildClipTable: %v", err)
	}

	f.store.ReleaseHandle(1)
	if p.Handle() != 0 {
		t.Fatalf("handle should be cleared")
	}
	if _, ok := f.store.Resolve(1, 13, actor{id: 7}); ok {
		t.Fatalf("released handle must not resolve")
	}
	if _, ok := f.store.ResolveProject(behaviour, 13, actor{id: 7}); !ok {
		t.Fatalf("rules must survive handle release")
	}

	// A new host object for the same project rebinds without rebuilding.
	if _, err := f.store.BuildClipTable(ctx, behaviour, original, 2); err != nil {
		t.Fatalf("rebind: %v", err)
	}
	if _, ok := f.store.Resolve(2, 13, actor{id: 7}); !ok {
		t.Fatalf("expected resolve through new handle")
	}
}

func TestCapacityExceededNotifiesOnce(t *testing.T) {
	f := newFixture(t, 6)
	ctx := context.Background()
	p, _ := f.store.Register(behaviour)
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i := 0; i < 2; i++ {
		table, err := f.store.BuildClipTable(ctx, behaviour, original, 1)
		if err != nil {
			t.Fatalf("BuildClipTable: %v", err)
		}
		if len(table) != len(original) {
			t.Fatalf("expected the original table, got %d entries", len(table))
		}
	}
	if p.Index() != nil {
		t.Fatalf("no index when over capacity")
	}
	if _, ok := f.store.Resolve(1, 0, actor{id: 7}); ok {
		t.Fatalf("no overrides when over capacity")
	}
	want := []string{`actors\character\defaultmale.hkx: Too many animation files.` + "\n6 / 6\n"}
	if len(f.notices) != 1 || f.notices[0] != want[0] {
		t.Fatalf("notices = %q", f.notices)
	}
	if _, ok := f.store.TakeHandoff(behaviour); ok {
		t.Fatalf("nothing to hand off when refused")
	}
	if !strings.Contains(f.logs.String(), "over=0") {
		t.Fatalf("expected overflow amount in log:\n%s", f.logs.String())
	}
}

func TestBuildDiscoversLateRegistration(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// First-person projects are registered after the data-loaded checkpoint.
	p, _ := f.store.Register(behaviour)
	if p.Loaded() {
		t.Fatalf("project registered after Load should not be loaded yet")
	}
	table, err := f.store.BuildClipTable(ctx, behaviour, original, 1)
	if err != nil {
		t.Fatalf("BuildClipTable: %v", err)
	}
	if !p.Loaded() || len(p.Identity()) != 1 || len(p.Conditions()) != 2 {
		t.Fatalf("expected discovery on first build, got loaded=%v identity=%d conditions=%d",
			p.Loaded(), len(p.Identity()), len(p.Conditions()))
	}
	dest, ok := f.store.Resolve(1, 13, actor{id: 7})
	if !ok || table[dest] != `Animations\override\Skyrim.esm\00000007\Idle.hkx` {
		t.Fatalf("Resolve = %d %v", dest, ok)
	}

	// A later Load must not rediscover or rebuild.
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("second Load: %v", err)
	}
	again, err := f.store.BuildClipTable(ctx, behaviour, original, 1)
	if err != nil || &again[0] != &table[0] {
		t.Fatalf("expected the same table, err=%v", err)
	}
}

func TestBuildLateRegistrationCanceled(t *testing.T) {
	f := newFixture(t, 16)
	p, _ := f.store.Register(behaviour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table, err := f.store.BuildClipTable(ctx, behaviour, original, 1)
	if err == nil {
		t.Fatalf("expected error from canceled discovery")
	}
	if len(table) != len(original) || p.Built() {
		t.Fatalf("failed discovery must serve the original table and leave the project unbuilt")
	}

	if _, err := f.store.BuildClipTable(context.Background(), behaviour, original, 1); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if _, ok := f.store.Resolve(1, 13, actor{id: 7}); !ok {
		t.Fatalf("expected override after retry")
	}
}

func TestConditionCollisionLoggedOnce(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()
	dir := filepath.Join(f.dataDir, "meshes", "Actors", "Character", "animations", "override", discover.ConditionsDir, "10")
	writeFile(t, filepath.Join(dir, "WALK.HKX"), "")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 3 {
		t.Skip("filesystem is case-insensitive")
	}

	const female = `Actors\Character\DefaultFemale.hkx`
	f.store.Register(behaviour)
	f.store.Register(female)
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	for i, key := range []string{behaviour, female} {
		handle := Handle(i + 1)
		table, err := f.store.BuildClipTable(ctx, key, original, handle)
		if err != nil {
			t.Fatalf("BuildClipTable %s: %v", key, err)
		}
		p, _ := f.store.Project(key)
		res, _ := p.Remap()
		if len(res.Collisions) != 1 {
			t.Fatalf("%s: collisions = %+v", key, res.Collisions)
		}

		// WALK.HKX sorts before Walk.hkx, so it was inserted first and wins.
		dest, ok := f.store.Resolve(handle, 14, actor{female: true})
		if !ok || table[dest] != `Animations\override\_CustomConditions\10\WALK.HKX` {
			t.Fatalf("%s: Resolve = %q %v", key, table[dest], ok)
		}
	}

	if n := strings.Count(f.logs.String(), "couldn't add conditions"); n != 1 {
		t.Fatalf("collision logged %d times:\n%s", n, f.logs.String())
	}
}

func TestBuildUnknownProject(t *testing.T) {
	f := newFixture(t, 16)
	table, err := f.store.BuildClipTable(context.Background(), "nope.hkx", original, 0)
	if !errors.Is(err, ErrUnknownProject) {
		t.Fatalf("expected ErrUnknownProject, got %v", err)
	}
	if len(table) != len(original) {
		t.Fatalf("unknown project serves the original table")
	}
}

func TestEmptyOriginalIsNoop(t *testing.T) {
	f := newFixture(t, 16)
	p, _ := f.store.Register(behaviour)
	if err := f.store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	table, err := f.store.BuildClipTable(context.Background(), behaviour, nil, 0)
	if err != nil || table != nil {
		t.Fatalf("expected nil table, got %v %v", table, err)
	}
	if !p.Built() || p.Table() != nil {
		t.Fatalf("flag set, nothing installed")
	}
}

func TestConcurrentResolve(t *testing.T) {
	f := newFixture(t, 16)
	ctx := context.Background()
	f.store.Register(behaviour)
	if err := f.store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.store.Resolve(9, 13, actor{id: 7})
			}
		}()
	}
	if _, err := f.store.BuildClipTable(ctx, behaviour, original, 9); err != nil {
		t.Fatalf("BuildClipTable: %v", err)
	}
	wg.Wait()

	if _, ok := f.store.Resolve(9, 13, actor{id: 7}); !ok {
		t.Fatalf("expected override after install")
	}
}

func TestFolderOf(t *testing.T) {
	tests := map[string]string{
		`actors\character\defaultmale.hkx`: `actors\character`,
		"actors/dragon/dragon.hkx":         `actors\dragon`,
		"root.hkx":                         "",
	}
	for in, want := range tests {
		if got := FolderOf(in); got != want {
			t.Fatalf("FolderOf(%q) = %q", in, got)
		}
	}
}
