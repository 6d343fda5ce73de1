package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"animoverride/internal/condition"
	"animoverride/internal/discover"
	"animoverride/internal/loadorder"
	"animoverride/internal/predicate"
	"animoverride/internal/project"
	"animoverride/internal/validate"
)

func TestInputs(t *testing.T) {
	dataDir := t.TempDir()
	override := filepath.Join(dataDir, "meshes", "actors", "character", "animations", "override")
	for path, contents := range map[string]string{
		filepath.Join(override, "Skyrim.esm", "00000007", "idle.hkx"):              "",
		filepath.Join(override, discover.ConditionsDir, "3", condition.ScriptFile): "IsFemale()\n",
		filepath.Join(override, discover.ConditionsDir, "3", "walk.hkx"):           "",
		filepath.Join(override, discover.ConditionsDir, "4", condition.ScriptFile): "Nope()\n",
	} {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	lo, err := loadorder.New([]loadorder.Entry{{Name: "Skyrim.esm"}})
	if err != nil {
		t.Fatalf("load order: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	scanner := discover.NewScanner(condition.NewCompiler(predicate.NewDefaultRegistry(), lo), lo, discover.Options{Logger: logger})
	projects := project.NewStore(scanner, project.Options{DataDir: dataDir, Logger: logger})
	projects.Register(`actors\character\defaultmale.hkx`)
	if err := projects.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := projects.BuildClipTable(context.Background(), `actors\character\defaultmale.hkx`,
		[]string{`Animations\idle.hkx`, `Animations\walk.hkx`}, 0); err != nil {
		t.Fatalf("build: %v", err)
	}

	report, err := validate.Run(context.Background(), projects, validate.Options{})
	if err != nil {
		t.Fatalf("lint: %v", err)
	}

	inputs := Inputs(projects.Projects(), report)
	if len(inputs) != 1 {
		t.Fatalf("expected 1 input, got %d", len(inputs))
	}
	in := inputs[0]
	if len(in.Links) != 2 || in.Links[0].Kind != KindIdentity || in.Links[1].Kind != KindCondition {
		t.Fatalf("unexpected links %+v", in.Links)
	}
	if in.Links[1].Conditions != "IsFemale() AND" || in.Links[1].Priority != 3 {
		t.Fatalf("unexpected condition link %+v", in.Links[1])
	}
	if len(in.Issues) != 1 || in.Issues[0].Code != "compile.unknown_predicate" {
		t.Fatalf("unexpected issues %+v", in.Issues)
	}
	if !in.Applied || in.Summary != "4 / 16384" {
		t.Fatalf("unexpected remap fields %+v", in)
	}
	if in.Hash == "" || in.Hash != Inputs(projects.Projects(), report)[0].Hash {
		t.Fatalf("hash should be stable, got %q", in.Hash)
	}
	if Inputs(projects.Projects(), nil)[0].Hash == in.Hash {
		t.Fatalf("hash should change with the issues")
	}
}
