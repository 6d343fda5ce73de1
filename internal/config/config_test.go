package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const minimalConfig = "version: 1\ndata_dir: ./Data\n"

func TestLoad(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		path := writeTempConfig(t, minimalConfig)
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.AnimationLimit != DefaultAnimationLimit || cfg.OverrideDir != "override" || cfg.ClipExtension != ".hkx" {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		if cfg.ClipPrefix != `Animations\` || cfg.LogLevel != "info" {
			t.Fatalf("unexpected defaults %+v", cfg)
		}
		if cfg.DataDir != filepath.Join(filepath.Dir(path), "Data") {
			t.Fatalf("data_dir should resolve against the config dir, got %q", cfg.DataDir)
		}
	})

	t.Run("full config", func(t *testing.T) {
		path := writeTempConfig(t, strings.Join([]string{
			"version: 1",
			"data_dir: /games/skyrim/Data",
			"override_dir: DynamicAnimationReplacer",
			"animation_limit: 20000",
			"projects:",
			`  - actors\character\defaultmale.hkx`,
			"packages:",
			"  - name: Skyrim.esm",
			"  - name: Tiny.esl",
			"    light: true",
			"database:",
			"  dsn: sqlite://report.db",
		}, "\n"))
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.DataDir != "/games/skyrim/Data" || cfg.AnimationLimit != 20000 || cfg.OverrideDir != "DynamicAnimationReplacer" {
			t.Fatalf("unexpected config %+v", cfg)
		}
		lo, err := cfg.LoadOrder()
		if err != nil {
			t.Fatalf("LoadOrder: %v", err)
		}
		if pkg, ok := lo.Lookup("tiny.esl"); !ok || !pkg.Light {
			t.Fatalf("expected light package, got %+v", pkg)
		}
		if cfg.Database.DSN != "sqlite://report.db" {
			t.Fatalf("dsn = %q", cfg.Database.DSN)
		}
	})

	invalid := map[string]string{
		"missing data dir":     "version: 1\n",
		"bad version":          "version: 2\ndata_dir: x\n",
		"limit too large":      "version: 1\ndata_dir: x\nanimation_limit: 70000\n",
		"limit negative":       "version: 1\ndata_dir: x\nanimation_limit: -1\n",
		"bad extension":        "version: 1\ndata_dir: x\nclip_extension: hkx\n",
		"bad log level":        "version: 1\ndata_dir: x\nlog_level: loud\n",
		"duplicate project":    "version: 1\ndata_dir: x\nprojects: ['a\\b.hkx', 'A/B.hkx']\n",
		"empty project":        "version: 1\ndata_dir: x\nprojects: ['']\n",
		"bad package":          "version: 1\ndata_dir: x\npackages:\n  - name: readme.txt\n",
		"packages and plugins": "version: 1\ndata_dir: x\nplugins_file: plugins.txt\npackages:\n  - name: A.esp\n",
		"invalid yaml":         "version: [\n",
	}
	for name, contents := range invalid {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeTempConfig(t, contents)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}

	t.Run("file not found", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "legacy.ini"), "[Main]\nAnimationLimit=30000\n")
	path := filepath.Join(dir, "animoverride.yaml")
	writeFile(t, path, "version: 1\ndata_dir: x\nanimation_limit: 20000\nlegacy_ini: legacy.ini\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnimationLimit != 30000 {
		t.Fatalf("ini should override yaml, got %d", cfg.AnimationLimit)
	}

	t.Setenv("ANIMOVERRIDE_ANIMATION_LIMIT", "40000")
	t.Setenv("ANIMOVERRIDE_LOG_LEVEL", "debug")
	t.Setenv("ANIMOVERRIDE_DATA_DIR", "/elsewhere")
	t.Setenv("ANIMOVERRIDE_DATABASE_DSN", "postgres://localhost/anim")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnimationLimit != 40000 || cfg.LogLevel != "debug" || cfg.DataDir != "/elsewhere" || cfg.Database.DSN != "postgres://localhost/anim" {
		t.Fatalf("env should override ini, got %+v", cfg)
	}

	t.Setenv("ANIMOVERRIDE_ANIMATION_LIMIT", "lots")
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}
}

func TestReadLegacyLimit(t *testing.T) {
	tests := []struct {
		name     string
		contents string
		want     int
		ok       bool
	}{
		{"decimal", "[Main]\nAnimationLimit=20000\n", 20000, true},
		{"hex", "[Main]\nAnimationLimit = 0x8000\n", 0x8000, true},
		{"lowercase section", "[main]\nAnimationLimit=100\n", 100, true},
		{"negative ignored", "[Main]\nAnimationLimit=-5\n", 0, false},
		{"garbage ignored", "[Main]\nAnimationLimit=many\n", 0, false},
		{"missing key", "[Main]\nOther=1\n", 0, false},
		{"missing section", "[Other]\nAnimationLimit=1\n", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "DynamicAnimationReplacer.ini")
			writeFile(t, path, tt.contents)
			got, ok, err := ReadLegacyLimit(path)
			if err != nil {
				t.Fatalf("ReadLegacyLimit: %v", err)
			}
			if got != tt.want || ok != tt.ok {
				t.Fatalf("got %d %v, want %d %v", got, ok, tt.want, tt.ok)
			}
		})
	}

	if _, _, err := ReadLegacyLimit(filepath.Join(t.TempDir(), "missing.ini")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestParseLogLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"debug": slog.LevelDebug, "INFO": slog.LevelInfo, "warn": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLogLevel(%q) = %v %v", in, got, err)
		}
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, contents)
	return path
}

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
}
