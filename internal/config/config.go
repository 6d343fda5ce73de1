package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"animoverride/internal/loadorder"
)

const (
	DefaultOverrideDir    = "override"
	DefaultClipPrefix     = `Animations\`
	DefaultClipExtension  = ".hkx"
	DefaultAnimationLimit = 16384
	MaxAnimationLimit     = 1 << 16
	DefaultLogLevel       = "info"
)

type Config struct {
	Version          int               `yaml:"version"`
	DataDir          string            `yaml:"data_dir"`
	OverrideDir      string            `yaml:"override_dir"`
	ClipPrefix       string            `yaml:"clip_prefix"`
	ClipExtension    string            `yaml:"clip_extension"`
	AnimationLimit   int               `yaml:"animation_limit"`
	Projects         []string          `yaml:"projects"`
	Packages         []loadorder.Entry `yaml:"packages"`
	PluginsFile      string            `yaml:"plugins_file"`
	ImplicitPackages []string          `yaml:"implicit_packages"`
	LegacyINI        string            `yaml:"legacy_ini"`
	PredicatesFile   string            `yaml:"predicates_file"`
	LogLevel         string            `yaml:"log_level"`
	Database         DatabaseConfig    `yaml:"database"`
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// Load reads the yaml config, then applies the legacy INI limit and
// environment overrides, in that order.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg.applyDefaults()
	cfg.resolvePaths(filepath.Dir(path))

	if cfg.LegacyINI != "" {
		limit, ok, err := ReadLegacyLimit(cfg.LegacyINI)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		if ok {
			cfg.AnimationLimit = limit
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.OverrideDir == "" {
		c.OverrideDir = DefaultOverrideDir
	}
	if c.ClipPrefix == "" {
		c.ClipPrefix = DefaultClipPrefix
	}
	if c.ClipExtension == "" {
		c.ClipExtension = DefaultClipExtension
	}
	if c.AnimationLimit == 0 {
		c.AnimationLimit = DefaultAnimationLimit
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

func (c *Config) resolvePaths(base string) {
	for _, p := range []*string{&c.DataDir, &c.PluginsFile, &c.LegacyINI, &c.PredicatesFile} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(base, *p)
		}
	}
}

// LoadOrder builds the active package set from plugins_file or packages.
func (c *Config) LoadOrder() (*loadorder.LoadOrder, error) {
	if c.PluginsFile != "" {
		return loadorder.ParsePluginsFile(c.PluginsFile, c.ImplicitPackages...)
	}
	return loadorder.New(c.Packages)
}

func validateConfig(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	if cfg.AnimationLimit < 1 || cfg.AnimationLimit > MaxAnimationLimit {
		return fmt.Errorf("animation_limit must be between 1 and %d, got %d", MaxAnimationLimit, cfg.AnimationLimit)
	}
	if !strings.HasPrefix(cfg.ClipExtension, ".") {
		return fmt.Errorf("clip_extension must start with '.': %q", cfg.ClipExtension)
	}
	if cfg.PluginsFile != "" && len(cfg.Packages) > 0 {
		return fmt.Errorf("packages and plugins_file are mutually exclusive")
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for i, project := range cfg.Projects {
		if strings.TrimSpace(project) == "" {
			return fmt.Errorf("project %d path is required", i)
		}
		key := strings.ToLower(strings.ReplaceAll(project, "/", `\`))
		if _, exists := seen[key]; exists {
			return fmt.Errorf("duplicate project: %s", project)
		}
		seen[key] = struct{}{}
	}

	for i, pkg := range cfg.Packages {
		if strings.TrimSpace(pkg.Name) == "" {
			return fmt.Errorf("package %d name is required", i)
		}
		if !loadorder.HasPackageExt(pkg.Name) {
			return fmt.Errorf("package %s must end in .esp, .esm or .esl", pkg.Name)
		}
	}

	return nil
}
