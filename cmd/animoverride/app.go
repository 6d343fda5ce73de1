package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"animoverride/internal/condition"
	"animoverride/internal/config"
	"animoverride/internal/discover"
	"animoverride/internal/luahost"
	"animoverride/internal/predicate"
	"animoverride/internal/project"
)

type app struct {
	cfg      *config.Config
	log      *slog.Logger
	registry *predicate.Registry
	compiler *condition.Compiler
	projects *project.Store
}

type setupOptions struct {
	// Extra project paths registered on top of the configured ones.
	projects []string
	// Lua script whose predicates are bound before discovery.
	script string
	host   *luahost.Host
}

func setup(ctx context.Context, opts setupOptions) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	registry, err := cfg.Registry()
	if err != nil {
		return nil, err
	}
	if opts.script != "" {
		if err := opts.host.LoadFile(opts.script); err != nil {
			return nil, err
		}
		if err := opts.host.Bind(registry); err != nil {
			return nil, err
		}
	}

	packages, err := cfg.LoadOrder()
	if err != nil {
		return nil, err
	}
	compiler := condition.NewCompiler(registry, packages)
	scanner := discover.NewScanner(compiler, packages, discover.Options{
		OverrideDir: cfg.OverrideDir,
		ClipPrefix:  cfg.ClipPrefix,
		ClipExt:     cfg.ClipExtension,
		Logger:      logger,
	})
	store := project.NewStore(scanner, project.Options{
		DataDir:  cfg.DataDir,
		Capacity: cfg.AnimationLimit,
		Logger:   logger,
	})

	for _, path := range append(append([]string(nil), cfg.Projects...), opts.projects...) {
		store.Register(path)
	}
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	return &app{
		cfg:      cfg,
		log:      logger,
		registry: registry,
		compiler: compiler,
		projects: store,
	}, nil
}

func newLogger(level string) (*slog.Logger, error) {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

// readClipList reads one clip name per line, in table order.
func readClipList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading clip list: %w", err)
	}
	defer f.Close()

	var clips []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		clips = append(clips, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading clip list: %w", err)
	}
	return clips, nil
}
