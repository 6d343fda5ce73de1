// Package discover scans a project's override directory for identity and
// condition links.
package discover

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"animoverride/internal/condition"
	"animoverride/internal/fault"
	"animoverride/internal/link"
	"animoverride/internal/loadorder"
)

const (
	DefaultOverrideDir = "override"
	DefaultClipPrefix  = `Animations\`
	DefaultClipExt     = ".hkx"
	ConditionsDir      = "_CustomConditions"
)

type Options struct {
	OverrideDir string
	ClipPrefix  string
	ClipExt     string
	Logger      *slog.Logger
}

// Rule is one condition priority folder.
type Rule struct {
	Priority int32
	Dir      string
	Chain    condition.Chain
	Clips    int
	Err      error
}

type Result struct {
	Project    string
	Identity   []link.IdentityLink
	Conditions []link.ConditionLink
	Rules      []Rule
	Errors     []error
}

type Scanner struct {
	compiler *condition.Compiler
	packages loadorder.Set
	opts     Options
	log      *slog.Logger
}

func NewScanner(compiler *condition.Compiler, packages loadorder.Set, opts Options) *Scanner {
	if opts.OverrideDir == "" {
		opts.OverrideDir = DefaultOverrideDir
	}
	if opts.ClipPrefix == "" {
		opts.ClipPrefix = DefaultClipPrefix
	}
	if opts.ClipExt == "" {
		opts.ClipExt = DefaultClipExt
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{compiler: compiler, packages: packages, opts: opts, log: logger}
}

// Scan reads <clipsRoot>/<override>. Problems with individual folders are
// collected in Result.Errors and the folder is skipped; only context
// cancellation is returned as an error.
func (s *Scanner) Scan(ctx context.Context, project, clipsRoot string) (*Result, error) {
	result := &Result{Project: project}
	root := filepath.Join(clipsRoot, s.opts.OverrideDir)

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		code := fault.CodeMissingDir
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			code = fault.CodeUnreadable
		}
		s.record(result, &fault.Error{
			Code:     code,
			Message:  "override directory not found",
			Metadata: map[string]string{"path": root},
			Cause:    err,
		})
		return result, nil
	}

	if err := s.scanIdentity(ctx, result, root); err != nil {
		return nil, err
	}
	if err := s.scanConditions(ctx, result, filepath.Join(root, ConditionsDir)); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Scanner) record(result *Result, err *fault.Error) {
	result.Errors = append(result.Errors, err)
	attrs := []any{"project", result.Project, "code", string(err.Code)}
	for _, key := range []string{"path", "line", "package"} {
		if v, ok := err.Metadata[key]; ok {
			attrs = append(attrs, key, v)
		}
	}
	if err.Code.Kind() == fault.KindCompile {
		s.log.Error(err.Error(), attrs...)
		return
	}
	s.log.Warn(err.Error(), attrs...)
}

func (s *Scanner) subdirs(result *Result, dir string) []os.DirEntry {
	entries, err := os.ReadDir(dir)
	if err != nil {
		code := fault.CodeUnreadable
		if errors.Is(err, fs.ErrNotExist) {
			code = fault.CodeMissingDir
		}
		s.record(result, &fault.Error{
			Code:     code,
			Message:  "cannot list directory",
			Metadata: map[string]string{"path": dir},
			Cause:    err,
		})
		return nil
	}
	dirs := entries[:0]
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, entry)
		}
	}
	return dirs
}
