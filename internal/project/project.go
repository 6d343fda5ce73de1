// Package project owns the per-project override rules, builds each
// project's clip table once, and resolves clip requests against it.
package project

import (
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/text/cases"

	"animoverride/internal/discover"
	"animoverride/internal/link"
	"animoverride/internal/remap"
)

// Handle identifies the host's live project object. Zero means none.
type Handle uintptr

// Project is one animation-behaviour bundle. Its rule data survives the
// host object being destroyed; only the handle is cleared.
type Project struct {
	Key    string
	Path   string
	Folder string
	Root   string

	// Written once by Load before any build.
	identity   []link.IdentityLink
	conditions []link.ConditionLink
	rules      []discover.Rule
	errors     []error
	loaded     bool

	built  atomic.Bool
	handle atomic.Uintptr
	state  atomic.Pointer[state]
}

type state struct {
	table  []string
	index  *link.Index
	result remap.Result
}

// CanonicalKey case-folds a behaviour file path and normalises separators.
func CanonicalKey(path string) string {
	return cases.Fold().String(normalise(path))
}

// FolderOf returns the directory part of a behaviour file path, e.g.
// `actors\character\defaultmale.hkx` gives `actors\character`.
func FolderOf(path string) string {
	path = normalise(path)
	if i := strings.LastIndexByte(path, '\\'); i >= 0 {
		return path[:i]
	}
	return ""
}

func normalise(path string) string {
	path = strings.TrimSpace(strings.ReplaceAll(path, "/", `\`))
	return strings.Trim(path, `\`)
}

// clipsRoot is <data>/meshes/<folder>/animations.
func clipsRoot(dataDir, folder string) string {
	parts := append([]string{dataDir, "meshes"}, strings.Split(folder, `\`)...)
	return filepath.Join(append(parts, "animations")...)
}

func (p *Project) Identity() []link.IdentityLink    { return p.identity }
func (p *Project) Conditions() []link.ConditionLink { return p.conditions }
func (p *Project) Rules() []discover.Rule           { return p.rules }
func (p *Project) Errors() []error                  { return p.errors }
func (p *Project) Loaded() bool                     { return p.loaded }

// Built reports whether the clip table has been built this session.
func (p *Project) Built() bool {
	return p.built.Load()
}

func (p *Project) Handle() Handle {
	return Handle(p.handle.Load())
}

// Table returns the installed clip table, or nil before the first build.
func (p *Project) Table() []string {
	if s := p.state.Load(); s != nil {
		return s.table
	}
	return nil
}

// Index returns the installed priority index, or nil when no overrides apply.
func (p *Project) Index() *link.Index {
	if s := p.state.Load(); s != nil {
		return s.index
	}
	return nil
}

// Remap returns the result of the clip table build.
func (p *Project) Remap() (remap.Result, bool) {
	if s := p.state.Load(); s != nil {
		return s.result, true
	}
	return remap.Result{}, false
}
