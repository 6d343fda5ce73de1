// Package loadorder models the set of active data packages and the record
// identifier space each one owns.
package loadorder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"golang.org/x/text/cases"
)

const (
	// LightSlot is the full-package index shared by all light packages.
	LightSlot = 0xFE
	// MaxFull is the number of full-package indices below LightSlot.
	MaxFull = LightSlot
	// MaxLight is the number of light packages that fit in LightSlot.
	MaxLight = 0x1000

	// MaxLocalID bounds the package-local part of an identifier in a full package.
	MaxLocalID = 0xFFFFFF
	// MaxLightLocalID bounds the package-local part of an identifier in a light package.
	MaxLightLocalID = 0xFFF
)

var (
	ErrTooManyPackages = errors.New("too many packages")
	ErrDuplicate       = errors.New("duplicate package")
	ErrExtension       = errors.New("unrecognised package extension")
)

var extensions = []string{".esp", ".esm", ".esl"}

// HasPackageExt reports whether name ends in a recognised data-package extension.
func HasPackageExt(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Package is one active data package.
type Package struct {
	Name       string `json:"name"`
	Index      uint8  `json:"index"`
	LightIndex uint16 `json:"light_index"`
	Light      bool   `json:"light"`
}

// Base is the identifier prefix every record in the package carries.
func (p Package) Base() uint32 {
	return uint32(p.Index)<<24 + uint32(p.LightIndex)<<12
}

// MaxLocal is the largest package-local identifier the package can address.
func (p Package) MaxLocal() uint32 {
	if p.Light {
		return MaxLightLocalID
	}
	return MaxLocalID
}

// Resolve combines a package-local identifier with the package base.
func (p Package) Resolve(local uint32) (uint32, bool) {
	if local > p.MaxLocal() {
		return 0, false
	}
	return p.Base() + local, true
}

// Set looks up active packages by name.
type Set interface {
	Lookup(name string) (Package, bool)
}

// Entry declares a package before indices are assigned.
type Entry struct {
	Name  string `yaml:"name"`
	Light bool   `yaml:"light"`
}

// LoadOrder is an ordered, case-insensitive package set.
type LoadOrder struct {
	packages []Package
	byName   map[string]int
}

// New assigns indices in declaration order. Full packages take 0x00..0xFD,
// light packages share 0xFE and take light indices 0x000..0xFFF.
func New(entries []Entry) (*LoadOrder, error) {
	lo := &LoadOrder{
		byName: make(map[string]int, len(entries)),
	}
	var full, light int
	for _, entry := range entries {
		name := strings.TrimSpace(entry.Name)
		if !HasPackageExt(name) {
			return nil, fmt.Errorf("%s: %w", name, ErrExtension)
		}
		key := FoldName(name)
		if _, ok := lo.byName[key]; ok {
			return nil, fmt.Errorf("%s: %w", name, ErrDuplicate)
		}
		pkg := Package{Name: name, Light: entry.Light}
		if entry.Light {
			if light >= MaxLight {
				return nil, fmt.Errorf("light package %s: %w", name, ErrTooManyPackages)
			}
			pkg.Index = LightSlot
			pkg.LightIndex = uint16(light)
			light++
		} else {
			if full >= MaxFull {
				return nil, fmt.Errorf("package %s: %w", name, ErrTooManyPackages)
			}
			pkg.Index = uint8(full)
			full++
		}
		lo.byName[key] = len(lo.packages)
		lo.packages = append(lo.packages, pkg)
	}
	return lo, nil
}

func (lo *LoadOrder) Lookup(name string) (Package, bool) {
	i, ok := lo.byName[FoldName(strings.TrimSpace(name))]
	if !ok {
		return Package{}, false
	}
	return lo.packages[i], true
}

func (lo *LoadOrder) Packages() []Package {
	out := make([]Package, len(lo.packages))
	copy(out, lo.packages)
	return out
}

func (lo *LoadOrder) Len() int {
	return len(lo.packages)
}

// ParsePlugins reads a plugins.txt style list. Lines starting with '#' are
// comments, only lines marked active with a leading '*' are loaded, and
// ".esl" files are light. Packages in implicit are loaded first.
func ParsePlugins(r io.Reader, implicit ...string) (*LoadOrder, error) {
	var entries []Entry
	for _, name := range implicit {
		entries = append(entries, Entry{Name: name, Light: isLightName(name)})
	}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !strings.HasPrefix(line, "*") {
			continue
		}
		name := strings.TrimSpace(line[1:])
		entries = append(entries, Entry{Name: name, Light: isLightName(name)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading plugins: %w", err)
	}
	return New(entries)
}

func ParsePluginsFile(filename string, implicit ...string) (*LoadOrder, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePlugins(f, implicit...)
}

// FoldName case-folds a package name for comparison. A Caser is stateful,
// so each call gets its own.
func FoldName(name string) string {
	return cases.Fold().String(name)
}

func isLightName(name string) bool {
	return strings.EqualFold(path.Ext(name), ".esl")
}
