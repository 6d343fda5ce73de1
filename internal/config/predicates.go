package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"animoverride/internal/predicate"
)

// PredicateFile declares host predicates beyond the built-in catalog.
type PredicateFile struct {
	Version    int                   `yaml:"version"`
	Predicates []predicate.Signature `yaml:"predicates"`
}

func LoadPredicates(path string) (*PredicateFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading predicates: %w", err)
	}

	var file PredicateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("loading predicates: %w", err)
	}

	if err := validatePredicates(&file); err != nil {
		return nil, fmt.Errorf("loading predicates: %w", err)
	}

	return &file, nil
}

func validatePredicates(f *PredicateFile) error {
	if f.Version != 1 {
		return fmt.Errorf("unsupported version: %d", f.Version)
	}
	if len(f.Predicates) == 0 {
		return fmt.Errorf("at least one predicate is required")
	}

	names := make(map[string]struct{})
	for i, sig := range f.Predicates {
		if strings.TrimSpace(sig.Name) == "" {
			return fmt.Errorf("predicate %d name is required", i)
		}
		if strings.ContainsAny(sig.Name, "() \t") {
			return fmt.Errorf("predicate name %q contains invalid characters", sig.Name)
		}
		if _, exists := names[sig.Name]; exists {
			return fmt.Errorf("duplicate predicate name: %s", sig.Name)
		}
		names[sig.Name] = struct{}{}
		if sig.Arity < 0 || sig.Arity > predicate.MaxArity {
			return fmt.Errorf("predicate %s arity must be between 0 and %d", sig.Name, predicate.MaxArity)
		}
		if sig.Arity < predicate.MaxArity && sig.FloatMask>>uint(sig.Arity) != 0 {
			return fmt.Errorf("predicate %s float_mask has bits beyond its arity", sig.Name)
		}
	}

	return nil
}

// Registry returns the built-in catalog plus the declared predicates.
func (f *PredicateFile) Registry() (*predicate.Registry, error) {
	reg := predicate.NewDefaultRegistry()
	if f == nil {
		return reg, nil
	}
	for _, sig := range f.Predicates {
		if err := reg.Register(sig); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Registry builds the predicate registry for cfg.
func (c *Config) Registry() (*predicate.Registry, error) {
	if c.PredicatesFile == "" {
		return predicate.NewDefaultRegistry(), nil
	}
	file, err := LoadPredicates(c.PredicatesFile)
	if err != nil {
		return nil, err
	}
	return file.Registry()
}
