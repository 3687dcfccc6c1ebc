// Package extension models app extensions: the static specification of each
// extension type, the typed configuration read from shopify.extension.toml,
// scaffolding of new extensions and the app-level views built from them.
package extension

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the typed configuration of one extension type.
type Config interface {
	Common() BaseConfig
	Validate() []FieldError
}

// Specification describes an extension type.
type Specification interface {
	Identifier() string
	Surface() string
	SingleEntryPath() bool
	Previewable() bool
	// Flavors lists the scaffold languages in preference order; empty when the
	// type has no source entry point.
	Flavors() []string
	// Directories are created (with a .gitkeep) when scaffolding.
	Directories() []string
	Features(cfg Config) []string
	ParseConfig(path string) (Config, error)
	Scaffold(base BaseConfig) Config
	DeployConfig(ctx context.Context, cfg Config, dir string) (map[string]any, error)
}

// Options builds a Specification for config type T.
type Options[T Config] struct {
	Identifier      string
	Surface         string
	SingleEntryPath bool
	Previewable     bool
	Flavors         []string
	Directories     []string
	Features        func(T) []string
	// Scaffold returns the config written for a freshly generated extension.
	Scaffold     func(BaseConfig) T
	DeployConfig func(ctx context.Context, cfg T, dir string) (map[string]any, error)
}

type specification[T Config] struct {
	opts Options[T]
}

// New returns a Specification whose configuration decodes into T.
func New[T Config](opts Options[T]) Specification {
	return &specification[T]{opts: opts}
}

func (s *specification[T]) Identifier() string    { return s.opts.Identifier }
func (s *specification[T]) Surface() string       { return s.opts.Surface }
func (s *specification[T]) SingleEntryPath() bool { return s.opts.SingleEntryPath }
func (s *specification[T]) Previewable() bool     { return s.opts.Previewable }
func (s *specification[T]) Flavors() []string     { return s.opts.Flavors }
func (s *specification[T]) Directories() []string { return s.opts.Directories }

func (s *specification[T]) Features(cfg Config) []string {
	typed, ok := cfg.(T)
	if !ok || s.opts.Features == nil {
		return []string{}
	}
	return s.opts.Features(typed)
}

func (s *specification[T]) ParseConfig(path string) (Config, error) {
	var cfg T
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, &ValidationError{Path: path, Identifier: s.opts.Identifier, Fields: problems}
	}
	return cfg, nil
}

func (s *specification[T]) Scaffold(base BaseConfig) Config {
	base.Type = s.opts.Identifier
	if s.opts.Scaffold == nil {
		var zero T
		return zero
	}
	return s.opts.Scaffold(base)
}

func (s *specification[T]) DeployConfig(ctx context.Context, cfg Config, dir string) (map[string]any, error) {
	typed, ok := cfg.(T)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected config type %T", s.opts.Identifier, cfg)
	}
	if s.opts.DeployConfig == nil {
		return nil, nil
	}
	return s.opts.DeployConfig(ctx, typed, dir)
}

// FieldError is one invalid configuration field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every invalid field of an extension config file.
type ValidationError struct {
	Path       string
	Identifier string
	Fields     []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return fmt.Sprintf("%s: invalid %s configuration: %s", e.Path, e.Identifier, strings.Join(parts, "; "))
}

var registry = map[string]Specification{}

func register(spec Specification) {
	registry[spec.Identifier()] = spec
}

// Lookup returns the specification registered under identifier.
func Lookup(identifier string) (Specification, bool) {
	spec, ok := registry[identifier]
	return spec, ok
}

// Identifiers lists the registered extension types in order.
func Identifiers() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
