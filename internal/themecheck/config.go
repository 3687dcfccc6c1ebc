package themecheck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/shopkit/pkg/offense"
)

// ConfigFileName is the per-theme check configuration file.
const ConfigFileName = ".theme-check.yml"

// CheckConfig overrides one check. A nil Enabled keeps the check's default.
type CheckConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`
}

// Config mirrors .theme-check.yml. Check overrides sit at the top level keyed
// by check name.
type Config struct {
	Extends string                 `yaml:"extends,omitempty"`
	Root    string                 `yaml:"root,omitempty"`
	Ignore  []string               `yaml:"ignore,omitempty"`
	Checks  map[string]CheckConfig `yaml:",inline"`
}

// Presets accepted by extends.
const (
	ExtendsRecommended = "theme-check:recommended"
	ExtendsAll         = "theme-check:all"
	ExtendsNothing     = "theme-check:nothing"
)

// ConfigError lists every invalid entry of a config file.
type ConfigError struct {
	Path     string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// DefaultConfig enables every check at its default severity.
func DefaultConfig() *Config {
	return &Config{Checks: map[string]CheckConfig{}}
}

// LoadConfig reads <root>/.theme-check.yml, falling back to DefaultConfig
// when the file does not exist.
func LoadConfig(root string) (*Config, error) {
	path := filepath.Join(root, ConfigFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseConfig(path, data)
}

// ParseConfig decodes and validates config data read from path.
func ParseConfig(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Checks == nil {
		cfg.Checks = map[string]CheckConfig{}
	}
	if err := cfg.validate(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate(path string) error {
	var problems []string

	names := make([]string, 0, len(c.Checks))
	for name := range c.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, ok := checkByName(name); !ok {
			problems = append(problems, fmt.Sprintf("unknown check %q", name))
			continue
		}
		if sev := c.Checks[name].Severity; sev != "" {
			if _, err := offense.ParseSeverity(sev); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", name, err))
			}
		}
	}
	switch c.Extends {
	case "", ExtendsRecommended, ExtendsAll, ExtendsNothing:
	default:
		problems = append(problems, fmt.Sprintf("extends %q: expected %s, %s or %s", c.Extends, ExtendsRecommended, ExtendsAll, ExtendsNothing))
	}
	for _, pattern := range c.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			problems = append(problems, fmt.Sprintf("ignore pattern %q: %v", pattern, doublestar.ErrBadPattern))
		}
	}

	if len(problems) > 0 {
		return &ConfigError{Path: path, Problems: problems}
	}
	return nil
}

// enabled reports whether the named check runs and at which severity.
// Extending theme-check:nothing turns off every check not enabled explicitly.
func (c *Config) enabled(ch Check) (bool, offense.Severity) {
	byDefault := c.Extends != ExtendsNothing
	override, ok := c.Checks[ch.Name()]
	if !ok {
		return byDefault, ch.Severity()
	}
	sev := ch.Severity()
	if override.Severity != "" {
		// validated at load
		sev, _ = offense.ParseSeverity(override.Severity)
	}
	if override.Enabled == nil {
		return byDefault, sev
	}
	return *override.Enabled, sev
}

// Effective returns a copy of c with every known check listed at its
// resolved enabled state and severity.
func (c *Config) Effective() *Config {
	out := &Config{
		Extends: c.Extends,
		Root:    c.Root,
		Ignore:  append([]string(nil), c.Ignore...),
		Checks:  make(map[string]CheckConfig, len(allChecks())),
	}
	for _, ch := range allChecks() {
		on, sev := c.enabled(ch)
		out.Checks[ch.Name()] = CheckConfig{Enabled: &on, Severity: sev.String()}
	}
	return out
}

// ignored reports whether the slash-separated relative path matches an
// ignore pattern. Patterns use doublestar syntax, so "**" spans directories
// at any position.
func (c *Config) ignored(rel string) bool {
	for _, pattern := range c.Ignore {
		if matchGlob(pattern, rel) {
			return true
		}
	}
	return false
}

func matchGlob(pattern, rel string) bool {
	ok, _ := doublestar.Match(pattern, rel)
	return ok
}

const defaultConfigTemplate = `# Theme check configuration.
# Every check runs at its default severity unless overridden below.
extends: theme-check:recommended
root: .
ignore:
  - node_modules/**
%s`

func defaultConfigBody() string {
	var b strings.Builder
	for _, ch := range allChecks() {
		fmt.Fprintf(&b, "%s:\n  enabled: true\n  severity: %s\n", ch.Name(), ch.Severity())
	}
	return fmt.Sprintf(defaultConfigTemplate, b.String())
}

// InitResult describes what InitConfig did.
type InitResult struct {
	Root    string
	Path    string
	Created bool
}

// Message is the user-facing outcome.
func (r InitResult) Message() string {
	if r.Created {
		return fmt.Sprintf("Created %s at %s", ConfigFileName, r.Root)
	}
	return fmt.Sprintf("%s already exists at %s", ConfigFileName, r.Root)
}

// InitConfig writes the default .theme-check.yml into root unless one exists.
func InitConfig(root string) (InitResult, error) {
	path := filepath.Join(root, ConfigFileName)
	res := InitResult{Root: root, Path: path}

	if _, err := os.Stat(path); err == nil {
		return res, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return res, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigBody()), 0o644); err != nil {
		return res, fmt.Errorf("write %s: %w", path, err)
	}
	res.Created = true
	return res, nil
}
