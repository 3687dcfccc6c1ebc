package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dkoosis/shopkit/pkg/offense"
	"github.com/dkoosis/shopkit/pkg/render"
)

// Flags holds command-line values. The *Set fields record whether the user
// passed the flag explicitly.
type Flags struct {
	ConfigPath string

	Theme   string
	NoColor bool
	Debug   bool

	FailLevel string
	Output    string
	Store     string

	ThemeSet     bool
	NoColorSet   bool
	DebugSet     bool
	FailLevelSet bool
	OutputSet    bool
	StoreSet     bool
}

// Resolved is the validated configuration a command runs with.
type Resolved struct {
	Theme     string
	NoColor   bool
	Debug     bool
	Telemetry bool
	Store     string
	FailLevel offense.FailLevel
	Output    string
	DevHost   string
	DevPort   int

	// ConfigFile is the YAML file that was read, if any.
	ConfigFile string

	// Resolution metadata (for debugging)
	ThemeSource   string // "cli", "env", "file", "default"
	NoColorSource string
}

// Error lists every invalid configuration value.
type Error struct {
	Problems []string
}

func (e *Error) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Output formats accepted by theme check.
var validOutputs = map[string]bool{"text": true, "json": true, "sarif": true}

// Resolve loads the config file and applies environment variables and flags on
// top, then validates the result.
func Resolve(flags Flags) (*Resolved, error) {
	appCfg, path, err := Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	r := &Resolved{
		Theme:         appCfg.Theme,
		NoColor:       appCfg.NoColor,
		Debug:         appCfg.Debug,
		Telemetry:     appCfg.Telemetry,
		Store:         appCfg.Store,
		Output:        appCfg.ThemeCheck.Output,
		DevHost:       appCfg.Dev.Host,
		DevPort:       appCfg.Dev.Port,
		ConfigFile:    path,
		ThemeSource:   "default",
		NoColorSource: "default",
	}
	if path != "" {
		r.ThemeSource = "file"
		r.NoColorSource = "file"
	}
	failLevel := appCfg.ThemeCheck.FailLevel

	// Theme: CLI > ENV > file > default
	if flags.ThemeSet {
		r.Theme, r.ThemeSource = flags.Theme, "cli"
	} else if env := os.Getenv("SHOPKIT_THEME"); env != "" {
		r.Theme, r.ThemeSource = env, "env"
	}

	// NoColor: CLI > ENV > file > default
	if flags.NoColorSet {
		r.NoColor, r.NoColorSource = flags.NoColor, "cli"
	} else if env := getEnvBool("SHOPKIT_NO_COLOR"); env != nil {
		r.NoColor, r.NoColorSource = *env, "env"
	} else if os.Getenv("NO_COLOR") != "" {
		r.NoColor, r.NoColorSource = true, "env"
	}

	// Debug: CLI > ENV > file > default
	if flags.DebugSet {
		r.Debug = flags.Debug
	} else if env := getEnvBool("SHOPKIT_DEBUG"); env != nil {
		r.Debug = *env
	}

	if env := getEnvBool("SHOPKIT_TELEMETRY"); env != nil {
		r.Telemetry = *env
	}

	if flags.StoreSet {
		r.Store = flags.Store
	} else if env := os.Getenv("SHOPKIT_STORE"); env != "" {
		r.Store = env
	}

	if flags.FailLevelSet {
		failLevel = flags.FailLevel
	}
	if flags.OutputSet {
		r.Output = flags.Output
	}

	var problems []string
	if !render.IsThemeName(r.Theme) {
		problems = append(problems, fmt.Sprintf("theme %q (%s) is not one of default, dark, mono", r.Theme, r.ThemeSource))
	}
	if lvl, err := offense.ParseFailLevel(failLevel); err != nil {
		problems = append(problems, err.Error())
	} else {
		r.FailLevel = lvl
	}
	if !validOutputs[r.Output] {
		problems = append(problems, fmt.Sprintf("output %q is not one of text, json, sarif", r.Output))
	}
	if r.DevPort < 0 || r.DevPort > 65535 {
		problems = append(problems, fmt.Sprintf("dev port %d is out of range", r.DevPort))
	}
	if len(problems) > 0 {
		return nil, &Error{Problems: problems}
	}

	if r.NoColor {
		r.Theme = "mono"
	}
	return r, nil
}

// getEnvBool reads a boolean from environment variables, trying multiple keys.
// Returns nil if none are set, or a pointer to the boolean value.
func getEnvBool(keys ...string) *bool {
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				return &b
			}
		}
	}
	return nil
}
