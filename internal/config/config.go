package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the name of the YAML config file.
const FileName = ".shopkit.yaml"

// AppConfig mirrors .shopkit.yaml.
type AppConfig struct {
	Theme      string           `yaml:"theme,omitempty"`
	NoColor    bool             `yaml:"no_color"`
	Debug      bool             `yaml:"debug"`
	Telemetry  bool             `yaml:"telemetry"`
	Store      string           `yaml:"store,omitempty"`
	ThemeCheck ThemeCheckConfig `yaml:"theme_check"`
	Dev        DevConfig        `yaml:"dev"`
}

// ThemeCheckConfig holds defaults for `shopkit theme check`.
type ThemeCheckConfig struct {
	FailLevel string `yaml:"fail_level,omitempty"`
	Output    string `yaml:"output,omitempty"`
}

// DevConfig holds defaults for `shopkit theme dev`.
type DevConfig struct {
	Host string `yaml:"host,omitempty"`
	Port int    `yaml:"port,omitempty"`
}

// Constants for default values.
const (
	DefaultTheme     = "default"
	DefaultFailLevel = "error"
	DefaultOutput    = "text"
	DefaultDevHost   = "127.0.0.1"
	DefaultDevPort   = 9292
)

// Defaults returns the hardcoded configuration.
func Defaults() *AppConfig {
	return &AppConfig{
		Theme: DefaultTheme,
		ThemeCheck: ThemeCheckConfig{
			FailLevel: DefaultFailLevel,
			Output:    DefaultOutput,
		},
		Dev: DevConfig{
			Host: DefaultDevHost,
			Port: DefaultDevPort,
		},
	}
}

// Load reads the config file at path, or the discovered config file when path
// is empty, merged over the defaults. It returns the path actually read ("" if
// none). A missing explicit path is an error; a missing discovered file is not.
func Load(path string) (*AppConfig, string, error) {
	cfg := Defaults()

	explicit := path != ""
	if !explicit {
		path = getConfigPath()
		if path == "" {
			return cfg, "", nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, "", nil
		}
		return nil, "", fmt.Errorf("read config %s: %w", path, err)
	}

	var fileCfg AppConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, "", fmt.Errorf("parse config %s: %w", path, err)
	}
	merge(cfg, &fileCfg)
	return cfg, path, nil
}

// merge copies the values set in file onto cfg.
func merge(cfg, file *AppConfig) {
	if file.Theme != "" {
		cfg.Theme = file.Theme
	}
	cfg.NoColor = file.NoColor
	cfg.Debug = file.Debug
	cfg.Telemetry = file.Telemetry
	if file.Store != "" {
		cfg.Store = file.Store
	}
	if file.ThemeCheck.FailLevel != "" {
		cfg.ThemeCheck.FailLevel = file.ThemeCheck.FailLevel
	}
	if file.ThemeCheck.Output != "" {
		cfg.ThemeCheck.Output = file.ThemeCheck.Output
	}
	if file.Dev.Host != "" {
		cfg.Dev.Host = file.Dev.Host
	}
	if file.Dev.Port != 0 {
		cfg.Dev.Port = file.Dev.Port
	}
}

// getConfigPath finds .shopkit.yaml, checking the working directory first and
// then the user config directory.
func getConfigPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}

	configHome, err := os.UserConfigDir()
	if err != nil || configHome == "" || configHome == "/" {
		return ""
	}
	xdgPath := filepath.Join(configHome, "shopkit", FileName)
	if _, err := os.Stat(xdgPath); err == nil {
		return xdgPath
	}
	return ""
}
