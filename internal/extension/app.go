package extension

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// File names of the app and extension manifests.
const (
	AppConfigFile       = "shopify.app.toml"
	ExtensionConfigFile = "shopify.extension.toml"
)

// ErrNoApp is returned when a directory has no app manifest.
var ErrNoApp = errors.New("no " + AppConfigFile + " found")

// App is a loaded app directory.
type App struct {
	Name       string
	ClientID   string
	Directory  string
	Extensions []*Extension
}

// Extension is one loaded extension.
type Extension struct {
	Spec                Specification
	Config              Config
	Directory           string
	ConfigPath          string
	EntrySourceFilePath string
}

// Handle is the configured handle or, when absent, the slug of the name.
func (e *Extension) Handle() string {
	common := e.Config.Common()
	if common.Handle != "" {
		return common.Handle
	}
	return Slug(common.Name)
}

// DeployConfig renders the payload uploaded for this extension.
func (e *Extension) DeployConfig(ctx context.Context) (map[string]any, error) {
	return e.Spec.DeployConfig(ctx, e.Config, e.Directory)
}

type appConfig struct {
	Name                 string   `toml:"name"`
	ClientID             string   `toml:"client_id"`
	ExtensionDirectories []string `toml:"extension_directories"`
}

// LoadApp reads the app manifest in dir and every extension it points at.
// All extension errors are reported together.
func LoadApp(dir string) (*App, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve app directory: %w", err)
	}

	manifest := filepath.Join(absDir, AppConfigFile)
	var cfg appConfig
	meta, err := toml.DecodeFile(manifest, &cfg)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", absDir, ErrNoApp)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", manifest, err)
	}
	if !meta.IsDefined("name") || strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%s: missing name", manifest)
	}
	if len(cfg.ExtensionDirectories) == 0 {
		cfg.ExtensionDirectories = []string{"extensions/*"}
	}

	app := &App{Name: cfg.Name, ClientID: cfg.ClientID, Directory: absDir}

	var configPaths []string
	for _, pattern := range cfg.ExtensionDirectories {
		matches, err := filepath.Glob(filepath.Join(absDir, filepath.FromSlash(pattern), ExtensionConfigFile))
		if err != nil {
			return nil, fmt.Errorf("%s: bad extension_directories pattern %q: %w", manifest, pattern, err)
		}
		configPaths = append(configPaths, matches...)
	}
	sort.Strings(configPaths)

	var errs []error
	for _, path := range configPaths {
		ext, err := loadExtension(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		app.Extensions = append(app.Extensions, ext)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return app, nil
}

func loadExtension(path string) (*Extension, error) {
	var head struct {
		Type string `toml:"type"`
	}
	if _, err := toml.DecodeFile(path, &head); err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	spec, ok := Lookup(head.Type)
	if !ok {
		return nil, fmt.Errorf("%s: unknown extension type %q (expected one of %s)", path, head.Type, strings.Join(Identifiers(), ", "))
	}

	cfg, err := spec.ParseConfig(path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	return &Extension{
		Spec:                spec,
		Config:              cfg,
		Directory:           dir,
		ConfigPath:          path,
		EntrySourceFilePath: findEntrySource(dir),
	}, nil
}

// Entry file candidates, in lookup order.
var entryCandidates = []string{"index.js", "index.jsx", "index.ts", "index.tsx"}

func findEntrySource(dir string) string {
	for _, name := range entryCandidates {
		path := filepath.Join(dir, "src", name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
