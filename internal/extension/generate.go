package extension

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

var (
	ErrUnknownTemplate = errors.New("unknown extension template")
	ErrUnknownFlavor   = errors.New("unsupported flavor")
	ErrExtensionExists = errors.New("extension already exists")
)

// GenerateOptions describes a new extension.
type GenerateOptions struct {
	Name     string
	Template string
	Flavor   string
	// Directory is the app directory.
	Directory string
}

// Generated reports what Generate created.
type Generated struct {
	Handle              string
	Directory           string
	EntrySourceFilePath string
}

// Generate scaffolds a new extension inside an existing app.
func Generate(opts GenerateOptions) (Generated, error) {
	var gen Generated

	spec, ok := Lookup(opts.Template)
	if !ok {
		return gen, fmt.Errorf("%w %q (expected one of %s)", ErrUnknownTemplate, opts.Template, strings.Join(Identifiers(), ", "))
	}

	flavor, err := resolveFlavor(spec, opts.Flavor)
	if err != nil {
		return gen, err
	}

	appDir, err := filepath.Abs(opts.Directory)
	if err != nil {
		return gen, fmt.Errorf("resolve app directory: %w", err)
	}
	if _, err := os.Stat(filepath.Join(appDir, AppConfigFile)); err != nil {
		return gen, fmt.Errorf("%s: %w", appDir, ErrNoApp)
	}

	handle := Slug(opts.Name)
	if handle == "" {
		return gen, fmt.Errorf("extension name %q has no usable characters", opts.Name)
	}
	gen.Handle = handle
	gen.Directory = filepath.Join(appDir, "extensions", handle)
	if _, err := os.Stat(gen.Directory); err == nil {
		return gen, fmt.Errorf("%s: %w", gen.Directory, ErrExtensionExists)
	}

	base := BaseConfig{
		Name:   opts.Name,
		Handle: handle,
		UID:    uuid.NewString(),
	}
	if flavor != "" {
		gen.EntrySourceFilePath = filepath.Join(gen.Directory, "src", "index."+FlavorExtension(flavor))
		base.Targeting = []Target{{Module: "./src/index." + FlavorExtension(flavor)}}
	}
	cfg := spec.Scaffold(base)

	if err := writeScaffold(spec, cfg, gen, flavor); err != nil {
		_ = os.RemoveAll(gen.Directory)
		return gen, err
	}
	return gen, nil
}

func resolveFlavor(spec Specification, flavor string) (string, error) {
	flavors := spec.Flavors()
	if len(flavors) == 0 {
		if flavor != "" {
			return "", fmt.Errorf("%w %q: %s extensions have no flavors", ErrUnknownFlavor, flavor, spec.Identifier())
		}
		return "", nil
	}
	if flavor == "" {
		return flavors[0], nil
	}
	if !slices.Contains(flavors, flavor) {
		return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownFlavor, flavor, strings.Join(flavors, ", "))
	}
	return flavor, nil
}

func writeScaffold(spec Specification, cfg Config, gen Generated, flavor string) error {
	if err := os.MkdirAll(gen.Directory, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", gen.Directory, err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("encode %s: %w", ExtensionConfigFile, err)
	}
	configPath := filepath.Join(gen.Directory, ExtensionConfigFile)
	if err := os.WriteFile(configPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	for _, sub := range spec.Directories() {
		dir := filepath.Join(gen.Directory, sub)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, ".gitkeep"), nil, 0o644); err != nil {
			return fmt.Errorf("create %s/.gitkeep: %w", dir, err)
		}
	}

	if gen.EntrySourceFilePath != "" {
		if err := os.MkdirAll(filepath.Dir(gen.EntrySourceFilePath), 0o755); err != nil {
			return fmt.Errorf("create src: %w", err)
		}
		if err := os.WriteFile(gen.EntrySourceFilePath, []byte(entrySource(flavor)), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", gen.EntrySourceFilePath, err)
		}
	}
	return nil
}

func entrySource(flavor string) string {
	switch flavor {
	case FlavorReact, FlavorTypeScriptReact:
		return `import {reactExtension, Banner} from '@shopify/ui-extensions-react/checkout';

export default reactExtension('purchase.checkout.block.render', () => <Extension />);

function Extension() {
  return <Banner title="Hello from your extension" />;
}
`
	default:
		return `import {extension, Banner} from '@shopify/ui-extensions/checkout';

export default extension('purchase.checkout.block.render', (root) => {
  root.appendChild(root.createComponent(Banner, {title: 'Hello from your extension'}));
});
`
	}
}
