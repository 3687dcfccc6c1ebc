package extension

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extension type identifiers.
const (
	TaxCalculation = "tax_calculation"
	ThemeApp       = "theme"
	CheckoutUI     = "checkout_ui_extension"
)

// Scaffold flavors.
const (
	FlavorVanillaJS       = "vanilla-js"
	FlavorReact           = "react"
	FlavorTypeScript      = "typescript"
	FlavorTypeScriptReact = "typescript-react"
)

// FlavorExtension maps a flavor to the entry file extension. Unknown flavors
// produce plain JavaScript.
func FlavorExtension(flavor string) string {
	switch flavor {
	case FlavorReact:
		return "jsx"
	case FlavorTypeScriptReact:
		return "tsx"
	case FlavorTypeScript:
		return "ts"
	default:
		return "js"
	}
}

func init() {
	register(taxCalculationSpec)
	register(themeSpec)
	register(checkoutUISpec)
}

// TaxCalculationConfig configures a third-party tax calculation service.
type TaxCalculationConfig struct {
	BaseConfig
	ProductionAPIBaseURL      string `toml:"production_api_base_url"`
	BenchmarkAPIBaseURL       string `toml:"benchmark_api_base_url,omitempty"`
	CalculateTaxesAPIEndpoint string `toml:"calculate_taxes_api_endpoint"`
}

func (c TaxCalculationConfig) Validate() []FieldError {
	errs := c.BaseConfig.Validate()
	if strings.TrimSpace(c.ProductionAPIBaseURL) == "" {
		errs = append(errs, FieldError{"production_api_base_url", "is required"})
	}
	if strings.TrimSpace(c.CalculateTaxesAPIEndpoint) == "" {
		errs = append(errs, FieldError{"calculate_taxes_api_endpoint", "is required"})
	}
	return errs
}

var taxCalculationSpec = New(Options[TaxCalculationConfig]{
	Identifier: TaxCalculation,
	Surface:    "admin",
	Features:   func(TaxCalculationConfig) []string { return []string{} },
	Scaffold: func(base BaseConfig) TaxCalculationConfig {
		return TaxCalculationConfig{
			BaseConfig:                base,
			ProductionAPIBaseURL:      "https://tax.example.com",
			CalculateTaxesAPIEndpoint: "/calculate",
		}
	},
	DeployConfig: func(_ context.Context, cfg TaxCalculationConfig, _ string) (map[string]any, error) {
		out := map[string]any{
			"production_api_base_url":      cfg.ProductionAPIBaseURL,
			"calculate_taxes_api_endpoint": cfg.CalculateTaxesAPIEndpoint,
			"metafields":                   cfg.MetafieldList(),
		}
		if cfg.BenchmarkAPIBaseURL != "" {
			out["benchmark_api_base_url"] = cfg.BenchmarkAPIBaseURL
		}
		return out, nil
	},
})

// ThemeConfig configures a theme app extension.
type ThemeConfig struct {
	BaseConfig
}

// ThemeDirectories are the folders a theme app extension may contain.
var ThemeDirectories = []string{"assets", "blocks", "locales", "snippets"}

var themeSpec = New(Options[ThemeConfig]{
	Identifier:  ThemeApp,
	Surface:     "online_store",
	Directories: ThemeDirectories,
	Features:    func(ThemeConfig) []string { return []string{"theme"} },
	Scaffold:    func(base BaseConfig) ThemeConfig { return ThemeConfig{BaseConfig: base} },
	DeployConfig: func(ctx context.Context, _ ThemeConfig, dir string) (map[string]any, error) {
		files, err := themeFiles(ctx, dir)
		if err != nil {
			return nil, err
		}
		return map[string]any{"theme_extension": map[string]any{"files": files}}, nil
	},
})

// themeFiles reads every file under the theme directories, keyed by
// slash-separated relative path, base64 encoded.
func themeFiles(ctx context.Context, dir string) (map[string]string, error) {
	files := map[string]string{}
	for _, sub := range ThemeDirectories {
		root := filepath.Join(dir, sub)
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() || d.Name() == ".gitkeep" {
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			files[filepath.ToSlash(rel)] = base64.StdEncoding.EncodeToString(data)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("read theme extension %s: %w", root, err)
		}
	}
	return files, nil
}

// DefaultCheckoutTarget is where a new checkout UI extension renders.
const DefaultCheckoutTarget = "purchase.checkout.block.render"

// CheckoutUIConfig configures a checkout UI extension.
type CheckoutUIConfig struct {
	BaseConfig
	Settings map[string]any `toml:"settings,omitempty"`
}

func (c CheckoutUIConfig) Validate() []FieldError {
	errs := c.BaseConfig.Validate()
	if len(c.Targeting) == 0 {
		errs = append(errs, FieldError{"targeting", "at least one target is required"})
	}
	return errs
}

var checkoutUISpec = New(Options[CheckoutUIConfig]{
	Identifier:      CheckoutUI,
	Surface:         "checkout",
	SingleEntryPath: true,
	Previewable:     true,
	Flavors:         []string{FlavorVanillaJS, FlavorReact, FlavorTypeScript, FlavorTypeScriptReact},
	Features: func(CheckoutUIConfig) []string {
		return []string{"ui_preview", "bundling", "esbuild", "single_js_entry_path", "generates_source_maps"}
	},
	Scaffold: func(base BaseConfig) CheckoutUIConfig {
		base.APIVersion = "2024-07"
		base.Capabilities = &Capabilities{}
		if len(base.Targeting) == 0 {
			base.Targeting = []Target{{}}
		}
		for i := range base.Targeting {
			if base.Targeting[i].Target == "" {
				base.Targeting[i].Target = DefaultCheckoutTarget
			}
		}
		return CheckoutUIConfig{BaseConfig: base}
	},
	DeployConfig: func(_ context.Context, cfg CheckoutUIConfig, _ string) (map[string]any, error) {
		targets := make([]string, len(cfg.Targeting))
		for i, t := range cfg.Targeting {
			targets[i] = t.Target
		}
		capabilities := Capabilities{}
		if cfg.Capabilities != nil {
			capabilities = *cfg.Capabilities
		}
		settings := cfg.Settings
		if settings == nil {
			settings = map[string]any{}
		}
		return map[string]any{
			"extension_points": targets,
			"capabilities":     capabilities,
			"metafields":       cfg.MetafieldList(),
			"name":             cfg.Name,
			"settings":         settings,
			"api_version":      cfg.APIVersion,
		}, nil
	},
})
