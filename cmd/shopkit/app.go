package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoosis/shopkit/internal/extension"
)

func (c *cli) appCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Work with apps and their extensions",
	}
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Scaffold app components",
	}
	generate.AddCommand(c.generateExtensionCmd())
	cmd.AddCommand(c.appInfoCmd(), generate, c.deployConfigCmd())
	return cmd
}

func (c *cli) appInfoCmd() *cobra.Command {
	var (
		path     string
		jsonMode bool
	)
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the app and its extensions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			app, err := extension.LoadApp(path)
			if err != nil {
				return err
			}
			info := extension.NewInfo(app)
			if jsonMode {
				enc := json.NewEncoder(c.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			rows := make([][2]string, 0, len(info.AllExtensions))
			for _, ext := range info.AllExtensions {
				rows = append(rows, [2]string{ext.Configuration.Handle, ext.Configuration.Type})
			}
			fmt.Fprint(c.stdout, c.term.Lines(app.Name, []string{app.Directory}))
			if len(rows) == 0 {
				fmt.Fprint(c.stdout, c.term.Warn("No extensions"))
				return nil
			}
			fmt.Fprint(c.stdout, c.term.Table([2]string{"extension", "type"}, rows))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "App directory")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "Print machine-readable JSON")
	return cmd
}

func (c *cli) generateExtensionCmd() *cobra.Command {
	var opts extension.GenerateOptions
	cmd := &cobra.Command{
		Use:   "extension",
		Short: "Scaffold a new extension",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			gen, err := extension.Generate(opts)
			if errors.Is(err, extension.ErrUnknownTemplate) || errors.Is(err, extension.ErrUnknownFlavor) {
				return &usageError{err}
			}
			if err != nil {
				return err
			}
			fmt.Fprint(c.stdout, c.term.Success(fmt.Sprintf("Your extension was created in %s", gen.Directory)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.Name, "name", "", "Extension name")
	f.StringVar(&opts.Template, "template", "", "Extension type")
	f.StringVar(&opts.Flavor, "flavor", "", "Source flavor: vanilla-js, react, typescript, typescript-react")
	f.StringVar(&opts.Directory, "path", ".", "App directory")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("template")
	return cmd
}

func (c *cli) deployConfigCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "deploy-config",
		Short: "Print the deploy payload of every extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := extension.LoadApp(path)
			if err != nil {
				return err
			}

			type payload struct {
				Handle string         `json:"handle"`
				Type   string         `json:"type"`
				UID    string         `json:"uid,omitempty"`
				Config map[string]any `json:"config"`
			}
			out := make([]payload, 0, len(app.Extensions))
			for _, ext := range app.Extensions {
				cfg, err := ext.DeployConfig(cmd.Context())
				if err != nil {
					return fmt.Errorf("%s: %w", ext.Handle(), err)
				}
				out = append(out, payload{
					Handle: ext.Handle(),
					Type:   ext.Spec.Identifier(),
					UID:    ext.Config.Common().UID,
					Config: cfg,
				})
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&path, "path", ".", "App directory")
	return cmd
}
