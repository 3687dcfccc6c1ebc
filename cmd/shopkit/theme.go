package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dkoosis/shopkit/internal/detect"
	"github.com/dkoosis/shopkit/internal/themecheck"
	"github.com/dkoosis/shopkit/internal/themedev"
	"github.com/dkoosis/shopkit/internal/version"
	"github.com/dkoosis/shopkit/pkg/offense"
	"github.com/dkoosis/shopkit/pkg/sarif"
)

func (c *cli) themeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Work with storefront themes",
	}
	cmd.AddCommand(c.themeCheckCmd(), c.themeDevCmd())
	return cmd
}

type themeCheckOptions struct {
	path      string
	fromSARIF string
	init      bool
	list      bool
	print     bool
}

func (c *cli) themeCheckCmd() *cobra.Command {
	var opts themeCheckOptions
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a theme",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runThemeCheck(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.path, "path", ".", "Theme directory")
	f.StringVar(&c.flags.FailLevel, "fail-level", "error", "Minimum severity that fails the run: crash, error, warning, suggestion, info")
	f.StringVarP(&c.flags.Output, "output", "o", "text", "Output format: text, json, sarif")
	f.StringVar(&opts.fromSARIF, "from-sarif", "", "Report offenses from a SARIF file (- for stdin) instead of checking")
	f.BoolVar(&opts.init, "init", false, "Write a default "+themecheck.ConfigFileName)
	f.BoolVar(&opts.list, "list", false, "List the available checks")
	f.BoolVar(&opts.print, "print", false, "Print the active configuration")
	cmd.MarkFlagsMutuallyExclusive("init", "list", "print", "from-sarif")
	return cmd
}

func (c *cli) runThemeCheck(cmd *cobra.Command, opts themeCheckOptions) error {
	root, err := filepath.Abs(opts.path)
	if err != nil {
		return fmt.Errorf("resolve theme path: %w", err)
	}

	switch {
	case opts.init:
		res, err := themecheck.InitConfig(root)
		if err != nil {
			return err
		}
		if res.Created {
			fmt.Fprint(c.stdout, c.term.Success(res.Message()))
		} else {
			fmt.Fprintln(c.stdout, res.Message())
		}
		return nil

	case opts.list:
		rows := make([][2]string, 0)
		for _, name := range themecheck.CheckNames() {
			rows = append(rows, [2]string{name, themecheck.DefaultSeverity(name).String()})
		}
		fmt.Fprint(c.stdout, c.term.Table([2]string{"check", "severity"}, rows))
		return nil
	}

	cfg, err := themecheck.LoadConfig(root)
	if err != nil {
		return err
	}
	if opts.print {
		data, err := yaml.Marshal(cfg.Effective())
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		_, err = c.stdout.Write(data)
		return err
	}

	var (
		offenses       []offense.Offense
		filesInspected int
	)
	if opts.fromSARIF != "" {
		offenses, err = c.readSARIF(opts.fromSARIF, root)
		if err != nil {
			return err
		}
		filesInspected = len(offense.Sort(offenses))
	} else {
		res, err := themecheck.Run(cmd.Context(), root, cfg, themecheck.Options{Logger: c.logger})
		if err != nil {
			return err
		}
		offenses, filesInspected = res.Offenses, res.FilesInspected
	}
	byFile := offense.Sort(offenses)
	c.logger.Debug("theme checked",
		zap.Int("files", filesInspected),
		zap.Int("files_with_offenses", len(byFile)),
		zap.Int("offenses", byFile.Count()),
	)

	switch c.cfg.Output {
	case "json":
		if err := json.NewEncoder(c.stdout).Encode(offense.FormatJSON(byFile)); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	case "sarif":
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sarif.FromOffenses(offenses, "shopkit-theme-check", version.Version, root)); err != nil {
			return fmt.Errorf("write sarif: %w", err)
		}
	default:
		c.printOffenses(root, byFile, offenses, filesInspected)
	}

	c.exit = offense.ExitCode(offenses, c.cfg.FailLevel)
	return nil
}

func (c *cli) printOffenses(root string, byFile offense.ByFile, offenses []offense.Offense, filesInspected int) {
	lines := offense.NewFileLines()
	for _, path := range byFile.Paths() {
		headline := path
		if rel, err := filepath.Rel(root, path); err == nil {
			headline = filepath.ToSlash(rel)
		}
		fmt.Fprint(c.stdout, c.term.Info(headline, offense.Format(byFile[path], lines)))
	}

	summary := offense.FormatSummary(offenses, byFile, filesInspected)
	if len(offenses) == 0 {
		fmt.Fprint(c.stdout, c.term.Success(summary[0]+" "+summary[1]))
		return
	}
	body := make([]offense.Segment, 0, len(summary))
	for _, line := range summary {
		body = append(body, offense.Segment{Text: line + " "})
	}
	fmt.Fprint(c.stdout, c.term.Info("Theme Check Summary.", body))
}

func (c *cli) readSARIF(source, root string) ([]offense.Offense, error) {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(c.stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}

	switch format := detect.Sniff(data); format {
	case detect.SARIF:
	case detect.CheckJSON:
		return nil, usageErrorf("%s is a theme check JSON report; produce SARIF with --output sarif", source)
	default:
		return nil, usageErrorf("%s is not a SARIF document", source)
	}

	doc, err := sarif.ReadBytes(data)
	if err != nil {
		return nil, err
	}
	return sarif.ToOffenses(doc, root), nil
}

func (c *cli) themeDevCmd() *cobra.Command {
	var (
		path string
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve a theme locally, proxying the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("host") {
				host = c.cfg.DevHost
			}
			if !cmd.Flags().Changed("port") {
				port = c.cfg.DevPort
			}
			if c.cfg.Store == "" {
				return usageErrorf("theme dev needs --store, SHOPKIT_STORE or store in %s", ".shopkit.yaml")
			}
			return c.runThemeDev(cmd, path, net.JoinHostPort(host, strconv.Itoa(port)))
		},
	}
	f := cmd.Flags()
	f.StringVar(&path, "path", ".", "Theme directory")
	f.StringVar(&c.flags.Store, "store", "", "Store domain, e.g. demo.myshopify.com")
	f.StringVar(&host, "host", "127.0.0.1", "Address to bind")
	f.IntVar(&port, "port", 9292, "Port to bind")
	return cmd
}

func (c *cli) runThemeDev(cmd *cobra.Command, path, addr string) error {
	root, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve theme path: %w", err)
	}

	fs := themedev.NewFileSystem(root)
	if err := fs.Load(); err != nil {
		return err
	}
	dctx := &themedev.DevContext{FS: fs, Store: c.cfg.Store, Logger: c.logger}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	watcher, err := themedev.NewWatcher(fs, c.logger)
	if err != nil {
		_ = ln.Close()
		return err
	}
	watcher.OnChange = func(key string) {
		c.logger.Info("theme file changed", zap.String("key", key))
	}
	srv, err := themedev.NewServer(dctx, nil, watcher)
	if err != nil {
		_ = watcher.Close()
		_ = ln.Close()
		return err
	}

	fmt.Fprint(c.stdout, c.term.Success(fmt.Sprintf("Serving %d theme files at http://%s", len(fs.Keys()), ln.Addr())))
	return srv.Run(cmd.Context(), ln)
}
