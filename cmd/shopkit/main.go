// shopkit builds, validates and serves storefront themes and app extensions.
//
// Usage:
//
//	shopkit theme check --path ./theme --fail-level warning
//	shopkit theme dev --store demo.myshopify.com
//	shopkit app generate extension --name "Tax" --template tax_calculation
//	shopkit app info --json
//	shopkit graphql --api Admin --url https://demo.myshopify.com/admin/api/2024-07/graphql.json --query '{ shop { name } }'
//
// Exit codes: 0 success, 1 failure (offenses at or above the fail level, or a
// command error), 2 usage error.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/dkoosis/shopkit/internal/config"
	"github.com/dkoosis/shopkit/internal/logging"
	"github.com/dkoosis/shopkit/internal/metrics"
	"github.com/dkoosis/shopkit/internal/telemetry"
	"github.com/dkoosis/shopkit/pkg/render"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// cli carries the streams and per-invocation state shared by all commands.
type cli struct {
	stdin          io.Reader
	stdout, stderr io.Writer

	flags    config.Flags
	cfg      *config.Resolved
	logger   *zap.Logger
	term     *render.Terminal
	recorder *metrics.Recorder

	// exit is the code a command asks for without failing.
	exit    int
	command string
}

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	c := &cli{
		stdin:    stdin,
		stdout:   stdout,
		stderr:   stderr,
		logger:   zap.NewNop(),
		recorder: metrics.NewRecorder(),
	}

	root := c.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = metrics.WithRecorder(ctx, c.recorder)

	start := time.Now()
	err := root.ExecuteContext(ctx)
	code := c.exitCode(err)
	c.recordTelemetry(time.Since(start), code)
	_ = c.logger.Sync()
	return code
}

func (c *cli) exitCode(err error) int {
	if err == nil {
		return c.exit
	}
	fmt.Fprintf(c.stderr, "shopkit: %v\n", err)

	var uErr *usageError
	var cfgErr *config.Error
	switch {
	case errors.As(err, &uErr), errors.As(err, &cfgErr), isCobraUsageError(err):
		return exitUsage
	default:
		return exitFail
	}
}

// Cobra reports these without a typed error.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "required flag", "accepts ", "invalid argument", "if any flags"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shopkit",
		Short:         "Build, check and serve themes and app extensions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.Theme, "theme", config.DefaultTheme, "Theme: default, dark, mono")
	pf.BoolVar(&c.flags.NoColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&c.flags.Debug, "debug", false, "Log debug output to stderr")
	pf.StringVar(&c.flags.ConfigPath, "config", "", "Path to a .shopkit.yaml config file")

	root.AddCommand(c.themeCmd(), c.appCmd(), c.graphqlCmd(), c.telemetryCmd(), c.versionCmd())
	return root
}

// setup resolves configuration and builds the logger and renderer.
func (c *cli) setup(cmd *cobra.Command) error {
	c.command = strings.TrimPrefix(cmd.CommandPath(), "shopkit ")

	flags := cmd.Flags()
	c.flags.ThemeSet = flags.Changed("theme")
	c.flags.NoColorSet = flags.Changed("no-color")
	c.flags.DebugSet = flags.Changed("debug")
	c.flags.FailLevelSet = flags.Changed("fail-level")
	c.flags.OutputSet = flags.Changed("output")
	c.flags.StoreSet = flags.Changed("store")

	cfg, err := config.Resolve(c.flags)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = logging.New(c.stderr, cfg.Debug)
	c.term = render.NewTerminal(render.ThemeByName(cfg.Theme), termWidth(c.stdout))

	c.logger.Debug("configuration resolved",
		zap.String("command", c.command),
		zap.String("config_file", cfg.ConfigFile),
		zap.String("theme", cfg.Theme),
		zap.String("theme_source", cfg.ThemeSource),
	)
	return nil
}

func (c *cli) recordTelemetry(d time.Duration, code int) {
	if c.cfg == nil || !c.cfg.Telemetry {
		return
	}
	tel, err := telemetry.NewTelemetry(true)
	if err != nil {
		c.logger.Debug("telemetry unavailable", zap.Error(err))
		return
	}
	defer tel.Close()

	err = tel.RecordEvent(telemetry.Event{
		Command:   c.command,
		Theme:     c.cfg.Theme,
		Duration:  d,
		NetworkMS: c.recorder.Milliseconds(metrics.NetworkTiming),
		ExitCode:  code,
	})
	if err != nil {
		c.logger.Debug("telemetry not recorded", zap.Error(err))
	}
}

// isTTYWriter reports whether w is a terminal.
func isTTYWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// termWidth returns the terminal width for w, defaulting to 80.
func termWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
			return tw
		}
	}
	return 80
}
