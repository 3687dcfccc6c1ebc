package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dkoosis/shopkit/internal/telemetry"
)

func (c *cli) telemetryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telemetry",
		Short: "Show locally recorded command usage",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			tel, err := telemetry.NewTelemetry(true)
			if err != nil {
				return err
			}
			defer tel.Close()
			return c.printTelemetry(tel)
		},
	}
}

func (c *cli) printTelemetry(tel *telemetry.Telemetry) error {
	if !c.cfg.Telemetry {
		fmt.Fprint(c.stdout, c.term.Warn("Telemetry is off; set SHOPKIT_TELEMETRY=true to record runs"))
	}

	usage, err := tel.CommandUsage()
	if err != nil {
		return fmt.Errorf("read telemetry: %w", err)
	}
	if len(usage) == 0 {
		fmt.Fprintln(c.stdout, "No runs recorded.")
		return nil
	}

	commands := make([]string, 0, len(usage))
	for name := range usage {
		commands = append(commands, name)
	}
	sort.Strings(commands)

	rows := make([][2]string, 0, len(commands))
	for _, name := range commands {
		stats, err := tel.Stats(name)
		if err != nil {
			return err
		}
		rows = append(rows, [2]string{name, fmt.Sprintf("%d runs, %d failed, avg %.0fms (network %.0fms)",
			stats.Runs, stats.Failures, stats.AvgDurationMS, stats.AvgNetworkMS)})
	}
	fmt.Fprint(c.stdout, c.term.Table([2]string{"command", "usage"}, rows))
	return nil
}
