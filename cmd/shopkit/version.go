package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dkoosis/shopkit/internal/version"
)

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintln(c.stdout, version.String())
		},
	}
}
