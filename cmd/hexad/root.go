package main

import (
	"fmt"

	"hexad/internal/appversion"

	"github.com/spf13/cobra"
)

// newRootCmd creates the root hexad command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "hexad",
		Short:         "Six-role task coordination engine",
		Long:          "hexad routes a task through six coordinated roles\n(commander, observer, analyst, reproducer, executor, designer)\nand returns the synthesized result.",
		Version:       fmt.Sprintf("hexad %s", appversion.String()),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("{{.Version}}\n")

	cmd.AddCommand(
		newRunCmd(),
		newStatusCmd(),
		newReportCmd(),
		newServeCmd(),
		newDashCmd(),
	)

	return cmd
}
