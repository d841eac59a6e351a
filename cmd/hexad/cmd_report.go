package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hexad/pkg/config"
	"hexad/pkg/report"
	"hexad/pkg/trajectory"
)

// newReportCmd creates the "hexad report" subcommand.
func newReportCmd() *cobra.Command {
	var (
		dbPath string
		out    string
	)

	cmd := &cobra.Command{
		Use:   "report [run-id]",
		Short: "Render a markdown report for a recorded run",
		Long:  "Renders the message flow and result of one run as markdown.\nWithout a run id the most recent run is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				root, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("resolve working directory: %w", err)
				}
				cfg, err := config.Load(root)
				if err != nil {
					return err
				}
				dbPath = trajectoryPath(cfg)
			}

			reader, err := trajectory.NewReader(dbPath)
			if err != nil {
				return fmt.Errorf("open trajectory: %w", err)
			}
			defer func() { _ = reader.Close() }()

			var runID string
			if len(args) == 1 {
				runID = args[0]
			} else {
				runs, err := reader.Runs(cmd.Context())
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					return fmt.Errorf("no recorded runs")
				}
				runID = runs[0]
			}

			events, err := reader.Query(cmd.Context(), trajectory.QueryOpts{RunID: runID})
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return fmt.Errorf("run %s not found", runID)
			}

			md, err := report.Render(runID, events)
			if err != nil {
				return err
			}

			if out != "" {
				if err := os.WriteFile(out, []byte(md), 0o644); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), md)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trajectory database path")
	cmd.Flags().StringVar(&out, "out", "", "write the report to this file instead of stdout")

	return cmd
}
