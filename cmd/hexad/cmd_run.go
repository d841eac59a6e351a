package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hexad/pkg/config"
	"hexad/pkg/report"
	"hexad/pkg/trajectory"
)

// newRunCmd creates the "hexad run" subcommand.
func newRunCmd() *cobra.Command {
	var (
		maxCycles    int
		noTrajectory bool
		reportPath   string
	)

	cmd := &cobra.Command{
		Use:   "run \"task\"",
		Short: "Run one task through the engine",
		Long:  "Seeds the task to the commander, drives the coordination loop\nto completion, and prints the synthesized result.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("resolve working directory: %w", err)
			}
			cfg, err := config.Load(root)
			if err != nil {
				return err
			}
			if maxCycles > 0 {
				cfg.Engine.MaxCycles = maxCycles
			}

			logger := buildLogger(cfg.LogLevel)
			sys, rec, cleanup, err := assembleSystem(cfg, logger, !noTrajectory)
			if err != nil {
				return err
			}
			defer cleanup()

			task := args[0]
			if rec != nil {
				rec.RecordRunStart(task)
			}

			result, err := sys.ProcessUserRequest(cmd.Context(), task)
			if err != nil {
				return fmt.Errorf("process request: %w", err)
			}
			if rec != nil {
				rec.RecordRunFinish(result)
			}

			fmt.Fprintln(cmd.OutOrStdout(), result)

			if reportPath != "" {
				if rec == nil {
					return fmt.Errorf("--report requires trajectory recording")
				}
				return writeRunReport(cmd.Context(), trajectoryPath(cfg), rec.RunID(), reportPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxCycles, "max-cycles", 0, "override the cycle budget")
	cmd.Flags().BoolVar(&noTrajectory, "no-trajectory", false, "skip trajectory recording")
	cmd.Flags().StringVar(&reportPath, "report", "", "write a markdown run report to this file")

	return cmd
}

// writeRunReport renders the markdown report for runID and writes it to path.
func writeRunReport(ctx context.Context, dbPath, runID, path string) error {
	reader, err := trajectory.NewReader(dbPath)
	if err != nil {
		return fmt.Errorf("open trajectory: %w", err)
	}
	defer func() { _ = reader.Close() }()

	events, err := reader.Query(ctx, trajectory.QueryOpts{RunID: runID})
	if err != nil {
		return err
	}
	md, err := report.Render(runID, events)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
