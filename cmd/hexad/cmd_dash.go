package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"hexad/pkg/config"
)

// newDashCmd creates the "hexad dash" subcommand.
func newDashCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Live view of the trajectory event log",
		Long:  "Opens a terminal dashboard that follows the newest run,\nrefreshing as events are recorded.",
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

			p := tea.NewProgram(newDashModel(dbPath), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("run dashboard: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trajectory database path")

	return cmd
}
