package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"hexad/pkg/config"
	"hexad/pkg/trajectory"
)

// newStatusCmd creates the "hexad status" subcommand.
func newStatusCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs from the trajectory log",
		Long:  "Lists recorded runs with their task, message count, and outcome,\nnewest first.",
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

			runs, err := reader.Runs(cmd.Context())
			if err != nil {
				return err
			}

			styles := newStatusStyles(isatty.IsTerminal(os.Stdout.Fd()))
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, styles.muted.Render("no recorded runs"))
				return nil
			}

			for _, runID := range runs {
				events, err := reader.Query(cmd.Context(), trajectory.QueryOpts{RunID: runID})
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderRunLine(styles, runID, events))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "trajectory database path")

	return cmd
}

// statusStyles holds the lipgloss styles for status output. All styles are
// plain when stdout is not a terminal.
type statusStyles struct {
	id      lipgloss.Style
	task    lipgloss.Style
	ok      lipgloss.Style
	pending lipgloss.Style
	muted   lipgloss.Style
}

func newStatusStyles(colored bool) statusStyles {
	if !colored {
		s := lipgloss.NewStyle()
		return statusStyles{id: s, task: s, ok: s, pending: s, muted: s}
	}
	return statusStyles{
		id:      lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		task:    lipgloss.NewStyle().Bold(true),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		pending: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// renderRunLine formats one run as a single status line.
func renderRunLine(styles statusStyles, runID string, events []trajectory.Event) string {
	task := "(unknown task)"
	finished := false
	messages := 0
	for _, e := range events {
		switch e.Type {
		case trajectory.EventRunStart:
			task = e.Content
		case trajectory.EventRunFinish:
			finished = true
		case trajectory.EventMessage:
			messages++
		}
	}

	outcome := styles.pending.Render("unfinished")
	if finished {
		outcome = styles.ok.Render("completed")
	}

	short := runID
	if i := strings.IndexByte(runID, '-'); i > 0 {
		short = runID[:i]
	}

	return fmt.Sprintf("%s  %s  %s  %s",
		styles.id.Render(short),
		styles.task.Render(task),
		styles.muted.Render(fmt.Sprintf("%d msgs", messages)),
		outcome)
}
