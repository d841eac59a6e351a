package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hexad/pkg/trajectory"
)

// tickMsg triggers a periodic refresh of the event log.
type tickMsg time.Time

// eventsMsg carries the newest run's events. nil events means the database
// is missing or has no runs yet.
type eventsMsg struct {
	runID  string
	events []trajectory.Event
}

// dashTheme defines the visual styling for the hexad dashboard.
type dashTheme struct {
	title  lipgloss.Style
	sender lipgloss.Style
	kind   lipgloss.Style
	muted  lipgloss.Style
	done   lipgloss.Style
}

func newDashTheme() dashTheme {
	return dashTheme{
		title:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		sender: lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
		kind:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		muted:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		done:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	}
}

// dashModel is the Bubble Tea model for the trajectory dashboard.
type dashModel struct {
	dbPath string
	theme  dashTheme

	spinner spinner.Model
	runID   string
	events  []trajectory.Event
	width   int
	height  int
}

func newDashModel(dbPath string) dashModel {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	return dashModel{
		dbPath:  dbPath,
		theme:   newDashTheme(),
		spinner: sp,
	}
}

// tickCmd returns a command that sends a tickMsg after 2 seconds.
func tickCmd() tea.Cmd {
	return tea.Tick(2*time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// fetchEventsCmd loads the newest run's events from the trajectory log.
// Read failures surface as an empty snapshot rather than tearing down the
// dashboard; the engine may simply not have run yet.
func fetchEventsCmd(dbPath string) tea.Cmd {
	return func() tea.Msg {
		reader, err := trajectory.NewReader(dbPath)
		if err != nil {
			return eventsMsg{}
		}
		defer func() { _ = reader.Close() }()

		ctx := context.Background()
		runs, err := reader.Runs(ctx)
		if err != nil || len(runs) == 0 {
			return eventsMsg{}
		}
		events, err := reader.Query(ctx, trajectory.QueryOpts{RunID: runs[0]})
		if err != nil {
			return eventsMsg{}
		}
		return eventsMsg{runID: runs[0], events: events}
	}
}

// Init implements tea.Model.
func (m dashModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchEventsCmd(m.dbPath), tickCmd())
}

// Update implements tea.Model.
func (m dashModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		return m, tea.Batch(fetchEventsCmd(m.dbPath), tickCmd())
	case eventsMsg:
		m.runID = msg.runID
		m.events = msg.events
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m dashModel) View() string {
	var b strings.Builder

	b.WriteString(m.theme.title.Render("hexad trajectory"))
	b.WriteString("\n\n")

	if len(m.events) == 0 {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.muted.Render(" waiting for a run..."))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.theme.muted.Render("run " + shortRunID(m.runID)))
	b.WriteString("\n\n")

	rows := m.events
	if limit := m.visibleRows(); len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	finished := false
	for _, e := range rows {
		b.WriteString(m.renderEvent(e))
		b.WriteString("\n")
	}
	for _, e := range m.events {
		if e.Type == trajectory.EventRunFinish {
			finished = true
		}
	}

	b.WriteString("\n")
	if finished {
		b.WriteString(m.theme.done.Render("run completed"))
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(m.theme.muted.Render(" running"))
	}
	b.WriteString(m.theme.muted.Render("  (q to quit)"))
	b.WriteString("\n")
	return b.String()
}

// visibleRows bounds the event list to the terminal height, leaving room
// for the header and footer.
func (m dashModel) visibleRows() int {
	if m.height <= 8 {
		return 10
	}
	return m.height - 7
}

func (m dashModel) renderEvent(e trajectory.Event) string {
	switch e.Type {
	case trajectory.EventRunStart:
		return m.theme.kind.Render("start  ") + truncateLine(e.Content, m.lineWidth())
	case trajectory.EventRunFinish:
		return m.theme.done.Render("finish ") + truncateLine(e.Content, m.lineWidth())
	default:
		receiver := e.Receiver
		if receiver == "" {
			receiver = "*"
		}
		route := fmt.Sprintf("%-10s > %-10s", e.Sender, receiver)
		return m.theme.sender.Render(route) +
			m.theme.kind.Render(fmt.Sprintf(" %-15s ", e.MessageType)) +
			truncateLine(e.Content, m.lineWidth())
	}
}

func (m dashModel) lineWidth() int {
	if m.width <= 45 {
		return 40
	}
	return m.width - 42
}

func truncateLine(s string, width int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > width {
		return s[:width-3] + "..."
	}
	return s
}

func shortRunID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
