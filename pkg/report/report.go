// Package report renders a markdown summary of one recorded run from its
// trajectory events.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"hexad/pkg/trajectory"
)

const runTemplate = `# Run {{.RunID}}

**Task:** {{.Task}}

**Outcome:** {{if .Completed}}completed{{else}}unfinished{{end}}
{{if .Result}}
## Result

{{.Result}}
{{end}}
## Message Flow

| # | From | To | Type | Content |
|---|------|----|------|---------|
{{- range .Messages}}
| {{.Seq}} | {{.Sender}} | {{.Receiver}} | {{.Type}} | {{.Content}} |
{{- end}}

{{len .Messages}} messages exchanged.
`

type messageRow struct {
	Seq      int
	Sender   string
	Receiver string
	Type     string
	Content  string
}

type runData struct {
	RunID     string
	Task      string
	Result    string
	Completed bool
	Messages  []messageRow
}

// Render produces the markdown report for the run the events belong to.
// Events must come from a single run in insertion order.
func Render(runID string, events []trajectory.Event) (string, error) {
	data := runData{RunID: shortID(runID)}

	seq := 0
	for _, e := range events {
		switch e.Type {
		case trajectory.EventRunStart:
			data.Task = e.Content
		case trajectory.EventRunFinish:
			data.Completed = true
			data.Result = e.Content
		case trajectory.EventMessage:
			seq++
			receiver := e.Receiver
			if receiver == "" {
				receiver = "(broadcast)"
			}
			data.Messages = append(data.Messages, messageRow{
				Seq:      seq,
				Sender:   e.Sender,
				Receiver: receiver,
				Type:     e.MessageType,
				Content:  cellText(e.Content),
			})
		}
	}

	tmpl, err := template.New("run_report").Parse(runTemplate)
	if err != nil {
		return "", fmt.Errorf("parse report template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// cellText flattens content into a single markdown table cell.
func cellText(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	if len(s) > 80 {
		s = s[:77] + "..."
	}
	return s
}

// shortID truncates a uuid to its first segment for headings.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
