package main

import (
	"strings"
	"testing"

	"hexad/pkg/trajectory"
)

func TestRenderRunLine(t *testing.T) {
	t.Parallel()

	styles := newStatusStyles(false)
	events := []trajectory.Event{
		{Type: trajectory.EventRunStart, Content: "fix bug X"},
		{Type: trajectory.EventMessage},
		{Type: trajectory.EventMessage},
		{Type: trajectory.EventRunFinish, Content: "done"},
	}

	line := renderRunLine(styles, "3f2a9c1e-aaaa-bbbb-cccc-000000000000", events)
	for _, want := range []string{"3f2a9c1e", "fix bug X", "2 msgs", "completed"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	if strings.Contains(line, "aaaa") {
		t.Errorf("run id not shortened: %q", line)
	}
}

func TestRenderRunLineUnfinished(t *testing.T) {
	t.Parallel()

	styles := newStatusStyles(false)
	line := renderRunLine(styles, "abc", []trajectory.Event{
		{Type: trajectory.EventRunStart, Content: "stuck task"},
		{Type: trajectory.EventMessage},
	})
	if !strings.Contains(line, "unfinished") {
		t.Errorf("line %q should be unfinished", line)
	}
}
