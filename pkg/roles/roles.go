// Package roles implements the six concrete role capabilities of the hexad
// engine. The commander owns the workflow state machine; the five
// specialists are template-driven: each reacts to a task assignment,
// optionally consults a completion backend, and reports Feedback to the
// commander with the payload the next stage expects. When no backend is
// wired the specialists fall back to deterministic templates so the engine
// runs hermetically.
package roles

import (
	"context"
	"fmt"
	"strings"

	"hexad/pkg/llm"
)

// complete consults the backend when present, otherwise returns fallback.
// A backend error propagates: the orchestrator treats it as a cycle failure
// for the role, not a reason to fabricate output.
func complete(ctx context.Context, c llm.Completer, system, prompt, fallback string) (string, error) {
	if c == nil {
		return fallback, nil
	}
	out, err := c.Complete(ctx, system, prompt)
	if err != nil {
		return "", fmt.Errorf("completion: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// firstLine truncates a completion to its first non-empty line for use in
// message content fields; the full text travels in the payload.
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			return trimmed
		}
	}
	return s
}

// stringList coerces a payload value into a string slice. Payloads cross the
// hub as map[string]any, so lists may arrive as []string or []any.
func stringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return nil
	}
}
