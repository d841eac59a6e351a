package roles

import (
	"context"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/protocol"
)

const analystSystemPrompt = `You are the Analyst in a six-role coordination system.
Analyze the observer's findings: identify patterns, root causes, and risks.
Produce concrete recommendations the Reproducer can verify.`

// Analyst turns observations into a root-cause analysis for the reproducer.
type Analyst struct {
	hub       *hub.Hub
	completer llm.Completer
}

// NewAnalyst creates the analyst capability.
func NewAnalyst(h *hub.Hub, completer llm.Completer) *Analyst {
	return &Analyst{hub: h, completer: completer}
}

// ProcessMessage reacts to task assignments with analysis feedback.
func (a *Analyst) ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	a.hub.UpdateStatus(protocol.RoleAnalyst, protocol.StatusWorking, "analyzing observations")

	fallback := "Analysis complete: observations are consistent with the reported task; no divergent patterns."
	analysis, err := complete(ctx, a.completer, analystSystemPrompt, msg.Content, fallback)
	if err != nil {
		a.hub.UpdateStatus(protocol.RoleAnalyst, protocol.StatusError, "")
		return nil, err
	}

	a.hub.UpdateStatus(protocol.RoleAnalyst, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleAnalyst, protocol.RoleCommander, protocol.MsgFeedback,
		"Completed analysis: "+firstLine(analysis),
		map[string]any{
			"analysis":        analysis,
			"observer_source": msg.Data["observer_results"],
		}, msg), nil
}

// AutonomousTask is a no-op.
func (a *Analyst) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}
