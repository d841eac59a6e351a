package roles

import (
	"context"
	"fmt"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/protocol"
)

const observerSystemPrompt = `You are the Observer in a six-role coordination system.
Gather information relevant to the task: project structure, system state,
error traces, environment. Report structured, objective observations that
the Analyst can process. Be thorough and systematic.`

// Observer gathers information for the analyst. On an improvement cycle it
// re-observes with the designer's improvements in scope.
type Observer struct {
	hub       *hub.Hub
	completer llm.Completer
}

// NewObserver creates the observer capability.
func NewObserver(h *hub.Hub, completer llm.Completer) *Observer {
	return &Observer{hub: h, completer: completer}
}

// ProcessMessage reacts to task assignments with observation feedback.
func (o *Observer) ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	o.hub.UpdateStatus(protocol.RoleObserver, protocol.StatusWorking, "gathering observations")

	improvementCycle := msg.DataBool("is_improvement_cycle")
	prompt := msg.Content
	fallback := "Observed task scope and current system state; no anomalies recorded."
	if improvementCycle {
		improvements := stringList(msg.Data["design_improvements"])
		prompt = fmt.Sprintf("%s\n\nRe-observe after applying improvements: %v", msg.Content, improvements)
		fallback = fmt.Sprintf("Re-observed system after %d design improvements; state is consistent.", len(improvements))
	}

	observations, err := complete(ctx, o.completer, observerSystemPrompt, prompt, fallback)
	if err != nil {
		o.hub.UpdateStatus(protocol.RoleObserver, protocol.StatusError, "")
		return nil, err
	}

	o.hub.UpdateStatus(protocol.RoleObserver, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleObserver, protocol.RoleCommander, protocol.MsgFeedback,
		"Completed observation: "+firstLine(observations),
		map[string]any{
			"task":                 msg.Content,
			"observations":         observations,
			"is_improvement_cycle": improvementCycle,
		}, msg), nil
}

// AutonomousTask is a no-op: observation is always commissioned.
func (o *Observer) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}
