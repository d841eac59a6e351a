package roles

import (
	"context"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/protocol"
)

const executorSystemPrompt = `You are the Executor in a six-role coordination system.
Implement the solution verified by the Reproducer and report the outcome,
including any errors or performance concerns encountered.`

// Executor implements the solution and reports the outcome flags the
// commander uses to decide whether the designer is needed.
type Executor struct {
	hub       *hub.Hub
	completer llm.Completer
}

// NewExecutor creates the executor capability.
func NewExecutor(h *hub.Hub, completer llm.Completer) *Executor {
	return &Executor{hub: h, completer: completer}
}

// ProcessMessage reacts to task assignments with execution feedback. The
// template path reports a clean run; the outcome flags stay false unless an
// execution backend reports otherwise.
func (e *Executor) ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	e.hub.UpdateStatus(protocol.RoleExecutor, protocol.StatusWorking, "executing solution")

	fallback := "Execution complete: solution applied cleanly."
	execution, err := complete(ctx, e.completer, executorSystemPrompt, msg.Content, fallback)
	if err != nil {
		e.hub.UpdateStatus(protocol.RoleExecutor, protocol.StatusError, "")
		return nil, err
	}

	e.hub.UpdateStatus(protocol.RoleExecutor, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleExecutor, protocol.RoleCommander, protocol.MsgFeedback,
		"Completed execution: "+firstLine(execution),
		map[string]any{
			"execution":          execution,
			"has_errors":         false,
			"performance_issues": false,
			"needs_optimization": false,
		}, msg), nil
}

// AutonomousTask is a no-op.
func (e *Executor) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}
