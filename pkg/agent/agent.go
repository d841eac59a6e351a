// Package agent defines the contract between the coordination engine and the
// role-specific reasoning it drives. A Capability supplies the per-role
// behavior; the Worker wraps it with the uniform run cycle the orchestrator
// schedules once per coordination round.
package agent

import (
	"context"

	"hexad/pkg/hub"
	"hexad/pkg/protocol"
)

// Capability is the pluggable per-role behavior. Implementations return at
// most one response per call, or nil when nothing needs to be said. The
// engine never inspects capability internals; a capability may block on an
// external completion call, so both methods take a context.
type Capability interface {
	// ProcessMessage reacts to one incoming message.
	ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error)

	// AutonomousTask runs when a cycle delivered no messages to the role.
	AutonomousTask(ctx context.Context) (*protocol.Message, error)
}

// Worker binds a role's capability to the hub and runs the cooperative cycle.
type Worker struct {
	role       protocol.Role
	hub        *hub.Hub
	capability Capability
}

// NewWorker registers the role with the hub and returns the wrapper.
func NewWorker(role protocol.Role, h *hub.Hub, capability Capability) *Worker {
	h.Register(role)
	return &Worker{role: role, hub: h, capability: capability}
}

// Role returns the worker's fixed role.
func (w *Worker) Role() protocol.Role {
	return w.role
}

// RunCycle performs one coordination round for this worker: fetch every
// pending message, process each in arrival order, and fall back to the
// autonomous task only when nothing arrived. Responses are returned to the
// orchestrator unsent; they become visible to other workers next cycle.
//
// An error from the capability aborts the rest of the cycle and is reported
// to the orchestrator, which logs and skips the worker for the round.
func (w *Worker) RunCycle(ctx context.Context) ([]protocol.Message, error) {
	incoming := w.hub.Fetch(w.role)

	var responses []protocol.Message
	for _, msg := range incoming {
		resp, err := w.capability.ProcessMessage(ctx, msg)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			responses = append(responses, *resp)
		}
	}

	if len(incoming) == 0 {
		resp, err := w.capability.AutonomousTask(ctx)
		if err != nil {
			return nil, err
		}
		if resp != nil {
			responses = append(responses, *resp)
		}
	}

	return responses, nil
}

// Compose builds a reply envelope from this worker, parented to the message
// it answers. Convenience for capability implementations.
func Compose(sender, receiver protocol.Role, typ protocol.MessageType, content string, data map[string]any, parent protocol.Message) *protocol.Message {
	msg := protocol.NewMessage(sender, receiver, typ, content, data)
	msg.ParentID = parent.ID
	return &msg
}
