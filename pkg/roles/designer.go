package roles

import (
	"context"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/protocol"
)

const designerSystemPrompt = `You are the Designer in a six-role coordination system.
Review the execution results and propose concrete improvements or
optimizations. Propose nothing when the execution needs no follow-up.`

// Designer proposes improvements after a troubled execution. A non-empty
// improvements list makes the commander restart the cycle at observation;
// an empty one lets it finalize.
type Designer struct {
	hub       *hub.Hub
	completer llm.Completer
}

// NewDesigner creates the designer capability.
func NewDesigner(h *hub.Hub, completer llm.Completer) *Designer {
	return &Designer{hub: h, completer: completer}
}

// ProcessMessage reacts to task assignments with design feedback. The
// template path proposes no improvements, which finalizes the workflow.
func (d *Designer) ProcessMessage(ctx context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	d.hub.UpdateStatus(protocol.RoleDesigner, protocol.StatusWorking, "designing improvements")

	fallback := "Design review complete: no further improvements required."
	design, err := complete(ctx, d.completer, designerSystemPrompt, msg.Content, fallback)
	if err != nil {
		d.hub.UpdateStatus(protocol.RoleDesigner, protocol.StatusError, "")
		return nil, err
	}

	var improvements []string
	if d.completer != nil {
		improvements = []string{design}
	}

	d.hub.UpdateStatus(protocol.RoleDesigner, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleDesigner, protocol.RoleCommander, protocol.MsgFeedback,
		"Completed design review: "+firstLine(design),
		map[string]any{
			"design":       design,
			"improvements": improvements,
		}, msg), nil
}

// AutonomousTask is a no-op.
func (d *Designer) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}
