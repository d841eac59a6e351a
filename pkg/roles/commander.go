package roles

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/protocol"
)

// Stage is the commander's position in the fixed workflow sequence.
type Stage string

// Workflow stages in order. StageDesign is entered conditionally.
const (
	StageInitial      Stage = "initial"
	StageObservation  Stage = "observation"
	StageAnalysis     Stage = "analysis"
	StageReproduction Stage = "reproduction"
	StageExecution    Stage = "execution"
	StageDesign       Stage = "design"
	StageCompleted    Stage = "completed"
)

// Commander is the central coordinator. It receives the seeded task, walks
// the workflow observation → analysis → reproduction → execution, routes to
// the designer when execution reports trouble, and synthesizes the final
// result. Feedback only advances the workflow when it comes from the exact
// role the current stage is waiting on; anything else is ignored as
// out-of-order delivery.
type Commander struct {
	hub *hub.Hub
	log *slog.Logger

	stage           Stage
	originalTask    string
	completedStages []string
	agentResults    map[string]any
}

// NewCommander creates the commander capability bound to the hub.
func NewCommander(h *hub.Hub, logger *slog.Logger) *Commander {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commander{
		hub:          h,
		log:          logger,
		stage:        StageInitial,
		agentResults: make(map[string]any),
	}
}

// Stage returns the current workflow stage.
func (c *Commander) Stage() Stage {
	return c.stage
}

// CompletedStages returns a copy of the completed-stage list.
func (c *Commander) CompletedStages() []string {
	out := make([]string, len(c.completedStages))
	copy(out, c.completedStages)
	return out
}

// ProcessMessage drives the workflow state machine.
func (c *Commander) ProcessMessage(_ context.Context, msg protocol.Message) (*protocol.Message, error) {
	switch msg.Type {
	case protocol.MsgTaskAssignment:
		return c.handleInitialTask(msg), nil
	case protocol.MsgFeedback:
		return c.handleFeedback(msg), nil
	case protocol.MsgStatusUpdate:
		c.log.Debug("status update received",
			"from", string(msg.Sender), "content", msg.Content)
		return nil, nil
	default:
		return nil, nil
	}
}

// AutonomousTask is a no-op: the commander only acts on messages.
func (c *Commander) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}

func (c *Commander) handleInitialTask(msg protocol.Message) *protocol.Message {
	c.originalTask = msg.Content
	c.stage = StageObservation
	c.hub.UpdateStatus(protocol.RoleCommander, protocol.StatusWorking, "task coordination and planning")

	return agent.Compose(protocol.RoleCommander, protocol.RoleObserver, protocol.MsgTaskAssignment,
		"Begin observation for task: "+msg.Content,
		map[string]any{
			"task_context": c.taskContext(),
			"priority":     "high",
			"stage":        string(StageObservation),
		}, msg)
}

func (c *Commander) handleFeedback(msg protocol.Message) *protocol.Message {
	// Results are recorded even when the transition is gated off; they feed
	// the final summary, not the state machine.
	c.agentResults[string(msg.Sender)] = msg.Data

	switch {
	case msg.Sender == protocol.RoleObserver && c.stage == StageObservation:
		return c.advance(msg, StageObservation, StageAnalysis, protocol.RoleAnalyst,
			"Analyze the observations: "+msg.Content, "observer_results")

	case msg.Sender == protocol.RoleAnalyst && c.stage == StageAnalysis:
		return c.advance(msg, StageAnalysis, StageReproduction, protocol.RoleReproducer,
			"Reproduce the identified issues: "+msg.Content, "analysis_results")

	case msg.Sender == protocol.RoleReproducer && c.stage == StageReproduction:
		return c.advance(msg, StageReproduction, StageExecution, protocol.RoleExecutor,
			"Execute the solution: "+msg.Content, "reproduction_results")

	case msg.Sender == protocol.RoleExecutor && c.stage == StageExecution:
		return c.handleExecutionCompletion(msg)

	case msg.Sender == protocol.RoleDesigner && c.stage == StageDesign:
		return c.handleDesignFeedback(msg)

	default:
		c.log.Debug("ignoring feedback outside current stage",
			"from", string(msg.Sender), "stage", string(c.stage))
		return nil
	}
}

// advance closes the completed stage, moves to next, and hands the sender's
// results to the next role under resultsKey.
func (c *Commander) advance(msg protocol.Message, completed, next Stage, to protocol.Role, content, resultsKey string) *protocol.Message {
	c.completedStages = append(c.completedStages, string(completed))
	c.stage = next

	return agent.Compose(protocol.RoleCommander, to, protocol.MsgTaskAssignment, content,
		map[string]any{
			resultsKey:     msg.Data,
			"task_context": c.taskContext(),
		}, msg)
}

func (c *Commander) handleExecutionCompletion(msg protocol.Message) *protocol.Message {
	c.completedStages = append(c.completedStages, string(StageExecution))

	needsDesign := msg.DataBool("has_errors") ||
		msg.DataBool("performance_issues") ||
		msg.DataBool("needs_optimization")
	if !needsDesign {
		return c.finalize(msg)
	}

	c.stage = StageDesign
	return agent.Compose(protocol.RoleCommander, protocol.RoleDesigner, protocol.MsgTaskAssignment,
		"Design improvements based on execution results: "+msg.Content,
		map[string]any{
			"execution_results": msg.Data,
			"task_context":      c.taskContext(),
		}, msg)
}

func (c *Commander) handleDesignFeedback(msg protocol.Message) *protocol.Message {
	improvements := stringList(msg.Data["improvements"])
	if len(improvements) == 0 {
		return c.finalize(msg)
	}

	// Improvements restart the cycle at observation for re-evaluation.
	c.stage = StageObservation
	return agent.Compose(protocol.RoleCommander, protocol.RoleObserver, protocol.MsgTaskAssignment,
		"Re-observe system with design improvements: "+msg.Content,
		map[string]any{
			"design_improvements":  improvements,
			"task_context":         c.taskContext(),
			"is_improvement_cycle": true,
		}, msg)
}

func (c *Commander) finalize(msg protocol.Message) *protocol.Message {
	c.stage = StageCompleted
	c.completedStages = append(c.completedStages, "final")

	summary := c.synthesize()
	c.hub.UpdateStatus(protocol.RoleCommander, protocol.StatusCompleted, "")
	c.hub.SetResult(protocol.RoleCommander, "final_result", summary)

	return agent.Compose(protocol.RoleCommander, "", protocol.MsgStatusUpdate, summary,
		map[string]any{
			"task_completed": true,
			"final_result":   summary,
			"task_context":   c.taskContext(),
		}, msg)
}

// synthesize builds the textual final result from the original task, the
// completed stages, and each role's last recorded feedback.
func (c *Commander) synthesize() string {
	parts := []string{
		"Task: " + c.originalTask,
		"Completed stages: " + strings.Join(c.completedStages, ", "),
	}
	for _, role := range protocol.AllRoles() {
		result, ok := c.agentResults[string(role)]
		if !ok || result == nil {
			continue
		}
		title := strings.ToUpper(string(role)[:1]) + string(role)[1:]
		parts = append(parts, fmt.Sprintf("%s Results: %v", title, result))
	}
	return strings.Join(parts, "\n\n")
}

func (c *Commander) taskContext() map[string]any {
	stages := make([]string, len(c.completedStages))
	copy(stages, c.completedStages)
	results := make(map[string]any, len(c.agentResults))
	for k, v := range c.agentResults {
		results[k] = v
	}
	return map[string]any{
		"original_task":    c.originalTask,
		"current_stage":    string(c.stage),
		"completed_stages": stages,
		"agent_results":    results,
	}
}
