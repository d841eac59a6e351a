package agent_test

import (
	"context"
	"errors"
	"testing"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/protocol"
)

// scriptedCapability records calls and replays canned responses.
type scriptedCapability struct {
	processed  []protocol.Message
	autonomous int

	reply      *protocol.Message
	autoReply  *protocol.Message
	processErr error
	autoErr    error
}

func (c *scriptedCapability) ProcessMessage(_ context.Context, msg protocol.Message) (*protocol.Message, error) {
	c.processed = append(c.processed, msg)
	return c.reply, c.processErr
}

func (c *scriptedCapability) AutonomousTask(_ context.Context) (*protocol.Message, error) {
	c.autonomous++
	return c.autoReply, c.autoErr
}

func TestRunCycleProcessesInArrivalOrder(t *testing.T) {
	t.Parallel()

	h := hub.New()
	c := &scriptedCapability{}
	w := agent.NewWorker(protocol.RoleAnalyst, h, c)

	h.Send(protocol.NewMessage(protocol.RoleCommander, protocol.RoleAnalyst, protocol.MsgTaskAssignment, "a", nil))
	h.Send(protocol.NewMessage(protocol.RoleCommander, protocol.RoleAnalyst, protocol.MsgTaskAssignment, "b", nil))

	if _, err := w.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if len(c.processed) != 2 {
		t.Fatalf("processed %d messages, want 2", len(c.processed))
	}
	if c.processed[0].Content != "a" || c.processed[1].Content != "b" {
		t.Errorf("messages out of order: %q, %q", c.processed[0].Content, c.processed[1].Content)
	}
	if c.autonomous != 0 {
		t.Errorf("autonomous ran %d times with messages pending, want 0", c.autonomous)
	}
}

func TestRunCycleCollectsResponses(t *testing.T) {
	t.Parallel()

	h := hub.New()
	reply := protocol.NewMessage(protocol.RoleAnalyst, protocol.RoleCommander, protocol.MsgFeedback, "done", nil)
	c := &scriptedCapability{reply: &reply}
	w := agent.NewWorker(protocol.RoleAnalyst, h, c)

	h.Send(protocol.NewMessage(protocol.RoleCommander, protocol.RoleAnalyst, protocol.MsgTaskAssignment, "go", nil))

	out, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(out) != 1 || out[0].Content != "done" {
		t.Fatalf("responses = %+v, want one feedback", out)
	}

	// Responses are returned, not sent: the hub queue must stay empty.
	if h.QueueSize() != 0 {
		t.Errorf("queue size = %d, RunCycle must not send", h.QueueSize())
	}
}

func TestRunCycleAutonomousOnlyWhenIdle(t *testing.T) {
	t.Parallel()

	h := hub.New()
	auto := protocol.NewMessage(protocol.RoleObserver, protocol.RoleCommander, protocol.MsgStatusUpdate, "idle check", nil)
	c := &scriptedCapability{autoReply: &auto}
	w := agent.NewWorker(protocol.RoleObserver, h, c)

	out, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if c.autonomous != 1 {
		t.Errorf("autonomous ran %d times, want 1", c.autonomous)
	}
	if len(out) != 1 || out[0].Content != "idle check" {
		t.Errorf("responses = %+v, want the autonomous reply", out)
	}
}

func TestRunCycleNilResponsesDropped(t *testing.T) {
	t.Parallel()

	h := hub.New()
	c := &scriptedCapability{} // replies nil everywhere
	w := agent.NewWorker(protocol.RoleExecutor, h, c)

	h.Send(protocol.NewMessage(protocol.RoleCommander, protocol.RoleExecutor, protocol.MsgTaskAssignment, "x", nil))

	out, err := w.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(out) != 0 {
		t.Errorf("responses = %d, want 0", len(out))
	}
}

func TestRunCycleSurfacesCapabilityError(t *testing.T) {
	t.Parallel()

	h := hub.New()
	boom := errors.New("model unavailable")
	c := &scriptedCapability{processErr: boom}
	w := agent.NewWorker(protocol.RoleReproducer, h, c)

	h.Send(protocol.NewMessage(protocol.RoleCommander, protocol.RoleReproducer, protocol.MsgTaskAssignment, "x", nil))

	if _, err := w.RunCycle(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("RunCycle error = %v, want wrapped %v", err, boom)
	}
}

func TestNewWorkerRegistersRole(t *testing.T) {
	t.Parallel()

	h := hub.New()
	agent.NewWorker(protocol.RoleDesigner, h, &scriptedCapability{})

	if got := len(h.Registered()); got != 1 {
		t.Fatalf("registered roles = %d, want 1", got)
	}
}

func TestCompose(t *testing.T) {
	t.Parallel()

	parent := protocol.NewMessage(protocol.RoleCommander, protocol.RoleObserver, protocol.MsgTaskAssignment, "observe", nil)
	reply := agent.Compose(protocol.RoleObserver, protocol.RoleCommander, protocol.MsgFeedback, "seen", nil, parent)

	if reply.ParentID != parent.ID {
		t.Errorf("parent ID = %q, want %q", reply.ParentID, parent.ID)
	}
	if reply.Sender != protocol.RoleObserver || reply.Receiver != protocol.RoleCommander {
		t.Errorf("unexpected addressing: %+v", reply)
	}
}
