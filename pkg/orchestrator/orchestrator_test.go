package orchestrator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/orchestrator"
	"hexad/pkg/protocol"
	"hexad/pkg/roles"
)

// buildEngine wires the full six-role worker set with template capabilities.
func buildEngine(t *testing.T, h *hub.Hub, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	t.Helper()
	opts = append([]orchestrator.Option{orchestrator.WithCycleDelay(0)}, opts...)
	o := orchestrator.New(h, opts...)
	o.Attach(agent.NewWorker(protocol.RoleCommander, h, roles.NewCommander(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleObserver, h, roles.NewObserver(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleAnalyst, h, roles.NewAnalyst(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleReproducer, h, roles.NewReproducer(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleExecutor, h, roles.NewExecutor(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleDesigner, h, roles.NewDesigner(h, nil)))
	return o
}

// flaggedExecutor reports configurable execution flags back to the commander.
type flaggedExecutor struct {
	hub  *hub.Hub
	data map[string]any
}

func (e *flaggedExecutor) ProcessMessage(_ context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	e.hub.UpdateStatus(protocol.RoleExecutor, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleExecutor, protocol.RoleCommander, protocol.MsgFeedback,
		"Execution complete", e.data, msg), nil
}

func (e *flaggedExecutor) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}

// faultyCapability fails or panics on every call, whether commissioned or
// autonomous.
type faultyCapability struct{ panics bool }

func (f *faultyCapability) fail() (*protocol.Message, error) {
	if f.panics {
		panic("capability blew up")
	}
	return nil, errors.New("capability failed")
}

func (f *faultyCapability) ProcessMessage(context.Context, protocol.Message) (*protocol.Message, error) {
	return f.fail()
}

func (f *faultyCapability) AutonomousTask(context.Context) (*protocol.Message, error) {
	return f.fail()
}

func TestStartTaskRequiresCommander(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := orchestrator.New(h, orchestrator.WithCycleDelay(0))
	o.Attach(agent.NewWorker(protocol.RoleObserver, h, roles.NewObserver(h, nil)))

	_, err := o.StartTask(context.Background(), "anything")
	if !errors.Is(err, protocol.ErrCommanderNotRegistered) {
		t.Fatalf("err = %v, want ErrCommanderNotRegistered", err)
	}
}

func TestCleanRunCompletesPipeline(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := buildEngine(t, h)

	result, err := o.StartTask(context.Background(), "investigate slow startup")
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if !strings.Contains(result, "investigate slow startup") {
		t.Errorf("result missing original task: %q", result)
	}
	if !strings.Contains(result, "observation, analysis, reproduction, execution, final") {
		t.Errorf("result missing stage trail: %q", result)
	}
	if result == protocol.CycleLimitExceededResult {
		t.Error("clean run exhausted the cycle budget")
	}
	if h.GetStatus(protocol.RoleCommander) != protocol.StatusCompleted {
		t.Errorf("commander status = %q, want completed", h.GetStatus(protocol.RoleCommander))
	}
}

func TestTroubledExecutionVisitsDesigner(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := buildEngine(t, h)
	o.Attach(agent.NewWorker(protocol.RoleExecutor, h, &flaggedExecutor{
		hub:  h,
		data: map[string]any{"execution": "partial", "has_errors": true},
	}))

	result, err := o.StartTask(context.Background(), "deploy the fix")
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	// Template designer yields no improvements, so the run finalizes after
	// the design stage rather than restarting.
	if result == protocol.CycleLimitExceededResult {
		t.Fatal("design path exhausted the cycle budget")
	}
	if !strings.Contains(result, "Designer Results") {
		t.Errorf("result has no designer contribution: %q", result)
	}
}

func TestImprovementCycleRestartsAndTerminates(t *testing.T) {
	t.Parallel()

	// The executor reports trouble on its first pass only; a backed designer
	// proposes one improvement, restarting the cycle at observation. The
	// clean second pass must finalize instead of looping.
	h := hub.New()
	o := buildEngine(t, h)
	first := true
	o.Attach(agent.NewWorker(protocol.RoleExecutor, h, &togglingExecutor{hub: h, first: &first}))
	designer := roles.NewDesigner(h, llm.CompleterFunc(
		func(ctx context.Context, system, user string) (string, error) {
			return "precompute the lookup table", nil
		}))
	o.Attach(agent.NewWorker(protocol.RoleDesigner, h, designer))

	result, err := o.StartTask(context.Background(), "speed up queries")
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if result == protocol.CycleLimitExceededResult {
		t.Fatal("improvement cycle never terminated")
	}
	if !strings.Contains(result, "speed up queries") {
		t.Errorf("result missing original task: %q", result)
	}
	if !strings.Contains(result, "Designer Results") {
		t.Errorf("result has no designer contribution: %q", result)
	}
	if first {
		t.Error("executor never ran a first pass")
	}
}

// togglingExecutor reports trouble on its first assignment and clean flags
// afterwards.
type togglingExecutor struct {
	hub   *hub.Hub
	first *bool
}

func (e *togglingExecutor) ProcessMessage(_ context.Context, msg protocol.Message) (*protocol.Message, error) {
	if msg.Type != protocol.MsgTaskAssignment {
		return nil, nil
	}
	data := map[string]any{"execution": "clean pass", "has_errors": false}
	if *e.first {
		*e.first = false
		data = map[string]any{"execution": "first pass", "needs_optimization": true}
	}
	e.hub.UpdateStatus(protocol.RoleExecutor, protocol.StatusWaiting, "")
	return agent.Compose(protocol.RoleExecutor, protocol.RoleCommander, protocol.MsgFeedback,
		"Execution complete", data, msg), nil
}

func (e *togglingExecutor) AutonomousTask(context.Context) (*protocol.Message, error) {
	return nil, nil
}

func TestCycleBudgetExhaustion(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := orchestrator.New(h, orchestrator.WithCycleDelay(0), orchestrator.WithMaxCycles(3))
	// A commander alone never completes: the observer it assigns to is absent.
	o.Attach(agent.NewWorker(protocol.RoleCommander, h, roles.NewCommander(h, nil)))

	result, err := o.StartTask(context.Background(), "unfinishable")
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if result != protocol.CycleLimitExceededResult {
		t.Errorf("result = %q, want cycle limit notice", result)
	}
}

func TestFaultyWorkerIsIsolated(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		panics bool
	}{
		{"error", false},
		{"panic", true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := hub.New()
			o := buildEngine(t, h)
			// The designer stays idle on the clean path, so its capability
			// faults every cycle. The run must still complete.
			o.Attach(agent.NewWorker(protocol.RoleDesigner, h, &faultyCapability{panics: tc.panics}))

			result, err := o.StartTask(context.Background(), "clean run with bad bystander")
			if err != nil {
				t.Fatalf("StartTask: %v", err)
			}
			if result == protocol.CycleLimitExceededResult {
				t.Fatal("faulty bystander stalled the run")
			}
		})
	}
}

func TestFaultyStageWorkerExhaustsBudget(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := orchestrator.New(h, orchestrator.WithCycleDelay(0), orchestrator.WithMaxCycles(5))
	o.Attach(agent.NewWorker(protocol.RoleCommander, h, roles.NewCommander(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleObserver, h, &faultyCapability{panics: true}))

	result, err := o.StartTask(context.Background(), "doomed")
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if result != protocol.CycleLimitExceededResult {
		t.Errorf("result = %q, want cycle limit notice", result)
	}
}

// stuckCapability blocks until its context is done.
type stuckCapability struct{}

func (stuckCapability) ProcessMessage(ctx context.Context, _ protocol.Message) (*protocol.Message, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (stuckCapability) AutonomousTask(ctx context.Context) (*protocol.Message, error) {
	return nil, nil
}

func TestHungWorkerSkippedByDeadline(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := orchestrator.New(h,
		orchestrator.WithCycleDelay(0),
		orchestrator.WithMaxCycles(2),
		orchestrator.WithWorkerTimeout(20*time.Millisecond))
	o.Attach(agent.NewWorker(protocol.RoleCommander, h, roles.NewCommander(h, nil)))
	o.Attach(agent.NewWorker(protocol.RoleObserver, h, stuckCapability{}))

	done := make(chan struct{})
	var result string
	var err error
	go func() {
		result, err = o.StartTask(context.Background(), "hangs at observation")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("hung worker blocked the fan-in")
	}
	if err != nil {
		t.Fatalf("StartTask: %v", err)
	}
	if result != protocol.CycleLimitExceededResult {
		t.Errorf("result = %q, want cycle limit notice", result)
	}
}

func TestStopCancelsLoop(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := orchestrator.New(h, orchestrator.WithCycleDelay(10*time.Millisecond), orchestrator.WithMaxCycles(1000))
	o.Attach(agent.NewWorker(protocol.RoleCommander, h, roles.NewCommander(h, nil)))

	done := make(chan error, 1)
	go func() {
		_, err := o.StartTask(context.Background(), "long haul")
		done <- err
	}()

	time.Sleep(30 * time.Millisecond)
	o.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not interrupt the loop")
	}
}

func TestWorkersListedInAttachOrder(t *testing.T) {
	t.Parallel()

	h := hub.New()
	o := buildEngine(t, h)
	// Re-attaching a role keeps its original position.
	o.Attach(agent.NewWorker(protocol.RoleExecutor, h, roles.NewExecutor(h, nil)))

	got := o.Workers()
	want := protocol.AllRoles()
	if len(got) != len(want) {
		t.Fatalf("workers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("workers = %v, want %v", got, want)
		}
	}
}
