// Package orchestrator runs the coordination loop: a bounded sequence of
// cycles in which every registered worker gets one run-cycle, concurrently,
// with responses held back until the round completes so all workers observe
// the same message frontier.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/protocol"
)

// DefaultMaxCycles bounds a single task's coordination loop.
const DefaultMaxCycles = 100

// DefaultCycleDelay is the pause between coordination cycles. It keeps a
// hot loop from spinning when every worker is idle.
const DefaultCycleDelay = 100 * time.Millisecond

// DefaultWorkerTimeout bounds one worker's run-cycle so a hung capability
// cannot stall the fan-in forever. The worker is skipped for the round when
// the deadline passes.
const DefaultWorkerTimeout = 2 * time.Minute

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxCycles overrides the cycle budget.
func WithMaxCycles(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxCycles = n
		}
	}
}

// WithCycleDelay overrides the inter-cycle pause. Zero disables it, which
// tests rely on.
func WithCycleDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.cycleDelay = d }
}

// WithWorkerTimeout overrides the per-worker cycle deadline. Zero disables
// it, restoring unbounded fan-in.
func WithWorkerTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.workerTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

// Orchestrator owns the worker set and drives the coordination loop for one
// task at a time.
type Orchestrator struct {
	hub *hub.Hub
	log *slog.Logger

	maxCycles     int
	cycleDelay    time.Duration
	workerTimeout time.Duration

	mu      sync.Mutex
	workers map[protocol.Role]*agent.Worker
	order   []protocol.Role
	cancel  context.CancelFunc
	running bool
}

// New creates an orchestrator bound to the hub.
func New(h *hub.Hub, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		hub:           h,
		log:           slog.Default(),
		maxCycles:     DefaultMaxCycles,
		cycleDelay:    DefaultCycleDelay,
		workerTimeout: DefaultWorkerTimeout,
		workers:       make(map[protocol.Role]*agent.Worker),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Attach adds a worker to the coordination set. Attaching a role twice
// replaces its worker; the scheduling order keeps the first position.
func (o *Orchestrator) Attach(w *agent.Worker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.workers[w.Role()]; !ok {
		o.order = append(o.order, w.Role())
	}
	o.workers[w.Role()] = w
}

// Workers returns the attached roles in scheduling order.
func (o *Orchestrator) Workers() []protocol.Role {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]protocol.Role, len(o.order))
	copy(out, o.order)
	return out
}

// StartTask seeds the task to the commander and runs the coordination loop
// to completion or cycle exhaustion. The returned string is the commander's
// synthesized final result, or the exhaustion notice when the budget ran
// out. An error means the loop could not run at all.
func (o *Orchestrator) StartTask(ctx context.Context, task string) (string, error) {
	o.mu.Lock()
	if _, ok := o.workers[protocol.RoleCommander]; !ok {
		o.mu.Unlock()
		return "", protocol.ErrCommanderNotRegistered
	}
	ctx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.running = true
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	seed := protocol.NewMessage(protocol.RoleCommander, protocol.RoleCommander,
		protocol.MsgTaskAssignment, task, map[string]any{"original_task": task})
	o.hub.Send(seed)

	o.log.Info("task started", "task", task, "max_cycles", o.maxCycles)
	return o.coordinationLoop(ctx)
}

// Running reports whether a coordination loop is in flight.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// MaxCycles returns the configured cycle budget.
func (o *Orchestrator) MaxCycles() int {
	return o.maxCycles
}

// Stop cancels an in-flight coordination loop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (o *Orchestrator) coordinationLoop(ctx context.Context) (string, error) {
	for cycle := 1; cycle <= o.maxCycles; cycle++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		responses := o.runCycle(ctx, cycle)
		for _, msg := range responses {
			o.hub.Send(msg)
		}

		if o.hub.GetStatus(protocol.RoleCommander) == protocol.StatusCompleted {
			o.log.Info("task completed", "cycles", cycle)
			if v, ok := o.hub.Result(protocol.RoleCommander, "final_result"); ok {
				if s, ok := v.(string); ok {
					return s, nil
				}
			}
			return "", nil
		}

		if o.cycleDelay > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(o.cycleDelay):
			}
		}
	}

	o.log.Warn("cycle budget exhausted", "max_cycles", o.maxCycles)
	return protocol.CycleLimitExceededResult, nil
}

// runCycle fans the round out to every worker and collects their responses
// in scheduling order. A worker's error or panic isolates that worker for
// the round: it is logged, its responses are dropped, and every other
// worker's responses still go out.
func (o *Orchestrator) runCycle(ctx context.Context, cycle int) []protocol.Message {
	o.mu.Lock()
	order := make([]protocol.Role, len(o.order))
	copy(order, o.order)
	workers := make([]*agent.Worker, len(order))
	for i, role := range order {
		workers[i] = o.workers[role]
	}
	o.mu.Unlock()

	results := make([][]protocol.Message, len(workers))
	failures := make([]error, len(workers))

	var wg sync.WaitGroup
	for i, w := range workers {
		wg.Add(1)
		go func(i int, w *agent.Worker) {
			defer wg.Done()
			responses, err := o.runWorker(ctx, w)
			if err != nil {
				failures[i] = &protocol.CycleFailureError{Role: w.Role(), Cycle: cycle, Err: err}
				return
			}
			results[i] = responses
		}(i, w)
	}
	wg.Wait()

	var out []protocol.Message
	for i := range workers {
		if failures[i] != nil {
			o.log.Error("worker skipped for cycle", "role", string(order[i]), "error", failures[i])
			continue
		}
		out = append(out, results[i]...)
	}
	return out
}

// runWorker executes one run-cycle under the per-worker deadline, converting
// a panic into an error and a deadline overrun into a skip. A timed-out
// worker's goroutine is abandoned; its late responses are discarded.
func (o *Orchestrator) runWorker(ctx context.Context, w *agent.Worker) ([]protocol.Message, error) {
	if o.workerTimeout <= 0 {
		return runRecovered(ctx, w)
	}

	wctx, cancel := context.WithTimeout(ctx, o.workerTimeout)
	defer cancel()

	type cycleResult struct {
		responses []protocol.Message
		err       error
	}
	done := make(chan cycleResult, 1)
	go func() {
		responses, err := runRecovered(wctx, w)
		done <- cycleResult{responses, err}
	}()

	select {
	case r := <-done:
		return r.responses, r.err
	case <-wctx.Done():
		return nil, wctx.Err()
	}
}

func runRecovered(ctx context.Context, w *agent.Worker) (responses []protocol.Message, err error) {
	defer func() {
		if r := recover(); r != nil {
			responses, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return w.RunCycle(ctx)
}
