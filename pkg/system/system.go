// Package system assembles the engine: one hub, six role workers, and an
// orchestrator, behind a single request/response entry point.
package system

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hexad/pkg/agent"
	"hexad/pkg/hub"
	"hexad/pkg/llm"
	"hexad/pkg/orchestrator"
	"hexad/pkg/protocol"
	"hexad/pkg/roles"
)

// Option configures a System before initialization.
type Option func(*System)

// WithCompleter backs every specialist role with the given completion
// backend. Without one the specialists run their deterministic templates.
func WithCompleter(c llm.Completer) Option {
	return func(s *System) { s.completer = c }
}

// WithLogger sets the structured logger shared by the commander and the
// orchestrator.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMessageObserver installs a callback invoked for every message the hub
// accepts. Used to record run trajectories.
func WithMessageObserver(fn func(protocol.Message)) Option {
	return func(s *System) { s.msgObserver = fn }
}

// WithOrchestratorOptions forwards options to the underlying orchestrator.
func WithOrchestratorOptions(opts ...orchestrator.Option) Option {
	return func(s *System) { s.orchOpts = append(s.orchOpts, opts...) }
}

// RoleStatus is one role's slice of the system snapshot.
type RoleStatus struct {
	Role        protocol.Role   `json:"role"`
	Status      protocol.Status `json:"status"`
	CurrentTask string          `json:"current_task,omitempty"`
	LastMessage time.Time       `json:"last_message,omitzero"`
	HasResults  bool            `json:"has_results"`
}

// Status is a point-in-time snapshot of the assembled system.
type Status struct {
	Initialized bool         `json:"initialized"`
	Running     bool         `json:"running"`
	MaxCycles   int          `json:"max_cycles"`
	QueueSize   int          `json:"queue_size"`
	HistorySize int          `json:"history_size"`
	Roles       []RoleStatus `json:"roles"`
}

// System is the assembly façade. Zero value is not usable; construct with
// New. Initialization is lazy: ProcessUserRequest initializes on first use.
type System struct {
	log         *slog.Logger
	completer   llm.Completer
	msgObserver func(protocol.Message)
	orchOpts    []orchestrator.Option

	mu          sync.Mutex
	hub         *hub.Hub
	orch        *orchestrator.Orchestrator
	initialized bool
}

// New creates an unassembled system.
func New(opts ...Option) *System {
	s := &System{log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize wires the hub, the six role workers, and the orchestrator.
// Idempotent; returns the first assembly error and leaves the system
// uninitialized on failure.
func (s *System) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initializeLocked()
}

func (s *System) initializeLocked() error {
	if s.initialized {
		return nil
	}

	h := hub.New()
	if s.msgObserver != nil {
		h.SetObserver(s.msgObserver)
	}

	opts := append([]orchestrator.Option{orchestrator.WithLogger(s.log)}, s.orchOpts...)
	o := orchestrator.New(h, opts...)

	capabilities := map[protocol.Role]agent.Capability{
		protocol.RoleCommander:  roles.NewCommander(h, s.log),
		protocol.RoleObserver:   roles.NewObserver(h, s.completer),
		protocol.RoleAnalyst:    roles.NewAnalyst(h, s.completer),
		protocol.RoleReproducer: roles.NewReproducer(h, s.completer),
		protocol.RoleExecutor:   roles.NewExecutor(h, s.completer),
		protocol.RoleDesigner:   roles.NewDesigner(h, s.completer),
	}
	for _, role := range protocol.AllRoles() {
		capability, ok := capabilities[role]
		if !ok {
			return &protocol.InitError{Role: role, Err: fmt.Errorf("no capability constructed")}
		}
		o.Attach(agent.NewWorker(role, h, capability))
	}

	s.hub = h
	s.orch = o
	s.initialized = true
	s.log.Info("system initialized", "roles", len(capabilities))
	return nil
}

// ProcessUserRequest is the sole external entry point: it initializes the
// engine if needed, runs the task to completion, and returns the
// commander's synthesized result. Cycle exhaustion comes back as the
// result string, not an error; initialization failure and cancellation
// come back as errors.
func (s *System) ProcessUserRequest(ctx context.Context, input string) (string, error) {
	s.mu.Lock()
	if err := s.initializeLocked(); err != nil {
		s.mu.Unlock()
		return "", fmt.Errorf("initialize: %w", err)
	}
	orch := s.orch
	s.mu.Unlock()

	return orch.StartTask(ctx, input)
}

// Hub exposes the message hub, nil before initialization. Read-side
// consumers (status, trajectory) use it; workers never should.
func (s *System) Hub() *hub.Hub {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hub
}

// Status reports the current snapshot. Before initialization only the
// Initialized flag is meaningful.
func (s *System) Status() Status {
	s.mu.Lock()
	h, o, initialized := s.hub, s.orch, s.initialized
	s.mu.Unlock()

	st := Status{Initialized: initialized}
	if !initialized {
		return st
	}

	st.Running = o.Running()
	st.MaxCycles = o.MaxCycles()
	st.QueueSize = h.QueueSize()
	st.HistorySize = h.HistorySize()
	for _, role := range h.Registered() {
		snap, ok := h.Snapshot(role)
		if !ok {
			continue
		}
		st.Roles = append(st.Roles, RoleStatus{
			Role:        snap.Role,
			Status:      snap.Status,
			CurrentTask: snap.CurrentTask,
			LastMessage: snap.LastMessage,
			HasResults:  snap.HasResults,
		})
	}
	return st
}

// Stop cancels an in-flight request. Safe before initialization.
func (s *System) Stop() {
	s.mu.Lock()
	orch := s.orch
	s.mu.Unlock()
	if orch != nil {
		orch.Stop()
	}
}
