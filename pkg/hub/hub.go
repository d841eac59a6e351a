// Package hub implements the in-process communication hub for the hexad
// engine: a shared message queue, an append-only history, and per-role state
// tracking. All mutation is serialized behind a single mutex; worker code
// never touches hub state directly.
//
// Delivery semantics: Fetch drains every queued message addressed to the
// fetching role plus every broadcast (no receiver). A broadcast is therefore
// consumed by the first role that polls after it was sent, not fanned out to
// all roles. The engine's role-addressed request/response protocol only uses
// broadcasts for terminal status updates, where single delivery is enough.
package hub

import (
	"sync"
	"time"

	"hexad/pkg/protocol"
)

// WorkerState tracks one registered role. Owned exclusively by the Hub;
// callers only see copies via Snapshot.
type WorkerState struct {
	Role        protocol.Role
	Status      protocol.Status
	CurrentTask string
	LastMessage *protocol.Message
	Results     map[string]any
}

// StateSnapshot is a read-only copy of a WorkerState handed to callers.
type StateSnapshot struct {
	Role        protocol.Role
	Status      protocol.Status
	CurrentTask string
	LastMessage time.Time // zero if the role has sent nothing
	HasResults  bool
}

// Hub is the central message exchange. The zero value is not usable; call New.
type Hub struct {
	mu      sync.Mutex
	queue   []protocol.Message
	history []protocol.Message
	states  map[protocol.Role]*WorkerState

	// observer, if set, sees every message accepted by Send. Used by the
	// trajectory recorder; must not call back into the hub.
	observer func(protocol.Message)
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{
		states: make(map[protocol.Role]*WorkerState),
	}
}

// SetObserver installs a callback invoked for every sent message. Pass nil
// to remove. Intended for trajectory recording, not for routing.
func (h *Hub) SetObserver(fn func(protocol.Message)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = fn
}

// Register creates the WorkerState for a role if absent. Registering an
// already-registered role is a no-op: existing status and results survive.
func (h *Hub) Register(role protocol.Role) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.states[role]; ok {
		return
	}
	h.states[role] = &WorkerState{
		Role:    role,
		Status:  protocol.StatusIdle,
		Results: make(map[string]any),
	}
}

// Send appends a message to the queue and history. If the sender is
// registered, the message is recorded as that role's last message. The
// receiver is not validated: a message addressed to an unregistered role is
// accepted and simply never fetched.
func (h *Hub) Send(msg protocol.Message) {
	h.mu.Lock()
	h.queue = append(h.queue, msg)
	h.history = append(h.history, msg)
	if st, ok := h.states[msg.Sender]; ok {
		m := msg
		st.LastMessage = &m
	}
	observer := h.observer
	h.mu.Unlock()

	if observer != nil {
		observer(msg)
	}
}

// Fetch returns, in queue order, every message whose receiver equals role or
// is absent, and removes exactly those from the queue.
func (h *Hub) Fetch(role protocol.Role) []protocol.Message {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []protocol.Message
	remaining := h.queue[:0]
	for _, msg := range h.queue {
		if msg.Receiver == role || msg.Broadcast() {
			out = append(out, msg)
			continue
		}
		remaining = append(remaining, msg)
	}
	h.queue = remaining
	return out
}

// UpdateStatus sets a role's status and, when task is non-empty, its current
// task label. Unregistered roles are ignored.
func (h *Hub) UpdateStatus(role protocol.Role, status protocol.Status, task string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.states[role]
	if !ok {
		return
	}
	st.Status = status
	if task != "" {
		st.CurrentTask = task
	}
}

// GetStatus returns a role's status, StatusIdle if unregistered.
func (h *Hub) GetStatus(role protocol.Role) protocol.Status {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.states[role]; ok {
		return st.Status
	}
	return protocol.StatusIdle
}

// SetResult stores a named result under a role's state. Unregistered roles
// are ignored. The commander uses this to publish the final answer.
func (h *Hub) SetResult(role protocol.Role, key string, value any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if st, ok := h.states[role]; ok {
		st.Results[key] = value
	}
}

// Result reads a named result from a role's state.
func (h *Hub) Result(role protocol.Role, key string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.states[role]
	if !ok {
		return nil, false
	}
	v, ok := st.Results[key]
	return v, ok
}

// Snapshot returns a copy of a role's state, false if unregistered.
func (h *Hub) Snapshot(role protocol.Role) (StateSnapshot, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	st, ok := h.states[role]
	if !ok {
		return StateSnapshot{}, false
	}
	snap := StateSnapshot{
		Role:        st.Role,
		Status:      st.Status,
		CurrentTask: st.CurrentTask,
		HasResults:  len(st.Results) > 0,
	}
	if st.LastMessage != nil {
		snap.LastMessage = st.LastMessage.Timestamp
	}
	return snap, ok
}

// Registered returns the registered roles in workflow order.
func (h *Hub) Registered() []protocol.Role {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []protocol.Role
	for _, r := range protocol.AllRoles() {
		if _, ok := h.states[r]; ok {
			out = append(out, r)
		}
	}
	return out
}

// QueueSize returns the number of undelivered messages.
func (h *Hub) QueueSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// HistorySize returns the number of messages ever sent.
func (h *Hub) HistorySize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

// History returns a copy of the full message history.
func (h *Hub) History() []protocol.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]protocol.Message, len(h.history))
	copy(out, h.history)
	return out
}
