package protocol

import (
	"errors"
	"fmt"
)

// ErrCommanderNotRegistered is returned by the orchestrator when a task is
// started before a commander worker has been registered.
var ErrCommanderNotRegistered = errors.New("commander worker must be registered")

// CycleLimitExceededResult is the fixed result string returned when the
// coordination loop reaches its cycle ceiling without completion. It is a
// result value, not an error: per-role failures never abort the run.
const CycleLimitExceededResult = "Task execution exceeded maximum cycles."

// CycleFailureError wraps an error (or recovered panic) raised inside one
// worker's run cycle. The orchestrator logs it and skips that worker for the
// cycle; it enables typed discrimination via errors.As.
type CycleFailureError struct {
	Role  Role
	Cycle int
	Err   error
}

func (e *CycleFailureError) Error() string {
	return fmt.Sprintf("worker %s failed in cycle %d: %v", e.Role, e.Cycle, e.Err)
}

func (e *CycleFailureError) Unwrap() error {
	return e.Err
}

// InitError represents a failure while constructing or registering workers.
// The façade surfaces it as an error string rather than propagating it.
type InitError struct {
	Role Role
	Err  error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("initialize worker %s: %v", e.Role, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}
