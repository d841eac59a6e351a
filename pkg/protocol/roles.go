// Package protocol defines the shared vocabulary of the hexad engine: the
// six fixed roles, the message envelope exchanged between them, worker
// statuses, typed errors, and the SQLite schema for the trajectory log.
package protocol

// Role identifies one of the six fixed specializations. It is an immutable
// routing key: messages are addressed to roles, never to instances.
type Role string

// Role constants.
const (
	RoleCommander  Role = "commander"  // central coordinator, owns the workflow state machine
	RoleObserver   Role = "observer"   // information gathering and system observation
	RoleAnalyst    Role = "analyst"    // pattern analysis over observations
	RoleReproducer Role = "reproducer" // issue reproduction and verification
	RoleExecutor   Role = "executor"   // solution implementation
	RoleDesigner   Role = "designer"   // improvement and optimization design
)

// Valid reports whether r is one of the six known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCommander, RoleObserver, RoleAnalyst, RoleReproducer, RoleExecutor, RoleDesigner:
		return true
	default:
		return false
	}
}

// AllRoles returns the six roles in workflow order, commander first.
func AllRoles() []Role {
	return []Role{
		RoleCommander,
		RoleObserver,
		RoleAnalyst,
		RoleReproducer,
		RoleExecutor,
		RoleDesigner,
	}
}

// Status represents the lifecycle state of a single worker.
type Status string

// Worker status constants.
const (
	StatusIdle      Status = "idle"
	StatusWorking   Status = "working"
	StatusWaiting   Status = "waiting"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)
