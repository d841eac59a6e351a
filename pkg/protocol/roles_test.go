package protocol_test

import (
	"testing"

	"hexad/pkg/protocol"
)

func TestRoleValid(t *testing.T) {
	t.Parallel()

	for _, r := range protocol.AllRoles() {
		if !r.Valid() {
			t.Errorf("role %q should be valid", r)
		}
	}

	invalid := []protocol.Role{"", "manager", "COMMANDER", "observer "}
	for _, r := range invalid {
		if r.Valid() {
			t.Errorf("role %q should be invalid", r)
		}
	}
}

func TestAllRolesOrder(t *testing.T) {
	t.Parallel()

	roles := protocol.AllRoles()
	if len(roles) != 6 {
		t.Fatalf("expected 6 roles, got %d", len(roles))
	}
	if roles[0] != protocol.RoleCommander {
		t.Errorf("expected commander first, got %q", roles[0])
	}
}
