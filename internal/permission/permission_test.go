package permission

import (
	"testing"

	"govkernel/internal/api"
)

func TestAllowAllAlwaysGrants(t *testing.T) {
	p := AllowAll{}
	if !p.IsAllowed("mod-a", "anything", api.AccessExecute) {
		t.Fatal("AllowAll should always return true")
	}
}

func TestPatternMatchesGlob(t *testing.T) {
	p := New()
	p.SetGrants("mod-a", []api.PermissionGrant{
		{Pattern: "orders.*", AccessKind: api.AccessExecute},
	})

	if !p.IsAllowed("mod-a", "orders.create", api.AccessExecute) {
		t.Fatal("expected orders.create to match orders.*")
	}
	if p.IsAllowed("mod-a", "accounts.create", api.AccessExecute) {
		t.Fatal("accounts.create should not match orders.*")
	}
}

func TestPatternRespectsAccessKind(t *testing.T) {
	p := New()
	p.SetGrants("mod-a", []api.PermissionGrant{
		{Pattern: "orders.*", AccessKind: api.AccessRead},
	})

	if p.IsAllowed("mod-a", "orders.create", api.AccessExecute) {
		t.Fatal("a READ grant should not satisfy an EXECUTE request")
	}
}

func TestRemovePluginDropsGrants(t *testing.T) {
	p := New()
	p.SetGrants("mod-a", []api.PermissionGrant{{Pattern: "*", AccessKind: api.AccessExecute}})
	p.RemovePlugin("mod-a")

	if p.IsAllowed("mod-a", "anything", api.AccessExecute) {
		t.Fatal("grants should be gone after RemovePlugin")
	}
}
