package auth

import (
	"context"
	"errors"
	"testing"
)

func TestGate(t *testing.T) {
	authz := testRBAC()
	gate := Gate(authz, "users")

	if gate(context.Background()) {
		t.Error("gate(no identity) = true, want false")
	}

	viewer := WithIdentity(context.Background(), &Identity{Principal: "v", Roles: []string{"viewer"}})
	if !gate(viewer) {
		t.Error("gate(viewer) = false, want true")
	}

	guest := WithIdentity(context.Background(), &Identity{Principal: "g"})
	if gate(guest) {
		t.Error("gate(guest) = true, want false")
	}
	if !Gate(authz, "config")(guest) {
		t.Error("config gate(guest) = false, want true")
	}
}

func TestRequire(t *testing.T) {
	authz := testRBAC()
	ctx := WithIdentity(context.Background(), &Identity{Principal: "v", Roles: []string{"viewer"}})

	if err := Require(ctx, authz, "users", ActionRead); err != nil {
		t.Errorf("Require(read) = %v, want nil", err)
	}
	if err := Require(ctx, authz, "users", ActionWrite); !errors.Is(err, ErrForbidden) {
		t.Errorf("Require(write) = %v, want ErrForbidden", err)
	}
}
