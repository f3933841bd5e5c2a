package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestAllowAndDenyAll(t *testing.T) {
	ctx := context.Background()
	req := &AuthzRequest{Subject: &Identity{Principal: "alice"}, Resource: "users", Action: ActionRead}

	if err := (AllowAllAuthorizer{}).Authorize(ctx, req); err != nil {
		t.Errorf("AllowAll.Authorize() = %v, want nil", err)
	}

	err := (DenyAllAuthorizer{}).Authorize(ctx, req)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("DenyAll.Authorize() = %v, want ErrForbidden", err)
	}
	var ae *AuthzError
	if !errors.As(err, &ae) {
		t.Fatalf("error %T is not *AuthzError", err)
	}
	if ae.Subject != "alice" || ae.Resource != "users" || ae.Action != ActionRead {
		t.Errorf("AuthzError = %+v, want alice/users/read", ae)
	}
}

func TestAuthzError_Message(t *testing.T) {
	err := &AuthzError{Subject: "bob", Resource: "teams", Action: "write", Reason: "nope"}
	msg := err.Error()
	for _, want := range []string{`"bob"`, `"teams"`, `"write"`, `"nope"`} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %s", msg, want)
		}
	}
	cause := errors.New("cause")
	err.Cause = cause
	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestAuthorizerFunc(t *testing.T) {
	var seen *AuthzRequest
	authz := AuthorizerFunc(func(_ context.Context, req *AuthzRequest) error {
		seen = req
		return nil
	})
	req := &AuthzRequest{Resource: "users", Action: ActionRead}
	if err := authz.Authorize(context.Background(), req); err != nil {
		t.Fatalf("Authorize() = %v", err)
	}
	if seen != req {
		t.Error("function did not receive the request")
	}
	if authz.Name() != "func" {
		t.Errorf("Name() = %q, want %q", authz.Name(), "func")
	}
}
