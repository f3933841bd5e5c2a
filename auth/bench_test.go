package auth

import (
	"context"
	"testing"
	"time"
)

func BenchmarkRBACAuthorizer_Authorize(b *testing.B) {
	authz := testRBAC()
	req := &AuthzRequest{
		Subject:  &Identity{Principal: "e", Roles: []string{"editor"}},
		Resource: "config",
		Action:   ActionRead,
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = authz.Authorize(ctx, req)
	}
}

func BenchmarkJWTAuthenticator_Authenticate(b *testing.B) {
	cfg := testJWTConfig()
	token, err := IssueToken(cfg, testKey, &Identity{Principal: "alice", Roles: []string{"viewer"}}, time.Hour)
	if err != nil {
		b.Fatal(err)
	}
	authn := NewJWTAuthenticator(cfg, NewStaticKeyProvider(testKey))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = authn.Authenticate(ctx, token)
	}
}
