package auth

import "context"

// Require authorizes the identity carried by ctx for action on resource.
// A context without identity is treated as anonymous.
func Require(ctx context.Context, authz Authorizer, resource, action string) error {
	id := IdentityFromContext(ctx)
	if id == nil {
		id = AnonymousIdentity()
	}
	return authz.Authorize(ctx, &AuthzRequest{
		Subject:  id,
		Resource: resource,
		Action:   action,
	})
}

// Gate returns a load gate for resource: loads proceed only while the
// session in the load context may read it. The result is meant for
// resource.Require.
func Gate(authz Authorizer, resource string) func(ctx context.Context) bool {
	return func(ctx context.Context) bool {
		return Require(ctx, authz, resource, ActionRead) == nil
	}
}
