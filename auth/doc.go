// Package auth resolves session identities and decides which resources
// they may load.
//
// A session token is turned into an Identity by an Authenticator (JWT is
// provided). The identity travels in the context. Authorizers answer
// whether an identity may perform an action on a named resource, and Gate
// adapts an authorizer into a load gate for a resource.
package auth
