// Package secret resolves secret references in configuration values.
//
// A value is first expanded against the environment (see ExpandEnvStrict),
// then every "secretref:<provider>:<ref>" in it is replaced by the value
// the named provider returns:
//
//	jwt_secret = "secretref:env:RESOURCECTL_JWT_SECRET"
//	jwt_secret = "secretref:file:/run/secrets/jwt"
//
// The env and file providers are built in and registered with
// DefaultRegistry.
package secret
