package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT authenticator.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim).
	Issuer string `toml:"issuer"`

	// Audience is the expected token audience (aud claim).
	Audience string `toml:"audience"`

	// PrincipalClaim is the claim containing the user principal.
	// Default: "sub"
	PrincipalClaim string `toml:"principal_claim"`

	// RolesClaim is the claim containing user roles.
	// Default: "roles"
	RolesClaim string `toml:"roles_claim"`

	// PermissionsClaim is the claim containing direct permissions.
	// Default: "perms"
	PermissionsClaim string `toml:"permissions_claim"`
}

func (c JWTConfig) withDefaults() JWTConfig {
	if c.PrincipalClaim == "" {
		c.PrincipalClaim = "sub"
	}
	if c.RolesClaim == "" {
		c.RolesClaim = "roles"
	}
	if c.PermissionsClaim == "" {
		c.PermissionsClaim = "perms"
	}
	return c
}

// KeyProvider retrieves signing keys for JWT validation.
type KeyProvider interface {
	// GetKey returns the key for the given key ID.
	GetKey(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider provides a static HMAC signing key.
type StaticKeyProvider struct {
	key []byte
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key []byte) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// GetKey returns the static key.
func (p *StaticKeyProvider) GetKey(_ context.Context, _ string) (any, error) {
	if len(p.key) == 0 {
		return nil, ErrMissingSigningKey
	}
	return p.key, nil
}

// JWTAuthenticator validates HMAC-signed session tokens.
type JWTAuthenticator struct {
	config      JWTConfig
	keyProvider KeyProvider
}

// NewJWTAuthenticator creates a new JWT authenticator.
func NewJWTAuthenticator(config JWTConfig, keyProvider KeyProvider) *JWTAuthenticator {
	return &JWTAuthenticator{
		config:      config.withDefaults(),
		keyProvider: keyProvider,
	}
}

// Name returns "jwt".
func (a *JWTAuthenticator) Name() string {
	return "jwt"
}

// Authenticate validates the token and builds an identity from its claims.
func (a *JWTAuthenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrMissingCredentials
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithIssuedAt(),
	}
	if a.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.config.Issuer))
	}
	if a.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(a.config.Audience))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		return a.keyProvider.GetKey(ctx, kid)
	}, opts...)
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, wrapJWTError(ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return nil, wrapJWTError(ErrTokenMalformed, err)
	default:
		return nil, wrapJWTError(ErrInvalidCredentials, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidCredentials
	}
	return a.buildIdentity(claims), nil
}

func (a *JWTAuthenticator) buildIdentity(claims jwt.MapClaims) *Identity {
	id := &Identity{
		Method:      AuthMethodJWT,
		Claims:      make(map[string]any, len(claims)),
		Roles:       stringsClaim(claims[a.config.RolesClaim]),
		Permissions: stringsClaim(claims[a.config.PermissionsClaim]),
	}
	for k, v := range claims {
		id.Claims[k] = v
	}
	if principal, ok := claims[a.config.PrincipalClaim].(string); ok {
		id.Principal = principal
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
	}
	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		id.IssuedAt = iat.Time
	}
	return id
}

func stringsClaim(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	default:
		return nil
	}
}

// IssueToken signs an HS256 token for id that validates against config.
// A zero ttl issues a token without expiry.
func IssueToken(config JWTConfig, key []byte, id *Identity, ttl time.Duration) (string, error) {
	if len(key) == 0 {
		return "", ErrMissingSigningKey
	}
	config = config.withDefaults()

	now := time.Now()
	claims := jwt.MapClaims{
		config.PrincipalClaim: id.Principal,
		"iat":                 jwt.NewNumericDate(now),
	}
	if ttl > 0 {
		claims["exp"] = jwt.NewNumericDate(now.Add(ttl))
	}
	if config.Issuer != "" {
		claims["iss"] = config.Issuer
	}
	if config.Audience != "" {
		claims["aud"] = config.Audience
	}
	if len(id.Roles) > 0 {
		claims[config.RolesClaim] = id.Roles
	}
	if len(id.Permissions) > 0 {
		claims[config.PermissionsClaim] = id.Permissions
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("jwt: sign: %w", err)
	}
	return signed, nil
}

func wrapJWTError(sentinel, err error) error {
	return fmt.Errorf("jwt: %w: %v", sentinel, err)
}

var (
	_ Authenticator = (*JWTAuthenticator)(nil)
	_ KeyProvider   = (*StaticKeyProvider)(nil)
)
