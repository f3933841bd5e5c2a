package auth

import (
	"context"
	"strings"
)

// RBACConfig configures the RBAC authorizer.
type RBACConfig struct {
	// Roles defines role configurations keyed by role name.
	Roles map[string]RoleConfig `toml:"roles"`

	// DefaultRole is assigned to identities without explicit roles.
	DefaultRole string `toml:"default_role"`
}

// RoleConfig defines permissions for a role.
type RoleConfig struct {
	// Permissions are explicit permission strings: "<resource>:<action>" or
	// "<action>". Both parts accept "*" and a trailing "*" prefix match.
	Permissions []string `toml:"permissions"`

	// Inherits lists roles this role inherits from.
	Inherits []string `toml:"inherits"`

	// AllowedResources restricts the role to these resource names.
	AllowedResources []string `toml:"allowed_resources"`

	// DeniedResources always wins over any grant.
	DeniedResources []string `toml:"denied_resources"`

	// AllowedActions restricts the role to these actions.
	AllowedActions []string `toml:"allowed_actions"`
}

// RBACAuthorizer provides role-based access control over resources.
type RBACAuthorizer struct {
	config RBACConfig
}

// NewRBACAuthorizer creates a new RBAC authorizer.
func NewRBACAuthorizer(config RBACConfig) *RBACAuthorizer {
	return &RBACAuthorizer{config: config}
}

// Name returns "rbac".
func (a *RBACAuthorizer) Name() string {
	return "rbac"
}

// Authorize checks if the identity is allowed to perform the action.
// Permissions granted directly on the identity are honored too.
func (a *RBACAuthorizer) Authorize(_ context.Context, req *AuthzRequest) error {
	if req.Subject == nil {
		return deny(req, "no identity provided")
	}
	if req.Subject.IsExpired() {
		ae := deny(req, "identity expired")
		ae.Cause = ErrTokenExpired
		return ae
	}

	for _, perm := range req.Subject.Permissions {
		if matchPermission(perm, req) {
			return nil
		}
	}

	for _, roleName := range a.collectRoles(req.Subject) {
		role, ok := a.config.Roles[roleName]
		if !ok {
			continue
		}
		if rolePermits(role, req) {
			return nil
		}
	}

	return deny(req, "no role permits this action")
}

// collectRoles expands the subject's roles breadth first through Inherits.
func (a *RBACAuthorizer) collectRoles(subject *Identity) []string {
	seen := make(map[string]bool)
	var result []string

	queue := append([]string{}, subject.Roles...)
	if len(queue) == 0 && a.config.DefaultRole != "" {
		queue = append(queue, a.config.DefaultRole)
	}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if seen[current] {
			continue
		}
		seen[current] = true
		result = append(result, current)

		if role, ok := a.config.Roles[current]; ok {
			for _, inherited := range role.Inherits {
				if !seen[inherited] {
					queue = append(queue, inherited)
				}
			}
		}
	}
	return result
}

func rolePermits(role RoleConfig, req *AuthzRequest) bool {
	if matchAny(role.DeniedResources, req.Resource) {
		return false
	}
	if len(role.AllowedResources) > 0 && !matchAny(role.AllowedResources, req.Resource) {
		return false
	}
	if len(role.AllowedActions) > 0 && !matchAny(role.AllowedActions, req.Action) {
		return false
	}

	for _, perm := range role.Permissions {
		if matchPermission(perm, req) {
			return true
		}
	}

	// A resource allow list without explicit permissions grants access.
	return len(role.AllowedResources) > 0
}

func matchAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if matchPattern(p, value) {
			return true
		}
	}
	return false
}

// matchPattern matches a pattern against a value.
// Supports "*" and a trailing "*" prefix wildcard.
func matchPattern(pattern, value string) bool {
	if pattern == "*" {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(value, prefix)
	}
	return pattern == value
}

// matchPermission checks a "<resource>:<action>" or "<action>" permission.
func matchPermission(perm string, req *AuthzRequest) bool {
	resource, action, scoped := strings.Cut(perm, ":")
	if !scoped {
		return matchPattern(resource, req.Action)
	}
	return matchPattern(resource, req.Resource) && matchPattern(action, req.Action)
}

var _ Authorizer = (*RBACAuthorizer)(nil)
