// Package config loads the resourcectl configuration file.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/observe"
	"github.com/jonwraymond/resourcecache/resilience"
	"github.com/jonwraymond/resourcecache/secret"
)

// Config is the whole configuration file.
type Config struct {
	Observe observe.Config `toml:"observe"`
	Auth    AuthConfig     `toml:"auth"`

	// Secrets configures secret providers by name, e.g. [secrets.file].
	// Without sections the env and file providers are available with
	// their defaults.
	Secrets map[string]map[string]any `toml:"secrets"`

	// Loader is the policy applied to every resource loader.
	Loader resilience.PolicyConfig `toml:"loader"`

	Server ServerConfig `toml:"server"`
	Seed   SeedConfig   `toml:"seed"`
}

// AuthConfig configures session tokens and permissions.
type AuthConfig struct {
	JWT auth.JWTConfig `toml:"jwt"`

	// SigningKey is the HMAC key for session tokens. It is usually a
	// secret reference such as "secretref:env:RESOURCECTL_JWT_SECRET".
	SigningKey string `toml:"signing_key"`

	RBAC auth.RBACConfig `toml:"rbac"`
}

// ServerConfig is what the demo backend reports about itself.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Addr    string `toml:"addr"`
}

// SeedConfig is the data the demo backend starts with.
type SeedConfig struct {
	// Latency delays every backend call.
	Latency time.Duration `toml:"latency"`

	Users []UserSeed `toml:"users"`
	Teams []TeamSeed `toml:"teams"`
}

// UserSeed is one seeded user.
type UserSeed struct {
	ID    string `toml:"id"`
	Name  string `toml:"name"`
	Email string `toml:"email"`
	Team  string `toml:"team"`
}

// TeamSeed is one seeded team.
type TeamSeed struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

// ErrUnknownKeys is returned when the file sets keys no field decodes.
var ErrUnknownKeys = errors.New("config: unknown keys")

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Observe: observe.Config{
			ServiceName: "resourcectl",
			Version:     "dev",
			Tracing:     observe.TracingConfig{Exporter: "none", SamplePct: 1},
			Metrics:     observe.MetricsConfig{Exporter: "none"},
			Logging:     observe.LoggingConfig{Enabled: true, Level: "warn"},
		},
		Auth: AuthConfig{
			JWT:        auth.JWTConfig{Issuer: "resourcectl", Audience: "resourcecache"},
			SigningKey: "secretref:env:RESOURCECTL_JWT_SECRET",
			RBAC: auth.RBACConfig{
				DefaultRole: "viewer",
				Roles: map[string]auth.RoleConfig{
					"viewer": {Permissions: []string{"server:read", "users:read", "teams:read"}},
					"admin":  {Permissions: []string{"*"}},
				},
			},
		},
		Loader: resilience.PolicyConfig{
			Retry:   resilience.RetryPolicy{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, Backoff: "exponential", Jitter: true},
			Timeout: 10 * time.Second,
		},
		Server: ServerConfig{Name: "demo", Version: "1.0.0", Addr: "127.0.0.1:8080"},
		Seed: SeedConfig{
			Users: []UserSeed{
				{ID: "alice", Name: "Alice", Email: "alice@example.com", Team: "core"},
				{ID: "bob", Name: "Bob", Email: "bob@example.com", Team: "core"},
				{ID: "carol", Name: "Carol", Email: "carol@example.com", Team: "web"},
			},
			Teams: []TeamSeed{
				{ID: "core", Name: "Core"},
				{ID: "web", Name: "Web"},
			},
		},
	}
}

// Load reads the file at path over Default. An empty path or a missing
// file yields Default. The result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(string(data))
}

// Parse decodes TOML text over Default and validates the result.
func Parse(data string) (Config, error) {
	cfg := Default()
	md, err := toml.Decode(data, &cfg)
	if err != nil {
		return Default(), fmt.Errorf("failed to parse config file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			// Provider sections are free-form.
			if len(k) > 0 && k[0] == "secrets" {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			return Default(), fmt.Errorf("%w: %s", ErrUnknownKeys, strings.Join(keys, ", "))
		}
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	if err := c.Observe.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("observe: %w", err))
	}
	if err := c.Loader.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("loader: %w", err))
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if rbac := c.Auth.RBAC; rbac.DefaultRole != "" {
		if _, ok := rbac.Roles[rbac.DefaultRole]; !ok {
			errs = append(errs, fmt.Errorf("auth.rbac.default_role %q is not defined", rbac.DefaultRole))
		}
	}
	errs = append(errs, c.Seed.validate()...)
	return errors.Join(errs...)
}

func (s SeedConfig) validate() []error {
	var errs []error
	if s.Latency < 0 {
		errs = append(errs, errors.New("seed.latency must not be negative"))
	}

	teams := make([]string, 0, len(s.Teams))
	for _, t := range s.Teams {
		if t.ID == "" {
			errs = append(errs, errors.New("seed.teams: id is required"))
			continue
		}
		if slices.Contains(teams, t.ID) {
			errs = append(errs, fmt.Errorf("seed.teams: duplicate id %q", t.ID))
		}
		teams = append(teams, t.ID)
	}

	var users []string
	for _, u := range s.Users {
		if u.ID == "" {
			errs = append(errs, errors.New("seed.users: id is required"))
			continue
		}
		if slices.Contains(users, u.ID) {
			errs = append(errs, fmt.Errorf("seed.users: duplicate id %q", u.ID))
		}
		if u.Team != "" && !slices.Contains(teams, u.Team) {
			errs = append(errs, fmt.Errorf("seed.users: %q references unknown team %q", u.ID, u.Team))
		}
		users = append(users, u.ID)
	}
	return errs
}

// Resolver builds the secret resolver for the configured providers.
func (c *Config) Resolver(reg *secret.Registry) (*secret.Resolver, error) {
	if reg == nil {
		reg = secret.DefaultRegistry
	}
	sections := c.Secrets
	if len(sections) == 0 {
		sections = map[string]map[string]any{"env": nil, "file": nil}
	}
	return reg.NewResolver(true, sections)
}

// SigningKey resolves the session signing key.
func (c *Config) SigningKey(ctx context.Context, r *secret.Resolver) ([]byte, error) {
	v, err := r.ResolveValue(ctx, c.Auth.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("auth.signing_key: %w", err)
	}
	if v == "" {
		return nil, fmt.Errorf("auth.signing_key: %w", auth.ErrMissingSigningKey)
	}
	return []byte(v), nil
}

// Init writes the default configuration to path. It refuses to overwrite
// an existing file unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists: %s", path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	cfg := Default()
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
