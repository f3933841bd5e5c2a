package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/config"
	"github.com/jonwraymond/resourcecache/executor"
	"github.com/jonwraymond/resourcecache/health"
	"github.com/jonwraymond/resourcecache/key"
	"github.com/jonwraymond/resourcecache/notify"
	"github.com/jonwraymond/resourcecache/observe"
	"github.com/jonwraymond/resourcecache/resilience"
	"github.com/jonwraymond/resourcecache/resource"
	"github.com/jonwraymond/resourcecache/secret"
)

const (
	resourceServer = "server"
	resourceUsers  = "users"
	resourceTeams  = "teams"
)

// app wires the resources of one resourcectl process.
type app struct {
	cfg     config.Config
	logger  observe.Logger
	obs     observe.Observer
	secrets *secret.Resolver
	authz   auth.Authorizer

	backend *backend
	server  *resource.DataResource[ServerInfo]
	users   *resource.MapResource[string, User]
	teams   *resource.MapResource[string, Team]

	notices *notify.Service
	health  *health.Aggregator
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, fmt.Errorf("observe: %w", err)
	}
	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("observe: %w", err)
	}
	secrets, err := cfg.Resolver(nil)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("secrets: %w", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  obs.Logger(),
		obs:     obs,
		secrets: secrets,
		authz:   auth.NewRBACAuthorizer(cfg.Auth.RBAC),
		backend: newBackend(cfg.Seed, cfg.Server),
		health:  health.NewAggregator(),
	}
	a.notices = notify.NewService(notify.WithLogger(a.logger))

	policy := resilience.NewPolicy(cfg.Loader, resilience.PolicyHooks{
		OnRetry: func(attempt int, err error, delay time.Duration) {
			a.logger.Warn(context.Background(), "retrying fetch",
				observe.Field{Key: "attempt", Value: attempt},
				observe.Field{Key: "delay", Value: delay.String()},
				observe.Field{Key: "error", Value: err.Error()},
			)
		},
		OnStateChange: func(from, to resilience.State) {
			a.logger.Warn(context.Background(), "backend circuit changed",
				observe.Field{Key: "from", Value: from.String()},
				observe.Field{Key: "to", Value: to.String()},
			)
		},
	})
	opts := []resource.Option{
		resource.WithObserver(mw),
		resource.WithLoaderPolicy(policy),
		resource.WithLogger(a.logger),
	}

	a.server = resource.NewDataResource(resourceServer, a.backend.fetchServerInfo, opts...)
	a.users = resource.NewMapResource(resourceUsers, func(u User) string { return u.ID }, a.backend.fetchUsers, opts...)
	a.teams = resource.NewMapResource(resourceTeams, func(t Team) string { return t.ID }, a.loadTeams, opts...)

	if err := a.users.RegisterAlias(aliasTeam, func(al key.Alias, u User) bool {
		return u.Team == al.Params
	}); err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	a.server.Require(auth.Gate(a.authz, resourceServer))
	a.users.Require(auth.Gate(a.authz, resourceUsers))
	a.teams.Require(auth.Gate(a.authz, resourceTeams))

	// Team members are derived from users, so teams preload users and
	// go stale whenever users change.
	resource.Sync(a.teams, a.users, nil, nil)

	a.server.OnDataError().AddHandler(func(ctx context.Context, e *resource.LoadError[resource.Unit], _ *executor.Contexts) error {
		a.notices.Error(ctx, "Failed to load server info", e)
		return nil
	})
	a.users.OnDataError().AddHandler(a.reportLoadError("Failed to load users"))
	a.teams.OnDataError().AddHandler(a.reportLoadError("Failed to load teams"))

	a.health.Register(
		a.server.HealthChecker(),
		a.users.HealthChecker(),
		a.teams.HealthChecker(),
		health.NewCheckerFunc("backend", a.checkBackend(policy)),
	)
	return a, nil
}

func (a *app) reportLoadError(title string) executor.Handler[*resource.LoadError[string]] {
	return func(ctx context.Context, e *resource.LoadError[string], _ *executor.Contexts) error {
		a.notices.Error(ctx, title, e)
		return nil
	}
}

func (a *app) checkBackend(policy *resilience.Executor) func(context.Context) health.Result {
	return func(context.Context) health.Result {
		cb := policy.CircuitBreaker()
		if cb == nil {
			return health.Healthy("no circuit breaker")
		}
		switch cb.State() {
		case resilience.StateOpen:
			return health.Unhealthy("circuit open", resilience.ErrCircuitOpen)
		case resilience.StateHalfOpen:
			return health.Degraded("circuit half-open")
		default:
			return health.Healthy("circuit closed")
		}
	}
}

// loadTeams fetches teams and fills Members from the users already cached
// by the preload link.
func (a *app) loadTeams(ctx context.Context, req resource.Request[string]) ([]Team, error) {
	teams, err := a.backend.fetchTeams(ctx, req)
	if err != nil {
		return nil, err
	}
	for i := range teams {
		teams[i].Members = nil
		for _, u := range a.users.GetMany(key.FromAlias[string](key.Alias{Name: aliasTeam, Params: teams[i].ID})) {
			teams[i].Members = append(teams[i].Members, u.ID)
		}
	}
	return teams, nil
}

// session returns ctx carrying the identity for token. Tokens are only
// verified when present, so the signing key is resolved lazily.
func (a *app) session(ctx context.Context, token string) (context.Context, error) {
	if token == "" {
		return auth.Session(ctx, nil, "")
	}
	authn, err := a.authenticator(ctx)
	if err != nil {
		return ctx, err
	}
	return auth.Session(ctx, authn, token)
}

func (a *app) authenticator(ctx context.Context) (*auth.JWTAuthenticator, error) {
	signingKey, err := a.cfg.SigningKey(ctx, a.secrets)
	if err != nil {
		return nil, err
	}
	return auth.NewJWTAuthenticator(a.cfg.Auth.JWT, auth.NewStaticKeyProvider(signingKey)), nil
}

// renameUser updates a user remotely and stores the result. Loads of the
// same user wait for the update.
func (a *app) renameUser(ctx context.Context, id, name string) (User, error) {
	if err := auth.Require(ctx, a.authz, resourceUsers, auth.ActionWrite); err != nil {
		return User{}, err
	}

	var updated User
	err := a.users.PerformUpdate(ctx, key.One(id), func(ctx context.Context) error {
		u, err := a.backend.renameUser(ctx, id, name)
		if err != nil {
			return err
		}
		if prev, ok := a.users.Get(id); ok && prev.Email != "" {
			u.Email = prev.Email
		}
		a.users.Set(ctx, u)
		updated = u
		return nil
	})
	if errors.Is(err, errUserNotFound) {
		return User{}, fmt.Errorf("%w: %s %s", resource.ErrNotFound, resourceUsers, id)
	}
	return updated, err
}

func (a *app) close(ctx context.Context) error {
	return errors.Join(a.secrets.Close(), a.obs.Shutdown(ctx))
}
