package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/resourcecache/auth"
	"github.com/jonwraymond/resourcecache/health"
	"github.com/jonwraymond/resourcecache/key"
	"github.com/jonwraymond/resourcecache/observe"
	"github.com/jonwraymond/resourcecache/resilience"
	"github.com/jonwraymond/resourcecache/resource"
)

type noticeResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Message   string    `json:"message,omitempty"`
	Details   string    `json:"details,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// routes serves the cached resources over HTTP. Requests authenticate
// with an optional "Authorization: Bearer <token>" header.
func (a *app) routes() http.Handler {
	mux := http.NewServeMux()
	health.RegisterHandlers(mux, a.health)
	// The OpenTelemetry prometheus exporter registers with the default registry.
	if m := a.cfg.Observe.Metrics; m.Enabled && m.Exporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	mux.HandleFunc("GET /v1/server", a.handleServer)
	mux.HandleFunc("GET /v1/users", a.handleUsers)
	mux.HandleFunc("GET /v1/users/{id}", a.handleUser)
	mux.HandleFunc("GET /v1/teams", a.handleTeams)
	mux.HandleFunc("GET /v1/notifications", a.handleNotifications)

	return a.withSession(mux)
}

func (a *app) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, err := a.session(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *app) handleServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := auth.Require(ctx, a.authz, resourceServer, auth.ActionRead); err != nil {
		a.writeError(w, r, err)
		return
	}
	if flag(r, "refresh") {
		a.server.MarkOutdated(ctx)
	}
	info, err := a.server.LoadData(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *app) handleUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := auth.Require(ctx, a.authz, resourceUsers, auth.ActionRead); err != nil {
		a.writeError(w, r, err)
		return
	}

	k := key.All[string]()
	if team := r.URL.Query().Get("team"); team != "" {
		k = key.FromAlias[string](key.Alias{Name: aliasTeam, Params: team})
	}
	var includes []string
	if flag(r, "email") {
		includes = append(includes, includeEmail)
	}

	load := a.users.Load
	if flag(r, "refresh") {
		load = a.users.Refresh
	}
	if err := load(ctx, k, includes...); err != nil {
		a.writeError(w, r, err)
		return
	}
	users := a.users.GetMany(k)
	if users == nil {
		users = []User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (a *app) handleUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := auth.Require(ctx, a.authz, resourceUsers, auth.ActionRead); err != nil {
		a.writeError(w, r, err)
		return
	}
	u, err := a.users.LoadValue(ctx, r.PathValue("id"), includeEmail)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (a *app) handleTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := auth.Require(ctx, a.authz, resourceTeams, auth.ActionRead); err != nil {
		a.writeError(w, r, err)
		return
	}
	teams, err := a.teams.LoadAll(ctx)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if teams == nil {
		teams = []Team{}
	}
	writeJSON(w, http.StatusOK, teams)
}

func (a *app) handleNotifications(w http.ResponseWriter, _ *http.Request) {
	notices := a.notices.List()
	out := make([]noticeResponse, 0, len(notices))
	for _, n := range notices {
		out = append(out, noticeResponse{
			ID:        n.ID,
			Kind:      n.Kind.String(),
			Title:     n.Title,
			Message:   n.Message,
			Details:   n.Details,
			CreatedAt: n.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *app) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		a.logger.Error(r.Context(), "request failed",
			observe.Field{Key: "path", Value: r.URL.Path},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenMalformed),
		errors.Is(err, auth.ErrMissingCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, resource.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, resilience.ErrCircuitOpen),
		errors.Is(err, resilience.ErrRateLimitExceeded),
		errors.Is(err, resilience.ErrConcurrencyLimit):
		return http.StatusServiceUnavailable
	case errors.Is(err, resilience.ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func flag(r *http.Request, name string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
