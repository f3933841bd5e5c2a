package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/resourcecache/config"
	"github.com/jonwraymond/resourcecache/key"
	"github.com/jonwraymond/resourcecache/resource"
)

// User is a cached user entity.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Team  string `json:"team,omitempty"`
}

// Team is a cached team entity. Members are derived from cached users.
type Team struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// ServerInfo describes the backend.
type ServerInfo struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Users     int       `json:"users"`
	Teams     int       `json:"teams"`
	StartedAt time.Time `json:"started_at"`
}

const (
	includeEmail = "email"
	aliasTeam    = "team"
)

var errUserNotFound = errors.New("backend: user not found")

// backend is the in-memory remote service the resources load from.
type backend struct {
	latency time.Duration
	info    ServerInfo

	mu    sync.RWMutex
	users []User
	teams []Team

	calls    atomic.Int64
	failNext atomic.Int32
}

func newBackend(seed config.SeedConfig, server config.ServerConfig) *backend {
	b := &backend{
		latency: seed.Latency,
		info: ServerInfo{
			Name:      server.Name,
			Version:   server.Version,
			StartedAt: time.Now().UTC(),
		},
	}
	for _, u := range seed.Users {
		b.users = append(b.users, User{ID: u.ID, Name: u.Name, Email: u.Email, Team: u.Team})
	}
	for _, t := range seed.Teams {
		b.teams = append(b.teams, Team{ID: t.ID, Name: t.Name})
	}
	return b
}

// call simulates a round trip.
func (b *backend) call(ctx context.Context) error {
	b.calls.Add(1)
	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if b.failNext.Load() > 0 && b.failNext.Add(-1) >= 0 {
		return errors.New("backend: service unavailable")
	}
	return nil
}

func (b *backend) fetchUsers(ctx context.Context, req resource.Request[string]) ([]User, error) {
	if err := b.call(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []User
	for _, u := range b.users {
		if !matchUser(req.Key, u) {
			continue
		}
		if !slices.Contains(req.Includes, includeEmail) {
			u.Email = ""
		}
		out = append(out, u)
	}
	return out, nil
}

func matchUser(k key.Key[string], u User) bool {
	if k.IsAll() {
		return true
	}
	if a, ok := k.Alias(); ok {
		return a.Name == aliasTeam && u.Team == a.Params
	}
	return key.Contains(k, u.ID)
}

func (b *backend) fetchTeams(ctx context.Context, req resource.Request[string]) ([]Team, error) {
	if err := b.call(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Team
	for _, t := range b.teams {
		if req.Key.IsAll() || key.Contains(req.Key, t.ID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (b *backend) fetchServerInfo(ctx context.Context, _ resource.Request[resource.Unit]) (ServerInfo, error) {
	if err := b.call(ctx); err != nil {
		return ServerInfo{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	info := b.info
	info.Users = len(b.users)
	info.Teams = len(b.teams)
	return info, nil
}

func (b *backend) renameUser(ctx context.Context, id, name string) (User, error) {
	if err := b.call(ctx); err != nil {
		return User{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.users, func(u User) bool { return u.ID == id })
	if i < 0 {
		return User{}, fmt.Errorf("%w: %s", errUserNotFound, id)
	}
	b.users[i].Name = name
	return b.users[i], nil
}
