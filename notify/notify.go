package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/resourcecache/collection"
	"github.com/jonwraymond/resourcecache/deferred"
	"github.com/jonwraymond/resourcecache/executor"
	"github.com/jonwraymond/resourcecache/observe"
)

// Kind classifies a notification.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarning
	KindError
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindInfo:
		return "info"
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Detailer is implemented by errors that carry detail worth showing next
// to their message.
type Detailer interface {
	Details() string
}

// Notification is one message for the user.
type Notification struct {
	ID        string
	Kind      Kind
	Title     string
	Message   string
	Details   string
	Err       error
	CreatedAt time.Time
}

// Service keeps the most recent notifications in arrival order.
type Service struct {
	limit    int
	logger   observe.Logger
	onNotify *executor.Executor[Notification]

	mu    sync.RWMutex
	items *collection.OrderedMap[string, Notification]
}

// Option configures a Service.
type Option func(*Service)

// WithLimit caps how many notifications are kept; the oldest are dropped.
// Default: 100
func WithLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLogger logs every notification.
func WithLogger(l observe.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService creates a notification service.
func NewService(opts ...Option) *Service {
	s := &Service{
		limit:    100,
		logger:   observe.NopLogger(),
		onNotify: executor.New[Notification](),
		items:    collection.NewOrderedMap(func(n Notification) string { return n.ID }),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnNotify runs after a notification is stored.
func (s *Service) OnNotify() *executor.Executor[Notification] { return s.onNotify }

// Notify stores n, assigning its ID and time, and returns the ID.
func (s *Service) Notify(ctx context.Context, n Notification) string {
	n.ID = uuid.NewString()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.items.Set(n.ID, n)
	for s.items.Len() > s.limit {
		s.items.Remove(s.items.Keys()[0])
	}
	s.mu.Unlock()

	fields := []observe.Field{
		{Key: "notification.id", Value: n.ID},
		{Key: "notification.kind", Value: n.Kind.String()},
		{Key: "notification.title", Value: n.Title},
	}
	if n.Kind == KindError {
		s.logger.Warn(ctx, n.Message, fields...)
	} else {
		s.logger.Info(ctx, n.Message, fields...)
	}

	if _, err := s.onNotify.Execute(ctx, n); err != nil {
		s.logger.Warn(ctx, "notification handler failed",
			observe.Field{Key: "notification.id", Value: n.ID},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return n.ID
}

// Info records an informational message.
func (s *Service) Info(ctx context.Context, title, message string) string {
	return s.Notify(ctx, Notification{Kind: KindInfo, Title: title, Message: message})
}

// Success records a completed action.
func (s *Service) Success(ctx context.Context, title, message string) string {
	return s.Notify(ctx, Notification{Kind: KindSuccess, Title: title, Message: message})
}

// Warning records a problem that did not stop the action.
func (s *Service) Warning(ctx context.Context, title, message string) string {
	return s.Notify(ctx, Notification{Kind: KindWarning, Title: title, Message: message})
}

// Error records err under title. Nil errors and cancellations are not
// recorded and report false.
func (s *Service) Error(ctx context.Context, title string, err error) (string, bool) {
	if err == nil || IsCancellation(err) {
		return "", false
	}

	n := Notification{Kind: KindError, Title: title, Message: err.Error(), Err: err}
	var d Detailer
	if errors.As(err, &d) {
		n.Details = d.Details()
	}
	return s.Notify(ctx, n), true
}

// IsCancellation reports whether err only says the caller stopped waiting.
func IsCancellation(err error) bool {
	return deferred.IsCancelled(err) || errors.Is(err, context.Canceled)
}

// List returns the stored notifications, oldest first.
func (s *Service) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Values()
}

// Get returns a notification by ID.
func (s *Service) Get(id string) (Notification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Get(id)
}

// Len returns the number of stored notifications.
func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

// Dismiss removes a notification.
func (s *Service) Dismiss(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.Remove(id)
}

// Clear removes every notification.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.RemoveAll()
}
