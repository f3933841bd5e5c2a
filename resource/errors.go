package resource

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/resourcecache/key"
)

var (
	// ErrAliasNotSupported is returned when a key uses an alias the resource
	// has no resolver for.
	ErrAliasNotSupported = errors.New("resource: alias not supported")

	// ErrNotFound is returned when a loaded key has no entry.
	ErrNotFound = errors.New("resource: entry not found")

	// ErrNilLoader is the panic value for a resource built without a loader.
	ErrNilLoader = errors.New("resource: loader is nil")

	// ErrNilKeyFunc is the panic value for a map resource built without a
	// key function.
	ErrNilKeyFunc = errors.New("resource: key function is nil")

	// ErrReservedAlias is returned when registering a resolver for AliasAll.
	ErrReservedAlias = errors.New("resource: alias is reserved")
)

// LoadError records a failed fetch. Callers of Load receive the loader's
// error unchanged; LoadError is what LastError and OnDataError report.
type LoadError[K comparable] struct {
	Resource string
	Key      key.Key[K]
	Err      error
}

func (e *LoadError[K]) Error() string {
	return fmt.Sprintf("resource: load %s %s: %v", e.Resource, e.Key, e.Err)
}

func (e *LoadError[K]) Unwrap() error {
	return e.Err
}

// Details names what failed to load, for display next to the message.
func (e *LoadError[K]) Details() string {
	return fmt.Sprintf("resource %q, key %s", e.Resource, e.Key)
}
