package resource

import (
	"context"
	"sync"

	"github.com/jonwraymond/resourcecache/key"
)

// scheduler runs operations one at a time when their keys intersect.
// Operations on disjoint keys proceed concurrently.
type scheduler[K comparable] struct {
	mu     sync.Mutex
	seq    uint64
	active map[uint64]key.Key[K]
	wake   chan struct{}
}

func newScheduler[K comparable]() *scheduler[K] {
	return &scheduler[K]{
		active: make(map[uint64]key.Key[K]),
		wake:   make(chan struct{}),
	}
}

// acquire blocks until no running operation intersects k. The returned
// release func is safe to call more than once.
func (s *scheduler[K]) acquire(ctx context.Context, k key.Key[K]) (func(), error) {
	for {
		s.mu.Lock()
		if !s.conflictsLocked(k) {
			s.seq++
			id := s.seq
			s.active[id] = k
			s.mu.Unlock()

			var once sync.Once
			return func() { once.Do(func() { s.release(id) }) }, nil
		}
		wake := s.wake
		s.mu.Unlock()

		select {
		case <-wake:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *scheduler[K]) conflictsLocked(k key.Key[K]) bool {
	for _, running := range s.active {
		if key.Intersects(running, k) {
			return true
		}
	}
	return false
}

func (s *scheduler[K]) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, id)
	close(s.wake)
	s.wake = make(chan struct{})
}

// running returns the number of operations currently holding a slot.
func (s *scheduler[K]) running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}
