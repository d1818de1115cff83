package lockout

import (
	"context"
	"sync"
	"time"
)

type window struct {
	failures  int
	expiresAt time.Time
}

// InMemory keeps failure windows in process memory. Counters are lost on
// restart and not shared between instances; use RedisStore for that.
type InMemory struct {
	mu      sync.Mutex
	windows map[string]*window
	now     func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string]*window), now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *InMemory) WithClock(now func() time.Time) *InMemory {
	s.now = now
	return s
}

func (s *InMemory) RecordFailure(_ context.Context, key string, ttl time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.expiresAt) {
		w = &window{expiresAt: now.Add(ttl)}
		s.windows[key] = w
	}
	w.failures++
	return w.failures, nil
}

func (s *InMemory) Failures(_ context.Context, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok {
		return 0, nil
	}
	if !s.now().Before(w.expiresAt) {
		delete(s.windows, key)
		return 0, nil
	}
	return w.failures, nil
}

func (s *InMemory) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.windows, key)
	return nil
}
