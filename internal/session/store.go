package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/mojito-booking/internal/booking"
)

// ControllerFactory builds the submit controller for a new form.
type ControllerFactory func(form *booking.Form) *booking.Controller

// Session is one visitor's form plus the controller that submits it.
type Session struct {
	ID         string
	Controller *booking.Controller

	mu       sync.Mutex
	lastSeen time.Time
}

// Form returns the session's form state.
func (s *Session) Form() *booking.Form {
	return s.Controller.Form()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// Store keeps form sessions in memory and evicts ones idle for longer than the
// TTL. A session whose submit is still in flight is never evicted.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  ControllerFactory
	now      func() time.Time
	onSize   func(int)

	stop chan struct{}
	once sync.Once
}

// Option customises a Store.
type Option func(*Store)

// WithSizeObserver reports the session count after each change.
func WithSizeObserver(fn func(int)) Option {
	return func(s *Store) {
		s.onSize = fn
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates a store. Call Start to run periodic eviction and Close to
// stop it.
func NewStore(ttl time.Duration, factory ControllerFactory, opts ...Option) *Store {
	if factory == nil {
		panic("session: controller factory required")
	}
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the session for id, or false if it does not exist.
func (s *Store) Get(id string) (*Session, bool) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if ok {
		sess.touch(s.now())
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating a fresh one (with a new id)
// when id is empty or unknown.
func (s *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if sess, ok := s.Get(id); ok {
			return sess, false
		}
	}
	sess := &Session{
		ID:         uuid.NewString(),
		Controller: s.factory(booking.NewForm()),
		lastSeen:   s.now(),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	n := len(s.sessions)
	s.mu.Unlock()
	s.reportSize(n)
	return sess, true
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Evict drops sessions idle past the TTL and returns how many were removed.
func (s *Store) Evict() int {
	cutoff := s.now().Add(-s.ttl)
	s.mu.Lock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.Form().Status() == booking.StatusSubmitting {
			continue
		}
		if sess.idleSince(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	n := len(s.sessions)
	s.mu.Unlock()
	if removed > 0 {
		s.reportSize(n)
	}
	return removed
}

// Start evicts idle sessions every interval until Close is called.
func (s *Store) Start(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Evict()
			case <-s.stop:
				return
			}
		}
	}()
}

// Close stops the eviction loop.
func (s *Store) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *Store) reportSize(n int) {
	if s.onSize != nil {
		s.onSize(n)
	}
}
