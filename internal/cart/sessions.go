package cart

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultSessionTTL is how long an idle cart survives before it is
	// considered abandoned and reclaimed.
	DefaultSessionTTL = 30 * time.Minute

	// cleanupInterval is how often the background cleanup runs.
	cleanupInterval = time.Minute
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("cart session not found")

type session struct {
	cart     *Cart
	lastUsed time.Time
}

// Manager owns the live cart sessions, one per terminal checkout in
// progress. Abandoned sessions expire after the TTL with no persisted
// effect.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration

	stopCleanup chan struct{}
	wg          sync.WaitGroup
}

// NewManager creates a session manager and starts its cleanup goroutine.
// A non-positive ttl falls back to DefaultSessionTTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	m := &Manager{
		sessions:    make(map[string]*session),
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	m.wg.Add(1)
	go m.cleanupLoop()

	return m
}

func (m *Manager) cleanupLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.expireSessions(time.Now())
		case <-m.stopCleanup:
			return
		}
	}
}

func (m *Manager) expireSessions(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if now.Sub(s.lastUsed) > m.ttl {
			delete(m.sessions, id)
		}
	}
}

// Create opens a new session and returns its id and empty cart.
func (m *Manager) Create() (string, *Cart) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	c := New()
	m.sessions[id] = &session{cart: c, lastUsed: time.Now()}
	return id, c
}

// Get returns the session's cart and refreshes its idle timer.
func (m *Manager) Get(id string) (*Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	s.lastUsed = time.Now()
	return s.cart, nil
}

// Clear ends the session, discarding its cart. Unknown ids are not an error.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Close stops the background cleanup and waits for it to finish.
func (m *Manager) Close() error {
	close(m.stopCleanup)
	m.wg.Wait()
	return nil
}
