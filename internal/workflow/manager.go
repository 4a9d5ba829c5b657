package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"
)

// DefaultIdleTimeout is how long an inactive session survives before the
// janitor drops it.
const DefaultIdleTimeout = 30 * time.Minute

const janitorInterval = time.Minute

// Manager owns the live workflow sessions, one per browser session.
type Manager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	deps        Deps
	idleTimeout time.Duration
}

// NewManager creates a Manager handing the given deps to every session.
func NewManager(deps Deps, idleTimeout time.Duration) *Manager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		deps:        deps,
		idleTimeout: idleTimeout,
	}
}

// Create starts a new session and registers it.
func (m *Manager) Create() *Session {
	id := ulid.Make().String()
	session := NewSession(id, m.deps)

	m.mu.Lock()
	m.sessions[id] = session
	m.mu.Unlock()

	log.Info().Str("session", id).Msg("new workflow session created")
	return session
}

// Get returns the session with the given id, if it exists.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// evictIdle drops sessions idle past the timeout and returns how many went.
func (m *Manager) evictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, session := range m.sessions {
		if now.Sub(session.LastActive()) > m.idleTimeout {
			delete(m.sessions, id)
			evicted++
			log.Info().Str("session", id).Msg("evicted idle workflow session")
		}
	}
	return evicted
}

// Run periodically evicts idle sessions until the context is canceled.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping session janitor")
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}
