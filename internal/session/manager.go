// Package session owns the mapping from browser sessions to workflow
// controllers. Each session holds exactly one controller; no two sessions
// share state.
package session

import (
	"errors"
	"sync"
	"time"

	"convert2ansible/backend/internal/workflow"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Session binds one workflow controller to a browser session.
type Session struct {
	ID        string
	TenantID  string
	Workflow  *workflow.Controller
	CreatedAt time.Time

	mu       sync.Mutex
	lastSeen time.Time
}

// Touch records activity so the janitor keeps the session alive.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = time.Now()
	s.mu.Unlock()
}

// LastSeen returns the time of the most recent request on this session.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Manager creates, looks up and expires sessions. The workflow engine runs
// no timers of its own; expiry only happens when PruneIdle is called.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	registry   *workflow.Registry
	predicates workflow.PredicateSet
	ttl        time.Duration
}

// NewManager creates a manager producing controllers for the given
// pipeline. A ttl of zero disables pruning.
func NewManager(registry *workflow.Registry, predicates workflow.PredicateSet, ttl time.Duration) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		registry:   registry,
		predicates: predicates,
		ttl:        ttl,
	}
}

// Create starts a fresh session for a tenant with the workflow at step 0.
func (m *Manager) Create(tenantID string) *Session {
	sess := &Session{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Workflow:  workflow.NewController(m.registry, m.predicates),
		CreatedAt: time.Now(),
		lastSeen:  time.Now(),
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session for id, touching its activity timestamp.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	sess.Touch()
	return sess, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// PruneIdle drops sessions idle longer than the TTL and reports how many
// were removed. Called by the server's janitor loop, never by the engine.
func (m *Manager) PruneIdle(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, sess := range m.sessions {
		if now.Sub(sess.LastSeen()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
