package auth

import (
	"sync"
	"time"

	"ctox-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
)

const (
	stateTTL        = 10 * time.Minute
	cleanupInterval = time.Hour
)

// MemoryStore provides in-memory storage for OAuth states and sessions
type MemoryStore struct {
	clock clockwork.Clock

	// OAuth states for CSRF protection (short-lived)
	states map[string]*OAuthState

	// User sessions (long-lived)
	sessions map[string]*models.UserSession

	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryStore creates a store and starts its hourly cleanup
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	store := &MemoryStore{
		clock:    clock,
		states:   make(map[string]*OAuthState),
		sessions: make(map[string]*models.UserSession),
		stop:     make(chan struct{}),
	}

	go store.startCleanupRoutine()

	return store
}

// Close stops the cleanup routine
func (m *MemoryStore) Close() {
	m.once.Do(func() { close(m.stop) })
}

// === OAuth State Management (CSRF Protection) ===

func (m *MemoryStore) GenerateState(sessionID string) (*OAuthState, error) {
	state, err := GenerateSecureState()
	if err != nil {
		return nil, err
	}

	oauthState := &OAuthState{
		State:     state,
		SessionID: sessionID,
		ExpiresAt: m.clock.Now().Add(stateTTL),
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.states[state] = oauthState
	return oauthState, nil
}

// ConsumeState validates a state and removes it; a state is single use
func (m *MemoryStore) ConsumeState(state string) (*OAuthState, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	oauthState, exists := m.states[state]
	if !exists {
		return nil, ErrInvalidState
	}
	delete(m.states, state)

	if !oauthState.IsValid(m.clock.Now()) {
		return nil, ErrStateExpired
	}
	return oauthState, nil
}

// === Session Management ===

// StoreSession saves a copy of session. Callers keep ownership of the value
// they pass in.
func (m *MemoryStore) StoreSession(session *models.UserSession) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.clock.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	if session.LastAccessed.IsZero() {
		session.LastAccessed = now
	}

	stored := *session
	m.sessions[session.SessionID] = &stored
}

// GetSession returns a copy of a live session and marks it accessed
func (m *MemoryStore) GetSession(sessionID string) (*models.UserSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	session, exists := m.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}

	now := m.clock.Now()
	if session.IsExpired(now) {
		delete(m.sessions, sessionID)
		return nil, ErrSessionExpired
	}

	session.Touch(now)
	cp := *session
	return &cp, nil
}

// DeleteSession removes a session, reporting whether it existed
func (m *MemoryStore) DeleteSession(sessionID string) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	_, exists := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	return exists
}

func (m *MemoryStore) SessionCount() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) startCleanupRoutine() {
	ticker := m.clock.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.Chan():
			m.cleanup()
		}
	}
}

func (m *MemoryStore) cleanup() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.clock.Now()
	for sessionID, session := range m.sessions {
		if session.IsExpired(now) {
			delete(m.sessions, sessionID)
		}
	}
	for state, oauthState := range m.states {
		if !oauthState.IsValid(now) {
			delete(m.states, state)
		}
	}
}
