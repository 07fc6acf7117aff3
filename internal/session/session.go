// Package session holds the authenticated user's context: the bearer token
// and cached profile issued at login. The context is constructed once by the
// manager and passed explicitly to every component needing credentials; no
// component reads ambient storage.
package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// User is the cached profile of the authenticated user.
type User struct {
	ID       string
	Email    string
	FullName string
}

// Session is one authenticated context. Immutable after creation; a token
// refresh produces a new session.
type Session struct {
	ID    string
	Token string
	User  User
}

// Authenticated reports whether the session carries a token.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// Store is the opaque key-value persistence behind the manager. Contents and
// encoding are the store's business; the manager only round-trips sessions.
type Store interface {
	Save(s Session) error
	Load() (Session, bool, error)
	Clear() error
}

// Manager owns the login/logout lifecycle of the active session.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu      sync.RWMutex
	current *Session
}

// NewManager constructs a manager, restoring any persisted session.
func NewManager(store Store, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{store: store, logger: logger}

	if store != nil {
		saved, ok, err := store.Load()
		if err != nil {
			return nil, fmt.Errorf("restoring session: %w", err)
		}
		if ok {
			m.current = &saved
			logger.Debug("restored persisted session",
				zap.String("op", "session.NewManager"),
				zap.String("user", saved.User.Email),
			)
		}
	}
	return m, nil
}

// Login installs a new session for the given token and profile and persists it.
func (m *Manager) Login(token string, user User) (*Session, error) {
	s := Session{
		ID:    uuid.NewString(),
		Token: token,
		User:  user,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Save(s); err != nil {
			return nil, fmt.Errorf("persisting session: %w", err)
		}
	}
	m.current = &s
	m.logger.Info("session established",
		zap.String("op", "session.Login"),
		zap.String("user", user.Email),
	)
	return &s, nil
}

// Logout clears the active session and its persisted copy.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.store != nil {
		if err := m.store.Clear(); err != nil {
			return fmt.Errorf("clearing session: %w", err)
		}
	}
	m.current = nil
	m.logger.Info("session cleared", zap.String("op", "session.Logout"))
	return nil
}

// Current returns the active session, nil when logged out.
func (m *Manager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// MemoryStore is an in-process Store, the default for a single-user client.
type MemoryStore struct {
	mu    sync.Mutex
	saved *Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = &sess
	return nil
}

func (s *MemoryStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved == nil {
		return Session{}, false, nil
	}
	return *s.saved, true, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved = nil
	return nil
}
