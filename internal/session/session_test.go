package session

import (
	"testing"
)

func TestLoginLogoutLifecycle(t *testing.T) {
	m, err := NewManager(NewMemoryStore(), nil)
	if err != nil {
		t.Fatalf("NewManager() unexpected error: %v", err)
	}

	if m.Current() != nil {
		t.Fatal("fresh manager should have no session")
	}

	s, err := m.Login("tok-123", User{Email: "ana@example.pe", FullName: "Ana Torres"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if !s.Authenticated() {
		t.Error("logged-in session should be authenticated")
	}
	if s.ID == "" {
		t.Error("session should carry a generated id")
	}

	current := m.Current()
	if current == nil || current.Token != "tok-123" {
		t.Fatalf("Current() = %+v, expected the logged-in session", current)
	}

	if err := m.Logout(); err != nil {
		t.Fatalf("Logout() unexpected error: %v", err)
	}
	if m.Current() != nil {
		t.Error("Current() should be nil after logout")
	}
}

func TestManagerRestoresPersistedSession(t *testing.T) {
	store := NewMemoryStore()

	first, err := NewManager(store, nil)
	if err != nil {
		t.Fatalf("NewManager() unexpected error: %v", err)
	}
	if _, err := first.Login("tok-456", User{Email: "ana@example.pe"}); err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	// A new manager over the same store picks the session back up.
	second, err := NewManager(store, nil)
	if err != nil {
		t.Fatalf("NewManager() unexpected error: %v", err)
	}
	restored := second.Current()
	if restored == nil || restored.Token != "tok-456" {
		t.Fatalf("Current() = %+v, expected the persisted session", restored)
	}
}

func TestNilSessionIsUnauthenticated(t *testing.T) {
	var s *Session
	if s.Authenticated() {
		t.Error("nil session must not be authenticated")
	}
}
