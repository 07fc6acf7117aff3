package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// FileStore persists the session as a YAML file so a login survives process
// restarts. The file holds a bearer token; it is created with owner-only
// permissions.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store writing to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type persistedSession struct {
	ID    string `yaml:"id"`
	Token string `yaml:"token"`
	User  struct {
		ID       string `yaml:"id"`
		Email    string `yaml:"email"`
		FullName string `yaml:"fullName"`
	} `yaml:"user"`
}

func (s *FileStore) Save(sess Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var rec persistedSession
	rec.ID = sess.ID
	rec.Token = sess.Token
	rec.User.ID = sess.User.ID
	rec.User.Email = sess.User.Email
	rec.User.FullName = sess.User.FullName

	raw, err := yaml.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating session directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("writing session file: %w", err)
	}
	return nil
}

func (s *FileStore) Load() (Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Session{}, false, nil
	}
	if err != nil {
		return Session{}, false, fmt.Errorf("reading session file: %w", err)
	}

	var rec persistedSession
	if err := yaml.Unmarshal(raw, &rec); err != nil {
		return Session{}, false, fmt.Errorf("decoding session file: %w", err)
	}
	if rec.Token == "" {
		return Session{}, false, nil
	}

	return Session{
		ID:    rec.ID,
		Token: rec.Token,
		User: User{
			ID:       rec.User.ID,
			Email:    rec.User.Email,
			FullName: rec.User.FullName,
		},
	}, true, nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
