package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	store := NewFileStore(path)

	sess := Session{
		ID:    "abc-123",
		Token: "tok",
		User:  User{ID: "u1", Email: "ana@example.com", FullName: "Ana Torres"},
	}
	if err := store.Save(sess); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() ok = false, want true")
	}
	if loaded != sess {
		t.Errorf("Load() = %+v, want %+v", loaded, sess)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat session file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestFileStoreMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "absent.yaml"))

	_, ok, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() ok = true for missing file")
	}

	if err := store.Clear(); err != nil {
		t.Errorf("Clear() error = %v for missing file", err)
	}
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	store := NewFileStore(path)

	if err := store.Save(Session{ID: "x", Token: "tok"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("Load() ok = true after Clear()")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	if err := os.WriteFile(path, []byte(":\nnot yaml {{{"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	store := NewFileStore(path)
	if _, _, err := store.Load(); err == nil {
		t.Error("Load() expected error for corrupt file")
	}
}
