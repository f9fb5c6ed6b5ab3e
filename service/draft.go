package service

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/VoltaiLTD/voltdesigns/model"
)

// KeyValueStore abstracts the draft storage medium so tests can substitute
// an in-memory store. Get returns (nil, nil) for a missing key.
type KeyValueStore interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// FileKV persists values as files under a directory, one file per key.
type FileKV struct {
	dir string
}

// NewFileKV creates the directory if needed. Failure to create it is
// tolerated: operations will fail and the draft store degrades to no-ops.
func NewFileKV(dir string) *FileKV {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("draft directory unavailable, drafts will not persist", "dir", dir, "error", err)
	}
	return &FileKV{dir: dir}
}

func (f *FileKV) path(key string) string {
	// Keys are opaque session ids; strip anything path-like anyway.
	key = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, key)
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

func (f *FileKV) Set(key string, value []byte) error {
	return os.WriteFile(f.path(key), value, 0o644)
}

func (f *FileKV) Delete(key string) error {
	err := os.Remove(f.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// MemoryKV is an in-process store used in tests and as a degraded fallback.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string][]byte)}
}

func (s *MemoryKV) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *MemoryKV) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.m[key] = cp
	return nil
}

func (s *MemoryKV) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

// DraftStore persists quote drafts whole, one JSON document per session key,
// last write wins. Storage failures are silently tolerated: the feature
// degrades to "nothing persists" rather than surfacing errors.
type DraftStore struct {
	kv KeyValueStore
}

func NewDraftStore(kv KeyValueStore) *DraftStore {
	return &DraftStore{kv: kv}
}

// Load returns the stored draft for the key, or nil if absent, corrupt, or
// storage is unavailable.
func (s *DraftStore) Load(key string) *model.QuoteDraft {
	if s == nil || s.kv == nil || key == "" {
		return nil
	}

	data, err := s.kv.Get(key)
	if err != nil {
		slog.Debug("draft load failed", "error", err)
		return nil
	}
	if data == nil {
		return nil
	}

	var draft model.QuoteDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		slog.Debug("discarding corrupt draft", "error", err)
		return nil
	}
	draft.Normalize()
	return &draft
}

// Save overwrites the stored draft wholesale.
func (s *DraftStore) Save(key string, draft *model.QuoteDraft) {
	if s == nil || s.kv == nil || key == "" || draft == nil {
		return
	}

	data, err := json.Marshal(draft)
	if err != nil {
		slog.Debug("draft marshal failed", "error", err)
		return
	}
	if err := s.kv.Set(key, data); err != nil {
		slog.Debug("draft save failed", "error", err)
	}
}

// Clear deletes the stored draft.
func (s *DraftStore) Clear(key string) {
	if s == nil || s.kv == nil || key == "" {
		return
	}
	if err := s.kv.Delete(key); err != nil {
		slog.Debug("draft clear failed", "error", err)
	}
}
