// Package draft persists in-progress form snapshots so a user who closes the
// tab, or whose session drops, gets their unsaved input back.
//
// A Store is a tiny key → bytes map with three backends:
//
//	MemoryStore – process-local, for tests and single-node development.
//	RedisStore  – go-redis, one key per draft with a TTL.
//	SQLStore    – sqlx over MySQL, one row per draft in `form_draft`.
//
// The Autosaver (autosave.go) owns encoding; stores never look inside the
// payload.
package draft

import (
	"context"
	"errors"
	"sync"
)

// DefaultKey is the storage key of the project form draft.  The version
// suffix lets a future snapshot layout ignore old drafts.
const DefaultKey = "project_form_draft_v1"

// ErrNotFound is returned by Get when no draft exists under the key.
var ErrNotFound = errors.New("draft not found")

// Store is a durable key/value sink for drafts.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Key scopes base to one user profile so two users on the same backend do
// not share a draft.  An empty scope returns base unchanged.
func Key(scope, base string) string {
	if scope == "" {
		return base
	}
	return scope + ":" + base
}

// -----------------------------------------------------------------------------
// MemoryStore
// -----------------------------------------------------------------------------

// MemoryStore keeps drafts in a map guarded by a RWMutex.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{drafts: make(map[string][]byte)}
}

// Get returns a copy of the stored draft.
func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.drafts[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

// Set overwrites the draft under key.
func (m *MemoryStore) Set(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[key] = append([]byte(nil), data...)
	return nil
}

// Delete removes key.  Deleting a missing key is not an error.
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, key)
	return nil
}

// Len reports how many drafts are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.drafts)
}
