package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const sqlCreateDraftTable = `CREATE TABLE IF NOT EXISTS form_draft (
	draft_key  VARCHAR(191) NOT NULL PRIMARY KEY,
	payload    JSON         NOT NULL,
	updated_at DATETIME(6)  NOT NULL
)`

const (
	sqlGetDraft    = `SELECT payload FROM form_draft WHERE draft_key = ?`
	sqlUpsertDraft = `INSERT INTO form_draft (draft_key, payload, updated_at) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
	sqlDeleteDraft = `DELETE FROM form_draft WHERE draft_key = ?`
)

// SQLStore keeps drafts in the form_draft table.
type SQLStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSQLStore wraps an open pool.
func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db, now: time.Now}
}

// Migrate creates the form_draft table when it is missing.
func (s *SQLStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqlCreateDraftTable); err != nil {
		return fmt.Errorf("create form_draft: %w", err)
	}
	return nil
}

// Get reads the draft under key.
func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, sqlGetDraft, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select draft %s: %w", key, err)
	}
	return payload, nil
}

// Set inserts or overwrites the draft under key.
func (s *SQLStore) Set(ctx context.Context, key string, data []byte) error {
	if _, err := s.db.ExecContext(ctx, sqlUpsertDraft, key, data, s.now().UTC()); err != nil {
		return fmt.Errorf("upsert draft %s: %w", key, err)
	}
	return nil
}

// Delete removes the draft under key.
func (s *SQLStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, sqlDeleteDraft, key); err != nil {
		return fmt.Errorf("delete draft %s: %w", key, err)
	}
	return nil
}
