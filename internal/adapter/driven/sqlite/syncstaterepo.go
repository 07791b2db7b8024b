package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.SyncStateStore = (*SyncStateRepo)(nil)

// SyncStateRepo is the SQLite implementation of the SyncStateStore port.
type SyncStateRepo struct {
	db *DB
}

// NewSyncStateRepo creates a new SyncStateRepo backed by the given DB.
func NewSyncStateRepo(db *DB) *SyncStateRepo {
	return &SyncStateRepo{db: db}
}

// RecordSuccess records a successful sync for a domain, clearing any prior
// error.
func (r *SyncStateRepo) RecordSuccess(ctx context.Context, domain model.Domain, entityCount int) error {
	const query = `INSERT OR REPLACE INTO sync_state (domain, last_success_at, last_error, entity_count, updated_at)
		VALUES (?, ?, '', ?, CURRENT_TIMESTAMP)`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := r.db.Writer.ExecContext(ctx, query, domain, now, entityCount); err != nil {
		return fmt.Errorf("record sync success %s: %w", domain, err)
	}
	return nil
}

// RecordFailure records a failed sync for a domain, preserving the last
// success timestamp and entity count.
func (r *SyncStateRepo) RecordFailure(ctx context.Context, domain model.Domain, syncErr error) error {
	const query = `INSERT INTO sync_state (domain, last_success_at, last_error, entity_count, updated_at)
		VALUES (?, NULL, ?, 0, CURRENT_TIMESTAMP)
		ON CONFLICT(domain) DO UPDATE SET last_error = excluded.last_error, updated_at = excluded.updated_at`
	msg := ""
	if syncErr != nil {
		msg = syncErr.Error()
	}
	if _, err := r.db.Writer.ExecContext(ctx, query, domain, msg); err != nil {
		return fmt.Errorf("record sync failure %s: %w", domain, err)
	}
	return nil
}

// Get returns the sync state for one domain, or (nil, nil) when the domain
// has never been synced.
func (r *SyncStateRepo) Get(ctx context.Context, domain model.Domain) (*model.SyncState, error) {
	const query = `SELECT domain, last_success_at, last_error, entity_count FROM sync_state WHERE domain = ?`
	row := r.db.Reader.QueryRowContext(ctx, query, domain)

	st, err := scanSyncState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sync state %s: %w", domain, err)
	}
	return st, nil
}

// List returns the sync state for every recorded domain.
func (r *SyncStateRepo) List(ctx context.Context) ([]model.SyncState, error) {
	const query = `SELECT domain, last_success_at, last_error, entity_count FROM sync_state ORDER BY domain`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sync state: %w", err)
	}
	defer rows.Close()

	var states []model.SyncState
	for rows.Next() {
		st, err := scanSyncState(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync state: %w", err)
		}
		states = append(states, *st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync state: %w", err)
	}
	return states, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSyncState(s rowScanner) (*model.SyncState, error) {
	var (
		st            model.SyncState
		lastSuccessAt sql.NullString
	)
	if err := s.Scan(&st.Domain, &lastSuccessAt, &st.LastError, &st.EntityCount); err != nil {
		return nil, err
	}
	if lastSuccessAt.Valid && lastSuccessAt.String != "" {
		t, err := parseTime(lastSuccessAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse last_success_at: %w", err)
		}
		st.LastSuccessAt = t
	}
	return &st, nil
}
