package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CacheStore = (*CacheRepo)(nil)

// CacheRepo is the SQLite implementation of the CacheStore port. A domain's
// entity set is replaced inside a single transaction on the writer
// connection; WAL snapshot isolation means a concurrent reader sees the old
// set until commit and the new set after, never a mix.
type CacheRepo struct {
	db *DB
}

// NewCacheRepo creates a new CacheRepo backed by the given DB.
func NewCacheRepo(db *DB) *CacheRepo {
	return &CacheRepo{db: db}
}

// ReplaceDomain atomically replaces the full entity set for a domain.
// Entities absent from the new set are gone after commit; the cache mirrors
// remote set-membership with no tombstones.
func (r *CacheRepo) ReplaceDomain(ctx context.Context, domain model.Domain, entities []model.CachedEntity) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("begin replace %s: %w", domain, err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM cached_entities WHERE domain = ?`, domain); err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("clear %s: %w", domain, err))
	}

	const insert = `INSERT INTO cached_entities (domain, entity_id, payload, synced_at) VALUES (?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("prepare insert %s: %w", domain, err))
	}
	defer stmt.Close()

	for _, e := range entities {
		syncedAt := e.SyncedAt
		if syncedAt.IsZero() {
			syncedAt = time.Now().UTC()
		}
		if _, err := stmt.ExecContext(ctx, domain, e.EntityID, string(e.Payload), syncedAt.Format(time.RFC3339)); err != nil {
			return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("insert %s/%s: %w", domain, e.EntityID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("commit replace %s: %w", domain, err))
	}
	return nil
}

// ReadDomain returns the cached entities for a domain. Rows that fail to
// scan are skipped and logged rather than failing the read; a failing query
// surfaces as CacheError{Corrupt} so callers can fall back to an empty set.
func (r *CacheRepo) ReadDomain(ctx context.Context, domain model.Domain) ([]model.CachedEntity, error) {
	const query = `SELECT entity_id, payload, synced_at FROM cached_entities WHERE domain = ? ORDER BY entity_id`

	rows, err := r.db.Reader.QueryContext(ctx, query, domain)
	if err != nil {
		return nil, model.NewCacheError(model.CacheCorrupt, fmt.Errorf("read %s: %w", domain, err))
	}
	defer rows.Close()

	entities := []model.CachedEntity{}
	for rows.Next() {
		var (
			e        model.CachedEntity
			payload  string
			syncedAt string
		)
		if err := rows.Scan(&e.EntityID, &payload, &syncedAt); err != nil {
			slog.Warn("skipping corrupt cache row", "domain", domain, "error", err)
			continue
		}
		e.Domain = domain
		e.Payload = []byte(payload)
		if e.SyncedAt, err = parseTime(syncedAt); err != nil {
			slog.Warn("skipping cache row with bad timestamp", "domain", domain, "entity", e.EntityID, "error", err)
			continue
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewCacheError(model.CacheCorrupt, fmt.Errorf("iterate %s: %w", domain, err))
	}

	return entities, nil
}

// UpsertSingle inserts or updates one entity between full sync cycles.
func (r *CacheRepo) UpsertSingle(ctx context.Context, entity model.CachedEntity) error {
	syncedAt := entity.SyncedAt
	if syncedAt.IsZero() {
		syncedAt = time.Now().UTC()
	}

	const query = `INSERT OR REPLACE INTO cached_entities (domain, entity_id, payload, synced_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.Writer.ExecContext(ctx, query, entity.Domain, entity.EntityID, string(entity.Payload), syncedAt.Format(time.RFC3339))
	if err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("upsert %s/%s: %w", entity.Domain, entity.EntityID, err))
	}
	return nil
}

// DeleteSingle removes one entity. Deleting an absent entity is not an error.
func (r *CacheRepo) DeleteSingle(ctx context.Context, domain model.Domain, entityID string) error {
	const query = `DELETE FROM cached_entities WHERE domain = ? AND entity_id = ?`
	if _, err := r.db.Writer.ExecContext(ctx, query, domain, entityID); err != nil {
		return model.NewCacheError(model.CacheUnwritable, fmt.Errorf("delete %s/%s: %w", domain, entityID, err))
	}
	return nil
}
