package driven

import (
	"context"

	"icloudctl/internal/domain/model"
)

// CacheStore is the driven port for the local entity cache. The cache is a
// best-effort mirror of the remote entity sets, never authoritative.
type CacheStore interface {
	// ReplaceDomain atomically replaces the full entity set for a domain.
	// A concurrent ReadDomain sees either the old set or the new set in
	// full, never a mix.
	ReplaceDomain(ctx context.Context, domain model.Domain, entities []model.CachedEntity) error

	// ReadDomain returns the cached entities for a domain. It never performs
	// network calls. Corrupt rows are skipped, not fatal.
	ReadDomain(ctx context.Context, domain model.Domain) ([]model.CachedEntity, error)

	// UpsertSingle inserts or updates one entity between full sync cycles,
	// keeping the cache consistent after a direct mutation.
	UpsertSingle(ctx context.Context, entity model.CachedEntity) error

	// DeleteSingle removes one entity. Deleting an absent entity is not an
	// error.
	DeleteSingle(ctx context.Context, domain model.Domain, entityID string) error
}

// SyncStateStore is the driven port for per-domain sync outcome records.
type SyncStateStore interface {
	RecordSuccess(ctx context.Context, domain model.Domain, entityCount int) error
	RecordFailure(ctx context.Context, domain model.Domain, syncErr error) error
	Get(ctx context.Context, domain model.Domain) (*model.SyncState, error)
	List(ctx context.Context) ([]model.SyncState, error)
}
