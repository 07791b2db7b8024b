package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// readCached loads a domain's cached snapshot and decodes each payload.
// Entities that fail to decode are skipped with a warning so one corrupt
// row never hides the rest of the snapshot.
func readCached[T any](ctx context.Context, cache driven.CacheStore, domain model.Domain) ([]T, error) {
	entities, err := cache.ReadDomain(ctx, domain)
	if err != nil {
		return nil, err
	}

	items := make([]T, 0, len(entities))
	for _, ent := range entities {
		var item T
		if err := json.Unmarshal(ent.Payload, &item); err != nil {
			slog.Warn("skipping undecodable cached entity",
				"domain", domain,
				"entity_id", ent.EntityID,
				"error", err)
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// hasSynced reports whether a domain has a recorded successful sync. An
// empty cached snapshot for a synced domain is a faithful mirror of the
// remote set, not a cold cache, and must be served without a network call.
func hasSynced(ctx context.Context, states driven.SyncStateStore, domain model.Domain) bool {
	state, err := states.Get(ctx, domain)
	return err == nil && state != nil && !state.LastSuccessAt.IsZero()
}

// upsertCached writes a single entity back into the domain's cached
// snapshot after a successful remote mutation. Failures are logged, not
// surfaced: the mutation already happened and the next sync cycle will
// reconcile the cache.
func upsertCached(ctx context.Context, cache driven.CacheStore, domain model.Domain, entityID string, item any, now func() time.Time) {
	payload, err := json.Marshal(item)
	if err != nil {
		slog.Warn("failed to encode entity for cache", "domain", domain, "entity_id", entityID, "error", err)
		return
	}
	err = cache.UpsertSingle(ctx, model.CachedEntity{
		Domain:   domain,
		EntityID: entityID,
		Payload:  payload,
		SyncedAt: now(),
	})
	if err != nil {
		slog.Warn("failed to update cache after mutation", "domain", domain, "entity_id", entityID, "error", err)
	}
}

// deleteCached removes a single entity from the cache after a successful
// remote delete, logging failures rather than surfacing them.
func deleteCached(ctx context.Context, cache driven.CacheStore, domain model.Domain, entityID string) {
	if err := cache.DeleteSingle(ctx, domain, entityID); err != nil {
		slog.Warn("failed to remove entity from cache", "domain", domain, "entity_id", entityID, "error", err)
	}
}
