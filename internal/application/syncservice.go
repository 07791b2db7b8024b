package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

const (
	defaultCalendarWindow = 30 * 24 * time.Hour
	defaultMaxAttempts    = 3
	defaultRetryInterval  = 2 * time.Second
)

// SyncService pulls each domain from the remote account and replaces the
// cached snapshot for that domain. Domains are synced in a fixed order and
// a failure in one never prevents the others from running.
type SyncService struct {
	gw        *Gateway
	cache     driven.CacheStore
	states    driven.SyncStateStore
	accountID string

	// calendarWindow bounds the event fetch to [now, now+window).
	calendarWindow time.Duration
	maxAttempts    uint64
	retryInterval  time.Duration
	now            func() time.Time
}

// NewSyncService creates a SyncService for the given account.
func NewSyncService(gw *Gateway, cache driven.CacheStore, states driven.SyncStateStore, accountID string) *SyncService {
	return &SyncService{
		gw:             gw,
		cache:          cache,
		states:         states,
		accountID:      accountID,
		calendarWindow: defaultCalendarWindow,
		maxAttempts:    defaultMaxAttempts,
		retryInterval:  defaultRetryInterval,
		now:            time.Now,
	}
}

// RunCycle syncs every domain once and returns the aggregate result.
// The context cancels in-flight fetches and stops retry waits.
func (s *SyncService) RunCycle(ctx context.Context) model.CycleResult {
	result := model.CycleResult{StartedAt: s.now()}

	for _, domain := range model.AllDomains() {
		outcome := s.syncDomain(ctx, domain)
		result.Outcomes = append(result.Outcomes, outcome)

		if outcome.Err != nil {
			slog.Warn("domain sync failed",
				"domain", domain,
				"attempts", outcome.Attempts,
				"error", outcome.Err)
			if recordErr := s.states.RecordFailure(ctx, domain, outcome.Err); recordErr != nil {
				slog.Error("failed to record sync failure", "domain", domain, "error", recordErr)
			}
			continue
		}

		slog.Info("domain synced", "domain", domain, "entities", outcome.EntityCount)
		if recordErr := s.states.RecordSuccess(ctx, domain, outcome.EntityCount); recordErr != nil {
			slog.Error("failed to record sync success", "domain", domain, "error", recordErr)
		}
	}

	result.FinishedAt = s.now()
	return result
}

// syncDomain fetches one domain with retries and replaces its cached
// snapshot. Only Retryable remote errors are retried; everything else
// fails the domain immediately.
func (s *SyncService) syncDomain(ctx context.Context, domain model.Domain) model.DomainOutcome {
	outcome := model.DomainOutcome{Domain: domain}

	op := func() ([]model.CachedEntity, error) {
		outcome.Attempts++
		entities, err := s.fetchDomain(ctx, domain)
		if err != nil {
			var remoteErr *model.RemoteError
			if errors.As(err, &remoteErr) && remoteErr.Retryable() {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return entities, nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.retryInterval
	bo.MaxElapsedTime = 0

	entities, err := backoff.RetryWithData(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, s.maxAttempts-1), ctx))
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if err := s.cache.ReplaceDomain(ctx, domain, entities); err != nil {
		outcome.Err = err
		return outcome
	}

	outcome.EntityCount = len(entities)
	return outcome
}

func (s *SyncService) fetchDomain(ctx context.Context, domain model.Domain) ([]model.CachedEntity, error) {
	switch domain {
	case model.DomainCalendar:
		from := s.now()
		events, err := s.gw.ListEvents(ctx, s.accountID, from, from.Add(s.calendarWindow))
		if err != nil {
			return nil, err
		}
		return marshalEntities(domain, events, func(ev model.Event) string { return ev.ID }, s.now())
	case model.DomainReminders:
		reminders, err := s.gw.ListReminders(ctx, s.accountID, true)
		if err != nil {
			return nil, err
		}
		return marshalEntities(domain, reminders, func(r model.Reminder) string { return r.ID }, s.now())
	case model.DomainNotes:
		notes, err := s.gw.ListNotes(ctx, s.accountID)
		if err != nil {
			return nil, err
		}
		return marshalEntities(domain, notes, func(n model.Note) string { return n.ID }, s.now())
	case model.DomainFindMy:
		devices, err := s.gw.ListDevices(ctx, s.accountID)
		if err != nil {
			return nil, err
		}
		return marshalEntities(domain, devices, func(d model.Device) string { return d.ID }, s.now())
	default:
		return nil, fmt.Errorf("unknown domain %q", domain)
	}
}

func marshalEntities[T any](domain model.Domain, items []T, id func(T) string, syncedAt time.Time) ([]model.CachedEntity, error) {
	entities := make([]model.CachedEntity, 0, len(items))
	for _, item := range items {
		payload, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("marshal %s entity: %w", domain, err)
		}
		entities = append(entities, model.CachedEntity{
			Domain:   domain,
			EntityID: id(item),
			Payload:  payload,
			SyncedAt: syncedAt,
		})
	}
	return entities, nil
}
