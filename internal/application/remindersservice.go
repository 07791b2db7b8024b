package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// RemindersService serves reminder reads from the local cache and routes
// mutations through the remote account, patching the cache on success.
type RemindersService struct {
	gw        *Gateway
	cache     driven.CacheStore
	states    driven.SyncStateStore
	accountID string
	now       func() time.Time
}

// NewRemindersService creates a RemindersService for the given account.
func NewRemindersService(gw *Gateway, cache driven.CacheStore, states driven.SyncStateStore, accountID string) *RemindersService {
	return &RemindersService{gw: gw, cache: cache, states: states, accountID: accountID, now: time.Now}
}

// List returns reminders, hiding completed ones unless includeCompleted is
// set. With live set, or when the domain has never synced, reminders are
// fetched from the remote account; a synced-but-empty snapshot is served
// as-is.
func (s *RemindersService) List(ctx context.Context, includeCompleted, live bool) ([]model.Reminder, error) {
	if live {
		return s.gw.ListReminders(ctx, s.accountID, includeCompleted)
	}

	reminders, err := readCached[model.Reminder](ctx, s.cache, model.DomainReminders)
	if err != nil {
		return nil, err
	}
	if len(reminders) == 0 && !hasSynced(ctx, s.states, model.DomainReminders) {
		return s.gw.ListReminders(ctx, s.accountID, includeCompleted)
	}

	out := make([]model.Reminder, 0, len(reminders))
	for _, rem := range reminders {
		if rem.Completed && !includeCompleted {
			continue
		}
		out = append(out, rem)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].List != out[j].List {
			return out[i].List < out[j].List
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

// Add creates a reminder in the remote account and caches it.
func (s *RemindersService) Add(ctx context.Context, rem model.Reminder) (*model.Reminder, error) {
	if rem.Title == "" {
		return nil, fmt.Errorf("reminder title is required")
	}

	created, err := s.gw.CreateReminder(ctx, s.accountID, rem)
	if err != nil {
		return nil, err
	}
	upsertCached(ctx, s.cache, model.DomainReminders, created.ID, created, s.now)
	return created, nil
}

// Complete marks a reminder done in the remote account and patches the
// cached copy if one exists.
func (s *RemindersService) Complete(ctx context.Context, reminderID string) error {
	if err := s.gw.CompleteReminder(ctx, s.accountID, reminderID); err != nil {
		return err
	}

	cached, err := readCached[model.Reminder](ctx, s.cache, model.DomainReminders)
	if err != nil {
		return nil
	}
	for _, rem := range cached {
		if rem.ID == reminderID {
			rem.Completed = true
			rem.CompletedAt = s.now()
			upsertCached(ctx, s.cache, model.DomainReminders, rem.ID, rem, s.now)
			break
		}
	}
	return nil
}

// Delete removes a reminder from the remote account and the cache.
func (s *RemindersService) Delete(ctx context.Context, reminderID string) error {
	if err := s.gw.DeleteReminder(ctx, s.accountID, reminderID); err != nil {
		return err
	}
	deleteCached(ctx, s.cache, model.DomainReminders, reminderID)
	return nil
}
