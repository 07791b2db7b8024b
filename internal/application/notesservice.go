package application

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"icloudctl/internal/domain/model"
	"icloudctl/internal/domain/port/driven"
)

// NotesService serves note reads from the local cache and routes creation
// and search through the remote account.
type NotesService struct {
	gw        *Gateway
	cache     driven.CacheStore
	states    driven.SyncStateStore
	accountID string
	now       func() time.Time
}

// NewNotesService creates a NotesService for the given account.
func NewNotesService(gw *Gateway, cache driven.CacheStore, states driven.SyncStateStore, accountID string) *NotesService {
	return &NotesService{gw: gw, cache: cache, states: states, accountID: accountID, now: time.Now}
}

// List returns notes sorted most recently modified first. With live set,
// or when the domain has never synced, notes are fetched from the remote
// account; a synced-but-empty snapshot is served as-is.
func (s *NotesService) List(ctx context.Context, live bool) ([]model.Note, error) {
	if live {
		return s.gw.ListNotes(ctx, s.accountID)
	}

	notes, err := readCached[model.Note](ctx, s.cache, model.DomainNotes)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 && !hasSynced(ctx, s.states, model.DomainNotes) {
		return s.gw.ListNotes(ctx, s.accountID)
	}

	sort.Slice(notes, func(i, j int) bool { return notes[i].ModifiedAt.After(notes[j].ModifiedAt) })
	return notes, nil
}

// Show looks up a single note by ID, preferring the cache.
func (s *NotesService) Show(ctx context.Context, noteID string) (*model.Note, error) {
	notes, err := s.List(ctx, false)
	if err != nil {
		return nil, err
	}
	for _, note := range notes {
		if note.ID == noteID {
			return &note, nil
		}
	}
	return nil, fmt.Errorf("note %q not found", noteID)
}

// Create adds a note to the remote account and caches it.
func (s *NotesService) Create(ctx context.Context, note model.Note) (*model.Note, error) {
	if note.Subject == "" {
		return nil, fmt.Errorf("note subject is required")
	}

	created, err := s.gw.CreateNote(ctx, s.accountID, note)
	if err != nil {
		return nil, err
	}
	upsertCached(ctx, s.cache, model.DomainNotes, created.ID, created, s.now)
	return created, nil
}

// Search matches notes against a query. The remote account performs the
// search; when it is unreachable the cached snapshot is scanned for the
// query in subject and body as a degraded fallback.
func (s *NotesService) Search(ctx context.Context, query string) ([]model.Note, error) {
	if query == "" {
		return nil, fmt.Errorf("search query is required")
	}

	notes, err := s.gw.SearchNotes(ctx, s.accountID, query)
	if err == nil {
		return notes, nil
	}

	cached, cacheErr := readCached[model.Note](ctx, s.cache, model.DomainNotes)
	if cacheErr != nil || (len(cached) == 0 && !hasSynced(ctx, s.states, model.DomainNotes)) {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]model.Note, 0)
	for _, note := range cached {
		if strings.Contains(strings.ToLower(note.Subject), needle) ||
			strings.Contains(strings.ToLower(note.Body), needle) {
			matches = append(matches, note)
		}
	}
	return matches, nil
}
