package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"icloudctl/internal/domain/model"
)

// --- Mock implementations ---

// mockCloudClient implements driven.CloudClient with per-method func fields.
// Unset methods return zero values.
type mockCloudClient struct {
	signIn     func(ctx context.Context, accountID, password, trustToken string) (*model.Session, bool, error)
	submitCode func(ctx context.Context, sess *model.Session, code string) error
	trust      func(ctx context.Context, sess *model.Session) (string, error)
	validate   func(ctx context.Context, sess *model.Session) error

	listEvents  func(ctx context.Context, sess *model.Session, from, to time.Time) ([]model.Event, error)
	createEvent func(ctx context.Context, sess *model.Session, ev model.Event) (*model.Event, error)
	deleteEvent func(ctx context.Context, sess *model.Session, eventID string) error

	listReminders    func(ctx context.Context, sess *model.Session, includeCompleted bool) ([]model.Reminder, error)
	createReminder   func(ctx context.Context, sess *model.Session, rem model.Reminder) (*model.Reminder, error)
	completeReminder func(ctx context.Context, sess *model.Session, reminderID string) error
	deleteReminder   func(ctx context.Context, sess *model.Session, reminderID string) error

	listNotes   func(ctx context.Context, sess *model.Session) ([]model.Note, error)
	createNote  func(ctx context.Context, sess *model.Session, note model.Note) (*model.Note, error)
	searchNotes func(ctx context.Context, sess *model.Session, query string) ([]model.Note, error)

	listDevices func(ctx context.Context, sess *model.Session) ([]model.Device, error)
	playSound   func(ctx context.Context, sess *model.Session, deviceID string) error
	lostMode    func(ctx context.Context, sess *model.Session, deviceID, phone, message string) error
}

func (m *mockCloudClient) SignIn(ctx context.Context, accountID, password, trustToken string) (*model.Session, bool, error) {
	if m.signIn == nil {
		return &model.Session{AccountID: accountID}, false, nil
	}
	return m.signIn(ctx, accountID, password, trustToken)
}

func (m *mockCloudClient) SubmitCode(ctx context.Context, sess *model.Session, code string) error {
	if m.submitCode == nil {
		return nil
	}
	return m.submitCode(ctx, sess, code)
}

func (m *mockCloudClient) TrustDevice(ctx context.Context, sess *model.Session) (string, error) {
	if m.trust == nil {
		return "", nil
	}
	return m.trust(ctx, sess)
}

func (m *mockCloudClient) Validate(ctx context.Context, sess *model.Session) error {
	if m.validate == nil {
		return nil
	}
	return m.validate(ctx, sess)
}

func (m *mockCloudClient) ListEvents(ctx context.Context, sess *model.Session, from, to time.Time) ([]model.Event, error) {
	if m.listEvents == nil {
		return nil, nil
	}
	return m.listEvents(ctx, sess, from, to)
}

func (m *mockCloudClient) CreateEvent(ctx context.Context, sess *model.Session, ev model.Event) (*model.Event, error) {
	if m.createEvent == nil {
		return &ev, nil
	}
	return m.createEvent(ctx, sess, ev)
}

func (m *mockCloudClient) DeleteEvent(ctx context.Context, sess *model.Session, eventID string) error {
	if m.deleteEvent == nil {
		return nil
	}
	return m.deleteEvent(ctx, sess, eventID)
}

func (m *mockCloudClient) ListReminders(ctx context.Context, sess *model.Session, includeCompleted bool) ([]model.Reminder, error) {
	if m.listReminders == nil {
		return nil, nil
	}
	return m.listReminders(ctx, sess, includeCompleted)
}

func (m *mockCloudClient) CreateReminder(ctx context.Context, sess *model.Session, rem model.Reminder) (*model.Reminder, error) {
	if m.createReminder == nil {
		return &rem, nil
	}
	return m.createReminder(ctx, sess, rem)
}

func (m *mockCloudClient) CompleteReminder(ctx context.Context, sess *model.Session, reminderID string) error {
	if m.completeReminder == nil {
		return nil
	}
	return m.completeReminder(ctx, sess, reminderID)
}

func (m *mockCloudClient) DeleteReminder(ctx context.Context, sess *model.Session, reminderID string) error {
	if m.deleteReminder == nil {
		return nil
	}
	return m.deleteReminder(ctx, sess, reminderID)
}

func (m *mockCloudClient) ListNotes(ctx context.Context, sess *model.Session) ([]model.Note, error) {
	if m.listNotes == nil {
		return nil, nil
	}
	return m.listNotes(ctx, sess)
}

func (m *mockCloudClient) CreateNote(ctx context.Context, sess *model.Session, note model.Note) (*model.Note, error) {
	if m.createNote == nil {
		return &note, nil
	}
	return m.createNote(ctx, sess, note)
}

func (m *mockCloudClient) SearchNotes(ctx context.Context, sess *model.Session, query string) ([]model.Note, error) {
	if m.searchNotes == nil {
		return nil, nil
	}
	return m.searchNotes(ctx, sess, query)
}

func (m *mockCloudClient) ListDevices(ctx context.Context, sess *model.Session) ([]model.Device, error) {
	if m.listDevices == nil {
		return nil, nil
	}
	return m.listDevices(ctx, sess)
}

func (m *mockCloudClient) PlaySound(ctx context.Context, sess *model.Session, deviceID string) error {
	if m.playSound == nil {
		return nil
	}
	return m.playSound(ctx, sess, deviceID)
}

func (m *mockCloudClient) LostMode(ctx context.Context, sess *model.Session, deviceID, phone, message string) error {
	if m.lostMode == nil {
		return nil
	}
	return m.lostMode(ctx, sess, deviceID, phone, message)
}

// mockCredentialStore keeps plaintext secrets in a map.
type mockCredentialStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func newMockCredentialStore() *mockCredentialStore {
	return &mockCredentialStore{secrets: make(map[string]string)}
}

func credKey(accountID, name string) string { return accountID + "/" + name }

func (m *mockCredentialStore) Set(_ context.Context, accountID, name, plaintext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[credKey(accountID, name)] = plaintext
	return nil
}

func (m *mockCredentialStore) Get(_ context.Context, accountID, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.secrets[credKey(accountID, name)], nil
}

func (m *mockCredentialStore) Delete(_ context.Context, accountID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, credKey(accountID, name))
	return nil
}

func (m *mockCredentialStore) DeleteAccount(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.secrets {
		if key == credKey(accountID, model.CredentialPassword) || key == credKey(accountID, model.CredentialTrustToken) {
			delete(m.secrets, key)
		}
	}
	return nil
}

// mockSessionStore keeps sessions in a map.
type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.Session
	saveErr  error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{sessions: make(map[string]*model.Session)}
}

func (m *mockSessionStore) Save(_ context.Context, sess *model.Session) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.AccountID] = sess
	return nil
}

func (m *mockSessionStore) Load(_ context.Context, accountID string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[accountID], nil
}

func (m *mockSessionStore) Delete(_ context.Context, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, accountID)
	return nil
}

// mockCacheStore keeps cached entities keyed by domain, recording replace
// calls for assertions.
type mockCacheStore struct {
	mu       sync.Mutex
	byDomain map[model.Domain][]model.CachedEntity
	replaces []model.Domain

	replaceErr error
	readErr    error
}

func newMockCacheStore() *mockCacheStore {
	return &mockCacheStore{byDomain: make(map[model.Domain][]model.CachedEntity)}
}

func (m *mockCacheStore) ReplaceDomain(_ context.Context, domain model.Domain, entities []model.CachedEntity) error {
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byDomain[domain] = entities
	m.replaces = append(m.replaces, domain)
	return nil
}

func (m *mockCacheStore) ReadDomain(_ context.Context, domain model.Domain) ([]model.CachedEntity, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byDomain[domain], nil
}

func (m *mockCacheStore) UpsertSingle(_ context.Context, entity model.CachedEntity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.byDomain[entity.Domain] {
		if existing.EntityID == entity.EntityID {
			m.byDomain[entity.Domain][i] = entity
			return nil
		}
	}
	m.byDomain[entity.Domain] = append(m.byDomain[entity.Domain], entity)
	return nil
}

func (m *mockCacheStore) DeleteSingle(_ context.Context, domain model.Domain, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.byDomain[domain][:0]
	for _, existing := range m.byDomain[domain] {
		if existing.EntityID != entityID {
			kept = append(kept, existing)
		}
	}
	m.byDomain[domain] = kept
	return nil
}

// mockSyncStateStore records per-domain outcomes in memory.
type mockSyncStateStore struct {
	mu        sync.Mutex
	successes map[model.Domain]int
	successAt map[model.Domain]time.Time
	failures  map[model.Domain]string
}

func newMockSyncStateStore() *mockSyncStateStore {
	return &mockSyncStateStore{
		successes: make(map[model.Domain]int),
		successAt: make(map[model.Domain]time.Time),
		failures:  make(map[model.Domain]string),
	}
}

func (m *mockSyncStateStore) RecordSuccess(_ context.Context, domain model.Domain, entityCount int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.successes[domain] = entityCount
	m.successAt[domain] = time.Now()
	delete(m.failures, domain)
	return nil
}

func (m *mockSyncStateStore) RecordFailure(_ context.Context, domain model.Domain, syncErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[domain] = syncErr.Error()
	return nil
}

func (m *mockSyncStateStore) Get(_ context.Context, domain model.Domain) (*model.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if count, ok := m.successes[domain]; ok {
		return &model.SyncState{Domain: domain, EntityCount: count, LastSuccessAt: m.successAt[domain]}, nil
	}
	if msg, ok := m.failures[domain]; ok {
		return &model.SyncState{Domain: domain, LastError: msg}, nil
	}
	return nil, nil
}

func (m *mockSyncStateStore) List(_ context.Context) ([]model.SyncState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var states []model.SyncState
	for _, domain := range model.AllDomains() {
		if count, ok := m.successes[domain]; ok {
			states = append(states, model.SyncState{Domain: domain, EntityCount: count, LastSuccessAt: m.successAt[domain]})
		} else if msg, ok := m.failures[domain]; ok {
			states = append(states, model.SyncState{Domain: domain, LastError: msg})
		}
	}
	return states, nil
}

// scriptedPrompt returns canned answers and counts how often it was asked.
type scriptedPrompt struct {
	password string
	code     string

	passwordCalls int
	codeCalls     int
}

func (p *scriptedPrompt) Password(string) (string, error) {
	p.passwordCalls++
	if p.password == "" {
		return "", fmt.Errorf("no password scripted")
	}
	return p.password, nil
}

func (p *scriptedPrompt) SecurityCode() (string, error) {
	p.codeCalls++
	if p.code == "" {
		return "", fmt.Errorf("no code scripted")
	}
	return p.code, nil
}
