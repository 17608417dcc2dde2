package calsync

import (
	"context"
	"sort"
	"sync"
	"time"

	"planner/internal/domain/channel"
	"planner/internal/domain/credential"
	"planner/internal/domain/event"

	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// memEvents хранилище событий в памяти с тем же уникальным ключом, что и в postgres
type memEvents struct {
	mu      sync.Mutex
	rows    map[int64]event.Event
	nextID  int64
	creates int
	updates int
}

func newMemEvents() *memEvents {
	return &memEvents{rows: make(map[int64]event.Event)}
}

func (m *memEvents) List(_ context.Context, userID int) ([]event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []event.Event
	for _, ev := range m.rows {
		if ev.UserID == userID {
			out = append(out, ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memEvents) Get(_ context.Context, userID int, id int64) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.rows[id]
	if !ok || ev.UserID != userID {
		return nil, event.ErrNotFound
	}
	return &ev, nil
}

func (m *memEvents) Create(_ context.Context, ev *event.Event) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ev.Linked() {
		if _, ok := m.findLocked(ev.UserID, ev.RemoteCalendarID(), ev.RemoteID()); ok {
			return 0, event.ErrRemoteLinkExists
		}
	}

	m.nextID++
	row := *ev
	row.ID = m.nextID
	m.rows[row.ID] = row
	m.creates++
	return row.ID, nil
}

func (m *memEvents) Update(_ context.Context, ev *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[ev.ID]; !ok {
		return event.ErrNotFound
	}
	m.rows[ev.ID] = *ev
	m.updates++
	return nil
}

func (m *memEvents) Delete(_ context.Context, userID int, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.rows[id]
	if !ok || ev.UserID != userID {
		return event.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memEvents) FindByRemoteID(_ context.Context, userID int, calendarID, remoteID string) (*event.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.findLocked(userID, calendarID, remoteID)
	if !ok {
		return nil, event.ErrNotFound
	}
	return &ev, nil
}

func (m *memEvents) DeleteByRemoteIDs(_ context.Context, userID int, calendarID string, remoteIDs []string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for _, remoteID := range remoteIDs {
		if ev, ok := m.findLocked(userID, calendarID, remoteID); ok {
			delete(m.rows, ev.ID)
			n++
		}
	}
	return n, nil
}

func (m *memEvents) SetRemoteLink(_ context.Context, userID int, id int64, calendarID, remoteID, etag string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ev, ok := m.rows[id]
	if !ok || ev.UserID != userID {
		return event.ErrNotFound
	}
	if other, ok := m.findLocked(userID, calendarID, remoteID); ok && other.ID != id {
		return event.ErrRemoteLinkExists
	}
	ev.GoogleCalendarID = &calendarID
	ev.GoogleEventID = &remoteID
	if etag != "" {
		ev.ETag = &etag
	}
	m.rows[id] = ev
	return nil
}

func (m *memEvents) findLocked(userID int, calendarID, remoteID string) (event.Event, bool) {
	for _, ev := range m.rows {
		if ev.UserID == userID && ev.RemoteCalendarID() == calendarID && ev.RemoteID() == remoteID {
			return ev, true
		}
	}
	return event.Event{}, false
}

func (m *memEvents) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// memChannels реестр каналов в памяти, resource_id уникален
type memChannels struct {
	mu           sync.Mutex
	rows         map[string]channel.Channel
	cursorWrites []string
}

func newMemChannels(chs ...channel.Channel) *memChannels {
	m := &memChannels{rows: make(map[string]channel.Channel)}
	for _, ch := range chs {
		m.rows[ch.ID] = ch
	}
	return m
}

func (m *memChannels) Get(_ context.Context, channelID string) (*channel.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.rows[channelID]
	if !ok {
		return nil, channel.ErrNotFound
	}
	return &ch, nil
}

func (m *memChannels) FindByCalendar(_ context.Context, userID int, calendarID string) (*channel.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.rows {
		if ch.UserID == userID && ch.CalendarID == calendarID {
			return &ch, nil
		}
	}
	return nil, channel.ErrNotFound
}

func (m *memChannels) ListByUser(_ context.Context, userID int) ([]channel.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []channel.Channel
	for _, ch := range m.rows {
		if ch.UserID == userID {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memChannels) ListExpiring(_ context.Context, before time.Time) ([]channel.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []channel.Channel
	for _, ch := range m.rows {
		if ch.Expiration.Before(before) {
			out = append(out, ch)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memChannels) Create(_ context.Context, ch *channel.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range m.rows {
		if row.ResourceID == ch.ResourceID {
			return channel.ErrResourceExists
		}
	}
	m.rows[ch.ID] = *ch
	return nil
}

func (m *memChannels) UpdateByResourceID(_ context.Context, ch *channel.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, row := range m.rows {
		if row.ResourceID != ch.ResourceID {
			continue
		}
		delete(m.rows, id)
		updated := *ch
		if updated.SyncToken == nil {
			updated.SyncToken = row.SyncToken
		}
		updated.CreatedAt = row.CreatedAt
		m.rows[updated.ID] = updated
		return nil
	}
	return channel.ErrNotFound
}

func (m *memChannels) UpdateSyncToken(_ context.Context, channelID, syncToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.rows[channelID]
	if !ok {
		return channel.ErrNotFound
	}
	ch.SyncToken = &syncToken
	m.rows[channelID] = ch
	m.cursorWrites = append(m.cursorWrites, syncToken)
	return nil
}

func (m *memChannels) Delete(_ context.Context, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rows[channelID]; !ok {
		return channel.ErrNotFound
	}
	delete(m.rows, channelID)
	return nil
}

func (m *memChannels) DeleteByUser(_ context.Context, userID int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, ch := range m.rows {
		if ch.UserID == userID {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

// MockCredentials is a mock implementation of credential.Repository
type MockCredentials struct {
	mock.Mock
}

func (m *MockCredentials) Get(ctx context.Context, userID int) (*credential.Credential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*credential.Credential), args.Error(1)
}

func (m *MockCredentials) Save(ctx context.Context, cred *credential.Credential) error {
	args := m.Called(ctx, cred)
	return args.Error(0)
}

func (m *MockCredentials) UpdateToken(ctx context.Context, userID int, accessToken, refreshToken string, expiry time.Time) error {
	args := m.Called(ctx, userID, accessToken, refreshToken, expiry)
	return args.Error(0)
}

func (m *MockCredentials) SetCalendar(ctx context.Context, userID int, calendarID string) error {
	args := m.Called(ctx, userID, calendarID)
	return args.Error(0)
}

func (m *MockCredentials) Delete(ctx context.Context, userID int) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockRemote is a mock implementation of the Remote interface
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) List(ctx context.Context, calendarID string, q ListQuery) (*ListPage, error) {
	args := m.Called(ctx, calendarID, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ListPage), args.Error(1)
}

func (m *MockRemote) Insert(ctx context.Context, calendarID string, ev *RemoteEvent) (*RemoteEvent, error) {
	args := m.Called(ctx, calendarID, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RemoteEvent), args.Error(1)
}

func (m *MockRemote) Patch(ctx context.Context, calendarID, eventID string, ev *RemoteEvent) (*RemoteEvent, error) {
	args := m.Called(ctx, calendarID, eventID, ev)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*RemoteEvent), args.Error(1)
}

func (m *MockRemote) Delete(ctx context.Context, calendarID, eventID string) error {
	args := m.Called(ctx, calendarID, eventID)
	return args.Error(0)
}

func (m *MockRemote) Watch(ctx context.Context, calendarID string, spec WatchSpec) (*WatchResponse, error) {
	args := m.Called(ctx, calendarID, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*WatchResponse), args.Error(1)
}

func (m *MockRemote) Stop(ctx context.Context, channelID, resourceID string) error {
	args := m.Called(ctx, channelID, resourceID)
	return args.Error(0)
}

type stubFactory struct {
	remote Remote
}

func (f stubFactory) ForCredential(context.Context, *credential.Credential) (Remote, error) {
	return f.remote, nil
}

type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) AuthCodeURL(state string) string {
	return m.Called(state).String(0)
}

func (m *MockAuthorizer) Exchange(ctx context.Context, code string) (*Token, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Token), args.Error(1)
}

var testNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	service  *Service
	events   *memEvents
	channels *memChannels
	creds    *MockCredentials
	remote   *MockRemote
	auth     *MockAuthorizer
}

func newTestEnv(chs ...channel.Channel) *testEnv {
	env := &testEnv{
		events:   newMemEvents(),
		channels: newMemChannels(chs...),
		creds:    new(MockCredentials),
		remote:   new(MockRemote),
		auth:     new(MockAuthorizer),
	}

	env.service = NewService(Deps{
		Events:      env.events,
		Channels:    env.channels,
		Credentials: env.creds,
		Remotes:     stubFactory{remote: env.remote},
		Auth:        env.auth,
	}, Config{
		BatchSize:    4,
		WebhookURL:   "https://planner.example.com/api/google/webhook",
		WebhookToken: "secret",
	}, slog.Default())
	env.service.now = func() time.Time { return testNow }

	return env
}

// linked регистрирует подключенный аккаунт пользователя 1 с основным календарем
func (e *testEnv) linked() {
	e.creds.On("Get", mock.Anything, 1).Return(&credential.Credential{UserID: 1, CalendarID: PrimaryCalendar}, nil)
}

func timedItem(id, summary string, start time.Time) RemoteEvent {
	return RemoteEvent{
		ID:      id,
		Status:  "confirmed",
		Summary: summary,
		ETag:    `"` + id + `"`,
		Start:   RemoteTime{DateTime: start},
		End:     RemoteTime{DateTime: start.Add(time.Hour)},
	}
}

func withToken(token string) func(ListQuery) bool {
	return func(q ListQuery) bool { return q.SyncToken == token }
}

func withPage(pageToken string) func(ListQuery) bool {
	return func(q ListQuery) bool { return q.PageToken == pageToken }
}

func strPtr(s string) *string {
	return &s
}
