package calsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"planner/internal/domain/channel"
	"planner/internal/domain/credential"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnsureWatch_CreatesPrimedChannel(t *testing.T) {
	env := newTestEnv()
	env.linked()
	env.service.newID = func() string { return "new-ch" }

	expiration := testNow.Add(7 * 24 * time.Hour)
	env.remote.On("Watch", mock.Anything, "work", WatchSpec{
		ChannelID: "new-ch",
		Address:   "https://planner.example.com/api/google/webhook",
		Token:     "secret",
	}).Return(&WatchResponse{ResourceID: "res-1", Expiration: expiration}, nil)
	env.remote.On("List", mock.Anything, "work", mock.MatchedBy(func(q ListQuery) bool {
		return q.TimeMin.Equal(testNow) && q.PageToken == ""
	})).Return(&ListPage{NextPageToken: "p2"}, nil)
	env.remote.On("List", mock.Anything, "work", mock.MatchedBy(withPage("p2"))).
		Return(&ListPage{NextSyncToken: "primed"}, nil)
	env.creds.On("SetCalendar", mock.Anything, 1, "work").Return(nil)

	res, err := env.service.EnsureWatch(context.Background(), 1, "work")
	require.NoError(t, err)
	assert.Equal(t, "new-ch", res.ChannelID)
	assert.Equal(t, "res-1", res.ResourceID)
	assert.Equal(t, expiration, res.Expiration)

	ch, err := env.channels.Get(context.Background(), "new-ch")
	require.NoError(t, err)
	assert.Equal(t, "primed", ch.Cursor())
	assert.Equal(t, 1, ch.UserID)

	env.creds.AssertExpectations(t)
}

func TestEnsureWatch_PrimeFailureIsNotFatal(t *testing.T) {
	env := newTestEnv()
	env.linked()
	env.service.newID = func() string { return "new-ch" }

	env.remote.On("Watch", mock.Anything, PrimaryCalendar, mock.Anything).
		Return(&WatchResponse{ResourceID: "res-1", Expiration: testNow.Add(time.Hour)}, nil)
	env.remote.On("List", mock.Anything, PrimaryCalendar, mock.Anything).Return(nil, errors.New("quota exceeded"))
	env.creds.On("SetCalendar", mock.Anything, 1, PrimaryCalendar).Return(nil)

	_, err := env.service.EnsureWatch(context.Background(), 1, "")
	require.NoError(t, err)

	ch, err := env.channels.Get(context.Background(), "new-ch")
	require.NoError(t, err)
	assert.Nil(t, ch.SyncToken)
}

func TestEnsureWatch_ResourceCollisionUpdatesExistingRow(t *testing.T) {
	existing := channel.Channel{
		ID:         "old-ch",
		ResourceID: "res-1",
		CalendarID: PrimaryCalendar,
		UserID:     1,
		Expiration: testNow.Add(-time.Hour),
		SyncToken:  strPtr("kept"),
	}
	env := newTestEnv(existing)
	env.linked()
	env.service.newID = func() string { return "new-ch" }

	env.remote.On("Watch", mock.Anything, PrimaryCalendar, mock.Anything).
		Return(&WatchResponse{ResourceID: "res-1", Expiration: testNow.Add(24 * time.Hour)}, nil)
	env.remote.On("List", mock.Anything, PrimaryCalendar, mock.Anything).Return(nil, errors.New("unavailable"))
	env.creds.On("SetCalendar", mock.Anything, 1, PrimaryCalendar).Return(nil)

	res, err := env.service.EnsureWatch(context.Background(), 1, PrimaryCalendar)
	require.NoError(t, err)
	assert.Equal(t, "res-1", res.ResourceID)

	channels, err := env.channels.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "new-ch", channels[0].ID)
	assert.Equal(t, "res-1", channels[0].ResourceID)
	assert.Equal(t, testNow.Add(24*time.Hour), channels[0].Expiration)
	assert.Equal(t, "kept", channels[0].Cursor())

	env.remote.AssertNotCalled(t, "Stop", mock.Anything, mock.Anything, mock.Anything)
}

func TestEnsureWatch_RetiresStaleChannels(t *testing.T) {
	env := newTestEnv(
		channel.Channel{ID: "stale", ResourceID: "res-old", CalendarID: PrimaryCalendar, UserID: 1},
		channel.Channel{ID: "other-cal", ResourceID: "res-work", CalendarID: "work", UserID: 1},
	)
	env.linked()
	env.service.newID = func() string { return "new-ch" }

	env.remote.On("Watch", mock.Anything, PrimaryCalendar, mock.Anything).
		Return(&WatchResponse{ResourceID: "res-new", Expiration: testNow.Add(time.Hour)}, nil)
	env.remote.On("List", mock.Anything, PrimaryCalendar, mock.Anything).Return(&ListPage{NextSyncToken: "t"}, nil)
	env.remote.On("Stop", mock.Anything, "stale", "res-old").Return(errors.New("already expired"))
	env.creds.On("SetCalendar", mock.Anything, 1, PrimaryCalendar).Return(nil)

	_, err := env.service.EnsureWatch(context.Background(), 1, PrimaryCalendar)
	require.NoError(t, err)

	_, err = env.channels.Get(context.Background(), "stale")
	assert.ErrorIs(t, err, channel.ErrNotFound)
	_, err = env.channels.Get(context.Background(), "other-cal")
	assert.NoError(t, err)

	env.remote.AssertExpectations(t)
}

func TestEnsureWatch_NotConfigured(t *testing.T) {
	env := newTestEnv()
	env.service.cfg.WebhookURL = ""

	_, err := env.service.EnsureWatch(context.Background(), 1, PrimaryCalendar)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestEnsureWatch_RemoteFailure(t *testing.T) {
	env := newTestEnv()
	env.linked()

	env.remote.On("Watch", mock.Anything, PrimaryCalendar, mock.Anything).Return(nil, errors.New("forbidden"))

	_, err := env.service.EnsureWatch(context.Background(), 1, PrimaryCalendar)
	assert.Error(t, err)
	assert.Equal(t, 0, len(env.channels.rows))
	env.creds.AssertNotCalled(t, "SetCalendar", mock.Anything, mock.Anything, mock.Anything)
}

func TestDisconnect(t *testing.T) {
	env := newTestEnv(
		channel.Channel{ID: "a", ResourceID: "res-a", CalendarID: PrimaryCalendar, UserID: 1},
		channel.Channel{ID: "b", ResourceID: "res-b", CalendarID: "work", UserID: 1},
		channel.Channel{ID: "c", ResourceID: "res-c", CalendarID: PrimaryCalendar, UserID: 2},
	)
	env.linked()
	env.creds.On("Delete", mock.Anything, 1).Return(nil)
	env.remote.On("Stop", mock.Anything, "a", "res-a").Return(nil)
	env.remote.On("Stop", mock.Anything, "b", "res-b").Return(errors.New("not found"))

	err := env.service.Disconnect(context.Background(), 1)
	require.NoError(t, err)

	left, _ := env.channels.ListByUser(context.Background(), 1)
	assert.Empty(t, left)
	others, _ := env.channels.ListByUser(context.Background(), 2)
	assert.Len(t, others, 1)

	env.creds.AssertExpectations(t)
	env.remote.AssertExpectations(t)
}

func TestDisconnect_NotLinked(t *testing.T) {
	env := newTestEnv()
	env.creds.On("Delete", mock.Anything, 1).Return(credential.ErrNotLinked)

	assert.NoError(t, env.service.Disconnect(context.Background(), 1))
}

func TestConnect_KeepsRefreshToken(t *testing.T) {
	env := newTestEnv()
	expiry := testNow.Add(time.Hour)

	env.auth.On("Exchange", mock.Anything, "code-1").
		Return(&Token{AccessToken: "access-2", Expiry: expiry}, nil)
	env.creds.On("Get", mock.Anything, 1).
		Return(&credential.Credential{UserID: 1, RefreshToken: "refresh-1", CalendarID: "work"}, nil)
	env.creds.On("Save", mock.Anything, &credential.Credential{
		UserID:       1,
		AccessToken:  "access-2",
		RefreshToken: "refresh-1",
		TokenExpiry:  expiry,
		CalendarID:   "work",
	}).Return(nil)

	require.NoError(t, env.service.Connect(context.Background(), 1, "code-1"))
	env.creds.AssertExpectations(t)
}

func TestConnect_NewAccount(t *testing.T) {
	env := newTestEnv()

	env.auth.On("Exchange", mock.Anything, "code-1").
		Return(&Token{AccessToken: "a", RefreshToken: "r"}, nil)
	env.creds.On("Get", mock.Anything, 1).Return(nil, credential.ErrNotLinked)
	env.creds.On("Save", mock.Anything, mock.MatchedBy(func(c *credential.Credential) bool {
		return c.RefreshToken == "r" && c.CalendarID == ""
	})).Return(nil)

	require.NoError(t, env.service.Connect(context.Background(), 1, "code-1"))
}

func TestAuthURL(t *testing.T) {
	env := newTestEnv()
	env.auth.On("AuthCodeURL", "state-1").Return("https://accounts.google.com/o/oauth2/auth?state=state-1")

	url, err := env.service.AuthURL("state-1")
	require.NoError(t, err)
	assert.Contains(t, url, "state-1")

	env.service.auth = nil
	_, err = env.service.AuthURL("state-1")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestStatus(t *testing.T) {
	env := newTestEnv(channel.Channel{ID: "a", ResourceID: "res-a", CalendarID: PrimaryCalendar, UserID: 1})
	env.linked()

	res, err := env.service.Status(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, res.Linked)
	assert.Equal(t, PrimaryCalendar, res.CalendarID)
	assert.Len(t, res.Channels, 1)

	env.creds.On("Get", mock.Anything, 2).Return(nil, credential.ErrNotLinked)
	res, err = env.service.Status(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, res.Linked)
}

func TestRenewExpiring(t *testing.T) {
	env := newTestEnv(
		channel.Channel{ID: "soon", ResourceID: "res-1", CalendarID: PrimaryCalendar, UserID: 1, Expiration: testNow.Add(time.Hour)},
		channel.Channel{ID: "later", ResourceID: "res-2", CalendarID: "work", UserID: 1, Expiration: testNow.Add(72 * time.Hour)},
	)
	env.linked()
	env.service.newID = func() string { return "renewed" }

	env.remote.On("Watch", mock.Anything, PrimaryCalendar, mock.Anything).
		Return(&WatchResponse{ResourceID: "res-1", Expiration: testNow.Add(7 * 24 * time.Hour)}, nil)
	env.remote.On("List", mock.Anything, PrimaryCalendar, mock.Anything).Return(&ListPage{NextSyncToken: "t"}, nil)
	env.creds.On("SetCalendar", mock.Anything, 1, PrimaryCalendar).Return(nil)

	n, err := env.service.RenewExpiring(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.channels.Get(context.Background(), "renewed")
	assert.NoError(t, err)
	_, err = env.channels.Get(context.Background(), "later")
	assert.NoError(t, err)
}
