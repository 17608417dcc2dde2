package calsync

import (
	"time"

	"planner/internal/domain/channel"
)

const (
	// PrimaryCalendar календарь Google по умолчанию
	PrimaryCalendar = "primary"
	// StatusCancelled маркер удаленного события в ответе Google
	StatusCancelled = "cancelled"

	dateLayout = "2006-01-02"
)

// RemoteTime время начала или окончания события Google.
// Для событий на весь день заполнен только Date.
type RemoteTime struct {
	Date     string
	DateTime time.Time
	TimeZone string
}

func (t RemoteTime) IsZero() bool {
	return t.Date == "" && t.DateTime.IsZero()
}

// RemoteEvent событие внешнего календаря
type RemoteEvent struct {
	ID               string
	Status           string
	Summary          string
	Description      string
	Location         string
	ETag             string
	RecurringEventID string
	Start            RemoteTime
	End              RemoteTime
}

func (e RemoteEvent) Cancelled() bool {
	return e.Status == StatusCancelled
}

// ListQuery параметры выборки событий. SyncToken и TimeMin взаимоисключающие.
type ListQuery struct {
	SyncToken   string
	TimeMin     time.Time
	PageToken   string
	ShowDeleted bool
	MaxResults  int
}

// ListPage страница выборки. NextSyncToken приходит только на последней странице.
type ListPage struct {
	Items         []RemoteEvent
	NextPageToken string
	NextSyncToken string
}

// WatchSpec параметры подписки на push-уведомления
type WatchSpec struct {
	ChannelID string
	Address   string
	Token     string
}

type WatchResponse struct {
	ResourceID string
	Expiration time.Time
}

// Token OAuth-токены, полученные при подключении аккаунта
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// PullRequest параметры входящей синхронизации
type PullRequest struct {
	UserID     int
	CalendarID string
	// ChannelID канал, в который сохраняется новый курсор; пустой для разовых выгрузок
	ChannelID  string
	Cursor     string
	ForceFull  bool
	WindowDays int
}

// PullResult итог входящей синхронизации
type PullResult struct {
	NextCursor  string   `json:"-"`
	CursorSaved bool     `json:"cursor_saved"`
	Pages       int      `json:"pages"`
	Fetched     int      `json:"fetched"`
	Created     int      `json:"created"`
	Updated     int      `json:"updated"`
	Unchanged   int      `json:"unchanged"`
	Deleted     int      `json:"deleted"`
	Skipped     int      `json:"skipped"`
	Failed      int      `json:"failed"`
	Errors      []string `json:"errors,omitempty"`
}

type WatchResult struct {
	ChannelID  string    `json:"channel_id"`
	ResourceID string    `json:"resource_id"`
	Expiration time.Time `json:"expiration"`
}

type StatusResult struct {
	Linked     bool              `json:"linked"`
	CalendarID string            `json:"calendar_id,omitempty"`
	Channels   []channel.Channel `json:"channels,omitempty"`
}

// Notification заголовки push-уведомления Google
type Notification struct {
	ChannelID     string
	ResourceID    string
	ResourceState string
	MessageNumber string
	Token         string
}

// Config параметры движка синхронизации
type Config struct {
	BatchSize          int
	DefaultWindowDays  int
	ManualWindowDays   int
	BackfillWindowDays int
	WebhookURL         string
	WebhookToken       string
	PrimePages         int
}

func (c Config) withDefaults() Config {
	if c.BatchSize <= 0 {
		c.BatchSize = 20
	}
	if c.DefaultWindowDays <= 0 {
		c.DefaultWindowDays = 90
	}
	if c.ManualWindowDays <= 0 {
		c.ManualWindowDays = 30
	}
	if c.BackfillWindowDays <= 0 {
		c.BackfillWindowDays = 365
	}
	if c.PrimePages <= 0 {
		c.PrimePages = 10
	}
	return c
}
