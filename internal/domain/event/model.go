package event

import "time"

// UntitledTitle заголовок события без названия
const UntitledTitle = "Untitled event"

// Event событие календаря пользователя.
// Поля Google* заполняются после первой синхронизации с внешним календарем.
type Event struct {
	ID               int64     `json:"id"`
	UserID           int       `json:"user_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	Location         string    `json:"location,omitempty"`
	StartTime        time.Time `json:"start_time"`
	EndTime          time.Time `json:"end_time"`
	AllDay           bool      `json:"all_day"`
	IsRecurring      bool      `json:"is_recurring"`
	GoogleEventID    *string   `json:"google_event_id,omitempty"`
	GoogleCalendarID *string   `json:"google_calendar_id,omitempty"`
	ETag             *string   `json:"etag,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// RemoteID возвращает идентификатор события во внешнем календаре или пустую строку
func (e *Event) RemoteID() string {
	if e.GoogleEventID == nil {
		return ""
	}
	return *e.GoogleEventID
}

// RemoteCalendarID возвращает календарь, с которым связано событие
func (e *Event) RemoteCalendarID() string {
	if e.GoogleCalendarID == nil {
		return ""
	}
	return *e.GoogleCalendarID
}

// Linked сообщает, было ли событие уже выгружено во внешний календарь
func (e *Event) Linked() bool {
	return e.RemoteID() != ""
}

// SameContent сравнивает поля, которые приходят из внешнего календаря
func (e *Event) SameContent(other *Event) bool {
	return e.Title == other.Title &&
		e.Description == other.Description &&
		e.Location == other.Location &&
		e.StartTime.Equal(other.StartTime) &&
		e.EndTime.Equal(other.EndTime) &&
		e.AllDay == other.AllDay &&
		e.IsRecurring == other.IsRecurring
}

// NormalizeDay приводит дату к полудню UTC, чтобы день не смещался при смене часового пояса
func NormalizeDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}
