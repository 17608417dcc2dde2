package channel

import "time"

// Channel подписка на push-уведомления об изменениях календаря Google
type Channel struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	CalendarID string    `json:"calendar_id"`
	UserID     int       `json:"user_id"`
	Expiration time.Time `json:"expiration"`
	SyncToken  *string   `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Cursor возвращает сохраненный sync token или пустую строку
func (c *Channel) Cursor() string {
	if c.SyncToken == nil {
		return ""
	}
	return *c.SyncToken
}

// Expired сообщает, истекла ли подписка к моменту now
func (c *Channel) Expired(now time.Time) bool {
	return !c.Expiration.IsZero() && !now.Before(c.Expiration)
}
