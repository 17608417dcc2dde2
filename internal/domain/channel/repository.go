package channel

import (
	"context"
	"time"
)

// Repository реестр подписок на push-уведомления
type Repository interface {
	Get(ctx context.Context, channelID string) (*Channel, error)
	FindByCalendar(ctx context.Context, userID int, calendarID string) (*Channel, error)
	ListByUser(ctx context.Context, userID int) ([]Channel, error)
	ListExpiring(ctx context.Context, before time.Time) ([]Channel, error)

	// Create возвращает ErrResourceExists, если resource_id уже занят
	Create(ctx context.Context, ch *Channel) error
	UpdateByResourceID(ctx context.Context, ch *Channel) error
	UpdateSyncToken(ctx context.Context, channelID, syncToken string) error

	Delete(ctx context.Context, channelID string) error
	DeleteByUser(ctx context.Context, userID int) (int64, error)
}
