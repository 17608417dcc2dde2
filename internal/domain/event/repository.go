package event

import "context"

// Repository хранилище локальных событий
type Repository interface {
	List(ctx context.Context, userID int) ([]Event, error)
	Get(ctx context.Context, userID int, id int64) (*Event, error)
	Create(ctx context.Context, ev *Event) (int64, error)
	Update(ctx context.Context, ev *Event) error
	Delete(ctx context.Context, userID int, id int64) error

	// Операции синхронизации, ключ - (пользователь, календарь, id внешнего события)
	FindByRemoteID(ctx context.Context, userID int, calendarID, remoteID string) (*Event, error)
	DeleteByRemoteIDs(ctx context.Context, userID int, calendarID string, remoteIDs []string) (int64, error)
	SetRemoteLink(ctx context.Context, userID int, id int64, calendarID, remoteID, etag string) error
}
