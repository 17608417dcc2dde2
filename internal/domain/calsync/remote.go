package calsync

import (
	"context"

	"planner/internal/domain/credential"
)

// Remote клиент API внешнего календаря
type Remote interface {
	List(ctx context.Context, calendarID string, q ListQuery) (*ListPage, error)
	Insert(ctx context.Context, calendarID string, ev *RemoteEvent) (*RemoteEvent, error)
	Patch(ctx context.Context, calendarID, eventID string, ev *RemoteEvent) (*RemoteEvent, error)
	// Delete возвращает ErrRemoteNotFound, если события уже нет
	Delete(ctx context.Context, calendarID, eventID string) error
	Watch(ctx context.Context, calendarID string, spec WatchSpec) (*WatchResponse, error)
	Stop(ctx context.Context, channelID, resourceID string) error
}

// RemoteFactory создает клиента с правами конкретного пользователя
type RemoteFactory interface {
	ForCredential(ctx context.Context, cred *credential.Credential) (Remote, error)
}

// Authorizer OAuth-обмен кода авторизации на токены
type Authorizer interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
}
