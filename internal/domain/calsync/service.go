package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/internal/domain/channel"
	"planner/internal/domain/credential"
	"planner/internal/domain/event"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"golang.org/x/exp/slog"
)

// Servicer операции синхронизации, доступные HTTP-слою
type Servicer interface {
	// SyncNow подтягивает изменения выбранного календаря пользователя
	SyncNow(ctx context.Context, userID int) (*PullResult, error)

	// Backfill полная пересинхронизация за год, курсор игнорируется
	Backfill(ctx context.Context, userID int) (*PullResult, error)

	// EnsureWatch создает подписку на push-уведомления календаря
	EnsureWatch(ctx context.Context, userID int, calendarID string) (*WatchResult, error)

	// Disconnect удаляет подписки и токены пользователя
	Disconnect(ctx context.Context, userID int) error

	AuthURL(state string) (string, error)
	Connect(ctx context.Context, userID int, code string) error
	Status(ctx context.Context, userID int) (*StatusResult, error)
}

// Deps зависимости сервиса синхронизации
type Deps struct {
	Events      event.Repository
	Channels    channel.Repository
	Credentials credential.Repository
	Remotes     RemoteFactory
	// Auth может быть nil, если OAuth не настроен
	Auth Authorizer
}

// Service движок двусторонней синхронизации с Google Calendar
type Service struct {
	events      event.Repository
	channels    channel.Repository
	credentials credential.Repository
	remotes     RemoteFactory
	auth        Authorizer
	cfg         Config
	log         *slog.Logger
	locks       *locker.Locker
	now         func() time.Time
	newID       func() string
}

// NewService создает сервис синхронизации
func NewService(deps Deps, cfg Config, log *slog.Logger) *Service {
	return &Service{
		events:      deps.Events,
		channels:    deps.Channels,
		credentials: deps.Credentials,
		remotes:     deps.Remotes,
		auth:        deps.Auth,
		cfg:         cfg.withDefaults(),
		log:         log.With("component", "calsync"),
		locks:       locker.New(),
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// SyncNow запускает инкрементальную синхронизацию по сохраненному курсору.
// Без курсора выборка ограничена коротким окном, чтобы ответ был быстрым.
func (s *Service) SyncNow(ctx context.Context, userID int) (*PullResult, error) {
	req, err := s.channelPullRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.WindowDays = s.cfg.ManualWindowDays

	return s.Pull(ctx, req)
}

// Backfill полная выгрузка за длинное окно; новый курсор сохраняется в канал, если он есть
func (s *Service) Backfill(ctx context.Context, userID int) (*PullResult, error) {
	req, err := s.channelPullRequest(ctx, userID)
	if err != nil {
		return nil, err
	}
	req.ForceFull = true
	req.Cursor = ""
	req.WindowDays = s.cfg.BackfillWindowDays

	return s.Pull(ctx, req)
}

// Status показывает состояние подключения пользователя
func (s *Service) Status(ctx context.Context, userID int) (*StatusResult, error) {
	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, credential.ErrNotLinked) {
			return &StatusResult{Linked: false}, nil
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}

	channels, err := s.channels.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}

	return &StatusResult{
		Linked:     true,
		CalendarID: calendarOrPrimary(cred.CalendarID),
		Channels:   channels,
	}, nil
}

func (s *Service) channelPullRequest(ctx context.Context, userID int) (PullRequest, error) {
	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return PullRequest{}, fmt.Errorf("get credential: %w", err)
	}

	req := PullRequest{
		UserID:     userID,
		CalendarID: calendarOrPrimary(cred.CalendarID),
	}

	ch, err := s.channels.FindByCalendar(ctx, userID, req.CalendarID)
	switch {
	case err == nil:
		req.ChannelID = ch.ID
		req.Cursor = ch.Cursor()
	case errors.Is(err, channel.ErrNotFound):
	default:
		return PullRequest{}, fmt.Errorf("find channel: %w", err)
	}

	return req, nil
}

func (s *Service) remoteFor(ctx context.Context, userID int) (*credential.Credential, Remote, error) {
	cred, err := s.credentials.Get(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("get credential: %w", err)
	}

	remote, err := s.remotes.ForCredential(ctx, cred)
	if err != nil {
		return nil, nil, fmt.Errorf("create remote client: %w", err)
	}

	return cred, remote, nil
}

func calendarOrPrimary(calendarID string) string {
	if calendarID == "" {
		return PrimaryCalendar
	}
	return calendarID
}
