package calsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/internal/domain/channel"
	"planner/internal/domain/credential"

	"golang.org/x/exp/slog"
)

const primePageSize = 250

// EnsureWatch подписывается на изменения календаря и сохраняет канал.
// Если у Google уже есть канал на этот ресурс, существующая строка обновляется на месте.
func (s *Service) EnsureWatch(ctx context.Context, userID int, calendarID string) (*WatchResult, error) {
	if s.cfg.WebhookURL == "" {
		return nil, fmt.Errorf("%w: webhook url is empty", ErrNotConfigured)
	}

	calendarID = calendarOrPrimary(calendarID)
	log := s.log.With(slog.Int("user_id", userID), slog.String("calendar_id", calendarID))

	_, remote, err := s.remoteFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	channelID := s.newID()
	resp, err := remote.Watch(ctx, calendarID, WatchSpec{
		ChannelID: channelID,
		Address:   s.cfg.WebhookURL,
		Token:     s.cfg.WebhookToken,
	})
	if err != nil {
		log.Error("failed to register watch", "error", err)
		return nil, fmt.Errorf("watch calendar: %w", err)
	}

	ch := &channel.Channel{
		ID:         channelID,
		ResourceID: resp.ResourceID,
		CalendarID: calendarID,
		UserID:     userID,
		Expiration: resp.Expiration,
	}
	if cursor := s.primeCursor(ctx, remote, calendarID, log); cursor != "" {
		ch.SyncToken = &cursor
	}

	err = s.channels.Create(ctx, ch)
	if errors.Is(err, channel.ErrResourceExists) {
		log.Info("resource already watched, updating existing channel", "resource_id", resp.ResourceID)
		err = s.channels.UpdateByResourceID(ctx, ch)
	}
	if err != nil {
		log.Error("failed to save channel", "error", err)
		return nil, fmt.Errorf("save channel: %w", err)
	}

	s.retireStale(ctx, remote, ch, log)

	if err := s.credentials.SetCalendar(ctx, userID, calendarID); err != nil {
		return nil, fmt.Errorf("set calendar: %w", err)
	}

	log.Info("watch registered",
		"channel_id", ch.ID,
		"resource_id", ch.ResourceID,
		"expiration", ch.Expiration,
		"primed", ch.SyncToken != nil,
	)

	return &WatchResult{
		ChannelID:  ch.ID,
		ResourceID: ch.ResourceID,
		Expiration: ch.Expiration,
	}, nil
}

// primeCursor получает стартовый sync token выборкой от текущего момента.
// Ошибка не критична: первая синхронизация по уведомлению пойдет по окну.
func (s *Service) primeCursor(ctx context.Context, remote Remote, calendarID string, log *slog.Logger) string {
	query := ListQuery{TimeMin: s.now(), MaxResults: primePageSize}

	for i := 0; i < s.cfg.PrimePages; i++ {
		page, err := remote.List(ctx, calendarID, query)
		if err != nil {
			log.Warn("failed to prime sync token", "error", err)
			return ""
		}
		if page.NextSyncToken != "" {
			return page.NextSyncToken
		}
		if page.NextPageToken == "" {
			return ""
		}
		query.PageToken = page.NextPageToken
	}

	log.Warn("sync token not primed, page limit reached", "pages", s.cfg.PrimePages)
	return ""
}

// retireStale останавливает прочие каналы того же календаря пользователя
func (s *Service) retireStale(ctx context.Context, remote Remote, current *channel.Channel, log *slog.Logger) {
	channels, err := s.channels.ListByUser(ctx, current.UserID)
	if err != nil {
		log.Warn("failed to list channels for cleanup", "error", err)
		return
	}

	for _, ch := range channels {
		if ch.CalendarID != current.CalendarID || ch.ID == current.ID || ch.ResourceID == current.ResourceID {
			continue
		}
		if err := remote.Stop(ctx, ch.ID, ch.ResourceID); err != nil {
			log.Warn("failed to stop stale channel", "channel_id", ch.ID, "error", err)
		}
		if err := s.channels.Delete(ctx, ch.ID); err != nil && !errors.Is(err, channel.ErrNotFound) {
			log.Warn("failed to delete stale channel", "channel_id", ch.ID, "error", err)
		}
	}
}

// Disconnect останавливает подписки пользователя и удаляет его каналы и токены
func (s *Service) Disconnect(ctx context.Context, userID int) error {
	log := s.log.With(slog.Int("user_id", userID))

	channels, err := s.channels.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list channels: %w", err)
	}

	if len(channels) > 0 {
		if _, remote, err := s.remoteFor(ctx, userID); err != nil {
			log.Warn("cannot stop remote channels", "error", err)
		} else {
			for _, ch := range channels {
				if err := remote.Stop(ctx, ch.ID, ch.ResourceID); err != nil {
					log.Warn("failed to stop channel", "channel_id", ch.ID, "error", err)
				}
			}
		}
	}

	removed, err := s.channels.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete channels: %w", err)
	}

	if err := s.credentials.Delete(ctx, userID); err != nil && !errors.Is(err, credential.ErrNotLinked) {
		return fmt.Errorf("delete credential: %w", err)
	}

	log.Info("google account disconnected", "channels_removed", removed)
	return nil
}

// AuthURL ссылка на экран согласия Google
func (s *Service) AuthURL(state string) (string, error) {
	if s.auth == nil {
		return "", ErrNotConfigured
	}
	return s.auth.AuthCodeURL(state), nil
}

// Connect обменивает код авторизации на токены и сохраняет их.
// Google не всегда возвращает refresh token повторно, тогда остается прежний.
func (s *Service) Connect(ctx context.Context, userID int, code string) error {
	if s.auth == nil {
		return ErrNotConfigured
	}

	tok, err := s.auth.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code: %w", err)
	}

	cred := &credential.Credential{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenExpiry:  tok.Expiry,
	}

	existing, err := s.credentials.Get(ctx, userID)
	switch {
	case err == nil:
		if cred.RefreshToken == "" {
			cred.RefreshToken = existing.RefreshToken
		}
		cred.CalendarID = existing.CalendarID
	case errors.Is(err, credential.ErrNotLinked):
	default:
		return fmt.Errorf("get credential: %w", err)
	}

	if err := s.credentials.Save(ctx, cred); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	s.log.Info("google account connected", "user_id", userID, "has_refresh_token", cred.RefreshToken != "")
	return nil
}

// RenewExpiring переподписывает каналы, которые истекут в течение lead
func (s *Service) RenewExpiring(ctx context.Context, lead time.Duration) (int, error) {
	channels, err := s.channels.ListExpiring(ctx, s.now().Add(lead))
	if err != nil {
		return 0, fmt.Errorf("list expiring channels: %w", err)
	}

	renewed := 0
	for _, ch := range channels {
		if _, err := s.EnsureWatch(ctx, ch.UserID, ch.CalendarID); err != nil {
			s.log.Error("failed to renew channel",
				"channel_id", ch.ID,
				"user_id", ch.UserID,
				"error", err,
			)
			continue
		}
		renewed++
	}

	return renewed, nil
}
