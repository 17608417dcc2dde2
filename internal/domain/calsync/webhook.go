package calsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"planner/internal/domain/channel"

	"golang.org/x/exp/slog"
)

// HandleNotification запускает входящую синхронизацию по push-уведомлению
func (s *Service) HandleNotification(ctx context.Context, n Notification) error {
	if n.ChannelID == "" {
		return fmt.Errorf("%w: missing channel id", ErrInvalidNotification)
	}

	ch, err := s.channels.Get(ctx, n.ChannelID)
	if err != nil {
		if errors.Is(err, channel.ErrNotFound) {
			return fmt.Errorf("%w: unknown channel %s", ErrInvalidNotification, n.ChannelID)
		}
		return fmt.Errorf("get channel: %w", err)
	}

	if n.ResourceID != "" && n.ResourceID != ch.ResourceID {
		return fmt.Errorf("%w: resource id mismatch for channel %s", ErrInvalidNotification, n.ChannelID)
	}
	if s.cfg.WebhookToken != "" && n.Token != s.cfg.WebhookToken {
		return fmt.Errorf("%w: bad channel token", ErrInvalidNotification)
	}

	s.log.Debug("push notification accepted",
		"channel_id", ch.ID,
		"resource_state", n.ResourceState,
		"message_number", n.MessageNumber,
	)

	_, err = s.Pull(ctx, PullRequest{
		UserID:     ch.UserID,
		CalendarID: ch.CalendarID,
		ChannelID:  ch.ID,
		Cursor:     ch.Cursor(),
		WindowDays: s.cfg.DefaultWindowDays,
	})
	return err
}

// NotificationHandler обработчик уведомлений, который вызывает Dispatcher
type NotificationHandler interface {
	HandleNotification(ctx context.Context, n Notification) error
}

// Dispatcher обрабатывает уведомления в фоне, чтобы webhook отвечал сразу
type Dispatcher struct {
	handler NotificationHandler
	timeout time.Duration
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(handler NotificationHandler, timeout time.Duration, log *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Dispatcher{
		handler: handler,
		timeout: timeout,
		log:     log.With("component", "webhook_dispatcher"),
	}
}

// Dispatch не ждет результата; контекст запроса не используется, он завершится раньше синхронизации
func (d *Dispatcher) Dispatch(n Notification) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("notification handler panicked", "channel_id", n.ChannelID, "panic", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		if err := d.handler.HandleNotification(ctx, n); err != nil {
			if errors.Is(err, ErrInvalidNotification) {
				d.log.Warn("notification ignored", "channel_id", n.ChannelID, "reason", err)
				return
			}
			d.log.Error("notification processing failed", "channel_id", n.ChannelID, "error", err)
		}
	}()
}

// Wait дожидается завершения запущенных обработчиков
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
