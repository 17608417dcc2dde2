package calsync

import (
	"context"
	"errors"
	"fmt"

	"planner/internal/domain/credential"
	"planner/internal/domain/event"

	"golang.org/x/exp/slog"
)

// PropagateUpsert выгружает созданное или измененное событие в Google.
// Ошибки только логируются: локальная запись уже сохранена и остается источником истины.
func (s *Service) PropagateUpsert(ctx context.Context, userID int, ev *event.Event) {
	log := s.log.With(slog.Int("user_id", userID), slog.Int64("event_id", ev.ID))

	cred, remote, err := s.remoteFor(ctx, userID)
	if err != nil {
		if !errors.Is(err, credential.ErrNotLinked) {
			log.Error("propagate upsert skipped", "error", err)
		}
		return
	}

	calendarID := ev.RemoteCalendarID()
	if calendarID == "" {
		calendarID = calendarOrPrimary(cred.CalendarID)
	}

	body := remoteFromLocal(ev)

	if ev.Linked() {
		patched, err := remote.Patch(ctx, calendarID, ev.RemoteID(), body)
		if err != nil {
			log.Error("failed to patch remote event", "remote_id", ev.RemoteID(), "error", err)
			return
		}
		if err := s.events.SetRemoteLink(ctx, userID, ev.ID, calendarID, patched.ID, patched.ETag); err != nil {
			log.Warn("failed to refresh remote etag", "error", err)
		}
		log.Debug("remote event patched", "remote_id", patched.ID)
		return
	}

	// Уведомление о новом событии может прийти раньше, чем сохранится ссылка;
	// входящая синхронизация ждет, пока ссылка не будет записана
	unlock := s.lockCalendar(userID, calendarID)
	defer unlock()

	created, err := remote.Insert(ctx, calendarID, body)
	if err != nil {
		log.Error("failed to insert remote event", "error", err)
		return
	}

	if err := s.linkInserted(ctx, userID, ev.ID, calendarID, created, log); err != nil {
		// Следующая входящая синхронизация создаст дубликат, если ссылку не сохранить
		log.Error("failed to store remote link", "remote_id", created.ID, "error", err)
		return
	}

	ev.GoogleCalendarID = &calendarID
	ev.GoogleEventID = &created.ID
	if created.ETag != "" {
		ev.ETag = &created.ETag
	}
	log.Debug("remote event inserted", "remote_id", created.ID)
}

// linkInserted связывает локальное событие с только что созданным в Google.
// Если входящая синхронизация уже завела под этот id свою строку, она удаляется:
// исходное локальное событие главнее.
func (s *Service) linkInserted(ctx context.Context, userID int, localID int64, calendarID string, created *RemoteEvent, log *slog.Logger) error {
	err := s.events.SetRemoteLink(ctx, userID, localID, calendarID, created.ID, created.ETag)
	if !errors.Is(err, event.ErrRemoteLinkExists) {
		return err
	}

	dup, err := s.events.FindByRemoteID(ctx, userID, calendarID, created.ID)
	if err != nil {
		return fmt.Errorf("find duplicate: %w", err)
	}
	if dup.ID != localID {
		if err := s.events.Delete(ctx, userID, dup.ID); err != nil && !errors.Is(err, event.ErrNotFound) {
			return fmt.Errorf("delete duplicate: %w", err)
		}
		log.Warn("removed duplicate created by inbound sync", "duplicate_id", dup.ID, "remote_id", created.ID)
	}

	return s.events.SetRemoteLink(ctx, userID, localID, calendarID, created.ID, created.ETag)
}

// PropagateDelete удаляет событие из Google. Уже удаленное событие считается успехом.
func (s *Service) PropagateDelete(ctx context.Context, userID int, ev *event.Event) {
	if !ev.Linked() {
		return
	}

	log := s.log.With(
		slog.Int("user_id", userID),
		slog.Int64("event_id", ev.ID),
		slog.String("remote_id", ev.RemoteID()),
	)

	cred, remote, err := s.remoteFor(ctx, userID)
	if err != nil {
		if !errors.Is(err, credential.ErrNotLinked) {
			log.Error("propagate delete skipped", "error", err)
		}
		return
	}

	calendarID := ev.RemoteCalendarID()
	if calendarID == "" {
		calendarID = calendarOrPrimary(cred.CalendarID)
	}

	if err := remote.Delete(ctx, calendarID, ev.RemoteID()); err != nil {
		if errors.Is(err, ErrRemoteNotFound) {
			log.Debug("remote event already gone")
			return
		}
		log.Error("failed to delete remote event", "error", err)
		return
	}
	log.Debug("remote event deleted")
}
