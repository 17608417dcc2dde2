package calsync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"planner/internal/domain/event"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"
)

type upsertOutcome int

const (
	outcomeCreated upsertOutcome = iota
	outcomeUpdated
	outcomeUnchanged
)

// Pull забирает изменения из Google и применяет их к локальным событиям.
// Инкрементально по курсору, либо за окно WindowDays дней назад от текущего момента.
func (s *Service) Pull(ctx context.Context, req PullRequest) (*PullResult, error) {
	req.CalendarID = calendarOrPrimary(req.CalendarID)

	unlock := s.lockCalendar(req.UserID, req.CalendarID)
	defer unlock()

	log := s.log.With(
		slog.Int("user_id", req.UserID),
		slog.String("calendar_id", req.CalendarID),
		slog.String("channel_id", req.ChannelID),
	)

	_, remote, err := s.remoteFor(ctx, req.UserID)
	if err != nil {
		log.Error("pull aborted", "error", err)
		return nil, err
	}

	// Пока ждали блокировку, параллельная синхронизация могла продвинуть курсор
	if req.ChannelID != "" && !req.ForceFull {
		if ch, err := s.channels.Get(ctx, req.ChannelID); err == nil && ch.Cursor() != "" {
			req.Cursor = ch.Cursor()
		}
	}

	result := &PullResult{}
	incremental := !req.ForceFull && req.Cursor != ""

	cursor, err := s.fetchAll(ctx, remote, req, incremental, result, log)
	if incremental && errors.Is(err, ErrSyncTokenExpired) {
		log.Warn("sync token expired, falling back to window sync")
		cursor, err = s.fetchAll(ctx, remote, req, false, result, log)
	}
	if err != nil {
		log.Error("pull failed", "error", err, "pages", result.Pages)
		return nil, err
	}

	result.NextCursor = cursor
	switch {
	case cursor == "":
		log.Warn("remote returned no sync token")
	case req.ChannelID == "":
		log.Warn("pull has no channel, sync token not persisted; next pull cannot resume incrementally")
	default:
		if err := s.channels.UpdateSyncToken(ctx, req.ChannelID, cursor); err != nil {
			log.Error("failed to persist sync token", "error", err)
			result.Errors = append(result.Errors, fmt.Sprintf("persist sync token: %v", err))
		} else {
			result.CursorSaved = true
			if result.Failed > 0 {
				// курсор ушел вперед, упавшие события вернет только полная синхронизация
				log.Warn("sync token saved past failed events, backfill required to recover them",
					"failed", result.Failed)
			}
		}
	}

	log.Info("pull finished",
		"incremental", incremental,
		"pages", result.Pages,
		"fetched", result.Fetched,
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
		"deleted", result.Deleted,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

	return result, nil
}

// fetchAll проходит все страницы выборки и возвращает курсор с последней страницы
func (s *Service) fetchAll(
	ctx context.Context,
	remote Remote,
	req PullRequest,
	incremental bool,
	result *PullResult,
	log *slog.Logger,
) (string, error) {
	query := ListQuery{ShowDeleted: true}
	if incremental {
		query.SyncToken = req.Cursor
	} else {
		window := req.WindowDays
		if window <= 0 {
			window = s.cfg.DefaultWindowDays
		}
		query.TimeMin = s.now().AddDate(0, 0, -window)
	}

	var cursor string
	for {
		page, err := remote.List(ctx, req.CalendarID, query)
		if err != nil {
			return "", fmt.Errorf("list remote events: %w", err)
		}

		result.Pages++
		result.Fetched += len(page.Items)
		s.applyPage(ctx, req, page.Items, result, log)

		if page.NextSyncToken != "" {
			cursor = page.NextSyncToken
		}
		if page.NextPageToken == "" {
			return cursor, nil
		}
		if page.NextPageToken == query.PageToken {
			return "", fmt.Errorf("remote repeated page token %q", page.NextPageToken)
		}
		query.PageToken = page.NextPageToken
	}
}

// applyPage удаляет отмененные события и параллельно, ограниченными пачками, сохраняет остальные
func (s *Service) applyPage(ctx context.Context, req PullRequest, items []RemoteEvent, result *PullResult, log *slog.Logger) {
	var cancelled []string
	active := make([]RemoteEvent, 0, len(items))

	for _, item := range items {
		if item.Cancelled() {
			if item.ID != "" {
				cancelled = append(cancelled, item.ID)
			}
			continue
		}
		if item.ID == "" || item.Start.IsZero() || item.End.IsZero() {
			log.Warn("skipping malformed remote event", "remote_id", item.ID)
			result.Skipped++
			continue
		}
		active = append(active, item)
	}

	if len(cancelled) > 0 {
		n, err := s.events.DeleteByRemoteIDs(ctx, req.UserID, req.CalendarID, cancelled)
		if err != nil {
			log.Error("failed to delete cancelled events", "count", len(cancelled), "error", err)
			result.Failed += len(cancelled)
			result.Errors = append(result.Errors, fmt.Sprintf("delete cancelled: %v", err))
		} else {
			result.Deleted += int(n)
		}
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(s.cfg.BatchSize)

	for _, item := range active {
		g.Go(func() error {
			outcome, err := s.upsert(ctx, req.UserID, req.CalendarID, item)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Is(err, ErrMalformedEvent) {
					log.Warn("skipping malformed remote event", "remote_id", item.ID, "error", err)
					result.Skipped++
					return nil
				}
				log.Error("failed to upsert remote event", "remote_id", item.ID, "error", err)
				result.Failed++
				result.Errors = append(result.Errors, fmt.Sprintf("event %s: %v", item.ID, err))
				return nil
			}

			switch outcome {
			case outcomeCreated:
				result.Created++
			case outcomeUpdated:
				result.Updated++
			case outcomeUnchanged:
				result.Unchanged++
			}
			return nil
		})
	}

	_ = g.Wait()
}

// upsert ищет локальное событие по (пользователь, календарь, id Google) и обновляет или создает его
func (s *Service) upsert(ctx context.Context, userID int, calendarID string, item RemoteEvent) (upsertOutcome, error) {
	incoming, err := localFromRemote(userID, calendarID, item)
	if err != nil {
		return 0, err
	}

	existing, err := s.events.FindByRemoteID(ctx, userID, calendarID, item.ID)
	if err == nil {
		return s.updateExisting(ctx, existing, incoming)
	}
	if !errors.Is(err, event.ErrNotFound) {
		return 0, fmt.Errorf("find local event: %w", err)
	}

	if _, err := s.events.Create(ctx, incoming); err != nil {
		if !errors.Is(err, event.ErrRemoteLinkExists) {
			return 0, fmt.Errorf("create local event: %w", err)
		}
		// Событие успела создать параллельная синхронизация
		existing, err := s.events.FindByRemoteID(ctx, userID, calendarID, item.ID)
		if err != nil {
			return 0, fmt.Errorf("find local event after conflict: %w", err)
		}
		return s.updateExisting(ctx, existing, incoming)
	}

	return outcomeCreated, nil
}

func (s *Service) updateExisting(ctx context.Context, existing, incoming *event.Event) (upsertOutcome, error) {
	if existing.SameContent(incoming) {
		return outcomeUnchanged, nil
	}

	existing.Title = incoming.Title
	existing.Description = incoming.Description
	existing.Location = incoming.Location
	existing.StartTime = incoming.StartTime
	existing.EndTime = incoming.EndTime
	existing.AllDay = incoming.AllDay
	existing.IsRecurring = incoming.IsRecurring
	existing.ETag = incoming.ETag

	if err := s.events.Update(ctx, existing); err != nil {
		return 0, fmt.Errorf("update local event: %w", err)
	}

	return outcomeUpdated, nil
}
