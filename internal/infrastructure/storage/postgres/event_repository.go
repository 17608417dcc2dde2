package postgres

import (
	"context"
	"errors"
	"fmt"

	"planner/internal/domain/event"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

const eventRemoteLinkIndex = "events_remote_link_uidx"

const eventColumns = `id, user_id, title, description, location, start_time, end_time,
		       all_day, is_recurring, google_event_id, google_calendar_id, etag,
		       created_at, updated_at`

type EventRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewEventRepository(pool *pgxpool.Pool, log *slog.Logger) *EventRepository {
	return &EventRepository{
		pool: pool,
		log:  log.With("component", "event_repository"),
	}
}

func (r *EventRepository) List(ctx context.Context, userID int) ([]event.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1
		ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("failed to list events", "user_id", userID, "error", err)
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventRepository) Get(ctx context.Context, userID int, id int64) (*event.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND user_id = $2`

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrNotFound
		}
		r.log.Error("failed to get event", "event_id", id, "user_id", userID, "error", err)
		return nil, fmt.Errorf("get event: %w", err)
	}

	return ev, nil
}

func (r *EventRepository) Create(ctx context.Context, ev *event.Event) (int64, error) {
	const query = `
		INSERT INTO events (user_id, title, description, location, start_time, end_time,
		                    all_day, is_recurring, google_event_id, google_calendar_id, etag)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		ev.UserID, ev.Title, ev.Description, ev.Location, ev.StartTime, ev.EndTime,
		ev.AllDay, ev.IsRecurring, ev.GoogleEventID, ev.GoogleCalendarID, ev.ETag,
	).Scan(&ev.ID, &ev.CreatedAt, &ev.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, eventRemoteLinkIndex) {
			return 0, event.ErrRemoteLinkExists
		}
		r.log.Error("failed to create event", "user_id", ev.UserID, "error", err)
		return 0, fmt.Errorf("create event: %w", err)
	}

	return ev.ID, nil
}

func (r *EventRepository) Update(ctx context.Context, ev *event.Event) error {
	const query = `
		UPDATE events
		SET title = $1, description = $2, location = $3, start_time = $4, end_time = $5,
		    all_day = $6, is_recurring = $7, google_event_id = $8, google_calendar_id = $9,
		    etag = $10, updated_at = NOW()
		WHERE id = $11 AND user_id = $12
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		ev.Title, ev.Description, ev.Location, ev.StartTime, ev.EndTime,
		ev.AllDay, ev.IsRecurring, ev.GoogleEventID, ev.GoogleCalendarID, ev.ETag,
		ev.ID, ev.UserID,
	).Scan(&ev.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.ErrNotFound
		}
		if isUniqueViolation(err, eventRemoteLinkIndex) {
			return event.ErrRemoteLinkExists
		}
		r.log.Error("failed to update event", "event_id", ev.ID, "user_id", ev.UserID, "error", err)
		return fmt.Errorf("update event: %w", err)
	}

	return nil
}

func (r *EventRepository) Delete(ctx context.Context, userID int, id int64) error {
	const query = `DELETE FROM events WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		r.log.Error("failed to delete event", "event_id", id, "user_id", userID, "error", err)
		return fmt.Errorf("delete event: %w", err)
	}

	if result.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (r *EventRepository) FindByRemoteID(ctx context.Context, userID int, calendarID, remoteID string) (*event.Event, error) {
	query := `SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1 AND google_calendar_id = $2 AND google_event_id = $3`

	ev, err := scanEvent(r.pool.QueryRow(ctx, query, userID, calendarID, remoteID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, event.ErrNotFound
		}
		return nil, fmt.Errorf("find event by remote id: %w", err)
	}

	return ev, nil
}

// DeleteByRemoteIDs удаляет события пачкой; отсутствующие id не ошибка
func (r *EventRepository) DeleteByRemoteIDs(ctx context.Context, userID int, calendarID string, remoteIDs []string) (int64, error) {
	if len(remoteIDs) == 0 {
		return 0, nil
	}

	const query = `
		DELETE FROM events
		WHERE user_id = $1 AND google_calendar_id = $2 AND google_event_id = ANY($3)`

	result, err := r.pool.Exec(ctx, query, userID, calendarID, remoteIDs)
	if err != nil {
		r.log.Error("failed to delete events by remote ids",
			"user_id", userID, "calendar_id", calendarID, "count", len(remoteIDs), "error", err)
		return 0, fmt.Errorf("delete events by remote ids: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *EventRepository) SetRemoteLink(ctx context.Context, userID int, id int64, calendarID, remoteID, etag string) error {
	const query = `
		UPDATE events
		SET google_calendar_id = $1, google_event_id = $2, etag = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $4 AND user_id = $5`

	result, err := r.pool.Exec(ctx, query, calendarID, remoteID, etag, id, userID)
	if err != nil {
		if isUniqueViolation(err, eventRemoteLinkIndex) {
			return event.ErrRemoteLinkExists
		}
		return fmt.Errorf("set remote link: %w", err)
	}

	if result.RowsAffected() == 0 {
		return event.ErrNotFound
	}

	return nil
}

func scanEvents(rows pgx.Rows) ([]event.Event, error) {
	var events []event.Event

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}

	return events, rows.Err()
}

func scanEvent(row pgx.Row) (*event.Event, error) {
	var ev event.Event

	err := row.Scan(
		&ev.ID, &ev.UserID, &ev.Title, &ev.Description, &ev.Location,
		&ev.StartTime, &ev.EndTime, &ev.AllDay, &ev.IsRecurring,
		&ev.GoogleEventID, &ev.GoogleCalendarID, &ev.ETag,
		&ev.CreatedAt, &ev.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ev.StartTime = ev.StartTime.UTC()
	ev.EndTime = ev.EndTime.UTC()

	return &ev, nil
}
