package event

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/slog"
)

// Propagator выгружает локальные изменения во внешний календарь.
// Ошибки выгрузки не возвращаются: локальное хранилище главное.
type Propagator interface {
	PropagateUpsert(ctx context.Context, userID int, ev *Event)
	PropagateDelete(ctx context.Context, userID int, ev *Event)
}

type Servicer interface {
	List(ctx context.Context, userID int) (ListResponse, error)
	Find(ctx context.Context, userID int, id int64) (*Event, error)
	Create(ctx context.Context, userID int, req CreateRequest) (*Event, error)
	Update(ctx context.Context, userID int, id int64, req UpdateRequest) (*Event, error)
	Delete(ctx context.Context, userID int, id int64) error
}

// Service CRUD локальных событий с последующей выгрузкой в Google
type Service struct {
	repo       Repository
	propagator Propagator
	log        *slog.Logger
}

// NewService создает сервис событий; propagator может быть nil
func NewService(repo Repository, propagator Propagator, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		propagator: propagator,
		log:        log.With("component", "event_service"),
	}
}

// List возвращает события пользователя
func (s *Service) List(ctx context.Context, userID int) (ListResponse, error) {
	events, err := s.repo.List(ctx, userID)
	if err != nil {
		s.log.Error("failed to list events", "user_id", userID, "error", err)
		return ListResponse{}, fmt.Errorf("list events: %w", err)
	}

	return ListResponse{
		Events: events,
		Total:  len(events),
	}, nil
}

// Find возвращает событие пользователя по id
func (s *Service) Find(ctx context.Context, userID int, id int64) (*Event, error) {
	ev, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

// Create сохраняет событие и затем выгружает его во внешний календарь
func (s *Service) Create(ctx context.Context, userID int, req CreateRequest) (*Event, error) {
	ev := &Event{UserID: userID}
	if err := apply(ev, req); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, ev)
	if err != nil {
		s.log.Error("failed to create event", "user_id", userID, "error", err)
		return nil, fmt.Errorf("create event: %w", err)
	}
	ev.ID = id

	s.log.Info("event created", "event_id", id, "user_id", userID)

	if s.propagator != nil {
		s.propagator.PropagateUpsert(ctx, userID, ev)
	}

	return ev, nil
}

// Update обновляет событие и выгружает изменения
func (s *Service) Update(ctx context.Context, userID int, id int64, req UpdateRequest) (*Event, error) {
	ev, err := s.Find(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if err := apply(ev, req); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, ev); err != nil {
		s.log.Error("failed to update event", "event_id", id, "user_id", userID, "error", err)
		return nil, fmt.Errorf("update event: %w", err)
	}

	if s.propagator != nil {
		s.propagator.PropagateUpsert(ctx, userID, ev)
	}

	return ev, nil
}

// Delete удаляет событие локально, затем во внешнем календаре
func (s *Service) Delete(ctx context.Context, userID int, id int64) error {
	ev, err := s.Find(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		s.log.Error("failed to delete event", "event_id", id, "user_id", userID, "error", err)
		return fmt.Errorf("delete event: %w", err)
	}

	if s.propagator != nil {
		s.propagator.PropagateDelete(ctx, userID, ev)
	}

	return nil
}

func apply(ev *Event, req CreateRequest) error {
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidData)
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if req.AllDay {
		start, end = NormalizeDay(req.StartTime), NormalizeDay(req.EndTime)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: end is before start", ErrInvalidData)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = UntitledTitle
	}

	ev.Title = title
	ev.Description = req.Description
	ev.Location = req.Location
	ev.StartTime = start
	ev.EndTime = end
	ev.AllDay = req.AllDay
	ev.UpdatedAt = time.Now()

	return nil
}
