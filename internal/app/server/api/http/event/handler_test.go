package event

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"planner/internal/app/server/api/http/middleware/auth"
	"planner/internal/domain/event"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) List(ctx context.Context, userID int) (event.ListResponse, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(event.ListResponse), args.Error(1)
}

func (m *MockService) Find(ctx context.Context, userID int, id int64) (*event.Event, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockService) Create(ctx context.Context, userID int, req event.CreateRequest) (*event.Event, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockService) Update(ctx context.Context, userID int, id int64, req event.UpdateRequest) (*event.Event, error) {
	args := m.Called(ctx, userID, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockService) Delete(ctx context.Context, userID int, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var se huma.StatusError
	require.True(t, errors.As(err, &se), "expected huma status error, got %v", err)
	return se.GetStatus()
}

func TestHandler_Unauthorized(t *testing.T) {
	h := NewHandler(new(MockService), slog.Default(), nil)

	_, err := h.list(context.Background(), nil)
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))

	_, err = h.delete(context.Background(), &findInput{ID: 1})
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}

func TestHandler_Create(t *testing.T) {
	userID := 5
	ctx := auth.WithUserID(context.Background(), userID)

	req := event.CreateRequest{
		Title:     "Standup",
		StartTime: time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 6, 3, 9, 15, 0, 0, time.UTC),
	}

	t.Run("Success", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		svc.On("Create", mock.Anything, userID, req).
			Return(&event.Event{ID: 11, UserID: userID, Title: "Standup"}, nil)

		resp, err := h.create(ctx, &createInput{Body: req})

		require.NoError(t, err)
		assert.Equal(t, "Ok", resp.Body.Status)
		assert.Equal(t, int64(11), resp.Body.ID)
		assert.Equal(t, "Standup", resp.Body.Event.Title)
		svc.AssertExpectations(t)
	})

	t.Run("InvalidData", func(t *testing.T) {
		svc := new(MockService)
		h := NewHandler(svc, slog.Default(), nil)

		svc.On("Create", mock.Anything, userID, req).
			Return(nil, event.ErrInvalidData)

		resp, err := h.create(ctx, &createInput{Body: req})

		assert.Nil(t, resp)
		assert.Equal(t, http.StatusUnprocessableEntity, statusOf(t, err))
	})
}

func TestHandler_FindUpdateDelete(t *testing.T) {
	userID := 8
	ctx := auth.WithUserID(context.Background(), userID)

	tests := []struct {
		name       string
		setup      func(*MockService)
		call       func(*Handler) error
		wantStatus int
	}{
		{
			name: "find not found",
			setup: func(m *MockService) {
				m.On("Find", mock.Anything, userID, int64(3)).Return(nil, event.ErrNotFound)
			},
			call: func(h *Handler) error {
				_, err := h.find(ctx, &findInput{ID: 3})
				return err
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "update storage failure hides details",
			setup: func(m *MockService) {
				m.On("Update", mock.Anything, userID, int64(4), mock.Anything).
					Return(nil, errors.New("pq: connection reset"))
			},
			call: func(h *Handler) error {
				_, err := h.update(ctx, &updateInput{ID: 4})
				return err
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "delete ok",
			setup: func(m *MockService) {
				m.On("Delete", mock.Anything, userID, int64(9)).Return(nil)
			},
			call: func(h *Handler) error {
				_, err := h.delete(ctx, &findInput{ID: 9})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)
			h := NewHandler(svc, slog.Default(), nil)

			err := tt.call(h)

			if tt.wantStatus == 0 {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantStatus, statusOf(t, err))
				assert.NotContains(t, err.Error(), "pq:")
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestHandler_List(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), nil)
	ctx := auth.WithUserID(context.Background(), 2)

	svc.On("List", mock.Anything, 2).Return(event.ListResponse{
		Events: []event.Event{{ID: 1}, {ID: 2}},
		Total:  2,
	}, nil)

	resp, err := h.list(ctx, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Body.Total)
}
