package calsync

import (
	"context"
	"errors"
	"net/http"

	"planner/internal/app/server/api/http/middleware/auth"
	"planner/internal/domain/calsync"
	"planner/internal/domain/credential"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// Dispatcher передает уведомление в фоновую обработку
type Dispatcher interface {
	Dispatch(n calsync.Notification)
}

type Handler struct {
	service    calsync.Servicer
	dispatcher Dispatcher
	log        *slog.Logger
	middleware huma.Middlewares
	public     huma.Middlewares
}

// NewHandler создает хендлер; mws защищают пользовательские ручки, public навешивается на вебхук
func NewHandler(service calsync.Servicer, dispatcher Dispatcher, log *slog.Logger, mws, public huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		dispatcher: dispatcher,
		log:        log.With("component", "calsync_handler"),
		middleware: mws,
		public:     public,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.webhookOp(), h.webhook)

	huma.Register(api, h.syncNowOp(), h.syncNow)
	huma.Register(api, h.backfillOp(), h.backfill)
	huma.Register(api, h.watchOp(), h.watch)
	huma.Register(api, h.disconnectOp(), h.disconnect)

	huma.Register(api, h.authURLOp(), h.authURL)
	huma.Register(api, h.connectOp(), h.connect)
	huma.Register(api, h.statusOp(), h.status)
}

func (h *Handler) webhook(_ context.Context, input *webhookInput) (*webhookOutput, error) {
	out := &webhookOutput{Body: webhookResponse{Status: "Ok"}}

	if input.ChannelID == "" || input.ResourceID == "" {
		h.log.Warn("webhook without channel headers ignored",
			"channel_id", input.ChannelID, "resource_id", input.ResourceID)
		return out, nil
	}

	h.log.Debug("webhook received",
		"channel_id", input.ChannelID,
		"state", input.ResourceState,
		"message_number", input.MessageNumber,
	)

	h.dispatcher.Dispatch(calsync.Notification{
		ChannelID:     input.ChannelID,
		ResourceID:    input.ResourceID,
		ResourceState: input.ResourceState,
		MessageNumber: input.MessageNumber,
		Token:         input.ChannelToken,
	})

	return out, nil
}

func (h *Handler) syncNow(ctx context.Context, _ *struct{}) (*actionOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.SyncNow(ctx, userID)
	if err != nil {
		return h.failure("sync now", userID, err, "Sync failed"), nil
	}

	return &actionOutput{
		Status: http.StatusOK,
		Body:   actionResponse{Success: true, Message: "Sync completed", Counts: res},
	}, nil
}

func (h *Handler) backfill(ctx context.Context, _ *struct{}) (*actionOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.Backfill(ctx, userID)
	if err != nil {
		return h.failure("backfill", userID, err, "Backfill failed"), nil
	}

	return &actionOutput{
		Status: http.StatusOK,
		Body:   actionResponse{Success: true, Message: "Backfill completed", Counts: res},
	}, nil
}

func (h *Handler) watch(ctx context.Context, input *watchInput) (*actionOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.EnsureWatch(ctx, userID, input.Body.RemoteCalendarID)
	if err != nil {
		return h.failure("watch", userID, err, "Failed to subscribe to calendar changes"), nil
	}

	return &actionOutput{
		Status: http.StatusOK,
		Body:   actionResponse{Success: true, Message: "Watch channel registered", Watch: res},
	}, nil
}

func (h *Handler) disconnect(ctx context.Context, _ *struct{}) (*actionOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Disconnect(ctx, userID); err != nil {
		return h.failure("disconnect", userID, err, "Failed to disconnect Google Calendar"), nil
	}

	return &actionOutput{
		Status: http.StatusOK,
		Body:   actionResponse{Success: true, Message: "Google Calendar disconnected"},
	}, nil
}

func (h *Handler) authURL(ctx context.Context, _ *struct{}) (*authURLOutput, error) {
	if _, ok := auth.GetUserID(ctx); !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	state := uuid.NewString()
	url, err := h.service.AuthURL(state)
	if err != nil {
		if errors.Is(err, calsync.ErrNotConfigured) {
			return nil, huma.Error503ServiceUnavailable("Google integration is not configured")
		}
		return nil, huma.Error500InternalServerError("Internal server error")
	}

	out := &authURLOutput{}
	out.Body.URL = url
	out.Body.State = state
	return out, nil
}

func (h *Handler) connect(ctx context.Context, input *connectInput) (*actionOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Connect(ctx, userID, input.Body.Code); err != nil {
		return h.failure("connect", userID, err, "Failed to connect Google Calendar"), nil
	}

	return &actionOutput{
		Status: http.StatusOK,
		Body:   actionResponse{Success: true, Message: "Google Calendar connected"},
	}, nil
}

func (h *Handler) status(ctx context.Context, _ *struct{}) (*statusOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	res, err := h.service.Status(ctx, userID)
	if err != nil {
		h.log.Error("status failed", "user_id", userID, "error", err)
		return nil, huma.Error500InternalServerError("Internal server error")
	}

	return &statusOutput{Body: res}, nil
}

// failure логирует причину и отдает клиенту только общее сообщение
func (h *Handler) failure(op string, userID int, err error, message string) *actionOutput {
	status := http.StatusBadGateway
	switch {
	case errors.Is(err, credential.ErrNotLinked):
		status = http.StatusBadRequest
		message = "Google Calendar is not connected"
	case errors.Is(err, calsync.ErrNotConfigured):
		status = http.StatusServiceUnavailable
		message = "Google integration is not configured"
	}

	h.log.Error(op+" failed", "user_id", userID, "error", err)

	return &actionOutput{
		Status: status,
		Body:   actionResponse{Success: false, Message: message},
	}
}
