package event

import (
	"context"
	"errors"

	"planner/internal/app/server/api/http/middleware/auth"
	"planner/internal/domain/event"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

type Handler struct {
	service    event.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service event.Servicer, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.findOp(), h.find)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) list(ctx context.Context, _ *struct{}) (*listOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	events, err := h.service.List(ctx, userID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &listOutput{
		Body: events,
	}, nil
}

func (h *Handler) find(ctx context.Context, input *findInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	ev, err := h.service.Find(ctx, userID, input.ID)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &output{
		Body: response{
			ID:     ev.ID,
			Status: "Ok",
			Event:  ev,
		},
	}, nil
}

func (h *Handler) create(ctx context.Context, input *createInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	ev, err := h.service.Create(ctx, userID, input.Body)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &output{
		Body: response{
			ID:     ev.ID,
			Status: "Ok",
			Event:  ev,
		},
	}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	ev, err := h.service.Update(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, toHTTPError(err)
	}

	return &output{
		Body: response{
			ID:     ev.ID,
			Status: "Ok",
			Event:  ev,
		},
	}, nil
}

func (h *Handler) delete(ctx context.Context, input *findInput) (*output, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Delete(ctx, userID, input.ID); err != nil {
		return nil, toHTTPError(err)
	}

	return &output{
		Body: response{
			ID:     input.ID,
			Status: "Ok",
		},
	}, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, event.ErrNotFound):
		return huma.Error404NotFound("Event not found")
	case errors.Is(err, event.ErrInvalidData):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError("Internal server error")
	}
}
