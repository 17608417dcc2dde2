package event

import (
	"planner/internal/domain/event"
)

type listOutput struct {
	Body event.ListResponse
}

type createInput struct {
	Body event.CreateRequest
}

type findInput struct {
	ID int64 `path:"id" example:"1" doc:"ID события"`
}

type updateInput struct {
	ID   int64 `path:"id" example:"1" doc:"ID события"`
	Body event.UpdateRequest
}

type output struct {
	Body response
}

type response struct {
	ID     int64        `json:"id,omitempty"`
	Status string       `json:"status"`
	Event  *event.Event `json:"event,omitempty"`
	Error  string       `json:"error,omitempty"`
}
