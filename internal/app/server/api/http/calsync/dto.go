package calsync

import (
	"planner/internal/domain/calsync"
)

// webhookInput заголовки push-уведомления Google, тело всегда пустое
type webhookInput struct {
	ChannelID     string `header:"X-Goog-Channel-ID"`
	ResourceID    string `header:"X-Goog-Resource-ID"`
	ResourceState string `header:"X-Goog-Resource-State"`
	MessageNumber string `header:"X-Goog-Message-Number"`
	ChannelToken  string `header:"X-Goog-Channel-Token"`
}

type webhookOutput struct {
	Body webhookResponse
}

type webhookResponse struct {
	Status string `json:"status" example:"Ok"`
}

type watchInput struct {
	Body struct {
		RemoteCalendarID string `json:"remote_calendar_id,omitempty" doc:"ID календаря Google, по умолчанию primary"`
	}
}

type connectInput struct {
	Body struct {
		Code string `json:"code" minLength:"1" doc:"Код авторизации OAuth"`
	}
}

type actionOutput struct {
	Status int
	Body   actionResponse
}

type actionResponse struct {
	Success bool                 `json:"success"`
	Message string               `json:"message"`
	Counts  *calsync.PullResult  `json:"counts,omitempty"`
	Watch   *calsync.WatchResult `json:"watch,omitempty"`
}

type authURLOutput struct {
	Body struct {
		URL   string `json:"url"`
		State string `json:"state"`
	}
}

type statusOutput struct {
	Body *calsync.StatusResult
}
