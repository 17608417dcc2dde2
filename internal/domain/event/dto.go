package event

import "time"

type CreateRequest struct {
	Title       string    `json:"title" maxLength:"500"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	StartTime   time.Time `json:"start_time" format:"date-time"`
	EndTime     time.Time `json:"end_time" format:"date-time"`
	AllDay      bool      `json:"all_day,omitempty"`
}

type UpdateRequest = CreateRequest

type ListResponse struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}
