package event

import "errors"

var (
	ErrNotFound         = errors.New("event not found")
	ErrInvalidData      = errors.New("invalid event data")
	ErrRemoteLinkExists = errors.New("remote event already linked to another event")
)
