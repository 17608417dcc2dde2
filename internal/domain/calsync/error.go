package calsync

import "errors"

var (
	ErrNotConfigured       = errors.New("google calendar sync is not configured")
	ErrRemoteNotFound      = errors.New("remote event not found")
	ErrSyncTokenExpired    = errors.New("sync token is no longer valid")
	ErrMalformedEvent      = errors.New("remote event is missing required fields")
	ErrInvalidNotification = errors.New("invalid push notification")
)
