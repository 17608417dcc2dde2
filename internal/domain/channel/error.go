package channel

import "errors"

var (
	ErrNotFound       = errors.New("sync channel not found")
	ErrResourceExists = errors.New("sync channel for resource already exists")
)
