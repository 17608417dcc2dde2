package google

import (
	"errors"
	"fmt"
	"net/http"

	"planner/internal/domain/calsync"

	"google.golang.org/api/googleapi"
)

func apiStatus(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// listError 410 на выборке означает, что sync token больше не принимается
func listError(err error) error {
	if apiStatus(err) == http.StatusGone {
		return fmt.Errorf("%w: %v", calsync.ErrSyncTokenExpired, err)
	}
	return err
}

// deleteError событие, которого уже нет, считается удаленным
func deleteError(err error) error {
	switch apiStatus(err) {
	case http.StatusNotFound, http.StatusGone:
		return fmt.Errorf("%w: %v", calsync.ErrRemoteNotFound, err)
	}
	return err
}
