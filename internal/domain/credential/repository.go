package credential

import (
	"context"
	"time"
)

type Repository interface {
	Get(ctx context.Context, userID int) (*Credential, error)
	Save(ctx context.Context, cred *Credential) error
	UpdateToken(ctx context.Context, userID int, accessToken, refreshToken string, expiry time.Time) error
	SetCalendar(ctx context.Context, userID int, calendarID string) error
	Delete(ctx context.Context, userID int) error
}
