package session

import (
	"context"
	"time"
)

// Repository хранит хеши токенов, сами токены не сохраняются
type Repository interface {
	Create(ctx context.Context, userID int, tokenHash string, expiresAt time.Time) error
	// Validate возвращает ErrInvalid для неизвестного или просроченного токена
	Validate(ctx context.Context, tokenHash string) (int, error)
}
