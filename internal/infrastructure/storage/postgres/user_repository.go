package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

func NewUserRepository(pool *pgxpool.Pool, log *slog.Logger) *UserRepository {
	return &UserRepository{
		pool: pool,
		log:  log.With("component", "user_repository"),
	}
}

// UserRepository минимальный реестр пользователей: аутентификация живет в основном приложении
type UserRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// Ensure возвращает id пользователя, создавая запись при первом обращении
func (r *UserRepository) Ensure(ctx context.Context, login string) (int, error) {
	var userID int
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (login) VALUES ($1)
         ON CONFLICT (login) DO UPDATE SET login = EXCLUDED.login
         RETURNING id`,
		login).Scan(&userID)
	if err != nil {
		r.log.Error("failed to ensure user", "login", login, "error", err)
		return 0, fmt.Errorf("ensure user: %w", err)
	}
	return userID, nil
}
