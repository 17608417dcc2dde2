package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/internal/domain/credential"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

var errNoCipher = errors.New("token encryption key is not configured")

// TokenSealer шифрует токены перед записью
type TokenSealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

type CredentialRepository struct {
	pool   *pgxpool.Pool
	cipher TokenSealer
	log    *slog.Logger
}

// NewCredentialRepository cipher может быть nil, тогда чтение и запись токенов недоступны
func NewCredentialRepository(pool *pgxpool.Pool, cipher TokenSealer, log *slog.Logger) *CredentialRepository {
	return &CredentialRepository{
		pool:   pool,
		cipher: cipher,
		log:    log.With("component", "credential_repository"),
	}
}

func (r *CredentialRepository) Get(ctx context.Context, userID int) (*credential.Credential, error) {
	const query = `
		SELECT user_id, access_token, refresh_token, token_expiry, calendar_id, created_at, updated_at
		FROM google_credentials
		WHERE user_id = $1`

	var (
		cred            credential.Credential
		access, refresh string
		expiry          *time.Time
	)

	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&cred.UserID, &access, &refresh, &expiry, &cred.CalendarID, &cred.CreatedAt, &cred.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, credential.ErrNotLinked
		}
		r.log.Error("failed to get credential", "user_id", userID, "error", err)
		return nil, fmt.Errorf("get credential: %w", err)
	}

	if r.cipher == nil {
		return nil, errNoCipher
	}
	if cred.AccessToken, err = r.cipher.Decrypt(access); err != nil {
		return nil, fmt.Errorf("decrypt access token: %w", err)
	}
	if cred.RefreshToken, err = r.cipher.Decrypt(refresh); err != nil {
		return nil, fmt.Errorf("decrypt refresh token: %w", err)
	}
	if expiry != nil {
		cred.TokenExpiry = *expiry
	}

	return &cred, nil
}

// Save создает или полностью перезаписывает запись пользователя
func (r *CredentialRepository) Save(ctx context.Context, cred *credential.Credential) error {
	access, refresh, err := r.seal(cred.AccessToken, cred.RefreshToken)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO google_credentials (user_id, access_token, refresh_token, token_expiry, calendar_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    token_expiry = EXCLUDED.token_expiry,
		    calendar_id = EXCLUDED.calendar_id,
		    updated_at = NOW()`

	_, err = r.pool.Exec(ctx, query, cred.UserID, access, refresh, nullTime(cred.TokenExpiry), cred.CalendarID)
	if err != nil {
		r.log.Error("failed to save credential", "user_id", cred.UserID, "error", err)
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

// UpdateToken сохраняет обновленный access token; пустой refresh token не затирает прежний
func (r *CredentialRepository) UpdateToken(ctx context.Context, userID int, accessToken, refreshToken string, expiry time.Time) error {
	access, refresh, err := r.seal(accessToken, refreshToken)
	if err != nil {
		return err
	}

	const query = `
		UPDATE google_credentials
		SET access_token = $1,
		    refresh_token = COALESCE(NULLIF($2, ''), refresh_token),
		    token_expiry = $3,
		    updated_at = NOW()
		WHERE user_id = $4`

	result, err := r.pool.Exec(ctx, query, access, refresh, nullTime(expiry), userID)
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return credential.ErrNotLinked
	}
	return nil
}

func (r *CredentialRepository) SetCalendar(ctx context.Context, userID int, calendarID string) error {
	const query = `UPDATE google_credentials SET calendar_id = $1, updated_at = NOW() WHERE user_id = $2`

	result, err := r.pool.Exec(ctx, query, calendarID, userID)
	if err != nil {
		return fmt.Errorf("set calendar: %w", err)
	}
	if result.RowsAffected() == 0 {
		return credential.ErrNotLinked
	}
	return nil
}

func (r *CredentialRepository) Delete(ctx context.Context, userID int) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM google_credentials WHERE user_id = $1`, userID)
	if err != nil {
		r.log.Error("failed to delete credential", "user_id", userID, "error", err)
		return fmt.Errorf("delete credential: %w", err)
	}
	if result.RowsAffected() == 0 {
		return credential.ErrNotLinked
	}
	return nil
}

func (r *CredentialRepository) seal(access, refresh string) (string, string, error) {
	if r.cipher == nil {
		return "", "", errNoCipher
	}
	a, err := r.cipher.Encrypt(access)
	if err != nil {
		return "", "", fmt.Errorf("encrypt access token: %w", err)
	}
	rf, err := r.cipher.Encrypt(refresh)
	if err != nil {
		return "", "", fmt.Errorf("encrypt refresh token: %w", err)
	}
	return a, rf, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
