package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"planner/internal/domain/channel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/exp/slog"
)

const channelColumns = `id, resource_id, calendar_id, user_id, expiration, sync_token, created_at, updated_at`

type ChannelRepository struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewChannelRepository(pool *pgxpool.Pool, log *slog.Logger) *ChannelRepository {
	return &ChannelRepository{
		pool: pool,
		log:  log.With("component", "channel_repository"),
	}
}

func (r *ChannelRepository) Get(ctx context.Context, channelID string) (*channel.Channel, error) {
	query := `SELECT ` + channelColumns + ` FROM google_sync_channels WHERE id = $1`

	ch, err := scanChannel(r.pool.QueryRow(ctx, query, channelID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, channel.ErrNotFound
		}
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

// FindByCalendar возвращает самый свежий канал календаря пользователя
func (r *ChannelRepository) FindByCalendar(ctx context.Context, userID int, calendarID string) (*channel.Channel, error) {
	query := `SELECT ` + channelColumns + `
		FROM google_sync_channels
		WHERE user_id = $1 AND calendar_id = $2
		ORDER BY updated_at DESC
		LIMIT 1`

	ch, err := scanChannel(r.pool.QueryRow(ctx, query, userID, calendarID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, channel.ErrNotFound
		}
		return nil, fmt.Errorf("find channel: %w", err)
	}
	return ch, nil
}

func (r *ChannelRepository) ListByUser(ctx context.Context, userID int) ([]channel.Channel, error) {
	query := `SELECT ` + channelColumns + `
		FROM google_sync_channels
		WHERE user_id = $1
		ORDER BY created_at`

	return r.list(ctx, query, userID)
}

func (r *ChannelRepository) ListExpiring(ctx context.Context, before time.Time) ([]channel.Channel, error) {
	query := `SELECT ` + channelColumns + `
		FROM google_sync_channels
		WHERE expiration IS NOT NULL AND expiration < $1
		ORDER BY expiration`

	return r.list(ctx, query, before)
}

func (r *ChannelRepository) Create(ctx context.Context, ch *channel.Channel) error {
	const query = `
		INSERT INTO google_sync_channels (id, resource_id, calendar_id, user_id, expiration, sync_token)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		ch.ID, ch.ResourceID, ch.CalendarID, ch.UserID, nullTime(ch.Expiration), ch.SyncToken,
	).Scan(&ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "google_sync_channels_resource_id_key") {
			return channel.ErrResourceExists
		}
		r.log.Error("failed to create channel", "channel_id", ch.ID, "error", err)
		return fmt.Errorf("create channel: %w", err)
	}
	return nil
}

// UpdateByResourceID переносит новый id и срок действия на существующую строку ресурса.
// Курсор сохраняется, если новый не передан.
func (r *ChannelRepository) UpdateByResourceID(ctx context.Context, ch *channel.Channel) error {
	const query = `
		UPDATE google_sync_channels
		SET id = $1, calendar_id = $2, user_id = $3, expiration = $4,
		    sync_token = COALESCE($5, sync_token), updated_at = NOW()
		WHERE resource_id = $6
		RETURNING sync_token, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		ch.ID, ch.CalendarID, ch.UserID, nullTime(ch.Expiration), ch.SyncToken, ch.ResourceID,
	).Scan(&ch.SyncToken, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return channel.ErrNotFound
		}
		r.log.Error("failed to update channel", "resource_id", ch.ResourceID, "error", err)
		return fmt.Errorf("update channel by resource: %w", err)
	}
	return nil
}

func (r *ChannelRepository) UpdateSyncToken(ctx context.Context, channelID, syncToken string) error {
	const query = `UPDATE google_sync_channels SET sync_token = $1, updated_at = NOW() WHERE id = $2`

	result, err := r.pool.Exec(ctx, query, syncToken, channelID)
	if err != nil {
		return fmt.Errorf("update sync token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return channel.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) Delete(ctx context.Context, channelID string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM google_sync_channels WHERE id = $1`, channelID)
	if err != nil {
		return fmt.Errorf("delete channel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return channel.ErrNotFound
	}
	return nil
}

func (r *ChannelRepository) DeleteByUser(ctx context.Context, userID int) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM google_sync_channels WHERE user_id = $1`, userID)
	if err != nil {
		r.log.Error("failed to delete channels", "user_id", userID, "error", err)
		return 0, fmt.Errorf("delete channels: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *ChannelRepository) list(ctx context.Context, query string, args ...any) ([]channel.Channel, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	defer rows.Close()

	var channels []channel.Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func scanChannel(row pgx.Row) (*channel.Channel, error) {
	var (
		ch         channel.Channel
		expiration *time.Time
	)

	err := row.Scan(&ch.ID, &ch.ResourceID, &ch.CalendarID, &ch.UserID, &expiration, &ch.SyncToken, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if expiration != nil {
		ch.Expiration = *expiration
	}
	return &ch, nil
}
