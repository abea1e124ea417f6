// internal/adapter/storage/channel_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chanscope/internal/domain/channel"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ChannelStore implements storage for channels
type ChannelStore struct {
	db *pgxpool.Pool
}

// NewChannelStore creates a new channel store
func NewChannelStore(db *pgxpool.Pool) *ChannelStore {
	return &ChannelStore{
		db: db,
	}
}

// SaveChannel saves a channel to storage
func (s *ChannelStore) SaveChannel(ctx context.Context, c *channel.Channel) error {
	query := `
		INSERT INTO channels (
			external_id, username, name, description,
			subscribers_count, posts_count, theme, language, verified,
			daily_posts_avg, engagement_rate,
			created_at, last_post_date, last_updated
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11,
			$12, $13, $14
		)
		ON CONFLICT (username) DO UPDATE
		SET
			external_id = $1,
			name = $3,
			description = $4,
			subscribers_count = $5,
			posts_count = $6,
			theme = $7,
			language = $8,
			verified = $9,
			daily_posts_avg = $10,
			engagement_rate = $11,
			last_post_date = $13,
			last_updated = $14
		RETURNING id
	`

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.LastUpdated = time.Now()

	err := s.db.QueryRow(
		ctx,
		query,
		c.ExternalID,
		c.Username,
		c.Name,
		c.Description,
		c.SubscribersCount,
		c.PostsCount,
		c.Theme,
		c.Language,
		c.Verified,
		c.DailyPostsAvg,
		c.EngagementRate,
		c.CreatedAt,
		c.LastPostDate,
		c.LastUpdated,
	).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("error saving channel: %w", err)
	}

	return nil
}

const channelColumns = `
	id, external_id, username, name, description,
	subscribers_count, posts_count, theme, language, verified,
	daily_posts_avg, engagement_rate,
	created_at, last_post_date, last_updated
`

func scanChannel(row pgx.Row) (*channel.Channel, error) {
	var c channel.Channel
	err := row.Scan(
		&c.ID,
		&c.ExternalID,
		&c.Username,
		&c.Name,
		&c.Description,
		&c.SubscribersCount,
		&c.PostsCount,
		&c.Theme,
		&c.Language,
		&c.Verified,
		&c.DailyPostsAvg,
		&c.EngagementRate,
		&c.CreatedAt,
		&c.LastPostDate,
		&c.LastUpdated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error scanning channel: %w", err)
	}
	return &c, nil
}

// GetChannel retrieves a channel by ID
func (s *ChannelStore) GetChannel(ctx context.Context, id int64) (*channel.Channel, error) {
	query := `SELECT` + channelColumns + `FROM channels WHERE id = $1`
	return scanChannel(s.db.QueryRow(ctx, query, id))
}

// GetChannelByUsername retrieves a channel by its username
func (s *ChannelStore) GetChannelByUsername(ctx context.Context, username string) (*channel.Channel, error) {
	query := `SELECT` + channelColumns + `FROM channels WHERE username = $1`
	return scanChannel(s.db.QueryRow(ctx, query, username))
}

// ListChannels finds channels matching the filter
func (s *ChannelStore) ListChannels(ctx context.Context, filter channel.Filter) ([]channel.Channel, error) {
	query := `SELECT` + channelColumns + `FROM channels WHERE 1=1`

	var args []interface{}
	argIndex := 1

	if filter.Theme != "" {
		query += fmt.Sprintf(" AND theme = $%d", argIndex)
		args = append(args, filter.Theme)
		argIndex++
	}

	if filter.Verified != nil {
		query += fmt.Sprintf(" AND verified = $%d", argIndex)
		args = append(args, *filter.Verified)
		argIndex++
	}

	if filter.OnlyActive {
		query += " AND last_post_date > NOW() - INTERVAL '30 days'"
	}

	query += " ORDER BY subscribers_count DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += fmt.Sprintf(" LIMIT $%d", argIndex)
	args = append(args, limit)
	argIndex++

	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var channels []channel.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, *c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}

	return channels, nil
}

// CountChannels returns the total number of stored channels
func (s *ChannelStore) CountChannels(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM channels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting channels: %w", err)
	}
	return count, nil
}
