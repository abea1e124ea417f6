// internal/adapter/storage/post_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chanscope/internal/domain/channel"
)

// PostStore implements storage for channel posts
type PostStore struct {
	db *pgxpool.Pool
}

// NewPostStore creates a new post store
func NewPostStore(db *pgxpool.Pool) *PostStore {
	return &PostStore{
		db: db,
	}
}

// SavePosts inserts a batch of posts, skipping ones already stored
// for the same channel and external ID.
func (s *PostStore) SavePosts(ctx context.Context, posts []channel.Post) error {
	if len(posts) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO posts (
			channel_id, external_id, text, published_at,
			views, forwards, media_fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_id, external_id) DO NOTHING
	`

	for _, p := range posts {
		batch.Queue(
			query,
			p.ChannelID,
			p.ExternalID,
			p.Text,
			p.PublishedAt,
			p.Views,
			p.Forwards,
			p.MediaFingerprint,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for range posts {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error inserting post: %w", err)
		}
	}

	return nil
}

// GetPostsByChannel retrieves the newest posts of a channel, optionally
// bounded to posts published after since.
func (s *PostStore) GetPostsByChannel(ctx context.Context, channelID int64, limit int, since *time.Time) ([]channel.Post, error) {
	query := `
		SELECT
			id, channel_id, external_id, text, published_at,
			views, forwards, media_fingerprint
		FROM posts
		WHERE channel_id = $1
	`

	args := []interface{}{channelID}
	argIndex := 2

	if since != nil {
		query += fmt.Sprintf(" AND published_at >= $%d", argIndex)
		args = append(args, *since)
		argIndex++
	}

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY published_at DESC LIMIT $%d", argIndex)
	args = append(args, limit)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var posts []channel.Post
	for rows.Next() {
		var p channel.Post
		err := rows.Scan(
			&p.ID,
			&p.ChannelID,
			&p.ExternalID,
			&p.Text,
			&p.PublishedAt,
			&p.Views,
			&p.Forwards,
			&p.MediaFingerprint,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}

// CountPosts returns the total number of stored posts
func (s *PostStore) CountPosts(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM posts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting posts: %w", err)
	}
	return count, nil
}
