// internal/adapter/storage/connection_store.go

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"chanscope/internal/domain/channel"
)

// ConnectionStore implements storage for channel connections
type ConnectionStore struct {
	db *pgxpool.Pool
}

// NewConnectionStore creates a new connection store
func NewConnectionStore(db *pgxpool.Pool) *ConnectionStore {
	return &ConnectionStore{
		db: db,
	}
}

// SaveConnection saves a connection, updating strength and evidence on
// conflict so repeated analyses refresh the existing edge.
func (s *ConnectionStore) SaveConnection(ctx context.Context, c *channel.Connection) error {
	query := `
		INSERT INTO channel_connections (
			source_id, target_id, connection_type,
			strength, confidence, evidence,
			first_detected, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_id, target_id, connection_type) DO UPDATE
		SET
			strength = $4,
			confidence = $5,
			evidence = $6,
			last_updated = $8
		RETURNING id
	`

	if c.FirstDetected.IsZero() {
		c.FirstDetected = time.Now()
	}
	c.LastUpdated = time.Now()

	evidenceJSON, err := json.Marshal(c.Evidence)
	if err != nil {
		return fmt.Errorf("error marshaling evidence: %w", err)
	}

	err = s.db.QueryRow(
		ctx,
		query,
		c.SourceID,
		c.TargetID,
		c.ConnectionType,
		c.Strength,
		c.Confidence,
		evidenceJSON,
		c.FirstDetected,
		c.LastUpdated,
	).Scan(&c.ID)

	if err != nil {
		return fmt.Errorf("error saving connection: %w", err)
	}

	return nil
}

// GetConnectionsForChannel retrieves every connection touching the
// given channel, strongest first.
func (s *ConnectionStore) GetConnectionsForChannel(ctx context.Context, channelID int64) ([]channel.Connection, error) {
	query := `
		SELECT
			id, source_id, target_id, connection_type,
			strength, confidence, evidence,
			first_detected, last_updated
		FROM channel_connections
		WHERE source_id = $1 OR target_id = $1
		ORDER BY strength DESC
	`

	return s.queryConnections(ctx, query, channelID)
}

// ListConnections finds connections at or above the given strength.
func (s *ConnectionStore) ListConnections(ctx context.Context, minStrength float64, limit int) ([]channel.Connection, error) {
	if limit <= 0 || limit > 1000 {
		limit = 200
	}

	query := `
		SELECT
			id, source_id, target_id, connection_type,
			strength, confidence, evidence,
			first_detected, last_updated
		FROM channel_connections
		WHERE strength >= $1
		ORDER BY strength DESC
		LIMIT $2
	`

	return s.queryConnections(ctx, query, minStrength, limit)
}

func (s *ConnectionStore) queryConnections(ctx context.Context, query string, args ...interface{}) ([]channel.Connection, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var connections []channel.Connection
	for rows.Next() {
		var c channel.Connection
		var evidenceJSON []byte

		err := rows.Scan(
			&c.ID,
			&c.SourceID,
			&c.TargetID,
			&c.ConnectionType,
			&c.Strength,
			&c.Confidence,
			&evidenceJSON,
			&c.FirstDetected,
			&c.LastUpdated,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning connection: %w", err)
		}

		if len(evidenceJSON) > 0 {
			if err := json.Unmarshal(evidenceJSON, &c.Evidence); err != nil {
				return nil, fmt.Errorf("error unmarshaling evidence: %w", err)
			}
		}

		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

// CountConnections returns the total number of stored connections
func (s *ConnectionStore) CountConnections(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM channel_connections`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting connections: %w", err)
	}
	return count, nil
}

// ConnectionStats summarises the stored connection graph.
type ConnectionStats struct {
	TotalConnections  int            `json:"total_connections"`
	StrongConnections int            `json:"strong_connections"`
	ByType            map[string]int `json:"by_type"`
}

// GetConnectionStats aggregates connection counts by type and strength
func (s *ConnectionStore) GetConnectionStats(ctx context.Context) (*ConnectionStats, error) {
	stats := &ConnectionStats{ByType: make(map[string]int)}

	query := `
		SELECT connection_type, COUNT(*), COUNT(*) FILTER (WHERE strength > 0.7)
		FROM channel_connections
		GROUP BY connection_type
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var connectionType string
		var total, strong int
		if err := rows.Scan(&connectionType, &total, &strong); err != nil {
			return nil, fmt.Errorf("error scanning stats: %w", err)
		}
		stats.ByType[connectionType] = total
		stats.TotalConnections += total
		stats.StrongConnections += strong
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stats: %w", err)
	}

	return stats, nil
}
