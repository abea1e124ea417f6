// internal/service/monitor/metrics.go

package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	overviewKey      = "chanscope:metrics:overview"
	metricsSeriesKey = "chanscope:metrics:series"
)

// StatsSource provides the storage counters behind the system overview.
type StatsSource interface {
	CountChannels(ctx context.Context) (int, error)
	CountPosts(ctx context.Context) (int, error)
	CountConnections(ctx context.Context) (int, error)
}

// Overview is the system-wide metrics snapshot.
type Overview struct {
	TotalChannels    int       `json:"total_channels"`
	TotalPosts       int       `json:"total_posts"`
	TotalConnections int       `json:"total_connections"`
	CollectedAt      time.Time `json:"collected_at"`
}

// MetricsCollector periodically snapshots storage counters into Redis.
type MetricsCollector struct {
	stats      StatsSource
	redis      *redis.Client
	interval   time.Duration
	seriesSize int
	ttl        time.Duration
	logger     *zap.Logger
}

// NewMetricsCollector creates a metrics collector.
func NewMetricsCollector(stats StatsSource, redisClient *redis.Client, interval time.Duration, seriesSize int, ttl time.Duration, logger *zap.Logger) *MetricsCollector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if seriesSize <= 0 {
		seriesSize = 1440
	}
	return &MetricsCollector{
		stats:      stats,
		redis:      redisClient,
		interval:   interval,
		seriesSize: seriesSize,
		ttl:        ttl,
		logger:     logger,
	}
}

// Start runs the collection loop until ctx is cancelled.
func (mc *MetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(mc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := mc.collect(ctx); err != nil {
				mc.logger.Error("metrics collection failed", zap.Error(err))
			}
		}
	}
}

func (mc *MetricsCollector) collect(ctx context.Context) error {
	overview, err := mc.snapshot(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(overview)
	if err != nil {
		return fmt.Errorf("error marshaling overview: %w", err)
	}

	pipe := mc.redis.Pipeline()
	pipe.Set(ctx, overviewKey, payload, mc.ttl)
	pipe.LPush(ctx, metricsSeriesKey, payload)
	pipe.LTrim(ctx, metricsSeriesKey, 0, int64(mc.seriesSize-1))
	pipe.Expire(ctx, metricsSeriesKey, mc.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error storing metrics: %w", err)
	}

	return nil
}

func (mc *MetricsCollector) snapshot(ctx context.Context) (*Overview, error) {
	channels, err := mc.stats.CountChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting channels: %w", err)
	}
	posts, err := mc.stats.CountPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting posts: %w", err)
	}
	connections, err := mc.stats.CountConnections(ctx)
	if err != nil {
		return nil, fmt.Errorf("error counting connections: %w", err)
	}

	return &Overview{
		TotalChannels:    channels,
		TotalPosts:       posts,
		TotalConnections: connections,
		CollectedAt:      time.Now().UTC(),
	}, nil
}

// LatestOverview reads the most recent snapshot, falling back to a
// fresh one when the cache is cold.
func (mc *MetricsCollector) LatestOverview(ctx context.Context) (*Overview, error) {
	payload, err := mc.redis.Get(ctx, overviewKey).Bytes()
	if err == nil {
		var overview Overview
		if err := json.Unmarshal(payload, &overview); err == nil {
			return &overview, nil
		}
	} else if err != redis.Nil {
		mc.logger.Warn("metrics cache read failed", zap.Error(err))
	}

	return mc.snapshot(ctx)
}
