// internal/service/monitor/monitor.go

package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"chanscope/internal/domain/channel"
)

const (
	alertHistoryKey = "chanscope:alerts:history"

	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Alert is a monitoring finding published on the event bus and kept in
// the Redis history list.
type Alert struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	ChannelID int64     `json:"channel_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelLister exposes the slice of storage the monitor checks.
type ChannelLister interface {
	ListChannels(ctx context.Context, filter channel.Filter) ([]channel.Channel, error)
}

// ReportSource returns the latest duplicate rate per channel.
type ReportSource interface {
	LatestDuplicateRate(ctx context.Context, channelID int64) (float64, bool, error)
}

// Config controls check cadence and alert thresholds.
type Config struct {
	CheckInterval      time.Duration
	HistorySize        int
	InactiveAfter      time.Duration
	DuplicateAlertRate float64
	EventsTopic        string
}

// Monitor runs periodic health checks over the stored channels and
// publishes alerts.
type Monitor struct {
	config   Config
	channels ChannelLister
	reports  ReportSource
	redis    *redis.Client
	nats     *nats.Conn
	logger   *zap.Logger
}

// New creates a monitor. The reports source may be nil, in which case
// the duplicate-rate check is skipped.
func New(config Config, channels ChannelLister, reports ReportSource, redisClient *redis.Client, natsConn *nats.Conn, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HistorySize <= 0 {
		config.HistorySize = 1000
	}
	return &Monitor{
		config:   config,
		channels: channels,
		reports:  reports,
		redis:    redisClient,
		nats:     natsConn,
		logger:   logger,
	}
}

// Start runs the check loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	m.logger.Info("monitor started",
		zap.Duration("check_interval", m.config.CheckInterval))

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return
		case <-ticker.C:
			if err := m.runChecks(ctx); err != nil {
				m.logger.Error("monitoring checks failed", zap.Error(err))
			}
		}
	}
}

// runChecks executes all checks concurrently; one failing check does
// not cancel the others' findings, each returns its own error.
func (m *Monitor) runChecks(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return m.checkInactiveChannels(ctx) })
	g.Go(func() error { return m.checkDuplicateRates(ctx) })
	g.Go(func() error { return m.checkRedis(ctx) })
	g.Go(func() error { return m.checkEventBus() })

	return g.Wait()
}

func (m *Monitor) checkInactiveChannels(ctx context.Context) error {
	channels, err := m.channels.ListChannels(ctx, channel.Filter{Limit: 500})
	if err != nil {
		return fmt.Errorf("error listing channels: %w", err)
	}

	cutoff := time.Now().Add(-m.config.InactiveAfter)
	for _, c := range channels {
		if c.LastPostDate.IsZero() || c.LastPostDate.After(cutoff) {
			continue
		}
		m.publishAlert(ctx, Alert{
			Type:      "channel_inactive",
			Severity:  SeverityInfo,
			Message:   fmt.Sprintf("channel %s has not posted since %s", c.Username, c.LastPostDate.Format(time.RFC3339)),
			ChannelID: c.ID,
		})
	}

	return nil
}

func (m *Monitor) checkDuplicateRates(ctx context.Context) error {
	if m.reports == nil {
		return nil
	}

	channels, err := m.channels.ListChannels(ctx, channel.Filter{OnlyActive: true, Limit: 500})
	if err != nil {
		return fmt.Errorf("error listing active channels: %w", err)
	}

	for _, c := range channels {
		rate, ok, err := m.reports.LatestDuplicateRate(ctx, c.ID)
		if err != nil {
			m.logger.Warn("duplicate rate check failed",
				zap.Int64("channel_id", c.ID), zap.Error(err))
			continue
		}
		if !ok || rate < m.config.DuplicateAlertRate {
			continue
		}
		m.publishAlert(ctx, Alert{
			Type:      "high_duplicate_rate",
			Severity:  SeverityWarning,
			Message:   fmt.Sprintf("channel %s duplicates %.0f%% of its content", c.Username, rate*100),
			ChannelID: c.ID,
		})
	}

	return nil
}

func (m *Monitor) checkRedis(ctx context.Context) error {
	if m.redis == nil {
		return nil
	}
	if err := m.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}
	return nil
}

func (m *Monitor) checkEventBus() error {
	if m.nats == nil {
		return nil
	}
	if !m.nats.IsConnected() {
		return fmt.Errorf("nats connection lost, status %s", m.nats.Status())
	}
	return nil
}

// publishAlert fans the alert out to NATS and appends it to the capped
// Redis history list. Delivery problems are logged, not returned; an
// alert must never fail the check that raised it.
func (m *Monitor) publishAlert(ctx context.Context, alert Alert) {
	alert.ID = uuid.New().String()
	alert.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(alert)
	if err != nil {
		m.logger.Error("error marshaling alert", zap.Error(err))
		return
	}

	if m.nats != nil {
		subject := fmt.Sprintf("%s.alerts.%s", m.config.EventsTopic, alert.Type)
		if err := m.nats.Publish(subject, payload); err != nil {
			m.logger.Error("error publishing alert", zap.String("subject", subject), zap.Error(err))
		}
	}

	if m.redis != nil {
		pipe := m.redis.Pipeline()
		pipe.LPush(ctx, alertHistoryKey, payload)
		pipe.LTrim(ctx, alertHistoryKey, 0, int64(m.config.HistorySize-1))
		if _, err := pipe.Exec(ctx); err != nil {
			m.logger.Error("error storing alert history", zap.Error(err))
		}
	}

	m.logger.Info("alert raised",
		zap.String("type", alert.Type),
		zap.String("severity", alert.Severity),
		zap.Int64("channel_id", alert.ChannelID))
}

// RecentAlerts returns up to limit alerts from the history, newest
// first.
func (m *Monitor) RecentAlerts(ctx context.Context, limit int) ([]Alert, error) {
	if m.redis == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}

	entries, err := m.redis.LRange(ctx, alertHistoryKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading alert history: %w", err)
	}

	alerts := make([]Alert, 0, len(entries))
	for _, entry := range entries {
		var alert Alert
		if err := json.Unmarshal([]byte(entry), &alert); err != nil {
			m.logger.Warn("skipping malformed alert entry", zap.Error(err))
			continue
		}
		alerts = append(alerts, alert)
	}

	return alerts, nil
}
