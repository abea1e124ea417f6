// internal/service/tasks/runner.go

package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"chanscope/internal/domain/analysis"
	"chanscope/internal/domain/channel"
)

// ChannelReader loads channels for analysis input.
type ChannelReader interface {
	GetChannel(ctx context.Context, id int64) (*channel.Channel, error)
}

// PostReader loads stored posts for analysis input.
type PostReader interface {
	GetPostsByChannel(ctx context.Context, channelID int64, limit int, since *time.Time) ([]channel.Post, error)
}

// ConnectionReader loads the stored connection graph around a channel.
type ConnectionReader interface {
	GetConnectionsForChannel(ctx context.Context, channelID int64) ([]channel.Connection, error)
}

// TaskStore persists the task lifecycle.
type TaskStore interface {
	CreateTask(ctx context.Context, t *analysis.Task) error
	MarkRunning(ctx context.Context, taskID string) error
	CompleteTask(ctx context.Context, taskID string, report *analysis.Report) error
	FailTask(ctx context.Context, taskID string, taskErr error) error
	GetTask(ctx context.Context, taskID string) (*analysis.Task, error)
}

// Config bounds the analysis input set.
type Config struct {
	PostsLimit  int
	PostsWindow time.Duration
	RunTimeout  time.Duration
	EventsTopic string
}

// Runner starts analysis tasks in the background and tracks their
// lifecycle in storage, publishing progress events on NATS.
type Runner struct {
	config      Config
	engine      analysis.Engine
	channels    ChannelReader
	posts       PostReader
	connections ConnectionReader
	store       TaskStore
	nats        *nats.Conn
	logger      *zap.Logger
}

// NewRunner creates a task runner.
func NewRunner(config Config, engine analysis.Engine, channels ChannelReader, posts PostReader, connections ConnectionReader, store TaskStore, natsConn *nats.Conn, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.PostsLimit <= 0 {
		config.PostsLimit = 200
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = 10 * time.Minute
	}
	return &Runner{
		config:      config,
		engine:      engine,
		channels:    channels,
		posts:       posts,
		connections: connections,
		store:       store,
		nats:        natsConn,
		logger:      logger,
	}
}

// Start persists a pending task and launches its analysis in the
// background. It returns immediately with the task ID.
func (r *Runner) Start(ctx context.Context, channelID int64) (*analysis.Task, error) {
	if _, err := r.channels.GetChannel(ctx, channelID); err != nil {
		return nil, fmt.Errorf("error loading channel %d: %w", channelID, err)
	}

	task := &analysis.Task{
		ID:        uuid.New().String(),
		ChannelID: channelID,
		Status:    analysis.TaskPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("error creating task: %w", err)
	}

	go r.run(task.ID, channelID)

	return task, nil
}

// GetTask returns a task with its report when completed.
func (r *Runner) GetTask(ctx context.Context, taskID string) (*analysis.Task, error) {
	return r.store.GetTask(ctx, taskID)
}

// run executes one analysis task end to end. It owns its own context;
// the HTTP request that started the task has long since returned.
func (r *Runner) run(taskID string, channelID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.RunTimeout)
	defer cancel()

	if err := r.store.MarkRunning(ctx, taskID); err != nil {
		r.logger.Error("error marking task running",
			zap.String("task_id", taskID), zap.Error(err))
	}
	r.publishEvent(taskID, "started", nil)

	report, err := r.analyze(ctx, channelID)
	if err != nil {
		r.logger.Error("analysis task failed",
			zap.String("task_id", taskID),
			zap.Int64("channel_id", channelID),
			zap.Error(err))
		if storeErr := r.store.FailTask(ctx, taskID, err); storeErr != nil {
			r.logger.Error("error recording task failure",
				zap.String("task_id", taskID), zap.Error(storeErr))
		}
		r.publishEvent(taskID, "failed", map[string]interface{}{"error": err.Error()})
		return
	}

	if err := r.store.CompleteTask(ctx, taskID, report); err != nil {
		r.logger.Error("error completing task",
			zap.String("task_id", taskID), zap.Error(err))
		return
	}
	r.publishEvent(taskID, "completed", map[string]interface{}{
		"channel_id": channelID,
		"confidence": report.Summary.ConfidenceScore,
	})
}

// analyze assembles the engine input from storage and runs it.
func (r *Runner) analyze(ctx context.Context, channelID int64) (*analysis.Report, error) {
	var since *time.Time
	if r.config.PostsWindow > 0 {
		cutoff := time.Now().Add(-r.config.PostsWindow)
		since = &cutoff
	}

	posts, err := r.posts.GetPostsByChannel(ctx, channelID, r.config.PostsLimit, since)
	if err != nil {
		return nil, fmt.Errorf("error loading posts: %w", err)
	}

	connections, err := r.connections.GetConnectionsForChannel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("error loading connections: %w", err)
	}

	related := make([]channel.Related, 0, len(connections))
	for i := range connections {
		conn := connections[i]
		otherID := conn.TargetID
		if otherID == channelID {
			otherID = conn.SourceID
		}

		other, err := r.channels.GetChannel(ctx, otherID)
		if err != nil {
			r.logger.Warn("skipping related channel",
				zap.Int64("channel_id", otherID), zap.Error(err))
			continue
		}

		otherPosts, err := r.posts.GetPostsByChannel(ctx, otherID, r.config.PostsLimit, since)
		if err != nil {
			r.logger.Warn("loading related posts failed",
				zap.Int64("channel_id", otherID), zap.Error(err))
			otherPosts = nil
		}

		related = append(related, channel.Related{
			Channel:    *other,
			Posts:      otherPosts,
			Connection: &conn,
		})
	}

	return r.engine.Analyze(ctx, channelID, related, posts)
}

// publishEvent emits a task lifecycle event; delivery failures are
// logged only.
func (r *Runner) publishEvent(taskID, event string, data map[string]interface{}) {
	if r.nats == nil {
		return
	}

	payload := map[string]interface{}{
		"type":    event,
		"task_id": taskID,
		"time":    time.Now().UTC(),
	}
	for k, v := range data {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		r.logger.Error("error marshaling task event", zap.Error(err))
		return
	}

	subject := fmt.Sprintf("%s.tasks.%s.%s", r.config.EventsTopic, taskID, event)
	if err := r.nats.Publish(subject, body); err != nil {
		r.logger.Error("error publishing task event",
			zap.String("subject", subject), zap.Error(err))
	}
}
