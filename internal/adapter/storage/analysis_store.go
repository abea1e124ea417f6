// internal/adapter/storage/analysis_store.go

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chanscope/internal/domain/analysis"
)

// AnalysisStore implements storage for analysis tasks and reports
type AnalysisStore struct {
	db *pgxpool.Pool
}

// NewAnalysisStore creates a new analysis store
func NewAnalysisStore(db *pgxpool.Pool) *AnalysisStore {
	return &AnalysisStore{
		db: db,
	}
}

// CreateTask records a new pending analysis task
func (s *AnalysisStore) CreateTask(ctx context.Context, t *analysis.Task) error {
	query := `
		INSERT INTO analysis_tasks (id, channel_id, status, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.Status == "" {
		t.Status = analysis.TaskPending
	}

	_, err := s.db.Exec(ctx, query, t.ID, t.ChannelID, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating task: %w", err)
	}

	return nil
}

// MarkRunning transitions a task to the running state
func (s *AnalysisStore) MarkRunning(ctx context.Context, taskID string) error {
	query := `
		UPDATE analysis_tasks
		SET status = $2, started_at = $3
		WHERE id = $1
	`

	_, err := s.db.Exec(ctx, query, taskID, analysis.TaskRunning, time.Now())
	if err != nil {
		return fmt.Errorf("error marking task running: %w", err)
	}

	return nil
}

// CompleteTask stores the finished report against its task
func (s *AnalysisStore) CompleteTask(ctx context.Context, taskID string, report *analysis.Report) error {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("error marshaling report: %w", err)
	}

	query := `
		UPDATE analysis_tasks
		SET status = $2, report = $3, completed_at = $4
		WHERE id = $1
	`

	_, err = s.db.Exec(ctx, query, taskID, analysis.TaskCompleted, reportJSON, time.Now())
	if err != nil {
		return fmt.Errorf("error completing task: %w", err)
	}

	return nil
}

// FailTask records a task failure with its error message
func (s *AnalysisStore) FailTask(ctx context.Context, taskID string, taskErr error) error {
	query := `
		UPDATE analysis_tasks
		SET status = $2, error = $3, completed_at = $4
		WHERE id = $1
	`

	message := ""
	if taskErr != nil {
		message = taskErr.Error()
	}

	_, err := s.db.Exec(ctx, query, taskID, analysis.TaskFailed, message, time.Now())
	if err != nil {
		return fmt.Errorf("error failing task: %w", err)
	}

	return nil
}

// GetTask retrieves a task with its report, if any
func (s *AnalysisStore) GetTask(ctx context.Context, taskID string) (*analysis.Task, error) {
	query := `
		SELECT id, channel_id, status, report, error,
			created_at, started_at, completed_at
		FROM analysis_tasks
		WHERE id = $1
	`

	var t analysis.Task
	var reportJSON []byte
	var errMsg *string
	var startedAt, completedAt *time.Time

	err := s.db.QueryRow(ctx, query, taskID).Scan(
		&t.ID,
		&t.ChannelID,
		&t.Status,
		&reportJSON,
		&errMsg,
		&t.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying task: %w", err)
	}

	if errMsg != nil {
		t.Error = *errMsg
	}
	if startedAt != nil {
		t.StartedAt = *startedAt
	}
	if completedAt != nil {
		t.CompletedAt = *completedAt
	}
	if len(reportJSON) > 0 {
		var report analysis.Report
		if err := json.Unmarshal(reportJSON, &report); err != nil {
			return nil, fmt.Errorf("error unmarshaling report: %w", err)
		}
		t.Report = &report
	}

	return &t, nil
}

// LatestDuplicateRate extracts the duplicate rate from a channel's most
// recent report; the second return is false when no report exists yet.
func (s *AnalysisStore) LatestDuplicateRate(ctx context.Context, channelID int64) (float64, bool, error) {
	report, err := s.GetLatestReport(ctx, channelID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return report.Content.DuplicateAnalysis.DuplicateRate, true, nil
}

// GetLatestReport retrieves the most recent completed report for a channel
func (s *AnalysisStore) GetLatestReport(ctx context.Context, channelID int64) (*analysis.Report, error) {
	query := `
		SELECT report
		FROM analysis_tasks
		WHERE channel_id = $1 AND status = $2 AND report IS NOT NULL
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var reportJSON []byte
	err := s.db.QueryRow(ctx, query, channelID, analysis.TaskCompleted).Scan(&reportJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error querying report: %w", err)
	}

	var report analysis.Report
	if err := json.Unmarshal(reportJSON, &report); err != nil {
		return nil, fmt.Errorf("error unmarshaling report: %w", err)
	}

	return &report, nil
}
