package dailylog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaprogress/peta-progress/internal/realtime"
	"github.com/petaprogress/peta-progress/internal/task"
)

// Repository defines the data access methods for daily logs.
type Repository interface {
	Create(ctx context.Context, dl *DailyLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]*DailyLog, error)
	ListByTask(ctx context.Context, taskID string, limit int) ([]*DailyLog, error)
	MonthlyAllotmentHours(ctx context.Context, orgID string, monthStart, monthEnd time.Time) ([]AllotmentHours, error)
}

// TaskReader is the slice of the task service used to verify ownership.
type TaskReader interface {
	GetByID(ctx context.Context, userID, taskID string) (*task.Task, error)
}

type Service struct {
	repo   Repository
	tasks  TaskReader
	events realtime.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, tasks TaskReader, events realtime.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		tasks:  tasks,
		events: events,
		logger: logger,
	}
}

// Append records hours against a task. Entries are append-only; bad
// hours are rejected before any write.
func (s *Service) Append(ctx context.Context, userID string, dto CreateLogDTO) (*DailyLog, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.tasks.GetByID(ctx, userID, dto.TaskID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID {
		return nil, ErrNotYourTask
	}

	dl := &DailyLog{
		ID:             uuid.NewString(),
		TaskID:         t.ID,
		UserID:         userID,
		OrganizationID: t.OrganizationID,
		LogDate:        dto.LogDate,
		HoursSpent:     dto.HoursSpent,
		Notes:          dto.Notes,
		CreatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, dl); err != nil {
		s.logger.Error("failed to append daily log", "error", err, "task_id", t.ID, "user_id", userID)
		return nil, err
	}

	s.logger.Info("daily log appended",
		"log_id", dl.ID,
		"task_id", t.ID,
		"user_id", userID,
		"hours", dto.HoursSpent)

	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableDailyLogs,
		Action:         realtime.ActionInsert,
		OrganizationID: dl.OrganizationID,
		UserID:         dl.UserID,
		RowID:          dl.ID,
	})
	return dl, nil
}

func (s *Service) ListMine(ctx context.Context, userID string, limit int) ([]*DailyLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repo.ListByUser(ctx, userID, limit)
}

// ListForTask returns recent logs for a task the caller can see.
func (s *Service) ListForTask(ctx context.Context, userID, taskID string, limit int) ([]*DailyLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if _, err := s.tasks.GetByID(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID, limit)
}

// MonthlyAllotmentHours sums the current calendar month's logged hours
// per allotment for the organization.
func (s *Service) MonthlyAllotmentHours(ctx context.Context, orgID string, now time.Time) (map[string]float64, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)

	rows, err := s.repo.MonthlyAllotmentHours(ctx, orgID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	totals := make(map[string]float64, len(rows))
	for _, row := range rows {
		totals[row.AllotmentID] = row.Hours
	}
	return totals, nil
}
