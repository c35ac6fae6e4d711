package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
)

// Repository defines the data access methods for tasks.
type Repository interface {
	CreateBatch(ctx context.Context, tasks []*Task) error
	GetByID(ctx context.Context, id string) (*Task, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	ListByUser(ctx context.Context, userID string) ([]*Task, error)
	ListByOrganization(ctx context.Context, orgID string) ([]*Task, error)
}

type ProfileDirectory interface {
	GetByID(ctx context.Context, userID string) (*profile.Profile, error)
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
	events   realtime.Publisher
	logger   *slog.Logger
}

func NewService(repo Repository, profiles ProfileDirectory, events realtime.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		events:   events,
		logger:   logger,
	}
}

// Assign fans the task out to every listed user: N assignees produce
// exactly N rows sharing title, allotment and organization, each starting
// in "todo".
func (s *Service) Assign(ctx context.Context, adminID string, dto AssignTaskDTO) ([]*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	tasks := make([]*Task, 0, len(dto.UserIDs))
	for _, userID := range dto.UserIDs {
		tasks = append(tasks, &Task{
			ID:             uuid.NewString(),
			OrganizationID: *admin.OrganizationID,
			AllotmentID:    dto.AllotmentID,
			UserID:         userID,
			Title:          dto.Title,
			Description:    dto.Description,
			Status:         StatusTodo,
			DueDate:        dto.DueDate,
			CreatedBy:      adminID,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}

	if err := s.repo.CreateBatch(ctx, tasks); err != nil {
		s.logger.Error("failed to assign tasks", "error", err, "assignees", len(dto.UserIDs))
		return nil, err
	}

	s.logger.Info("tasks assigned",
		"title", dto.Title,
		"assignees", len(tasks),
		"organization_id", *admin.OrganizationID)

	for _, t := range tasks {
		s.publish(realtime.ActionInsert, t)
	}
	return tasks, nil
}

// UpdateStatus moves a task between todo, in_progress and done. The
// assignee can move their own tasks; admins can move any task in their
// organization.
func (s *Service) UpdateStatus(ctx context.Context, userID, taskID string, dto UpdateStatusDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if t.UserID != userID {
		caller, err := s.profiles.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !caller.IsAdmin() || caller.OrganizationID == nil || *caller.OrganizationID != t.OrganizationID {
			return nil, ErrUnauthorizedTask
		}
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, taskID, dto.Status, now); err != nil {
		s.logger.Error("failed to update task status", "error", err, "task_id", taskID)
		return nil, err
	}

	t.Status = dto.Status
	t.UpdatedAt = now
	s.publish(realtime.ActionUpdate, t)
	return t, nil
}

func (s *Service) GetByID(ctx context.Context, userID, taskID string) (*Task, error) {
	t, err := s.repo.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if t.UserID != userID {
		caller, err := s.profiles.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if caller.OrganizationID == nil || *caller.OrganizationID != t.OrganizationID {
			return nil, ErrTaskNotFound
		}
	}
	return t, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]*Task, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) ListByOrganization(ctx context.Context, adminID string) ([]*Task, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, *admin.OrganizationID)
}

func (s *Service) admin(ctx context.Context, userID string) (*profile.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() || !p.InOrganization() {
		return nil, ErrAdminRequired
	}
	return p, nil
}

func (s *Service) publish(action string, t *Task) {
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableTasks,
		Action:         action,
		OrganizationID: t.OrganizationID,
		UserID:         t.UserID,
		RowID:          t.ID,
	})
}
