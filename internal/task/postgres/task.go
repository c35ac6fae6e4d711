package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/petaprogress/peta-progress/internal/task"
	"gorm.io/gorm"
)

// TaskRepository implements task.Repository using GORM.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{db: db}
}

// CreateBatch inserts all rows in one transaction so a multi-assignee
// fan-out is all-or-nothing.
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*task.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(tasks).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id string) (*task.Task, error) {
	var t task.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&task.Task{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		}).Error
}

func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) ListByOrganization(ctx context.Context, orgID string) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}
