package task

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// Task is one unit of assigned work. Assigning the same work to several
// users creates one independent row per assignee.
type Task struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	OrganizationID string     `json:"organization_id" gorm:"column:organization_id;not null"`
	AllotmentID    *string    `json:"allotment_id,omitempty" gorm:"column:allotment_id"`
	UserID         string     `json:"user_id" gorm:"column:user_id;not null"`
	Title          string     `json:"title" gorm:"column:title;not null"`
	Description    string     `json:"description" gorm:"column:description"`
	Status         string     `json:"status" gorm:"column:status;default:todo"`
	DueDate        *time.Time `json:"due_date,omitempty" gorm:"column:due_date;type:date"`
	CreatedBy      string     `json:"created_by" gorm:"column:created_by"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (t *Task) IsDone() bool {
	return t.Status == StatusDone
}

var (
	ErrTaskNotFound     = internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	ErrInvalidStatus    = internal.NewValidationError("status must be todo, in_progress or done", internal.ErrCodeInvalidStatus)
	ErrAdminRequired    = internal.ErrAdminRequired
	ErrUnauthorizedTask = internal.NewForbiddenError("task belongs to another user", internal.ErrCodeUnauthorizedAccess)
)
