package dailylog

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// DailyLog is an append-only record of hours spent on a task for one
// day. Entries are never edited or deleted.
type DailyLog struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	TaskID         string    `json:"task_id" gorm:"column:task_id;not null"`
	UserID         string    `json:"user_id" gorm:"column:user_id;not null"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id"`
	LogDate        time.Time `json:"log_date" gorm:"column:log_date;type:date;not null"`
	HoursSpent     float64   `json:"hours_spent" gorm:"column:hours_spent;not null"`
	Notes          string    `json:"notes" gorm:"column:notes"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
}

func (DailyLog) TableName() string {
	return "daily_logs"
}

// AllotmentHours is the monthly roll-up of logged hours per allotment,
// produced by joining daily_logs to tasks in the storage layer.
type AllotmentHours struct {
	AllotmentID string  `json:"allotment_id"`
	Hours       float64 `json:"hours"`
}

var (
	ErrLogNotFound   = internal.NewNotFoundError("daily log not found", internal.ErrCodeLogNotFound)
	ErrInvalidHours  = internal.NewValidationError("hours must be greater than 0 and at most 24", internal.ErrCodeInvalidHours)
	ErrNotYourTask   = internal.NewForbiddenError("task belongs to another user", internal.ErrCodeUnauthorizedAccess)
	ErrAdminRequired = internal.ErrAdminRequired
)
