package allotment

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// WorkAllotment is a block of planned work with a monthly hour target.
// Tasks are assigned against it and daily logs roll up to it.
type WorkAllotment struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	OrganizationID string     `json:"organization_id" gorm:"column:organization_id;not null"`
	DepartmentID   *string    `json:"department_id,omitempty" gorm:"column:department_id"`
	Title          string     `json:"title" gorm:"column:title;not null"`
	Description    string     `json:"description" gorm:"column:description"`
	TargetHours    float64    `json:"target_hours" gorm:"column:target_hours"`
	StartDate      time.Time  `json:"start_date" gorm:"column:start_date;type:date"`
	EndDate        *time.Time `json:"end_date,omitempty" gorm:"column:end_date;type:date"`
	CreatedBy      string     `json:"created_by" gorm:"column:created_by"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (WorkAllotment) TableName() string {
	return "work_allotments"
}

var (
	ErrAllotmentNotFound = internal.NewNotFoundError("work allotment not found", internal.ErrCodeAllotmentNotFound)
	ErrInvalidDateRange  = internal.NewValidationError("end date must be after start date", internal.ErrCodeInvalidDateRange)
	ErrAdminRequired     = internal.ErrAdminRequired
)
