package organization

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// Organization is the tenant root. Every department, allotment, task and
// log hangs off one organization.
type Organization struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"column:name;not null"`
	Description string    `json:"description" gorm:"column:description"`
	CreatedBy   string    `json:"created_by" gorm:"column:created_by"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Organization) TableName() string {
	return "organizations"
}

type Department struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;not null"`
	Name           string    `json:"name" gorm:"column:name;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

// DepartmentSummary is a department with its derived member count.
type DepartmentSummary struct {
	Department
	MemberCount int64 `json:"member_count"`
}

var (
	ErrOrganizationNotFound = internal.ErrOrganizationNotFound
	ErrDepartmentNotFound   = internal.NewNotFoundError("department not found", internal.ErrCodeDepartmentNotFound)
	ErrAdminRequired        = internal.ErrAdminRequired
)
