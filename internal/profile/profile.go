package profile

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// Profile is the per-user record. It shares its ID with the auth
// credential and carries organization membership, role and availability.
type Profile struct {
	ID             string     `json:"id" gorm:"primaryKey"`
	Email          string     `json:"email" gorm:"column:email;not null"`
	FullName       string     `json:"full_name" gorm:"column:full_name"`
	Role           string     `json:"role" gorm:"column:role;default:user"`
	OrganizationID *string    `json:"organization_id,omitempty" gorm:"column:organization_id"`
	DepartmentID   *string    `json:"department_id,omitempty" gorm:"column:department_id"`
	Availability   string     `json:"availability" gorm:"column:availability;default:unavailable"`
	WorkingHours   *float64   `json:"working_hours,omitempty" gorm:"column:working_hours"`
	LastSeen       *time.Time `json:"last_seen,omitempty" gorm:"column:last_seen"`
	CreatedAt      time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

const (
	RoleAdmin = "admin"
	RoleUser  = "user"

	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

func (p *Profile) IsAdmin() bool {
	return p.Role == RoleAdmin
}

func (p *Profile) InOrganization() bool {
	return p.OrganizationID != nil && *p.OrganizationID != ""
}

var (
	ErrProfileNotFound     = internal.ErrProfileNotFound
	ErrInvalidAvailability = internal.NewValidationError("availability must be 'available' or 'unavailable'", internal.ErrCodeInvalidAvailability)
	ErrAdminRequired       = internal.ErrAdminRequired
	ErrCannotRemoveSelf    = internal.NewValidationError("admins cannot remove themselves from the organization", internal.ErrCodeCannotRemoveSelf)
)
