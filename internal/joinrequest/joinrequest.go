package joinrequest

import (
	"time"

	"github.com/petaprogress/peta-progress/internal"
)

// JoinRequest is one invitation of a user into an organization. The most
// recent row per (user, organization) is the authoritative one; older
// rows are history.
type JoinRequest struct {
	ID             string    `json:"id" gorm:"primaryKey"`
	OrganizationID string    `json:"organization_id" gorm:"column:organization_id;not null"`
	UserID         string    `json:"user_id" gorm:"column:user_id;not null"`
	Email          string    `json:"email" gorm:"column:email"`
	Status         string    `json:"status" gorm:"column:status;default:pending"`
	InvitedBy      string    `json:"invited_by" gorm:"column:invited_by"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusDenied   = "denied"
)

func (jr *JoinRequest) IsPending() bool {
	return jr.Status == StatusPending
}

// IsTerminal reports whether the request reached a final state. Terminal
// rows can only be left by a re-invite, which resets them to pending.
func (jr *JoinRequest) IsTerminal() bool {
	return jr.Status == StatusApproved || jr.Status == StatusDenied
}

var (
	ErrRequestNotFound = internal.NewNotFoundError("join request not found", internal.ErrCodeRequestNotFound)
	ErrAlreadyInvited  = internal.NewConflictError("user already has a pending invitation", internal.ErrCodeAlreadyInvited)
	ErrAlreadyMember   = internal.NewConflictError("user already belongs to an organization", internal.ErrCodeAlreadyMember)
	ErrInvalidStatus   = internal.NewValidationError("join request is not pending", internal.ErrCodeInvalidStatus)
	ErrAdminRequired   = internal.ErrAdminRequired
	ErrNotYourRequest  = internal.NewForbiddenError("join request belongs to another user", internal.ErrCodeUnauthorizedAccess)
)
