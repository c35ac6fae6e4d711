package joinrequest

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
)

// Repository defines the data access methods for join requests.
type Repository interface {
	Create(ctx context.Context, jr *JoinRequest) error
	GetByID(ctx context.Context, id string) (*JoinRequest, error)
	LatestForUserAndOrg(ctx context.Context, userID, orgID string) (*JoinRequest, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	Revive(ctx context.Context, id string, at time.Time) error
	ListPendingByOrganization(ctx context.Context, orgID string) ([]*JoinRequest, error)
	ListPendingByUser(ctx context.Context, userID string) ([]*JoinRequest, error)
}

// ProfileStore is the slice of the profile service this module needs.
type ProfileStore interface {
	GetByID(ctx context.Context, userID string) (*profile.Profile, error)
	GetByEmail(ctx context.Context, email string) (*profile.Profile, error)
	AssignOrganization(ctx context.Context, userID, orgID string) error
}

type Service struct {
	repo     Repository
	profiles ProfileStore
	events   realtime.Publisher
	logger   *slog.Logger
}

func NewService(repo Repository, profiles ProfileStore, events realtime.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		events:   events,
		logger:   logger,
	}
}

// Invite creates or revives an invitation for the user with the given
// email. The most recent (user, org) row decides the outcome: a pending
// row means "already invited" and nothing is written; a terminal row is
// reset to pending with a fresh timestamp; no row means a new one.
func (s *Service) Invite(ctx context.Context, adminID, email string) (*JoinRequest, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	orgID := *admin.OrganizationID

	target, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if target.InOrganization() {
		return nil, ErrAlreadyMember
	}

	latest, err := s.repo.LatestForUserAndOrg(ctx, target.ID, orgID)
	if err != nil && err != ErrRequestNotFound {
		return nil, err
	}

	if latest != nil {
		if latest.IsPending() {
			return nil, ErrAlreadyInvited
		}

		// re-invite: the terminal row comes back to pending with a
		// fresh created_at so it stays the latest row for the pair
		now := time.Now()
		if err := s.repo.Revive(ctx, latest.ID, now); err != nil {
			s.logger.Error("failed to revive join request", "error", err, "request_id", latest.ID)
			return nil, err
		}
		latest.Status = StatusPending
		latest.CreatedAt = now
		latest.UpdatedAt = now

		s.logger.Info("join request revived", "request_id", latest.ID, "user_id", target.ID)
		s.publish(realtime.ActionUpdate, latest)
		return latest, nil
	}

	now := time.Now()
	jr := &JoinRequest{
		ID:             uuid.NewString(),
		OrganizationID: orgID,
		UserID:         target.ID,
		Email:          email,
		Status:         StatusPending,
		InvitedBy:      adminID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, jr); err != nil {
		s.logger.Error("failed to create join request", "error", err, "user_id", target.ID)
		return nil, err
	}

	s.logger.Info("join request created", "request_id", jr.ID, "user_id", target.ID, "organization_id", orgID)
	s.publish(realtime.ActionInsert, jr)
	return jr, nil
}

// Approve marks the request approved and attaches the requester to the
// organization. Only pending requests can be approved.
func (s *Service) Approve(ctx context.Context, adminID, requestID string) error {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return err
	}

	jr, err := s.ownedRequest(ctx, *admin.OrganizationID, requestID)
	if err != nil {
		return err
	}

	return s.approve(ctx, jr)
}

// Deny marks the request denied. The requester's profile is untouched.
func (s *Service) Deny(ctx context.Context, adminID, requestID string) error {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return err
	}

	jr, err := s.ownedRequest(ctx, *admin.OrganizationID, requestID)
	if err != nil {
		return err
	}

	return s.deny(ctx, jr)
}

// Accept lets the invited user approve their own pending invitation.
func (s *Service) Accept(ctx context.Context, userID, requestID string) error {
	jr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if jr.UserID != userID {
		return ErrNotYourRequest
	}
	return s.approve(ctx, jr)
}

// Decline lets the invited user deny their own pending invitation.
func (s *Service) Decline(ctx context.Context, userID, requestID string) error {
	jr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if jr.UserID != userID {
		return ErrNotYourRequest
	}
	return s.deny(ctx, jr)
}

// ListPending returns the organization's open invitations. Admin only.
func (s *Service) ListPending(ctx context.Context, adminID string) ([]*JoinRequest, error) {
	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListPendingByOrganization(ctx, *admin.OrganizationID)
}

// ListMine returns the caller's open invitations.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*JoinRequest, error) {
	return s.repo.ListPendingByUser(ctx, userID)
}

func (s *Service) approve(ctx context.Context, jr *JoinRequest) error {
	if !jr.IsPending() {
		return ErrInvalidStatus
	}

	// attach first: if the profile write fails the request stays
	// pending and the approval can be retried
	if err := s.profiles.AssignOrganization(ctx, jr.UserID, jr.OrganizationID); err != nil {
		s.logger.Error("failed to attach user to organization",
			"error", err, "request_id", jr.ID, "user_id", jr.UserID)
		return err
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, jr.ID, StatusApproved, now); err != nil {
		s.logger.Error("failed to approve join request", "error", err, "request_id", jr.ID)
		return err
	}

	jr.Status = StatusApproved
	jr.UpdatedAt = now
	s.logger.Info("join request approved", "request_id", jr.ID, "user_id", jr.UserID)
	s.publish(realtime.ActionUpdate, jr)
	return nil
}

func (s *Service) deny(ctx context.Context, jr *JoinRequest) error {
	if !jr.IsPending() {
		return ErrInvalidStatus
	}

	now := time.Now()
	if err := s.repo.UpdateStatus(ctx, jr.ID, StatusDenied, now); err != nil {
		s.logger.Error("failed to deny join request", "error", err, "request_id", jr.ID)
		return err
	}

	jr.Status = StatusDenied
	jr.UpdatedAt = now
	s.logger.Info("join request denied", "request_id", jr.ID, "user_id", jr.UserID)
	s.publish(realtime.ActionUpdate, jr)
	return nil
}

func (s *Service) ownedRequest(ctx context.Context, orgID, requestID string) (*JoinRequest, error) {
	jr, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if jr.OrganizationID != orgID {
		return nil, ErrRequestNotFound
	}
	return jr, nil
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

func (s *Service) publish(action string, jr *JoinRequest) {
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableJoinRequests,
		Action:         action,
		OrganizationID: jr.OrganizationID,
		UserID:         jr.UserID,
		RowID:          jr.ID,
	})
}
