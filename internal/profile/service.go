package profile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/petaprogress/peta-progress/internal/realtime"
)

// Repository defines the data access methods for profiles
type Repository interface {
	GetByID(ctx context.Context, id string) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, p *Profile) error
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	ListByOrganization(ctx context.Context, orgID string) ([]*Profile, error)
}

// Service handles profile business logic
type Service struct {
	repo   Repository
	events realtime.Publisher
	logger *slog.Logger
}

func NewService(repo Repository, events realtime.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		events: events,
		logger: logger,
	}
}

// EnsureProfile fetches the profile for userID, lazily creating a default
// one when the row is missing. A missing profile is part of normal fetch
// flow, never a user-facing error.
func (s *Service) EnsureProfile(ctx context.Context, userID, email string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrProfileNotFound) {
		s.logger.Error("failed to fetch profile", "error", err, "user_id", userID)
		return nil, err
	}

	p = &Profile{
		ID:           userID,
		Email:        email,
		Role:         RoleUser,
		Availability: AvailabilityUnavailable,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create default profile", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("created default profile", "user_id", userID)
	s.publish(realtime.ActionInsert, p)
	return p, nil
}

// Register creates a profile with explicit attributes, used at signup.
func (s *Service) Register(ctx context.Context, userID, email, fullName, role string, organizationID *string) error {
	p := &Profile{
		ID:             userID,
		Email:          email,
		FullName:       fullName,
		Role:           role,
		OrganizationID: organizationID,
		Availability:   AvailabilityUnavailable,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to register profile", "error", err, "user_id", userID)
		return err
	}
	s.publish(realtime.ActionInsert, p)
	return nil
}

func (s *Service) GetByID(ctx context.Context, userID string) (*Profile, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) ListByOrganization(ctx context.Context, orgID string) ([]*Profile, error) {
	return s.repo.ListByOrganization(ctx, orgID)
}

// UpdateName renames the caller.
func (s *Service) UpdateName(ctx context.Context, userID string, dto UpdateNameDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.FullName = dto.FullName
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to update profile name", "error", err, "user_id", userID)
		return nil, err
	}

	s.publish(realtime.ActionUpdate, p)
	return p, nil
}

// SetAvailability toggles the caller's availability and stamps last_seen,
// since flipping the toggle proves the user is at the keyboard.
func (s *Service) SetAvailability(ctx context.Context, userID string, dto SetAvailabilityDTO) (*Profile, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	p.Availability = dto.Availability
	p.LastSeen = &now
	p.UpdatedAt = now
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to update availability", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("availability updated", "user_id", userID, "availability", dto.Availability)
	s.publish(realtime.ActionUpdate, p)
	return p, nil
}

// TouchLastSeen stamps the heartbeat timestamp without any other change.
func (s *Service) TouchLastSeen(ctx context.Context, userID string, at time.Time) error {
	return s.repo.UpdateFields(ctx, userID, map[string]interface{}{
		"last_seen":  at,
		"updated_at": at,
	})
}

// SetDepartment assigns a member to a department. Admin only.
func (s *Service) SetDepartment(ctx context.Context, adminID, targetID string, dto SetDepartmentDTO) error {
	admin, target, err := s.adminAndTarget(ctx, adminID, targetID)
	if err != nil {
		return err
	}

	target.DepartmentID = dto.DepartmentID
	target.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, target); err != nil {
		s.logger.Error("failed to set department", "error", err, "admin_id", admin.ID, "user_id", targetID)
		return err
	}

	s.publish(realtime.ActionUpdate, target)
	return nil
}

// SetWorkingHours sets a member's monthly target. Admin only.
func (s *Service) SetWorkingHours(ctx context.Context, adminID, targetID string, dto SetWorkingHoursDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	_, target, err := s.adminAndTarget(ctx, adminID, targetID)
	if err != nil {
		return err
	}

	target.WorkingHours = &dto.WorkingHours
	target.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, target); err != nil {
		s.logger.Error("failed to set working hours", "error", err, "user_id", targetID)
		return err
	}

	s.publish(realtime.ActionUpdate, target)
	return nil
}

// RemoveFromOrganization detaches a member from the admin's organization,
// clearing organization and department. Admins cannot remove themselves.
func (s *Service) RemoveFromOrganization(ctx context.Context, adminID, targetID string) error {
	if adminID == targetID {
		return ErrCannotRemoveSelf
	}

	admin, target, err := s.adminAndTarget(ctx, adminID, targetID)
	if err != nil {
		return err
	}

	target.OrganizationID = nil
	target.DepartmentID = nil
	target.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, target); err != nil {
		s.logger.Error("failed to remove member", "error", err, "admin_id", admin.ID, "user_id", targetID)
		return err
	}

	s.logger.Info("member removed from organization", "admin_id", admin.ID, "user_id", targetID)
	// the member is no longer in the org, so scope the event to both sides
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableProfiles,
		Action:         realtime.ActionUpdate,
		OrganizationID: derefOrg(admin),
		UserID:         target.ID,
		RowID:          target.ID,
	})
	return nil
}

// AssignOrganization attaches a user to an organization, used when a join
// request is approved.
func (s *Service) AssignOrganization(ctx context.Context, userID, orgID string) error {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	p.OrganizationID = &orgID
	p.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, p); err != nil {
		s.logger.Error("failed to assign organization", "error", err, "user_id", userID, "organization_id", orgID)
		return err
	}

	s.publish(realtime.ActionUpdate, p)
	return nil
}

// adminAndTarget loads both profiles and enforces that the caller is an
// admin of the same organization as the target.
func (s *Service) adminAndTarget(ctx context.Context, adminID, targetID string) (*Profile, *Profile, error) {
	admin, err := s.repo.GetByID(ctx, adminID)
	if err != nil {
		return nil, nil, err
	}
	if !admin.IsAdmin() || !admin.InOrganization() {
		return nil, nil, ErrAdminRequired
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target.OrganizationID == nil || *target.OrganizationID != *admin.OrganizationID {
		return nil, nil, ErrProfileNotFound
	}

	return admin, target, nil
}

func (s *Service) publish(action string, p *Profile) {
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableProfiles,
		Action:         action,
		OrganizationID: derefOrg(p),
		UserID:         p.ID,
		RowID:          p.ID,
	})
}

func derefOrg(p *Profile) string {
	if p.OrganizationID != nil {
		return *p.OrganizationID
	}
	return ""
}
