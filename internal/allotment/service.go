package allotment

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
)

// Repository defines the data access methods for work allotments.
type Repository interface {
	Create(ctx context.Context, wa *WorkAllotment) error
	GetByID(ctx context.Context, id string) (*WorkAllotment, error)
	Update(ctx context.Context, wa *WorkAllotment) error
	ListByOrganization(ctx context.Context, orgID string) ([]*WorkAllotment, error)
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

// Create validates and inserts a new allotment for the admin's
// organization. Validation failures happen before any write.
func (s *Service) Create(ctx context.Context, adminID string, dto CreateAllotmentDTO) (*WorkAllotment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	wa := &WorkAllotment{
		ID:             uuid.NewString(),
		OrganizationID: *admin.OrganizationID,
		DepartmentID:   dto.DepartmentID,
		Title:          dto.Title,
		Description:    dto.Description,
		TargetHours:    dto.TargetHours,
		StartDate:      dto.StartDate,
		EndDate:        dto.EndDate,
		CreatedBy:      adminID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, wa); err != nil {
		s.logger.Error("failed to create allotment", "error", err, "organization_id", wa.OrganizationID)
		return nil, err
	}

	s.logger.Info("allotment created", "allotment_id", wa.ID, "title", wa.Title)
	s.publish(realtime.ActionInsert, wa)
	return wa, nil
}

func (s *Service) Update(ctx context.Context, adminID, allotmentID string, dto UpdateAllotmentDTO) (*WorkAllotment, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	wa, err := s.repo.GetByID(ctx, allotmentID)
	if err != nil {
		return nil, err
	}
	if wa.OrganizationID != *admin.OrganizationID {
		return nil, ErrAllotmentNotFound
	}

	wa.Title = dto.Title
	wa.Description = dto.Description
	wa.TargetHours = dto.TargetHours
	wa.StartDate = dto.StartDate
	wa.EndDate = dto.EndDate
	wa.DepartmentID = dto.DepartmentID
	wa.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, wa); err != nil {
		s.logger.Error("failed to update allotment", "error", err, "allotment_id", allotmentID)
		return nil, err
	}

	s.publish(realtime.ActionUpdate, wa)
	return wa, nil
}

func (s *Service) GetByID(ctx context.Context, userID, allotmentID string) (*WorkAllotment, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	wa, err := s.repo.GetByID(ctx, allotmentID)
	if err != nil {
		return nil, err
	}
	if p.OrganizationID == nil || wa.OrganizationID != *p.OrganizationID {
		return nil, ErrAllotmentNotFound
	}
	return wa, nil
}

func (s *Service) ListByOrganization(ctx context.Context, userID string) ([]*WorkAllotment, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.InOrganization() {
		return []*WorkAllotment{}, nil
	}
	return s.repo.ListByOrganization(ctx, *p.OrganizationID)
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

func (s *Service) publish(action string, wa *WorkAllotment) {
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableWorkAllotments,
		Action:         action,
		OrganizationID: wa.OrganizationID,
		RowID:          wa.ID,
	})
}
