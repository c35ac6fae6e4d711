package organization

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/petaprogress/peta-progress/internal/profile"
)

// Repository defines the data access methods for organizations and
// their departments.
type Repository interface {
	Create(ctx context.Context, org *Organization) error
	GetByID(ctx context.Context, id string) (*Organization, error)
	Update(ctx context.Context, org *Organization) error

	CreateDepartment(ctx context.Context, dept *Department) error
	GetDepartment(ctx context.Context, id string) (*Department, error)
	UpdateDepartment(ctx context.Context, dept *Department) error
	ListDepartments(ctx context.Context, orgID string) ([]*DepartmentSummary, error)
}

// ProfileDirectory is the slice of the profile service this module needs
// for admin checks.
type ProfileDirectory interface {
	GetByID(ctx context.Context, userID string) (*profile.Profile, error)
}

type Service struct {
	repo     Repository
	profiles ProfileDirectory
	logger   *slog.Logger
}

func NewService(repo Repository, profiles ProfileDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
	}
}

// Create inserts a new organization owned by creatorID. Membership and
// role changes are the caller's concern (signup flow).
func (s *Service) Create(ctx context.Context, creatorID string, dto CreateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	org := &Organization{
		ID:          uuid.NewString(),
		Name:        dto.Name,
		Description: dto.Description,
		CreatedBy:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, org); err != nil {
		s.logger.Error("failed to create organization", "error", err, "creator_id", creatorID)
		return nil, err
	}

	s.logger.Info("organization created", "organization_id", org.ID, "name", org.Name)
	return org, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Organization, error) {
	p, err := s.member(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, *p.OrganizationID)
}

func (s *Service) Update(ctx context.Context, adminID string, dto UpdateOrganizationDTO) (*Organization, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	org, err := s.repo.GetByID(ctx, *admin.OrganizationID)
	if err != nil {
		return nil, err
	}

	org.Name = dto.Name
	org.Description = dto.Description
	org.UpdatedAt = time.Now()
	if err := s.repo.Update(ctx, org); err != nil {
		s.logger.Error("failed to update organization", "error", err, "organization_id", org.ID)
		return nil, err
	}

	return org, nil
}

func (s *Service) CreateDepartment(ctx context.Context, adminID string, dto DepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	dept := &Department{
		ID:             uuid.NewString(),
		OrganizationID: *admin.OrganizationID,
		Name:           dto.Name,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.CreateDepartment(ctx, dept); err != nil {
		s.logger.Error("failed to create department", "error", err, "organization_id", dept.OrganizationID)
		return nil, err
	}

	s.logger.Info("department created", "department_id", dept.ID, "organization_id", dept.OrganizationID)
	return dept, nil
}

func (s *Service) RenameDepartment(ctx context.Context, adminID, deptID string, dto DepartmentDTO) (*Department, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	admin, err := s.admin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	dept, err := s.repo.GetDepartment(ctx, deptID)
	if err != nil {
		return nil, err
	}
	if dept.OrganizationID != *admin.OrganizationID {
		return nil, ErrDepartmentNotFound
	}

	dept.Name = dto.Name
	dept.UpdatedAt = time.Now()
	if err := s.repo.UpdateDepartment(ctx, dept); err != nil {
		s.logger.Error("failed to rename department", "error", err, "department_id", deptID)
		return nil, err
	}

	return dept, nil
}

func (s *Service) ListDepartments(ctx context.Context, userID string) ([]*DepartmentSummary, error) {
	p, err := s.member(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListDepartments(ctx, *p.OrganizationID)
}

func (s *Service) member(ctx context.Context, userID string) (*profile.Profile, error) {
	p, err := s.profiles.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.InOrganization() {
		return nil, ErrOrganizationNotFound
	}
	return p, nil
}

func (s *Service) admin(ctx context.Context, userID string) (*profile.Profile, error) {
	p, err := s.member(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, ErrAdminRequired
	}
	return p, nil
}
