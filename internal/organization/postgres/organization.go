package postgres

import (
	"context"
	"errors"

	"github.com/petaprogress/peta-progress/internal/organization"
	"gorm.io/gorm"
)

// OrganizationRepository implements the organization.Repository interface
// using GORM.
type OrganizationRepository struct {
	db *gorm.DB
}

func NewOrganizationRepository(db *gorm.DB) organization.Repository {
	return &OrganizationRepository{db: db}
}

func (r *OrganizationRepository) Create(ctx context.Context, org *organization.Organization) error {
	return r.db.WithContext(ctx).Create(org).Error
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*organization.Organization, error) {
	var org organization.Organization
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrOrganizationNotFound
		}
		return nil, err
	}
	return &org, nil
}

func (r *OrganizationRepository) Update(ctx context.Context, org *organization.Organization) error {
	return r.db.WithContext(ctx).Save(org).Error
}

func (r *OrganizationRepository) CreateDepartment(ctx context.Context, dept *organization.Department) error {
	return r.db.WithContext(ctx).Create(dept).Error
}

func (r *OrganizationRepository) GetDepartment(ctx context.Context, id string) (*organization.Department, error) {
	var dept organization.Department
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&dept).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, organization.ErrDepartmentNotFound
		}
		return nil, err
	}
	return &dept, nil
}

func (r *OrganizationRepository) UpdateDepartment(ctx context.Context, dept *organization.Department) error {
	return r.db.WithContext(ctx).Save(dept).Error
}

// ListDepartments returns the organization's departments with member
// counts resolved in a single query instead of per-department scans.
func (r *OrganizationRepository) ListDepartments(ctx context.Context, orgID string) ([]*organization.DepartmentSummary, error) {
	var summaries []*organization.DepartmentSummary
	err := r.db.WithContext(ctx).
		Table("departments").
		Select("departments.*, COUNT(profiles.id) AS member_count").
		Joins("LEFT JOIN profiles ON profiles.department_id = departments.id").
		Where("departments.organization_id = ?", orgID).
		Group("departments.id").
		Order("departments.name ASC").
		Find(&summaries).Error
	return summaries, err
}
