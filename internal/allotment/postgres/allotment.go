package postgres

import (
	"context"
	"errors"

	"github.com/petaprogress/peta-progress/internal/allotment"
	"gorm.io/gorm"
)

// AllotmentRepository implements allotment.Repository using GORM.
type AllotmentRepository struct {
	db *gorm.DB
}

func NewAllotmentRepository(db *gorm.DB) allotment.Repository {
	return &AllotmentRepository{db: db}
}

func (r *AllotmentRepository) Create(ctx context.Context, wa *allotment.WorkAllotment) error {
	return r.db.WithContext(ctx).Create(wa).Error
}

func (r *AllotmentRepository) GetByID(ctx context.Context, id string) (*allotment.WorkAllotment, error) {
	var wa allotment.WorkAllotment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&wa).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, allotment.ErrAllotmentNotFound
		}
		return nil, err
	}
	return &wa, nil
}

func (r *AllotmentRepository) Update(ctx context.Context, wa *allotment.WorkAllotment) error {
	return r.db.WithContext(ctx).Save(wa).Error
}

func (r *AllotmentRepository) ListByOrganization(ctx context.Context, orgID string) ([]*allotment.WorkAllotment, error) {
	var allotments []*allotment.WorkAllotment
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&allotments).Error
	return allotments, err
}
