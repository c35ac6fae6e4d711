package postgres

import (
	"context"
	"errors"

	"github.com/petaprogress/peta-progress/internal/profile"
	"gorm.io/gorm"
)

// ProfileRepository implements the profile.Repository interface using GORM
type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) profile.Repository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	var p profile.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profile.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *ProfileRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&profile.Profile{}).
		Where("id = ?", id).
		Updates(fields).Error
}

func (r *ProfileRepository) ListByOrganization(ctx context.Context, orgID string) ([]*profile.Profile, error) {
	var profiles []*profile.Profile
	err := r.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("full_name ASC").
		Find(&profiles).Error
	return profiles, err
}
