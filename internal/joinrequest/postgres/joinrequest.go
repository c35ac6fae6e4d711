package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/petaprogress/peta-progress/internal/joinrequest"
	"gorm.io/gorm"
)

// JoinRequestRepository implements joinrequest.Repository using GORM.
type JoinRequestRepository struct {
	db *gorm.DB
}

func NewJoinRequestRepository(db *gorm.DB) joinrequest.Repository {
	return &JoinRequestRepository{db: db}
}

func (r *JoinRequestRepository) Create(ctx context.Context, jr *joinrequest.JoinRequest) error {
	return r.db.WithContext(ctx).Create(jr).Error
}

func (r *JoinRequestRepository) GetByID(ctx context.Context, id string) (*joinrequest.JoinRequest, error) {
	var jr joinrequest.JoinRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&jr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, joinrequest.ErrRequestNotFound
		}
		return nil, err
	}
	return &jr, nil
}

// LatestForUserAndOrg returns the most recent row for the pair; the
// invite flow treats that row as authoritative.
func (r *JoinRequestRepository) LatestForUserAndOrg(ctx context.Context, userID, orgID string) (*joinrequest.JoinRequest, error) {
	var jr joinrequest.JoinRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND organization_id = ?", userID, orgID).
		Order("created_at DESC").
		First(&jr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, joinrequest.ErrRequestNotFound
		}
		return nil, err
	}
	return &jr, nil
}

func (r *JoinRequestRepository) UpdateStatus(ctx context.Context, id, status string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&joinrequest.JoinRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": at,
		}).Error
}

// Revive resets a terminal row to pending. created_at is refreshed so
// the row stays the most recent one for its (user, organization) pair.
func (r *JoinRequestRepository) Revive(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&joinrequest.JoinRequest{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     joinrequest.StatusPending,
			"created_at": at,
			"updated_at": at,
		}).Error
}

func (r *JoinRequestRepository) ListPendingByOrganization(ctx context.Context, orgID string) ([]*joinrequest.JoinRequest, error) {
	var requests []*joinrequest.JoinRequest
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND status = ?", orgID, joinrequest.StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *JoinRequestRepository) ListPendingByUser(ctx context.Context, userID string) ([]*joinrequest.JoinRequest, error) {
	var requests []*joinrequest.JoinRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, joinrequest.StatusPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}
