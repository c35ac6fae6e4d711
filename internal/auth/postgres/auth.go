package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/petaprogress/peta-progress/internal/auth"
	"gorm.io/gorm"
)

// CredentialRepository implements auth.CredentialRepository using GORM.
type CredentialRepository struct {
	db *gorm.DB
}

func NewCredentialRepository(db *gorm.DB) auth.CredentialRepository {
	return &CredentialRepository{db: db}
}

func (r *CredentialRepository) GetByEmail(ctx context.Context, email string) (*auth.Credential, error) {
	var cred auth.Credential
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&cred).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	return &cred, nil
}

func (r *CredentialRepository) Create(ctx context.Context, cred *auth.Credential) error {
	return r.db.WithContext(ctx).Create(cred).Error
}

// SessionRepository implements auth.SessionRepository using GORM.
type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) auth.SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session *auth.UserSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

// CloseOpenForUser stamps logout time and duration on every open session
// of the user and returns the rows it closed.
func (r *SessionRepository) CloseOpenForUser(ctx context.Context, userID string, at time.Time) ([]*auth.UserSession, error) {
	var open []*auth.UserSession
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND logout_time IS NULL", userID).
		Find(&open).Error
	if err != nil {
		return nil, err
	}

	for _, session := range open {
		session.Close(at)
		if err := r.db.WithContext(ctx).
			Model(&auth.UserSession{}).
			Where("id = ?", session.ID).
			Updates(map[string]interface{}{
				"logout_time":      session.LogoutTime,
				"duration_seconds": session.DurationSeconds,
			}).Error; err != nil {
			return nil, err
		}
	}

	return open, nil
}
