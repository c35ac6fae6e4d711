package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/petaprogress/peta-progress/internal"
)

// Credential holds the login secret for a user. Its ID is shared with the
// profile row.
type Credential struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"column:email;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Credential) TableName() string {
	return "auth_credentials"
}

// UserSession is one login→logout span. Open sessions (logout_time NULL)
// are what the admin dashboard counts as "online now".
type UserSession struct {
	ID              string     `json:"id" gorm:"primaryKey"`
	UserID          string     `json:"user_id" gorm:"column:user_id;not null"`
	OrganizationID  *string    `json:"organization_id,omitempty" gorm:"column:organization_id"`
	LoginTime       time.Time  `json:"login_time" gorm:"column:login_time;not null"`
	LogoutTime      *time.Time `json:"logout_time,omitempty" gorm:"column:logout_time"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty" gorm:"column:duration_seconds"`
	CreatedAt       time.Time  `json:"created_at" gorm:"column:created_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

func (s *UserSession) IsOpen() bool {
	return s.LogoutTime == nil
}

// Close stamps the logout time and derives the session duration.
func (s *UserSession) Close(at time.Time) {
	s.LogoutTime = &at
	seconds := int64(at.Sub(s.LoginTime).Seconds())
	if seconds < 0 {
		seconds = 0
	}
	s.DurationSeconds = &seconds
}

type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// TokenGenerator abstracts token issuance so tests can swap it out.
type TokenGenerator interface {
	GenerateAccessToken(userID, email string) (string, error)
	GenerateRefreshToken(userID, email string) (string, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	ValidateRefreshToken(tokenString string) (*Claims, error)
}

var (
	ErrInvalidCredentials = internal.ErrInvalidCredentials
	ErrInvalidToken       = internal.ErrInvalidToken
	ErrTokenExpired       = internal.ErrTokenExpired
	ErrEmailTaken         = internal.NewConflictError("email is already registered", internal.ErrCodeEmailTaken)
)
