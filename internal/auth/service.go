package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/petaprogress/peta-progress/internal/organization"
	"github.com/petaprogress/peta-progress/internal/profile"
	"github.com/petaprogress/peta-progress/internal/realtime"
)

// CredentialRepository defines the data access methods for credentials.
type CredentialRepository interface {
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	Create(ctx context.Context, cred *Credential) error
}

// SessionRepository defines the data access methods for login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session *UserSession) error
	CloseOpenForUser(ctx context.Context, userID string, at time.Time) ([]*UserSession, error)
}

// ProfileRegistrar is the slice of the profile service auth needs:
// signup registration, fetch-or-create on login, heartbeat stamping.
type ProfileRegistrar interface {
	Register(ctx context.Context, userID, email, fullName, role string, organizationID *string) error
	EnsureProfile(ctx context.Context, userID, email string) (*profile.Profile, error)
	TouchLastSeen(ctx context.Context, userID string, at time.Time) error
}

// OrganizationCreator creates the organization for an admin signup.
type OrganizationCreator interface {
	Create(ctx context.Context, creatorID string, dto organization.CreateOrganizationDTO) (*organization.Organization, error)
}

type Service struct {
	credentials CredentialRepository
	sessions    SessionRepository
	profiles    ProfileRegistrar
	orgs        OrganizationCreator
	tokens      TokenGenerator
	events      realtime.Publisher
	bcryptCost  int
	logger      *slog.Logger
}

func NewService(
	credentials CredentialRepository,
	sessions SessionRepository,
	profiles ProfileRegistrar,
	orgs OrganizationCreator,
	tokens TokenGenerator,
	events realtime.Publisher,
	bcryptCost int,
	logger *slog.Logger,
) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		credentials: credentials,
		sessions:    sessions,
		profiles:    profiles,
		orgs:        orgs,
		tokens:      tokens,
		events:      events,
		bcryptCost:  bcryptCost,
		logger:      logger,
	}
}

// Signup registers a credential and profile. When the DTO names an
// organization, one is created and the new user becomes its admin.
func (s *Service) Signup(ctx context.Context, dto SignupDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	if existing, err := s.credentials.GetByEmail(ctx, dto.Email); err == nil && existing != nil {
		return AuthTokens{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return AuthTokens{}, err
	}

	now := time.Now()
	cred := &Credential{
		ID:           uuid.NewString(),
		Email:        dto.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.credentials.Create(ctx, cred); err != nil {
		s.logger.Error("failed to create credential", "error", err, "email", dto.Email)
		return AuthTokens{}, err
	}

	role := profile.RoleUser
	var orgID *string
	if dto.OrganizationName != "" {
		org, err := s.orgs.Create(ctx, cred.ID, organization.CreateOrganizationDTO{Name: dto.OrganizationName})
		if err != nil {
			return AuthTokens{}, err
		}
		role = profile.RoleAdmin
		orgID = &org.ID
	}

	if err := s.profiles.Register(ctx, cred.ID, dto.Email, dto.FullName, role, orgID); err != nil {
		return AuthTokens{}, err
	}

	s.logger.Info("user signed up", "user_id", cred.ID, "role", role)
	return s.openSession(ctx, cred.ID, dto.Email, orgID)
}

// Authenticate validates credentials, opens a session row and returns
// a fresh token pair.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	cred, err := s.credentials.GetByEmail(ctx, dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	// profile rows are lazily created, a missing one is not a login failure
	p, err := s.profiles.EnsureProfile(ctx, cred.ID, cred.Email)
	if err != nil {
		s.logger.Error("failed to ensure profile at login", "error", err, "user_id", cred.ID)
		return AuthTokens{}, err
	}

	return s.openSession(ctx, cred.ID, cred.Email, p.OrganizationID)
}

// RefreshTokens validates the refresh token and rotates the pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, err
	}
	newRefreshToken, err := s.tokens.GenerateRefreshToken(claims.UserID, claims.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		UserID:       claims.UserID,
	}, nil
}

// Logout closes every open session for the user, stamping logout time
// and duration.
func (s *Service) Logout(ctx context.Context, userID string) error {
	closed, err := s.sessions.CloseOpenForUser(ctx, userID, time.Now())
	if err != nil {
		s.logger.Error("failed to close sessions", "error", err, "user_id", userID)
		return err
	}

	for _, session := range closed {
		s.publishSession(realtime.ActionUpdate, session)
	}

	s.logger.Info("user logged out", "user_id", userID, "sessions_closed", len(closed))
	return nil
}

// Heartbeat stamps profile.last_seen so presence stays fresh while the
// client is active.
func (s *Service) Heartbeat(ctx context.Context, userID string) error {
	return s.profiles.TouchLastSeen(ctx, userID, time.Now())
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}

func (s *Service) openSession(ctx context.Context, userID, email string, orgID *string) (AuthTokens, error) {
	session := &UserSession{
		ID:             uuid.NewString(),
		UserID:         userID,
		OrganizationID: orgID,
		LoginTime:      time.Now(),
		CreatedAt:      time.Now(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.logger.Error("failed to open session", "error", err, "user_id", userID)
		return AuthTokens{}, err
	}
	s.publishSession(realtime.ActionInsert, session)

	accessToken, err := s.tokens.GenerateAccessToken(userID, email)
	if err != nil {
		return AuthTokens{}, err
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(userID, email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		UserID:       userID,
	}, nil
}

func (s *Service) publishSession(action string, session *UserSession) {
	orgID := ""
	if session.OrganizationID != nil {
		orgID = *session.OrganizationID
	}
	s.events.Publish(realtime.ChangeEvent{
		Table:          realtime.TableUserSessions,
		Action:         action,
		OrganizationID: orgID,
		UserID:         session.UserID,
		RowID:          session.ID,
	})
}

// JWTTokenGenerator issues HS256 token pairs with distinct secrets for
// the access and refresh flavors.
type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID, email string) (string, error) {
	return j.generate(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID, email string) (string, error) {
	return j.generate(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) generate(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func (j *JWTTokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.AccessTokenSecret)
}

func (j *JWTTokenGenerator) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return j.validate(tokenString, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) validate(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
