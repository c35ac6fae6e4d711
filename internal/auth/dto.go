package auth

import (
	"errors"
	"net/mail"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return errors.New("email is invalid")
	}
	if dto.Password == "" {
		return errors.New("password is required")
	}
	return nil
}

// SignupDTO registers a new user. When OrganizationName is set the user
// becomes the admin of a freshly created organization; otherwise they
// start without one and wait for an invite.
type SignupDTO struct {
	Email            string `json:"email"`
	Password         string `json:"password"`
	FullName         string `json:"full_name"`
	OrganizationName string `json:"organization_name,omitempty"`
}

func (dto SignupDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return errors.New("email is invalid")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if dto.FullName == "" {
		return errors.New("full name is required")
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshTokenDTO) Validate() error {
	if dto.RefreshToken == "" {
		return errors.New("refresh token is required")
	}
	return nil
}
