package auth

import (
	"github.com/angelmondragon/bakery-backend/internal/profiles"
	"github.com/angelmondragon/bakery-backend/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoints.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest creates a customer account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	FullName string `json:"full_name" validate:"required,min=2,max=100"`
}

// RefreshRequest presents the last access token, expired or not, together
// with its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// LoginResponse is returned by register, login and admin login.
type LoginResponse struct {
	TokenPair
	User    *users.UserDTO       `json:"user"`
	Profile *profiles.ProfileDTO `json:"profile"`
}
