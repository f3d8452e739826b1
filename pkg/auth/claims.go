package auth

import (
	"github.com/angelmondragon/bakery-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Role   enums.ProfileRole
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. Role is a
// snapshot taken at login; admin routes re-read it from the profile row.
type AccessTokenClaims struct {
	UserID uuid.UUID         `json:"user_id"`
	Role   enums.ProfileRole `json:"role"`
	jwt.RegisteredClaims
}
