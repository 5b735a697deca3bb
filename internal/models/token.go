package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Token kinds
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenClaims is the payload of both access and refresh tokens.
// TokenGeneration is compared against the user's current counter at
// verification time; a mismatch means the token was revoked by a logout.
type TokenClaims struct {
	Type            string `json:"type"`
	UserID          string `json:"user_id"`
	TokenGeneration int64  `json:"token_generation"`
	jwt.RegisteredClaims
}
