package types

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims represents the claims in an identity provider access token
type SessionClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}
