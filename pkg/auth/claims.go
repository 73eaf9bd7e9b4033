package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the data available when minting a token.
type SessionTokenPayload struct {
	UserID uuid.UUID
}

// SessionTokenClaims represents the typed JWT issued to clients. There is no
// expiry claim: tokens remain valid until the signing secret rotates.
type SessionTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}
