package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/angelmondragon/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	// Subject identifies the staff member. It is recorded as the audit actor.
	Subject string
	Role    enums.StaffRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT carried by back office requests.
type AccessTokenClaims struct {
	Role enums.StaffRole `json:"role"`
	jwt.RegisteredClaims
}
