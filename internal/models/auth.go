package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens.
// SchoolID is empty for platform operators (SUPERADMIN) that span tenants.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	SchoolID string   `json:"school_id,omitempty"`
	Email    string   `json:"email"`
	jwt.RegisteredClaims
}
