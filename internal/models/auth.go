package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims represents the JWT payload for access tokens issued by the
// school's identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	SchoolID string   `json:"school_id"`
	jwt.RegisteredClaims
}

// CanAccessSchool reports whether the token holder may act on schoolID.
func (c *JWTClaims) CanAccessSchool(schoolID string) bool {
	if c == nil {
		return false
	}
	if c.Role == RoleSuperAdmin {
		return true
	}
	return c.SchoolID != "" && c.SchoolID == schoolID
}
