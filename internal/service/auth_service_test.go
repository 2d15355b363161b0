package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-substitution-api/internal/models"
	appErrors "github.com/noah-isme/sma-substitution-api/pkg/errors"
)

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "school-idp"})

	token, err := svc.IssueToken(models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin, SchoolID: "school-1"}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "school-1", claims.SchoolID)
	assert.True(t, claims.CanAccessSchool("school-1"))
	assert.False(t, claims.CanAccessSchool("school-2"))
}

func TestAuthServiceRejectsForeignTokens(t *testing.T) {
	issuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "other", Issuer: "school-idp"})
	token, err := issuer.IssueToken(models.JWTClaims{UserID: "u-1", Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "school-idp"})
	_, err = svc.ValidateToken(token)
	assert.True(t, appErrors.HasCode(err, appErrors.ErrUnauthorized))

	wrongIssuer := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "elsewhere"})
	token, err = wrongIssuer.IssueToken(models.JWTClaims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	assert.Error(t, err)

	expired, err := svc.IssueToken(models.JWTClaims{UserID: "u-1"}, -time.Minute)
	require.NoError(t, err)
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)
}
