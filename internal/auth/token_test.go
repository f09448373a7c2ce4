package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civicpulse/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	role := domain.RoleWardOfficer
	token, expiresAt, err := tm.GenerateToken("official-1", domain.SubjectTypeOfficial, &role)
	require.NoError(t, err)
	assert.False(t, expiresAt.IsZero())

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "official-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeOfficial, claims.Subject)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.RoleWardOfficer, *claims.Role)
}

func TestTokenRoundTripWithoutRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	token, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser, nil)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeUser, claims.Subject)
	assert.Nil(t, claims.Role)
}

func TestTokenWrongSecretRejected(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken("user-1", domain.SubjectTypeUser, nil)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	assert.Error(t, err)
}
