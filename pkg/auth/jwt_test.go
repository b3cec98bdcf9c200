package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenIssuer_RejectsEmptySecretOrLifetime(t *testing.T) {
	_, err := NewTokenIssuer("", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenIssuer("secret", 0)
	assert.Error(t, err)
}

func TestIssueAndVerify_RoundTrips(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := issuer.Issue("user-1", string(RoleAdmin), now)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, string(RoleAdmin), claims.Role)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Millisecond)
	require.NoError(t, err)

	token, err := issuer.Issue("user-1", string(RoleUser), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestVerify_RejectsTamperedToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	other, err := NewTokenIssuer("a-different-secret", time.Hour)
	require.NoError(t, err)

	token, err := other.Issue("user-1", string(RoleUser), time.Now().UTC())
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
