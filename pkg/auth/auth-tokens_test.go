package auth

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

var alice = User{Id: 7, Login: "alice", Email: "alice@example.com", RoleId: 2}

func TestNewIssuerValidation(t *testing.T) {
	_, err := NewIssuer("", time.Hour)
	assert.ErrorIs(t, err, ErrMissingSecret)

	_, err = NewIssuer("secret", 0)
	assert.Error(t, err)
}

func TestIssueVerify(t *testing.T) {
	issuer, err := NewIssuer("secret", 5*time.Hour)
	require.NoError(t, err)

	token, expires, err := issuer.Issue(alice)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Hour), expires, time.Minute)

	user, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, alice, user)
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewIssuer("secret", time.Hour)
	forger, _ := NewIssuer("another secret", time.Hour)

	token, _, err := forger.Issue(alice)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer, _ := NewIssuer("secret", 5*time.Hour)
	var past, _ = NewIssuer("secret", 5*time.Hour)
	past.now = func() time.Time { return time.Now().Add(-6 * time.Hour) }

	token, _, err := past.Issue(alice)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer, _ := NewIssuer("secret", time.Hour)
	_, err := issuer.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestHasher(t *testing.T) {
	var hasher = Hasher{Cost: 4}
	hash, err := hasher.Hash("password")
	require.NoError(t, err)
	assert.NotEqual(t, "password", hash)
	assert.True(t, hasher.Matches(hash, "password"))
	assert.False(t, hasher.Matches(hash, "Password"))
}

func TestResetTokensAreUnique(t *testing.T) {
	first, err := newResetToken()
	require.NoError(t, err)
	second, err := newResetToken()
	require.NoError(t, err)
	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
