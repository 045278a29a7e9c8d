package service

import (
	"testing"
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T) *TokenService {
	t.Helper()

	signer, err := jwtx.GenerateSignerEdDSA("test-key")
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	return &TokenService{
		Signer:   signer,
		Verifier: jwtx.NewVerifierEdDSA(keys, "identity-test"),
		Issuer:   "identity-test",
		TTL:      30 * time.Minute,
	}
}

func TestTokenIssueParse(t *testing.T) {
	svc := newTokenService(t)
	user := domain.User{Email: "alice@example.com", Nickname: "alice", Active: true}

	token, err := svc.Issue(user)
	require.NoError(t, err)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", claims.Subject)
	require.Equal(t, "alice", claims.Nickname)
	require.Equal(t, "identity-test", claims.Issuer)
}

func TestTokenValidate(t *testing.T) {
	svc := newTokenService(t)
	user := domain.User{Email: "alice@example.com", Nickname: "alice", Active: true}

	token, err := svc.Issue(user)
	require.NoError(t, err)
	claims, err := svc.Parse(token)
	require.NoError(t, err)

	t.Run("valid against live state", func(t *testing.T) {
		require.True(t, svc.Validate(claims, user))
	})

	t.Run("subject must match the live account", func(t *testing.T) {
		other := user
		other.Email = "renamed@example.com"
		require.False(t, svc.Validate(claims, other))
	})

	t.Run("inactive account invalidates the token", func(t *testing.T) {
		disabled := user
		disabled.Active = false
		require.False(t, svc.Validate(claims, disabled))
	})

	t.Run("expiry is checked against the clock", func(t *testing.T) {
		svc.Now = func() time.Time { return time.Now().UTC().Add(31 * time.Minute) }
		require.False(t, svc.Validate(claims, user))
	})
}
