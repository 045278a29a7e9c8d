package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/planitee/identity/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, signer *jwtx.EdDSASigner, issuer string) jwtx.Verifier {
	t.Helper()

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	return jwtx.NewVerifierEdDSA(keys, issuer)
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.GenerateSignerEdDSA("test-key")
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("user@example.com", "traveller", "identity-test", time.Minute, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	got, err := newTestVerifier(t, signer, "identity-test").Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", got.Subject)
	require.Equal(t, "traveller", got.Nickname)
	require.False(t, got.Expiry().IsZero())
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.GenerateSignerEdDSA("test-key")
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("user@example.com", "", "other-issuer", time.Minute, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = newTestVerifier(t, signer, "identity-test").Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.GenerateSignerEdDSA("test-key")
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("user@example.com", "", "identity-test", time.Minute, time.Now().Add(-time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	_, err = newTestVerifier(t, signer, "identity-test").Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsUnknownKeyAndTampering(t *testing.T) {
	t.Parallel()

	signer, err := jwtx.GenerateSignerEdDSA("key-a")
	require.NoError(t, err)
	other, err := jwtx.GenerateSignerEdDSA("key-a") // same kid, different keypair
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("user@example.com", "", "identity-test", time.Minute, time.Now())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Verifier only knows the other keypair, signature check must fail.
	_, err = newTestVerifier(t, other, "identity-test").Verify(token)
	require.Error(t, err)

	// Tokens signed with a different algorithm are rejected outright.
	hs := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user@example.com"})
	forged, err := hs.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = newTestVerifier(t, signer, "identity-test").Verify(forged)
	require.Error(t, err)
}
