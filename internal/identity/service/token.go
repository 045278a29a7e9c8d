package service

import (
	"time"

	"github.com/planitee/identity/internal/identity/domain"
	"github.com/planitee/identity/pkg/jwtx"
)

// TokenService mints and checks the access tokens carried in the session
// cookie. Tokens are bearer JWTs with the account email as subject.
type TokenService struct {
	Signer   *jwtx.EdDSASigner
	Verifier jwtx.Verifier
	Issuer   string

	// TTL falls back to jwtx.DefaultAccessTokenTTL when zero.
	TTL time.Duration

	// Now overrides the clock in tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *TokenService) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return jwtx.DefaultAccessTokenTTL
}

// Issue mints a signed access token for a user.
func (s *TokenService) Issue(user domain.User) (string, error) {
	claims := jwtx.NewAccessClaims(user.Email, user.Nickname, s.Issuer, s.ttl(), s.now())
	return s.Signer.Sign(claims)
}

// Parse verifies a token's signature and registered claims.
func (s *TokenService) Parse(token string) (jwtx.Claims, error) {
	return s.Verifier.Verify(token)
}

// Validate checks parsed claims against the live account: the subject must
// still match, the account must be active, and the token unexpired. A token
// is never trusted on its own claims alone.
func (s *TokenService) Validate(claims jwtx.Claims, user domain.User) bool {
	if claims.Subject != user.Email {
		return false
	}
	if !user.Active {
		return false
	}
	return s.now().Before(claims.Expiry())
}
