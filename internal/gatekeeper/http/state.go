package http

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultStateTTL bounds how long a consent round trip may take.
const DefaultStateTTL = 15 * time.Minute

var ErrInvalidState = errors.New("invalid or expired state parameter")

// StateSigner mints and verifies the OAuth2 state parameter as a
// short-lived HS256 token, so the value that comes back from the
// provider is provably one we handed out recently.
type StateSigner struct {
	Secret []byte

	// TTL is the state validity window. Zero means DefaultStateTTL.
	TTL time.Duration

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

func (s *StateSigner) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *StateSigner) ttl() time.Duration {
	if s.TTL > 0 {
		return s.TTL
	}
	return DefaultStateTTL
}

// Mint produces a fresh signed state value.
func (s *StateSigner) Mint() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    "gatekeeper",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl())),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// Verify checks that state is one of ours and still fresh.
func (s *StateSigner) Verify(state string) error {
	_, err := jwt.ParseWithClaims(
		state,
		&jwt.RegisteredClaims{},
		func(*jwt.Token) (any, error) { return s.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer("gatekeeper"),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ErrInvalidState
	}
	return nil
}
