package clerk

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookie is the cookie the provider's frontend SDK stores the session
// token in.
const SessionCookie = "__session"

var (
	// ErrNoToken means the request carried no session token at all.
	ErrNoToken = errors.New("no session token")
	// ErrInvalidToken means a token was present but failed verification.
	ErrInvalidToken = errors.New("invalid session token")
)

// TokenVerifier validates RS256 session tokens issued by the provider using
// the instance's PEM public key.
type TokenVerifier struct {
	parser *jwt.Parser
	key    interface{}
}

// NewTokenVerifier parses pemKey. Literal "\n" sequences, as found in
// single-line environment values, are accepted.
func NewTokenVerifier(pemKey string) (*TokenVerifier, error) {
	pemKey = strings.ReplaceAll(pemKey, `\n`, "\n")
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
	if err != nil {
		return nil, fmt.Errorf("parse session token key: %w", err)
	}

	return &TokenVerifier{
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{"RS256"}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(5*time.Second),
		),
		key: key,
	}, nil
}

// Verify checks the token signature and lifetime and returns the provider
// user id from its subject claim.
func (v *TokenVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrNoToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// TokenFromRequest picks the session token from an Authorization bearer
// header, falling back to the session cookie.
func TokenFromRequest(authorization, cookie string) string {
	if scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(token)
	}
	return strings.TrimSpace(cookie)
}
