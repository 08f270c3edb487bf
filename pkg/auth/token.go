// Package auth verifies and issues the capability tokens that gate the LFS
// gateway. Tokens are HS256 JSON Web Tokens signed with a symmetric secret
// shared with the issuer; validity is purely cryptographic and time-based,
// nothing is persisted server-side.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jeffthecoder/gitview/pkg/proto"
)

// Scheme is the accepted Authorization scheme, matched case-insensitively.
const Scheme = "token"

// Claims is the wire shape of a capability token.
type Claims struct {
	// Command is the operation the token is bound to, "download" or "upload".
	Command string `json:"command"`

	jwt.RegisteredClaims
}

// Token is a verified capability.
type Token struct {
	Subject   string
	Command   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Authenticator verifies Authorization headers.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator returns an authenticator using the given shared secret.
// An empty secret fails every request closed.
func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate parses and verifies an Authorization header value. The header
// must be of the form "Token <jwt>"; any other scheme, a malformed header,
// a bad signature, or a token outside its validity window all fail with
// ErrUnauthenticated. There is no anonymous fallback.
func (a *Authenticator) Authenticate(header string) (*Token, error) {
	if len(a.secret) == 0 {
		return nil, proto.ErrUnauthenticated
	}

	if header == "" {
		return nil, proto.ErrUnauthenticated
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], Scheme) {
		return nil, proto.ErrUnauthenticated
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(parts[1], &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, proto.ErrUnauthenticated
	}

	if claims.Command == "" || claims.Subject == "" ||
		claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return nil, proto.ErrUnauthenticated
	}

	return &Token{
		Subject:   claims.Subject,
		Command:   claims.Command,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Allows reports whether the token covers the given operation. A token is
// bound to exactly one command; anything else is ErrForbidden.
func (t *Token) Allows(operation string) error {
	if t.Command != operation {
		return proto.ErrForbidden
	}
	return nil
}

// Issue mints a capability token bound to the given subject and command.
func (a *Authenticator) Issue(subject, command string, now time.Time, expiry time.Duration) (string, error) {
	if len(a.secret) == 0 {
		return "", errors.New("auth: empty secret")
	}

	claims := Claims{
		Command: command,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}
