package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures and unexpected algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned for correctly signed tokens past their expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims is the verified identity carried by a bearer token.
type Claims struct {
	Subject   string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type tokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256 bearer tokens with a fixed lifetime.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens builds a token issuer/verifier around a process-wide secret.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL reports the lifetime of issued tokens.
func (t *Tokens) TTL() time.Duration {
	return t.ttl
}

// Issue signs a token for the given identity. IssuedAt/ExpiresAt on the input are ignored.
func (t *Tokens) Issue(c Claims) (string, error) {
	now := t.now()
	claims := tokenClaims{
		Username: c.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the embedded identity.
func (t *Tokens) Verify(token string) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)

	var claims tokenClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Username == "" {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{Subject: claims.Subject, Username: claims.Username}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
