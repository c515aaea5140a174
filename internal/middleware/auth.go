package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
	"github.com/haunted-atlas/haunted_atlas/internal/metrics"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// RequireAuth rejects requests without a bearer token (401) or with one the
// verifier refuses (403). Verified claims are attached for downstream handlers.
func RequireAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			metrics.TokenRejectionsTotal.WithLabelValues("missing").Inc()
			return fiber.NewError(http.StatusUnauthorized, "Access token required")
		}
		claims, err := verifier.Verify(token)
		if err != nil {
			reason := "invalid"
			if errors.Is(err, auth.ErrExpiredToken) {
				reason = "expired"
			}
			metrics.TokenRejectionsTotal.WithLabelValues(reason).Inc()
			return fiber.NewError(http.StatusForbidden, "Invalid or expired token")
		}
		auth.SetClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth attaches claims when a valid bearer token is present and
// otherwise lets the request through untouched.
func OptionalAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := verifier.Verify(token); err == nil {
				auth.SetClaims(c, claims)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if len(authz) < len("Bearer ") || !strings.EqualFold(authz[:len("Bearer ")], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	return token, token != ""
}
