package auth

import "github.com/gofiber/fiber/v2"

type claimsKey struct{}

// SetClaims attaches verified claims to the request.
func SetClaims(c *fiber.Ctx, claims Claims) {
	c.Locals(claimsKey{}, claims)
}

// ClaimsFrom returns the claims attached by the auth middleware, if any.
func ClaimsFrom(c *fiber.Ctx) (Claims, bool) {
	claims, ok := c.Locals(claimsKey{}).(Claims)
	return claims, ok
}
