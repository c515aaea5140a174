package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
	"github.com/haunted-atlas/haunted_atlas/internal/middleware"
)

// RegisterAuthRoutes wires registration, login, logout and token verification.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, tokens *auth.Tokens, idempotency fiber.Handler) {
	r.Post("/register", chain(idempotency, h.Register)...)
	r.Post("/login", h.Login)
	r.Post("/logout", middleware.OptionalAuth(tokens), h.Logout)
	r.Get("/verify", middleware.RequireAuth(tokens), h.Verify)
}
