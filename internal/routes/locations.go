package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
	"github.com/haunted-atlas/haunted_atlas/internal/locations"
	"github.com/haunted-atlas/haunted_atlas/internal/middleware"
)

// RegisterLocationRoutes wires the public listing and the authenticated submission endpoint.
func RegisterLocationRoutes(r fiber.Router, h *locations.Handler, tokens *auth.Tokens, idempotency fiber.Handler) {
	r.Get("/locations", h.List)
	r.Get("/locations/:id", h.Get)
	r.Post("/locations", chain(middleware.RequireAuth(tokens), idempotency, h.Create)...)
}
