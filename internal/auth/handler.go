package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/httpx"
	"github.com/haunted-atlas/haunted_atlas/internal/metrics"
	"github.com/haunted-atlas/haunted_atlas/internal/users"
)

// Handler exposes register/login/logout/verify endpoints.
type Handler struct {
	users  *users.Service
	svc    *Service
	logger *slog.Logger
}

// NewHandler wires the auth endpoints to the user and token services.
func NewHandler(userSvc *users.Service, svc *Service, logger *slog.Logger) *Handler {
	return &Handler{users: userSvc, svc: svc, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// Register creates an account. No token is issued; callers log in separately.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := httpx.DecodeJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.Register(c.UserContext(), users.Credentials{Username: req.Username, Password: req.Password})
	switch {
	case errors.Is(err, users.ErrMissingCredentials):
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.OutcomeInvalid).Inc()
		return fiber.NewError(http.StatusBadRequest, "Username and password are required")
	case errors.Is(err, users.ErrPasswordTooLong):
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.OutcomeInvalid).Inc()
		return fiber.NewError(http.StatusBadRequest, "Password must be at most 72 bytes")
	case errors.Is(err, users.ErrDuplicateUsername):
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.OutcomeDuplicate).Inc()
		return fiber.NewError(http.StatusBadRequest, "Username already exists")
	case err != nil:
		metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.OutcomeError).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("register", metrics.OutcomeSuccess).Inc()
	h.logger.Info("user registered", slog.String("user_id", user.ID), slog.String("username", user.Username))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"message": "User registered successfully"})
}

// Login validates credentials and returns a bearer token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := httpx.DecodeJSON(c, &req); err != nil {
		return err
	}
	session, err := h.svc.Login(c.UserContext(), users.Credentials{Username: req.Username, Password: req.Password})
	switch {
	case errors.Is(err, users.ErrMissingCredentials):
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.OutcomeInvalid).Inc()
		return fiber.NewError(http.StatusBadRequest, "Username and password are required")
	case errors.Is(err, users.ErrInvalidCredentials):
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.OutcomeFailure).Inc()
		return fiber.NewError(http.StatusBadRequest, "Invalid username or password")
	case err != nil:
		metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.OutcomeError).Inc()
		return err
	}

	metrics.AuthAttemptsTotal.WithLabelValues("login", metrics.OutcomeSuccess).Inc()
	return c.Status(http.StatusOK).JSON(loginResponse{Token: session.Token, Username: session.Username})
}

// Logout acknowledges a client-side token discard. Tokens are stateless, so
// nothing is invalidated server side.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if claims, ok := ClaimsFrom(c); ok {
		h.logger.Debug("user logged out", slog.String("username", claims.Username))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Logged out successfully"})
}

// Verify echoes the username of a valid token.
func (h *Handler) Verify(c *fiber.Ctx) error {
	claims, ok := ClaimsFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "Access token required")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"username": claims.Username})
}
