package locations

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
	"github.com/haunted-atlas/haunted_atlas/internal/httpx"
	"github.com/haunted-atlas/haunted_atlas/internal/metrics"
)

// Handler exposes location HTTP endpoints.
type Handler struct {
	service *Service
	logger  *slog.Logger
}

// NewHandler builds a location HTTP handler.
func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// coordinate accepts a JSON number or a numeric string. Anything else is kept
// verbatim so the service can report it as not a number.
type coordinate string

func (c *coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = coordinate(s)
	default:
		*c = coordinate(data)
	}
	return nil
}

type createRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Latitude    coordinate `json:"latitude"`
	Longitude   coordinate `json:"longitude"`
	Behavior    string     `json:"behavior"`
	Documented  bool       `json:"documented"`
}

type creatorResponse struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
}

type locationResponse struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	Behavior    string           `json:"behavior,omitempty"`
	Documented  bool             `json:"documented"`
	CreatedBy   *creatorResponse `json:"createdBy,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

func toResponse(loc Location) locationResponse {
	resp := locationResponse{
		ID:          loc.ID,
		Name:        loc.Name,
		Description: loc.Description,
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		Behavior:    loc.Behavior,
		Documented:  loc.Documented,
		CreatedAt:   loc.CreatedAt,
	}
	if loc.CreatedBy != "" {
		resp.CreatedBy = &creatorResponse{ID: loc.CreatedBy, Username: loc.CreatorUsername}
	}
	return resp
}

// List returns every location.
func (h *Handler) List(c *fiber.Ctx) error {
	locs, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	out := make([]locationResponse, 0, len(locs))
	for _, loc := range locs {
		out = append(out, toResponse(loc))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Get returns a single location.
func (h *Handler) Get(c *fiber.Ctx) error {
	loc, err := h.service.Get(c.UserContext(), c.Params("id"))
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "Location not found")
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(toResponse(loc))
}

// Create stores a location attributed to the authenticated caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "Access token required")
	}

	var req createRequest
	if err := httpx.DecodeJSON(c, &req); err != nil {
		return err
	}

	loc, err := h.service.Create(c.UserContext(), CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Latitude:    string(req.Latitude),
		Longitude:   string(req.Longitude),
		Behavior:    req.Behavior,
		Documented:  req.Documented,
		CreatorID:   claims.Subject,
	})
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fiber.NewError(http.StatusBadRequest, verr.Error())
	}
	if err != nil {
		return err
	}

	metrics.LocationsCreatedTotal.Inc()
	h.logger.Info("location created",
		slog.String("location_id", loc.ID),
		slog.String("user_id", claims.Subject),
	)
	return c.Status(http.StatusCreated).JSON(toResponse(loc))
}
