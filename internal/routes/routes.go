package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
	"github.com/haunted-atlas/haunted_atlas/internal/config"
	"github.com/haunted-atlas/haunted_atlas/internal/locations"
	"github.com/haunted-atlas/haunted_atlas/internal/middleware"
	"github.com/haunted-atlas/haunted_atlas/internal/users"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB presence outside of dev, even though config also checks.
	if !d.Cfg.IsDev() && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	if d.Cfg.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	// Middlewares
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: d.Cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Idempotency-Key, X-Request-ID",
		AllowMethods: "GET,POST,OPTIONS",
	}))

	// Health and metrics
	RegisterHealthRoutes(app, d)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Stores
	var (
		userRepo     users.Repository
		locationRepo locations.Repository
	)
	if d.DB != nil {
		userRepo = users.NewPostgresRepository(d.DB)
		locationRepo = locations.NewPostgresRepository(d.DB)
	} else {
		d.Logger.Warn("DATABASE_URL not set, using in-memory stores")
		userRepo = users.NewMemoryRepository()
		locationRepo = locations.NewMemoryRepository()
	}

	// Services and handlers
	tokens := auth.NewTokens(d.Cfg.JWTSecret, d.Cfg.JWTTTL)
	userSvc := users.NewService(userRepo, users.NewBcryptHasher(d.Cfg.BcryptCost))
	authSvc := auth.NewService(userSvc, tokens)
	locationSvc := locations.NewService(locationRepo, userRepo)

	authHandler := auth.NewHandler(userSvc, authSvc, d.Logger)
	locationHandler := locations.NewHandler(locationSvc, d.Logger)

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger)
	}

	// API routes
	api := app.Group("/api")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterAuthRoutes(api, authHandler, tokens, idempotency)
	RegisterLocationRoutes(api, locationHandler, tokens, idempotency)

	return nil
}

// chain drops nil handlers so optional middleware can be passed unconditionally.
func chain(handlers ...fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			out = append(out, h)
		}
	}
	return out
}
