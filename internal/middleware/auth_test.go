package middleware

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/haunted-atlas/haunted_atlas/internal/auth"
)

func authApp(tokens *auth.Tokens) *fiber.App {
	app := fiber.New()
	app.Get("/protected", RequireAuth(tokens), func(c *fiber.Ctx) error {
		claims, ok := auth.ClaimsFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(claims.Username)
	})
	app.Get("/optional", OptionalAuth(tokens), func(c *fiber.Ctx) error {
		if claims, ok := auth.ClaimsFrom(c); ok {
			return c.SendString(claims.Username)
		}
		return c.SendString("anonymous")
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, path, authz string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if authz != "" {
		req.Header.Set(fiber.HeaderAuthorization, authz)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	valid, err := tokens.Issue(auth.Claims{Subject: "u1", Username: "casper"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	forged, err := auth.NewTokens("other", time.Hour).Issue(auth.Claims{Subject: "u1", Username: "casper"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	expired, err := auth.NewTokens("secret", -time.Minute).Issue(auth.Claims{Subject: "u1", Username: "casper"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	cases := []struct {
		name   string
		authz  string
		status int
		body   string
	}{
		{"missing header", "", fiber.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", fiber.StatusUnauthorized, ""},
		{"empty bearer", "Bearer   ", fiber.StatusUnauthorized, ""},
		{"garbage token", "Bearer abc", fiber.StatusForbidden, ""},
		{"forged token", "Bearer " + forged, fiber.StatusForbidden, ""},
		{"expired token", "Bearer " + expired, fiber.StatusForbidden, ""},
		{"valid token", "Bearer " + valid, fiber.StatusOK, "casper"},
		{"lowercase scheme", "bearer " + valid, fiber.StatusOK, "casper"},
	}

	app := authApp(tokens)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := doGet(t, app, "/protected", tc.authz)
			if status != tc.status {
				t.Fatalf("expected %d got %d", tc.status, status)
			}
			if tc.body != "" && body != tc.body {
				t.Fatalf("expected body %q got %q", tc.body, body)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := auth.NewTokens("secret", time.Hour)
	valid, err := tokens.Issue(auth.Claims{Subject: "u1", Username: "casper"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	app := authApp(tokens)

	if status, body := doGet(t, app, "/optional", ""); status != fiber.StatusOK || body != "anonymous" {
		t.Fatalf("no token: %d %q", status, body)
	}
	if status, body := doGet(t, app, "/optional", "Bearer junk"); status != fiber.StatusOK || body != "anonymous" {
		t.Fatalf("bad token: %d %q", status, body)
	}
	if status, body := doGet(t, app, "/optional", "Bearer "+valid); status != fiber.StatusOK || body != "casper" {
		t.Fatalf("valid token: %d %q", status, body)
	}
}

func TestRequestIDEchoesOrGenerates(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(RequestIDFrom(c)) })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "req-42")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); got != "req-42" {
		t.Fatalf("expected echoed id, got %q", got)
	}

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if got := resp.Header.Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected generated uuid, got %q", got)
	}
}
