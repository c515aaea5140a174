package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/haunted-atlas/haunted_atlas/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *int32) {
	t.Helper()
	mr := miniredis.RunT(t)

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { cache.Close() })

	var calls int32
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))
	app.Post("/locations", func(c *fiber.Ctx) error {
		n := atomic.AddInt32(&calls, 1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": n})
	})
	app.Post("/invalid", func(c *fiber.Ctx) error {
		atomic.AddInt32(&calls, 1)
		return fiber.NewError(fiber.StatusBadRequest, "nope")
	})

	return app, &calls
}

func postWithKey(t *testing.T, app *fiber.App, path, key string) (int, string) {
	t.Helper()
	return postBodyWithKey(t, app, path, key, "{}")
}

func postBodyWithKey(t *testing.T, app *fiber.App, path, key, body string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(body))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if key != "" {
		req.Header.Set(idempotencyKeyHeader, key)
	}
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(respBody)
}

func TestIdempotencyWithoutHeaderPassesThrough(t *testing.T) {
	app, calls := setupTestApp(t)

	postWithKey(t, app, "/locations", "")
	postWithKey(t, app, "/locations", "")

	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected handler to run twice, ran %d times", got)
	}
}

func TestIdempotencyReturnsCachedResponse(t *testing.T) {
	app, calls := setupTestApp(t)

	status, payload := postWithKey(t, app, "/locations", "abc123")
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	// Second request should return the cached response without invoking handler again.
	status2, cachedPayload := postWithKey(t, app, "/locations", "abc123")
	if status2 != fiber.StatusCreated {
		t.Fatalf("expected cached status %d got %d", fiber.StatusCreated, status2)
	}
	if cachedPayload != payload {
		t.Fatalf("expected cached payload %s got %s", payload, cachedPayload)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected handler to run once, ran %d times", got)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cachedPayload), &decoded); err != nil {
		t.Fatalf("cached payload invalid json: %v", err)
	}
}

func TestIdempotencyDoesNotCacheErrors(t *testing.T) {
	app, calls := setupTestApp(t)

	postWithKey(t, app, "/invalid", "k1")
	postWithKey(t, app, "/invalid", "k1")

	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected failed requests to be retried, ran %d times", got)
	}
}

func TestIdempotencyScopesKeysByPath(t *testing.T) {
	app, calls := setupTestApp(t)

	postWithKey(t, app, "/locations", "shared")
	status, _ := postWithKey(t, app, "/invalid", "shared")

	if status != fiber.StatusBadRequest {
		t.Fatalf("expected /invalid handler to run, got %d", status)
	}
	if got := atomic.LoadInt32(calls); got != 2 {
		t.Fatalf("expected 2 calls, got %d", got)
	}
}

func TestIdempotencyRejectsReusedKeyWithDifferentBody(t *testing.T) {
	app, calls := setupTestApp(t)

	status, _ := postBodyWithKey(t, app, "/locations", "k1", `{"name":"a"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected status %d got %d", fiber.StatusCreated, status)
	}

	status, _ = postBodyWithKey(t, app, "/locations", "k1", `{"name":"b"}`)
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected status %d got %d", fiber.StatusUnprocessableEntity, status)
	}
	if got := atomic.LoadInt32(calls); got != 1 {
		t.Fatalf("expected handler to run once, ran %d times", got)
	}

	status, _ = postBodyWithKey(t, app, "/locations", "k1", `{"name":"a"}`)
	if status != fiber.StatusCreated {
		t.Fatalf("expected replay of original body, got %d", status)
	}
}
