// Package httpx holds request helpers shared by the Fiber handlers.
package httpx

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

// DecodeJSON strictly decodes the request body into v. Malformed JSON,
// unknown fields and trailing data are rejected with 400.
func DecodeJSON(c *fiber.Ctx, v any) error {
	body := c.Body()
	if len(bytes.TrimSpace(body)) == 0 {
		return fiber.NewError(http.StatusBadRequest, "request body is required")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fiber.NewError(http.StatusBadRequest, "invalid request body: unexpected trailing data")
	}
	return nil
}
