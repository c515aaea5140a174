package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// errorHandler renders every error as {"message": ...}. Errors that are not
// *fiber.Error are internal failures: their detail is logged by the audit
// middleware and never sent to the client.
func errorHandler(c *fiber.Ctx, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		if status < http.StatusInternalServerError {
			message = fe.Message
		}
	}

	return c.Status(status).JSON(fiber.Map{"message": message})
}
