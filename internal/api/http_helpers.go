package api

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/models"
)

var errInvalidRequestBody = errors.New("invalid request body")

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// parseBody tolerates an empty body so optional payloads decode to zero values.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return errInvalidRequestBody
	}
	return nil
}

func currentUser(c *fiber.Ctx) (*models.User, bool) {
	user, ok := c.Locals(contextUserKey).(*models.User)
	return user, ok && user != nil
}

func routeID(c *fiber.Ctx) string {
	return strings.TrimSpace(c.Params("id"))
}

func (handler *Handler) internalError(c *fiber.Ctx, action string, err error) error {
	handler.log.Error(action+" failed", "path", c.Path(), "error", err)
	return apiError(c, fiber.StatusInternalServerError, "internal error")
}
