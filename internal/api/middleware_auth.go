package api

import (
	"github.com/gofiber/fiber/v2"
)

func (handler *Handler) AuthRequired(c *fiber.Ctx) error {
	raw, err := requestToken(c)
	if err != nil {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	claims, err := handler.parseToken(raw)
	if err != nil {
		handler.clearAuthCookie(c)
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	user, err := handler.authService.FindByID(c.UserContext(), claims.UserID)
	if err != nil {
		handler.clearAuthCookie(c)
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(contextUserKey, &user)
	return c.Next()
}
