package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/services"
)

type loginRequest struct {
	Email      string `json:"email" form:"email"`
	Password   string `json:"password" form:"password"`
	RememberMe bool   `json:"remember_me" form:"remember_me"`
}

func (handler *Handler) Register(c *fiber.Ctx) error {
	var input services.RegistrationInput
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := handler.authService.Register(c.UserContext(), input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAuthEmailExists):
			return apiError(c, fiber.StatusConflict, "email already registered")
		case errors.Is(err, services.ErrAuthPasswordMismatch):
			return apiError(c, fiber.StatusBadRequest, "passwords do not match")
		case errors.Is(err, services.ErrWeakPassword):
			return apiError(c, fiber.StatusBadRequest, "password is too weak")
		case errors.Is(err, services.ErrAuthDisplayNameNeeded):
			return apiError(c, fiber.StatusBadRequest, "display name is required")
		case errors.Is(err, services.ErrDisplayNameTooLong):
			return apiError(c, fiber.StatusBadRequest, "display name is too long")
		case errors.Is(err, services.ErrAuthRegisterInvalid):
			return apiError(c, fiber.StatusBadRequest, "email and password are required")
		default:
			return handler.internalError(c, "register", err)
		}
	}

	token, err := handler.buildToken(user.ID, defaultTokenTTL)
	if err != nil {
		return handler.internalError(c, "issue token", err)
	}
	handler.setAuthCookie(c, token, defaultTokenTTL)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"user": user, "token": token})
}

func (handler *Handler) Login(c *fiber.Ctx) error {
	limiterKey := requestLimiterKey(c)
	if handler.loginLimiter.blocked(limiterKey, handler.now()) {
		return apiError(c, fiber.StatusTooManyRequests, "too many login attempts")
	}

	var input loginRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	user, err := handler.authService.Authenticate(c.UserContext(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrAuthCredentialsInvalid) {
			handler.loginLimiter.addFailure(limiterKey, handler.now())
			return apiError(c, fiber.StatusUnauthorized, "invalid credentials")
		}
		return handler.internalError(c, "login", err)
	}
	handler.loginLimiter.reset(limiterKey)

	ttl := defaultTokenTTL
	if input.RememberMe {
		ttl = rememberMeTTL
	}
	token, err := handler.buildToken(user.ID, ttl)
	if err != nil {
		return handler.internalError(c, "issue token", err)
	}
	handler.setAuthCookie(c, token, ttl)
	return c.JSON(fiber.Map{"user": user, "token": token})
}

func (handler *Handler) Logout(c *fiber.Ctx) error {
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) Me(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return c.JSON(user)
}
