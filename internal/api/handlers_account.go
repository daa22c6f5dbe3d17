package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/services"
)

type profileRequest struct {
	DisplayName string `json:"display_name" form:"display_name"`
}

type reminderSettingsRequest struct {
	TelegramChatID string `json:"telegram_chat_id" form:"telegram_chat_id"`
	Timezone       string `json:"timezone" form:"timezone"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password"`
	NewPassword     string `json:"new_password" form:"new_password"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

type deleteAccountRequest struct {
	Password string `json:"password" form:"password"`
}

func (handler *Handler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input profileRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	displayName, err := handler.accountService.UpdateDisplayName(c.UserContext(), user.ID, input.DisplayName)
	if err != nil {
		if errors.Is(err, services.ErrDisplayNameTooLong) {
			return apiError(c, fiber.StatusBadRequest, "display name is too long")
		}
		return handler.internalError(c, "update profile", err)
	}
	return c.JSON(fiber.Map{"display_name": displayName})
}

// UpdateReminderSettings links the Telegram chat that receives the user's
// bedtime reminders and the timezone their schedules are read in.
func (handler *Handler) UpdateReminderSettings(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input reminderSettingsRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	settings, err := handler.accountService.UpdateReminderSettings(c.UserContext(), user.ID, input.TelegramChatID, input.Timezone)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTelegramChatIDInvalid):
			return apiError(c, fiber.StatusBadRequest, "telegram chat id must be numeric or an @channel name")
		case errors.Is(err, services.ErrTimezoneInvalid):
			return apiError(c, fiber.StatusBadRequest, "unknown timezone")
		default:
			return handler.internalError(c, "update reminder settings", err)
		}
	}
	return c.JSON(settings)
}

func (handler *Handler) ChangePassword(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input changePasswordRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	err := handler.accountService.ChangePassword(c.UserContext(), user.ID, input.CurrentPassword, input.NewPassword, input.ConfirmPassword)
	if err != nil {
		status, message := passwordChangeErrorResponse(err)
		if status == fiber.StatusInternalServerError {
			return handler.internalError(c, "change password", err)
		}
		return apiError(c, status, message)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func passwordChangeErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrPasswordChangeInvalidInput):
		return fiber.StatusBadRequest, "all password fields are required"
	case errors.Is(err, services.ErrPasswordChangeMismatch):
		return fiber.StatusBadRequest, "passwords do not match"
	case errors.Is(err, services.ErrPasswordChangeInvalidCurrent):
		return fiber.StatusUnauthorized, "current password is incorrect"
	case errors.Is(err, services.ErrPasswordChangeMustDiffer):
		return fiber.StatusBadRequest, "new password must differ from the current one"
	case errors.Is(err, services.ErrPasswordChangeWeak):
		return fiber.StatusBadRequest, "password is too weak"
	default:
		return fiber.StatusInternalServerError, "internal error"
	}
}

func (handler *Handler) DeleteAccount(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input deleteAccountRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := handler.accountService.DeleteAccount(c.UserContext(), user.ID, input.Password); err != nil {
		switch {
		case errors.Is(err, services.ErrAccountPasswordMissing):
			return apiError(c, fiber.StatusBadRequest, "password is required")
		case errors.Is(err, services.ErrAccountPasswordInvalid):
			return apiError(c, fiber.StatusUnauthorized, "password is incorrect")
		default:
			return handler.internalError(c, "delete account", err)
		}
	}

	handler.taskService.DiscardSessions(user.ID)
	handler.clearAuthCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}
