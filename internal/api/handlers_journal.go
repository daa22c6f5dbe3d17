package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/services"
)

type journalRequest struct {
	Text string `json:"text" form:"text"`
}

// SubmitJournal never fails on collaborator errors; the body then carries
// the sentinel analysis with saved=false.
func (handler *Handler) SubmitJournal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input journalRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	analysis, err := handler.journalService.AnalyzeAndSave(c.UserContext(), user.ID, input.Text)
	if err != nil {
		if errors.Is(err, services.ErrJournalTextRequired) {
			return apiError(c, fiber.StatusBadRequest, "text is required")
		}
		return handler.internalError(c, "analyze journal", err)
	}

	status := fiber.StatusOK
	if analysis.Saved {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(analysis)
}

func (handler *Handler) ListJournal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	entries, err := handler.journalService.List(c.UserContext(), user.ID)
	if err != nil {
		return handler.internalError(c, "list journal", err)
	}
	return c.JSON(entries)
}

func (handler *Handler) GetJournalEntry(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	entry, err := handler.journalService.Get(c.UserContext(), user.ID, routeID(c))
	if err != nil {
		if errors.Is(err, services.ErrJournalEntryNotFound) {
			return apiError(c, fiber.StatusNotFound, "journal entry not found")
		}
		return handler.internalError(c, "load journal entry", err)
	}
	return c.JSON(entry)
}

func (handler *Handler) DeleteJournalEntry(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := handler.journalService.Delete(c.UserContext(), user.ID, routeID(c)); err != nil {
		if errors.Is(err, services.ErrJournalEntryNotFound) {
			return apiError(c, fiber.StatusNotFound, "journal entry not found")
		}
		return handler.internalError(c, "delete journal entry", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) StreamJournal(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID := user.ID
	return streamSnapshots(c, handler, realtime.UserTopic(userID, realtime.CollectionJournal),
		func(ctx context.Context) ([]models.JournalEntry, error) {
			return handler.journalService.List(ctx, userID)
		})
}
