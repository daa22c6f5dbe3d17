package api

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/services"
)

type generateTasksRequest struct {
	Summary string `json:"summary" form:"summary"`
}

type saveTasksRequest struct {
	EntryID string `json:"entry_id" form:"entry_id"`
}

func (handler *Handler) GenerateTasks(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input generateTasksRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(handler.taskService.Generate(c.UserContext(), user.ID, input.Summary))
}

func (handler *Handler) SpinTasks(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	view, err := handler.taskService.Draw(user.ID, routeID(c))
	if err != nil {
		return handler.taskError(c, "spin", err)
	}
	return c.JSON(view)
}

func (handler *Handler) SaveTasks(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input saveTasksRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	view, err := handler.taskService.SaveSelected(c.UserContext(), user.ID, routeID(c), input.EntryID)
	if err != nil {
		return handler.taskError(c, "save tasks", err)
	}
	return c.JSON(view)
}

func (handler *Handler) TodayTasks(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	view, err := handler.taskService.LoadSaved(c.UserContext(), user.ID)
	if err != nil {
		return handler.taskError(c, "load today tasks", err)
	}
	return c.JSON(view)
}

// StreamTodayTasks pushes the saved task set, or null before anything is saved.
func (handler *Handler) StreamTodayTasks(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID := user.ID
	return streamSnapshots(c, handler, realtime.UserTopic(userID, realtime.CollectionDailyTasks),
		func(ctx context.Context) (*models.DailyTaskSet, error) {
			return handler.taskService.Today(ctx, userID)
		})
}

func (handler *Handler) taskError(c *fiber.Ctx, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrSpinSessionNotFound):
		return apiError(c, fiber.StatusNotFound, "spin session not found")
	case errors.Is(err, services.ErrSpinRoundIncomplete):
		return apiError(c, fiber.StatusConflict, "finish spinning before saving")
	case errors.Is(err, services.ErrNoSavedTasks):
		return apiError(c, fiber.StatusNotFound, "no tasks saved today")
	case errors.Is(err, services.ErrJournalEntryNotFound):
		return apiError(c, fiber.StatusNotFound, "journal entry not found")
	default:
		return handler.internalError(c, action, err)
	}
}
