package api

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/services"
)

const (
	sleepEventSleep = "sleep"
	sleepEventWake  = "wake"
)

type sleepEventRequest struct {
	Event string     `json:"event" form:"event"`
	At    *time.Time `json:"at" form:"at"`
}

func (handler *Handler) ListSleepSchedules(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	schedules, err := handler.sleepService.ListSchedules(c.UserContext(), user.ID)
	if err != nil {
		return handler.internalError(c, "list sleep schedules", err)
	}
	return c.JSON(schedules)
}

func (handler *Handler) SaveSleepSchedule(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input services.ScheduleInput
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	created := strings.TrimSpace(input.ID) == ""
	view, err := handler.sleepService.SaveSchedule(c.UserContext(), user.ID, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSleepScheduleInvalid):
			return apiError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrSleepScheduleNotFound):
			return apiError(c, fiber.StatusNotFound, "sleep schedule not found")
		default:
			return handler.internalError(c, "save sleep schedule", err)
		}
	}

	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(view)
}

func (handler *Handler) DeleteSleepSchedule(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if err := handler.sleepService.DeleteSchedule(c.UserContext(), user.ID, routeID(c)); err != nil {
		if errors.Is(err, services.ErrSleepScheduleNotFound) {
			return apiError(c, fiber.StatusNotFound, "sleep schedule not found")
		}
		return handler.internalError(c, "delete sleep schedule", err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// RecordSleepEvent files a sleep or wake timestamp; at defaults to now.
func (handler *Handler) RecordSleepEvent(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var input sleepEventRequest
	if err := parseBody(c, &input); err != nil {
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}
	var at time.Time
	if input.At != nil {
		at = *input.At
	}

	var (
		dateKey string
		err     error
	)
	event := strings.ToLower(strings.TrimSpace(input.Event))
	switch event {
	case sleepEventSleep:
		dateKey, err = handler.sleepService.RecordSleepStart(c.UserContext(), user.ID, at)
	case sleepEventWake:
		dateKey, err = handler.sleepService.RecordWake(c.UserContext(), user.ID, at)
	default:
		return apiError(c, fiber.StatusBadRequest, `event must be "sleep" or "wake"`)
	}
	if err != nil {
		return handler.internalError(c, "record sleep event", err)
	}
	return c.JSON(fiber.Map{"event": event, "date": dateKey})
}

func (handler *Handler) ListSleepLogs(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	logs, err := handler.sleepService.ListLogs(c.UserContext(), user.ID)
	if err != nil {
		return handler.internalError(c, "list sleep logs", err)
	}
	return c.JSON(logs)
}

func (handler *Handler) SleepChart(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	chart, err := handler.sleepService.Chart(c.UserContext(), user.ID)
	if err != nil {
		return handler.internalError(c, "build sleep chart", err)
	}
	return c.JSON(chart)
}

func (handler *Handler) StreamSleepSchedules(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID := user.ID
	return streamSnapshots(c, handler, realtime.UserTopic(userID, realtime.CollectionSleepSchedules),
		func(ctx context.Context) ([]services.SleepScheduleView, error) {
			return handler.sleepService.ListSchedules(ctx, userID)
		})
}

func (handler *Handler) StreamSleepLogs(c *fiber.Ctx) error {
	user, ok := currentUser(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, "unauthorized")
	}

	userID := user.ID
	return streamSnapshots(c, handler, realtime.UserTopic(userID, realtime.CollectionSleepLogs),
		func(ctx context.Context) ([]models.SleepLog, error) {
			return handler.sleepService.ListLogs(ctx, userID)
		})
}
