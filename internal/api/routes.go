package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	auth := app.Group("/api/auth")
	auth.Post("/register", handler.Register)
	auth.Post("/login", handler.Login)
	auth.Post("/logout", handler.Logout)
	auth.Get("/me", handler.AuthRequired, handler.Me)

	protected := app.Group("/api", handler.AuthRequired)

	protected.Post("/account/profile", handler.UpdateProfile)
	protected.Post("/account/reminders", handler.UpdateReminderSettings)
	protected.Post("/account/change-password", handler.ChangePassword)
	protected.Delete("/account", handler.DeleteAccount)

	protected.Post("/journal", handler.SubmitJournal)
	protected.Get("/journal", handler.ListJournal)
	protected.Get("/journal/stream", handler.StreamJournal)
	protected.Get("/journal/:id", handler.GetJournalEntry)
	protected.Delete("/journal/:id", handler.DeleteJournalEntry)

	protected.Post("/tasks/generate", handler.GenerateTasks)
	protected.Post("/tasks/sessions/:id/spin", handler.SpinTasks)
	protected.Post("/tasks/sessions/:id/save", handler.SaveTasks)
	protected.Get("/tasks/today", handler.TodayTasks)
	protected.Get("/tasks/today/stream", handler.StreamTodayTasks)

	protected.Get("/sleep/schedules", handler.ListSleepSchedules)
	protected.Get("/sleep/schedules/stream", handler.StreamSleepSchedules)
	protected.Post("/sleep/schedules", handler.SaveSleepSchedule)
	protected.Delete("/sleep/schedules/:id", handler.DeleteSleepSchedule)
	protected.Post("/sleep/events", handler.RecordSleepEvent)
	protected.Get("/sleep/logs", handler.ListSleepLogs)
	protected.Get("/sleep/logs/stream", handler.StreamSleepLogs)
	protected.Get("/sleep/chart", handler.SleepChart)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
