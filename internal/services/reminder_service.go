package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/models"
)

const (
	bedtimeReminderLead  = time.Hour
	reminderScanInterval = time.Minute
	bedtimeReminderTitle = "Upcoming Bedtime"
	bedtimeReminderBody  = "Your scheduled sleep is in 1 hour"
)

type ReminderScheduleSource interface {
	ListAll(ctx context.Context) ([]models.SleepSchedule, error)
}

type ReminderRecipientSource interface {
	ListReminderRecipients(ctx context.Context) ([]models.User, error)
}

type Notifier interface {
	Send(ctx context.Context, chatID string, message string) error
}

// ReminderService sends one bedtime reminder per schedule occurrence once the
// bedtime is less than an hour away. Each reminder goes to the owner's own
// chat, evaluated in the owner's timezone; owners without a chat are skipped.
type ReminderService struct {
	schedules  ReminderScheduleSource
	recipients ReminderRecipientSource
	notifier   Notifier
	location   *time.Location
	log        *logger.Logger
	now        func() time.Time

	mu   sync.Mutex
	sent map[string]time.Time
}

type reminderRecipient struct {
	chatID   string
	location *time.Location
}

func NewReminderService(schedules ReminderScheduleSource, recipients ReminderRecipientSource, notifier Notifier, location *time.Location, log *logger.Logger) *ReminderService {
	if location == nil {
		location = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &ReminderService{
		schedules:  schedules,
		recipients: recipients,
		notifier:   notifier,
		location:   location,
		log:        log.With("service", "reminders"),
		now:        time.Now,
		sent:       make(map[string]time.Time),
	}
}

// Run scans schedules every minute until ctx ends.
func (service *ReminderService) Run(ctx context.Context) error {
	ticker := time.NewTicker(reminderScanInterval)
	defer ticker.Stop()

	service.scan(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			service.scan(ctx)
		}
	}
}

func (service *ReminderService) scan(ctx context.Context) int {
	recipients, err := service.loadRecipients(ctx)
	if err != nil {
		service.log.Warn("fetch reminder recipients failed", "error", err)
		return 0
	}
	if len(recipients) == 0 {
		return 0
	}
	schedules, err := service.schedules.ListAll(ctx)
	if err != nil {
		service.log.Warn("fetch sleep schedules failed", "error", err)
		return 0
	}

	sentCount := 0
	for _, schedule := range schedules {
		recipient, ok := recipients[schedule.UserID]
		if !ok {
			continue
		}
		now := service.now().In(recipient.location)
		bedtime, ok := NextBedtime(schedule, now, recipient.location)
		if !ok || bedtime.Sub(now) > bedtimeReminderLead {
			continue
		}

		key := fmt.Sprintf("%s:%s", schedule.ID, bedtime.Format(time.RFC3339))
		if !service.shouldSend(key, now) {
			continue
		}
		message := fmt.Sprintf("%s: %s (%s).", bedtimeReminderTitle, bedtimeReminderBody, bedtime.Format("15:04"))
		if err := service.notifier.Send(ctx, recipient.chatID, message); err != nil {
			service.log.Warn("send bedtime reminder failed", "schedule_id", schedule.ID, "user_id", schedule.UserID, "error", err)
			service.forget(key)
			continue
		}
		sentCount++
	}
	return sentCount
}

func (service *ReminderService) loadRecipients(ctx context.Context) (map[uint]reminderRecipient, error) {
	users, err := service.recipients.ListReminderRecipients(ctx)
	if err != nil {
		return nil, err
	}

	recipients := make(map[uint]reminderRecipient, len(users))
	for _, user := range users {
		if user.TelegramChatID == "" {
			continue
		}
		location := service.location
		if user.Timezone != "" {
			if loaded, err := time.LoadLocation(user.Timezone); err == nil {
				location = loaded
			} else {
				service.log.Warn("unknown user timezone; using server zone", "user_id", user.ID, "timezone", user.Timezone)
			}
		}
		recipients[user.ID] = reminderRecipient{chatID: user.TelegramChatID, location: location}
	}
	return recipients, nil
}

func (service *ReminderService) shouldSend(key string, now time.Time) bool {
	service.mu.Lock()
	defer service.mu.Unlock()

	if _, ok := service.sent[key]; ok {
		return false
	}
	for existing, at := range service.sent {
		if now.Sub(at) > 2*bedtimeReminderLead {
			delete(service.sent, existing)
		}
	}
	service.sent[key] = now
	return true
}

func (service *ReminderService) forget(key string) {
	service.mu.Lock()
	defer service.mu.Unlock()
	delete(service.sent, key)
}
