package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
)

const minChartHours = 8.0

var ErrSleepScheduleNotFound = errors.New("sleep schedule not found")

type SleepScheduleRepository interface {
	Create(ctx context.Context, schedule *models.SleepSchedule) error
	Save(ctx context.Context, schedule *models.SleepSchedule) error
	FindByUserAndID(ctx context.Context, userID uint, id string) (models.SleepSchedule, bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.SleepSchedule, error)
	DeleteByUserAndID(ctx context.Context, userID uint, id string) (bool, error)
}

type SleepLogRepository interface {
	MergeSleepAt(ctx context.Context, userID uint, dateKey string, at time.Time) error
	MergeWakeAt(ctx context.Context, userID uint, dateKey string, at time.Time) error
	ListByUser(ctx context.Context, userID uint) ([]models.SleepLog, error)
}

type SleepScheduleView struct {
	models.SleepSchedule
	Summary string `json:"summary"`
}

type SleepChartEntry struct {
	Date  string  `json:"date"`
	Label string  `json:"label"`
	Hours float64 `json:"hours"`
}

type SleepChart struct {
	Entries  []SleepChartEntry `json:"entries"`
	MaxHours float64           `json:"max_hours"`
}

type SleepService struct {
	schedules SleepScheduleRepository
	logs      SleepLogRepository
	publisher ChangePublisher
	validate  *validator.Validate
	now       func() time.Time
	newID     func() string
}

func NewSleepService(schedules SleepScheduleRepository, logs SleepLogRepository, publisher ChangePublisher) *SleepService {
	return &SleepService{
		schedules: schedules,
		logs:      logs,
		publisher: publisherOrNoop(publisher),
		validate:  newScheduleValidator(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// SaveSchedule creates a schedule when input.ID is empty and overwrites the
// user's schedule with that id otherwise.
func (service *SleepService) SaveSchedule(ctx context.Context, userID uint, input ScheduleInput) (SleepScheduleView, error) {
	input, err := normalizeScheduleInput(service.validate, input)
	if err != nil {
		return SleepScheduleView{}, err
	}

	now := service.now().UTC()
	schedule := models.SleepSchedule{
		ID:        input.ID,
		UserID:    userID,
		Type:      input.Type,
		DayOfWeek: input.DayOfWeek,
		Date:      input.Date,
		Bedtime:   input.Bedtime,
		Wakeup:    input.Wakeup,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if schedule.ID == "" {
		schedule.ID = service.newID()
		if err := service.schedules.Create(ctx, &schedule); err != nil {
			return SleepScheduleView{}, fmt.Errorf("create sleep schedule: %w", err)
		}
	} else {
		existing, found, err := service.schedules.FindByUserAndID(ctx, userID, schedule.ID)
		if err != nil {
			return SleepScheduleView{}, fmt.Errorf("load sleep schedule: %w", err)
		}
		if !found {
			return SleepScheduleView{}, ErrSleepScheduleNotFound
		}
		schedule.CreatedAt = existing.CreatedAt
		if err := service.schedules.Save(ctx, &schedule); err != nil {
			return SleepScheduleView{}, fmt.Errorf("save sleep schedule: %w", err)
		}
	}

	publishUserChange(service.publisher, userID, realtime.CollectionSleepSchedules)
	return SleepScheduleView{SleepSchedule: schedule, Summary: DescribeSchedule(schedule)}, nil
}

func (service *SleepService) ListSchedules(ctx context.Context, userID uint) ([]SleepScheduleView, error) {
	schedules, err := service.schedules.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	views := make([]SleepScheduleView, 0, len(schedules))
	for _, schedule := range schedules {
		views = append(views, SleepScheduleView{SleepSchedule: schedule, Summary: DescribeSchedule(schedule)})
	}
	return views, nil
}

func (service *SleepService) DeleteSchedule(ctx context.Context, userID uint, id string) error {
	deleted, err := service.schedules.DeleteByUserAndID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("delete sleep schedule: %w", err)
	}
	if !deleted {
		return ErrSleepScheduleNotFound
	}
	publishUserChange(service.publisher, userID, realtime.CollectionSleepSchedules)
	return nil
}

// SleepDateKey is the UTC calendar date a sleep event is filed under.
func SleepDateKey(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

// RecordSleepStart sets sleep_at on the log for at's UTC date, leaving
// wake_at untouched. A zero at means now.
func (service *SleepService) RecordSleepStart(ctx context.Context, userID uint, at time.Time) (string, error) {
	at = service.eventTime(at)
	key := SleepDateKey(at)
	if err := service.logs.MergeSleepAt(ctx, userID, key, at); err != nil {
		return "", fmt.Errorf("record sleep start: %w", err)
	}
	publishUserChange(service.publisher, userID, realtime.CollectionSleepLogs)
	return key, nil
}

// RecordWake sets wake_at on the log for at's UTC date. Wake-ups after
// midnight UTC land on a different date than the matching sleep start.
func (service *SleepService) RecordWake(ctx context.Context, userID uint, at time.Time) (string, error) {
	at = service.eventTime(at)
	key := SleepDateKey(at)
	if err := service.logs.MergeWakeAt(ctx, userID, key, at); err != nil {
		return "", fmt.Errorf("record wake: %w", err)
	}
	publishUserChange(service.publisher, userID, realtime.CollectionSleepLogs)
	return key, nil
}

func (service *SleepService) eventTime(at time.Time) time.Time {
	if at.IsZero() {
		at = service.now()
	}
	return at.UTC()
}

func (service *SleepService) ListLogs(ctx context.Context, userID uint) ([]models.SleepLog, error) {
	return service.logs.ListByUser(ctx, userID)
}

func (service *SleepService) Chart(ctx context.Context, userID uint) (SleepChart, error) {
	logs, err := service.logs.ListByUser(ctx, userID)
	if err != nil {
		return SleepChart{}, err
	}
	return BuildSleepChart(logs), nil
}

// BuildSleepChart keeps logs with both timestamps and a non-negative
// duration. MaxHours never drops below eight.
func BuildSleepChart(logs []models.SleepLog) SleepChart {
	chart := SleepChart{Entries: make([]SleepChartEntry, 0, len(logs)), MaxHours: minChartHours}
	for _, log := range logs {
		if log.SleepAt == nil || log.WakeAt == nil {
			continue
		}
		day, err := time.Parse("2006-01-02", log.Date)
		if err != nil {
			continue
		}
		hours := log.WakeAt.Sub(*log.SleepAt).Hours()
		if hours < 0 {
			continue
		}
		chart.Entries = append(chart.Entries, SleepChartEntry{
			Date:  log.Date,
			Label: day.Format("01/02"),
			Hours: hours,
		})
		chart.MaxHours = max(chart.MaxHours, hours)
	}
	return chart
}
