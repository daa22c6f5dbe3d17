package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/terraincognita07/moodify/internal/models"
)

var ErrSleepScheduleInvalid = errors.New("sleep schedule invalid")

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type ScheduleInput struct {
	ID        string  `json:"id"`
	Type      string  `json:"type" validate:"required,oneof=ONCE DAILY WEEKLY WEEKDAYS WEEKENDS"`
	DayOfWeek *int    `json:"day_of_week" validate:"required_if=Type WEEKLY,omitempty,min=1,max=7"`
	Date      *string `json:"date" validate:"required_if=Type ONCE,omitempty,datetime=2006-01-02"`
	Bedtime   string  `json:"bedtime" validate:"required,clock"`
	Wakeup    string  `json:"wakeup" validate:"required,clock"`
}

func newScheduleValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())
	_ = validate.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRegex.MatchString(fl.Field().String())
	})
	return validate
}

// normalizeScheduleInput validates input and drops fields the type does not use.
func normalizeScheduleInput(validate *validator.Validate, input ScheduleInput) (ScheduleInput, error) {
	input.ID = strings.TrimSpace(input.ID)
	input.Type = strings.ToUpper(strings.TrimSpace(input.Type))
	input.Bedtime = strings.TrimSpace(input.Bedtime)
	input.Wakeup = strings.TrimSpace(input.Wakeup)
	if input.Date != nil {
		trimmed := strings.TrimSpace(*input.Date)
		input.Date = &trimmed
	}

	if err := validate.Struct(input); err != nil {
		return ScheduleInput{}, fmt.Errorf("%w: %s", ErrSleepScheduleInvalid, describeValidationError(err))
	}

	if input.Type != models.ScheduleOnce {
		input.Date = nil
	}
	if input.Type != models.ScheduleWeekly {
		input.DayOfWeek = nil
	}
	return input, nil
}

func describeValidationError(err error) string {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrors))
	for _, fieldError := range fieldErrors {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fieldError.Field()), fieldError.Tag()))
	}
	return strings.Join(parts, ", ")
}

// isoWeekdays maps 1..7 (Monday first) to time.Weekday.
var isoWeekdays = [8]time.Weekday{0, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}

// DescribeSchedule renders the one-line summary shown next to a schedule.
func DescribeSchedule(schedule models.SleepSchedule) string {
	switch schedule.Type {
	case models.ScheduleOnce:
		if schedule.Date != nil {
			return "Once on " + *schedule.Date
		}
		return "Once"
	case models.ScheduleDaily:
		return "Every day"
	case models.ScheduleWeekly:
		if schedule.DayOfWeek != nil && *schedule.DayOfWeek >= 1 && *schedule.DayOfWeek <= 7 {
			return "Every " + isoWeekdays[*schedule.DayOfWeek].String()
		}
		return "Weekly"
	case models.ScheduleWeekdays:
		return "Weekdays (Mon-Fri)"
	case models.ScheduleWeekends:
		return "Weekends (Sat-Sun)"
	default:
		return schedule.Type
	}
}

func scheduleRunsOn(schedule models.SleepSchedule, day time.Weekday) bool {
	switch schedule.Type {
	case models.ScheduleDaily:
		return true
	case models.ScheduleWeekly:
		return schedule.DayOfWeek != nil && *schedule.DayOfWeek >= 1 && *schedule.DayOfWeek <= 7 &&
			isoWeekdays[*schedule.DayOfWeek] == day
	case models.ScheduleWeekdays:
		return day != time.Saturday && day != time.Sunday
	case models.ScheduleWeekends:
		return day == time.Saturday || day == time.Sunday
	default:
		return false
	}
}

// NextBedtime returns the first bedtime of schedule at or after now, in loc.
// It reports false for a past one-off schedule or an unparsable bedtime.
func NextBedtime(schedule models.SleepSchedule, now time.Time, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	clock, err := time.Parse("15:04", schedule.Bedtime)
	if err != nil {
		return time.Time{}, false
	}
	now = now.In(loc)

	if schedule.Type == models.ScheduleOnce {
		if schedule.Date == nil {
			return time.Time{}, false
		}
		day, err := time.ParseInLocation("2006-01-02", *schedule.Date, loc)
		if err != nil {
			return time.Time{}, false
		}
		bedtime := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
		if bedtime.Before(now) {
			return time.Time{}, false
		}
		return bedtime, true
	}

	for offset := 0; offset <= 7; offset++ {
		day := now.AddDate(0, 0, offset)
		bedtime := time.Date(day.Year(), day.Month(), day.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
		if bedtime.Before(now) || !scheduleRunsOn(schedule, bedtime.Weekday()) {
			continue
		}
		return bedtime, true
	}
	return time.Time{}, false
}
