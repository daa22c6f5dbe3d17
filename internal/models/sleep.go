package models

import "time"

const (
	ScheduleOnce     = "ONCE"
	ScheduleDaily    = "DAILY"
	ScheduleWeekly   = "WEEKLY"
	ScheduleWeekdays = "WEEKDAYS"
	ScheduleWeekends = "WEEKENDS"
)

type SleepSchedule struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"-"`
	Type      string    `gorm:"not null" json:"type"`
	DayOfWeek *int      `json:"day_of_week,omitempty"`
	Date      *string   `json:"date,omitempty"`
	Bedtime   string    `gorm:"not null" json:"bedtime"`
	Wakeup    string    `gorm:"not null" json:"wakeup"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SleepLog is assembled from two independent writes merged by Date.
type SleepLog struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	UserID    uint       `gorm:"not null;uniqueIndex:uidx_sleep_user_date" json:"-"`
	Date      string     `gorm:"not null;uniqueIndex:uidx_sleep_user_date" json:"date"`
	SleepAt   *time.Time `json:"sleep_at,omitempty"`
	WakeAt    *time.Time `json:"wake_at,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
