package models

import "time"

type GeneratedTask struct {
	Task        string `json:"task"`
	Priority    int    `json:"priority"`
	Description string `json:"description"`
}

// DailyTaskSet is the single "today" document per user holding the confirmed spin result.
type DailyTaskSet struct {
	UserID  uint            `gorm:"primaryKey" json:"-"`
	Tasks   []GeneratedTask `gorm:"serializer:json" json:"tasks"`
	SavedAt time.Time       `gorm:"not null" json:"saved_at"`
}
