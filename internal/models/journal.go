package models

import "time"

// ErrorEmotionLabel marks the sentinel analysis returned when the collaborators fail.
const ErrorEmotionLabel = "Error"

type EmotionScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// JournalEntry is immutable once stored except for SuggestedTasks.
type JournalEntry struct {
	ID             string         `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"-"`
	Text           string         `gorm:"not null" json:"text"`
	Emotions       []EmotionScore `gorm:"serializer:json" json:"emotions"`
	Reflection     *string        `json:"reflection"`
	SuggestedTasks []string       `gorm:"serializer:json" json:"suggested_tasks"`
	CreatedAt      time.Time      `gorm:"not null" json:"created_at"`
}
