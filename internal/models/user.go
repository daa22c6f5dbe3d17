package models

import "time"

type User struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	Email              string     `gorm:"uniqueIndex;not null" json:"email"`
	DisplayName        string     `gorm:"not null;default:''" json:"display_name"`
	PasswordHash       string     `gorm:"not null" json:"-"`
	MustChangePassword bool       `gorm:"not null;default:false" json:"must_change_password"`
	TelegramChatID     string     `gorm:"not null;default:''" json:"telegram_chat_id"`
	Timezone           string     `gorm:"not null;default:''" json:"timezone"`
	LastLoginAt        *time.Time `json:"last_login_at,omitempty"`
	CreatedAt          time.Time  `gorm:"not null" json:"created_at"`
}
