package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/terraincognita07/moodify/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const maxDisplayNameLength = 64

var (
	ErrDisplayNameTooLong           = errors.New("display name too long")
	ErrAccountPasswordMissing       = errors.New("account password missing")
	ErrAccountPasswordInvalid       = errors.New("account password invalid")
	ErrPasswordChangeInvalidInput   = errors.New("password change invalid input")
	ErrPasswordChangeMismatch       = errors.New("password change mismatch")
	ErrPasswordChangeInvalidCurrent = errors.New("password change invalid current password")
	ErrPasswordChangeMustDiffer     = errors.New("password change new password must differ")
	ErrPasswordChangeWeak           = errors.New("password change weak password")
	ErrTelegramChatIDInvalid        = errors.New("telegram chat id invalid")
	ErrTimezoneInvalid              = errors.New("timezone invalid")
)

// Numeric chat ids (negative for groups) or a public @channel name.
var telegramChatIDPattern = regexp.MustCompile(`^(-?[0-9]{1,20}|@[A-Za-z][A-Za-z0-9_]{4,31})$`)

type AccountUserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	UpdateDisplayName(ctx context.Context, userID uint, displayName string) error
	UpdatePassword(ctx context.Context, userID uint, passwordHash string, mustChangePassword bool) error
	UpdateReminderSettings(ctx context.Context, userID uint, telegramChatID string, timezone string) error
	DeleteAccountAndRelatedData(ctx context.Context, userID uint) error
}

type AccountService struct {
	users AccountUserRepository
}

func NewAccountService(users AccountUserRepository) *AccountService {
	return &AccountService{users: users}
}

func NormalizeDisplayName(raw string) (string, error) {
	displayName := strings.TrimSpace(raw)
	if utf8.RuneCountInString(displayName) > maxDisplayNameLength {
		return "", ErrDisplayNameTooLong
	}
	return displayName, nil
}

func (service *AccountService) UpdateDisplayName(ctx context.Context, userID uint, raw string) (string, error) {
	displayName, err := NormalizeDisplayName(raw)
	if err != nil {
		return "", err
	}
	if err := service.users.UpdateDisplayName(ctx, userID, displayName); err != nil {
		return "", fmt.Errorf("update display name: %w", err)
	}
	return displayName, nil
}

// ReminderSettings routes a user's bedtime reminders. An empty chat id turns
// reminders off; an empty timezone uses the server's TZ.
type ReminderSettings struct {
	TelegramChatID string `json:"telegram_chat_id"`
	Timezone       string `json:"timezone"`
}

func NormalizeReminderSettings(rawChatID string, rawTimezone string) (ReminderSettings, error) {
	settings := ReminderSettings{
		TelegramChatID: strings.TrimSpace(rawChatID),
		Timezone:       strings.TrimSpace(rawTimezone),
	}
	if settings.TelegramChatID != "" && !telegramChatIDPattern.MatchString(settings.TelegramChatID) {
		return ReminderSettings{}, ErrTelegramChatIDInvalid
	}
	if settings.Timezone != "" {
		if strings.EqualFold(settings.Timezone, "Local") {
			return ReminderSettings{}, ErrTimezoneInvalid
		}
		if _, err := time.LoadLocation(settings.Timezone); err != nil {
			return ReminderSettings{}, ErrTimezoneInvalid
		}
	}
	return settings, nil
}

func (service *AccountService) UpdateReminderSettings(ctx context.Context, userID uint, rawChatID string, rawTimezone string) (ReminderSettings, error) {
	settings, err := NormalizeReminderSettings(rawChatID, rawTimezone)
	if err != nil {
		return ReminderSettings{}, err
	}
	if err := service.users.UpdateReminderSettings(ctx, userID, settings.TelegramChatID, settings.Timezone); err != nil {
		return ReminderSettings{}, fmt.Errorf("update reminder settings: %w", err)
	}
	return settings, nil
}

func ValidatePasswordChange(passwordHash string, currentPassword string, newPassword string, confirmPassword string) error {
	currentPassword = strings.TrimSpace(currentPassword)
	newPassword = strings.TrimSpace(newPassword)
	confirmPassword = strings.TrimSpace(confirmPassword)

	if currentPassword == "" || newPassword == "" || confirmPassword == "" {
		return ErrPasswordChangeInvalidInput
	}
	if newPassword != confirmPassword {
		return ErrPasswordChangeMismatch
	}
	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(currentPassword)) != nil {
		return ErrPasswordChangeInvalidCurrent
	}
	if currentPassword == newPassword {
		return ErrPasswordChangeMustDiffer
	}
	if err := ValidatePasswordStrength(newPassword); err != nil {
		return ErrPasswordChangeWeak
	}
	return nil
}

func (service *AccountService) ChangePassword(ctx context.Context, userID uint, currentPassword string, newPassword string, confirmPassword string) error {
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if err := ValidatePasswordChange(user.PasswordHash, currentPassword, newPassword, confirmPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := service.users.UpdatePassword(ctx, userID, string(hash), false); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeleteAccount re-checks the password, then removes the user and every
// collection they own.
func (service *AccountService) DeleteAccount(ctx context.Context, userID uint, rawPassword string) error {
	password := strings.TrimSpace(rawPassword)
	if password == "" {
		return ErrAccountPasswordMissing
	}
	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return ErrAccountPasswordInvalid
	}
	if err := service.users.DeleteAccountAndRelatedData(ctx, userID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return nil
}
