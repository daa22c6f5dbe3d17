package db

import (
	"context"
	"time"

	"github.com/terraincognita07/moodify/internal/models"
	"gorm.io/gorm"
)

type UserRepository struct {
	database *gorm.DB
}

func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{database: database}
}

func (repo *UserRepository) FindByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) FindByNormalizedEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := repo.database.WithContext(ctx).Where("lower(trim(email)) = ?", email).First(&user).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (repo *UserRepository) ExistsByNormalizedEmail(ctx context.Context, email string) (bool, error) {
	var matched int64
	if err := repo.database.WithContext(ctx).Model(&models.User{}).
		Where("lower(trim(email)) = ?", email).
		Count(&matched).Error; err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (repo *UserRepository) Create(ctx context.Context, user *models.User) error {
	return repo.database.WithContext(ctx).Create(user).Error
}

func (repo *UserRepository) UpdateDisplayName(ctx context.Context, userID uint, displayName string) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("display_name", displayName).Error
}

func (repo *UserRepository) UpdatePassword(ctx context.Context, userID uint, passwordHash string, mustChangePassword bool) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password_hash":        passwordHash,
		"must_change_password": mustChangePassword,
	}).Error
}

func (repo *UserRepository) UpdateReminderSettings(ctx context.Context, userID uint, telegramChatID string, timezone string) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"telegram_chat_id": telegramChatID,
		"timezone":         timezone,
	}).Error
}

// ListReminderRecipients returns the users that linked a Telegram chat.
func (repo *UserRepository) ListReminderRecipients(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	if err := repo.database.WithContext(ctx).
		Where("telegram_chat_id <> ''").
		Order("id ASC").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (repo *UserRepository) TouchLastLogin(ctx context.Context, userID uint, at time.Time) error {
	return repo.database.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("last_login_at", at).Error
}

// DeleteAccountAndRelatedData removes the user and every per-user collection.
func (repo *UserRepository) DeleteAccountAndRelatedData(ctx context.Context, userID uint) error {
	return repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.JournalEntry{}, &models.DailyTaskSet{}, &models.SleepSchedule{}, &models.SleepLog{}} {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.User{}, userID).Error
	})
}
