package db

import (
	"context"

	"github.com/terraincognita07/moodify/internal/models"
	"gorm.io/gorm"
)

type JournalRepository struct {
	database *gorm.DB
}

func NewJournalRepository(database *gorm.DB) *JournalRepository {
	return &JournalRepository{database: database}
}

func (repo *JournalRepository) Create(ctx context.Context, entry *models.JournalEntry) error {
	return repo.database.WithContext(ctx).Create(entry).Error
}

func (repo *JournalRepository) ListByUser(ctx context.Context, userID uint) ([]models.JournalEntry, error) {
	entries := make([]models.JournalEntry, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByUserAndID returns found=false when the entry is missing or owned by someone else.
func (repo *JournalRepository) FindByUserAndID(ctx context.Context, userID uint, id string) (models.JournalEntry, bool, error) {
	entry := models.JournalEntry{}
	result := repo.database.WithContext(ctx).
		Where("user_id = ? AND id = ?", userID, id).
		Limit(1).
		Find(&entry)
	if result.Error != nil {
		return models.JournalEntry{}, false, result.Error
	}
	return entry, result.RowsAffected > 0, nil
}

func (repo *JournalRepository) UpdateSuggestedTasks(ctx context.Context, entry *models.JournalEntry) error {
	return repo.database.WithContext(ctx).Model(entry).Select("suggested_tasks").Updates(entry).Error
}

func (repo *JournalRepository) DeleteByUserAndID(ctx context.Context, userID uint, id string) (bool, error) {
	result := repo.database.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.JournalEntry{})
	return result.RowsAffected > 0, result.Error
}
