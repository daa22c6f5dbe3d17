package db

import (
	"context"

	"github.com/terraincognita07/moodify/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DailyTaskRepository struct {
	database *gorm.DB
}

func NewDailyTaskRepository(database *gorm.DB) *DailyTaskRepository {
	return &DailyTaskRepository{database: database}
}

// Replace overwrites the user's "today" document.
func (repo *DailyTaskRepository) Replace(ctx context.Context, set *models.DailyTaskSet) error {
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"tasks", "saved_at"}),
	}).Create(set).Error
}

func (repo *DailyTaskRepository) FindByUser(ctx context.Context, userID uint) (models.DailyTaskSet, bool, error) {
	set := models.DailyTaskSet{}
	result := repo.database.WithContext(ctx).Where("user_id = ?", userID).Limit(1).Find(&set)
	if result.Error != nil {
		return models.DailyTaskSet{}, false, result.Error
	}
	return set, result.RowsAffected > 0, nil
}
