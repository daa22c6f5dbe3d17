package db

import (
	"context"
	"time"

	"github.com/terraincognita07/moodify/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SleepScheduleRepository struct {
	database *gorm.DB
}

func NewSleepScheduleRepository(database *gorm.DB) *SleepScheduleRepository {
	return &SleepScheduleRepository{database: database}
}

func (repo *SleepScheduleRepository) Create(ctx context.Context, schedule *models.SleepSchedule) error {
	return repo.database.WithContext(ctx).Create(schedule).Error
}

func (repo *SleepScheduleRepository) Save(ctx context.Context, schedule *models.SleepSchedule) error {
	return repo.database.WithContext(ctx).Save(schedule).Error
}

func (repo *SleepScheduleRepository) FindByUserAndID(ctx context.Context, userID uint, id string) (models.SleepSchedule, bool, error) {
	schedule := models.SleepSchedule{}
	result := repo.database.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Limit(1).Find(&schedule)
	if result.Error != nil {
		return models.SleepSchedule{}, false, result.Error
	}
	return schedule, result.RowsAffected > 0, nil
}

func (repo *SleepScheduleRepository) ListByUser(ctx context.Context, userID uint) ([]models.SleepSchedule, error) {
	schedules := make([]models.SleepSchedule, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *SleepScheduleRepository) ListAll(ctx context.Context) ([]models.SleepSchedule, error) {
	schedules := make([]models.SleepSchedule, 0)
	if err := repo.database.WithContext(ctx).Order("user_id ASC, id ASC").Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (repo *SleepScheduleRepository) DeleteByUserAndID(ctx context.Context, userID uint, id string) (bool, error) {
	result := repo.database.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&models.SleepSchedule{})
	return result.RowsAffected > 0, result.Error
}

type SleepLogRepository struct {
	database *gorm.DB
}

func NewSleepLogRepository(database *gorm.DB) *SleepLogRepository {
	return &SleepLogRepository{database: database}
}

// MergeSleepAt sets sleep_at on the log for dateKey, creating the row if needed.
// wake_at is left untouched.
func (repo *SleepLogRepository) MergeSleepAt(ctx context.Context, userID uint, dateKey string, at time.Time) error {
	return repo.merge(ctx, &models.SleepLog{UserID: userID, Date: dateKey, SleepAt: &at, UpdatedAt: time.Now().UTC()}, "sleep_at")
}

// MergeWakeAt sets wake_at on the log for dateKey, creating the row if needed.
// sleep_at is left untouched.
func (repo *SleepLogRepository) MergeWakeAt(ctx context.Context, userID uint, dateKey string, at time.Time) error {
	return repo.merge(ctx, &models.SleepLog{UserID: userID, Date: dateKey, WakeAt: &at, UpdatedAt: time.Now().UTC()}, "wake_at")
}

func (repo *SleepLogRepository) merge(ctx context.Context, entry *models.SleepLog, column string) error {
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{column, "updated_at"}),
	}).Create(entry).Error
}

func (repo *SleepLogRepository) ListByUser(ctx context.Context, userID uint) ([]models.SleepLog, error) {
	logs := make([]models.SleepLog, 0)
	if err := repo.database.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date ASC").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
