package db

import "gorm.io/gorm"

type Repositories struct {
	Users          *UserRepository
	Journal        *JournalRepository
	DailyTasks     *DailyTaskRepository
	SleepSchedules *SleepScheduleRepository
	SleepLogs      *SleepLogRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		Users:          NewUserRepository(database),
		Journal:        NewJournalRepository(database),
		DailyTasks:     NewDailyTaskRepository(database),
		SleepSchedules: NewSleepScheduleRepository(database),
		SleepLogs:      NewSleepLogRepository(database),
	}
}
