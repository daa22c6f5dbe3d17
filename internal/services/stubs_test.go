package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/terraincognita07/moodify/internal/models"
)

var errStubNotFound = errors.New("record not found")

type stubUserRepo struct {
	users        map[uint]models.User
	nextID       uint
	touchErr     error
	listErr      error
	deletedUsers []uint
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uint]models.User), nextID: 1}
}

func (repo *stubUserRepo) ExistsByNormalizedEmail(_ context.Context, email string) (bool, error) {
	_, err := repo.FindByNormalizedEmail(context.Background(), email)
	return err == nil, nil
}

func (repo *stubUserRepo) FindByNormalizedEmail(_ context.Context, email string) (models.User, error) {
	for _, user := range repo.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, errStubNotFound
}

func (repo *stubUserRepo) FindByID(_ context.Context, userID uint) (models.User, error) {
	user, ok := repo.users[userID]
	if !ok {
		return models.User{}, errStubNotFound
	}
	return user, nil
}

func (repo *stubUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = repo.nextID
	repo.nextID++
	repo.users[user.ID] = *user
	return nil
}

func (repo *stubUserRepo) TouchLastLogin(_ context.Context, userID uint, at time.Time) error {
	if repo.touchErr != nil {
		return repo.touchErr
	}
	user := repo.users[userID]
	user.LastLoginAt = &at
	repo.users[userID] = user
	return nil
}

func (repo *stubUserRepo) UpdateDisplayName(_ context.Context, userID uint, displayName string) error {
	user := repo.users[userID]
	user.DisplayName = displayName
	repo.users[userID] = user
	return nil
}

func (repo *stubUserRepo) UpdatePassword(_ context.Context, userID uint, passwordHash string, mustChangePassword bool) error {
	user := repo.users[userID]
	user.PasswordHash = passwordHash
	user.MustChangePassword = mustChangePassword
	repo.users[userID] = user
	return nil
}

func (repo *stubUserRepo) UpdateReminderSettings(_ context.Context, userID uint, telegramChatID string, timezone string) error {
	user := repo.users[userID]
	user.TelegramChatID = telegramChatID
	user.Timezone = timezone
	repo.users[userID] = user
	return nil
}

func (repo *stubUserRepo) ListReminderRecipients(_ context.Context) ([]models.User, error) {
	if repo.listErr != nil {
		return nil, repo.listErr
	}
	result := make([]models.User, 0)
	for _, user := range repo.users {
		if user.TelegramChatID != "" {
			result = append(result, user)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (repo *stubUserRepo) DeleteAccountAndRelatedData(_ context.Context, userID uint) error {
	delete(repo.users, userID)
	repo.deletedUsers = append(repo.deletedUsers, userID)
	return nil
}

type stubJournalRepo struct {
	entries   map[string]models.JournalEntry
	createErr error
}

func newStubJournalRepo() *stubJournalRepo {
	return &stubJournalRepo{entries: make(map[string]models.JournalEntry)}
}

func (repo *stubJournalRepo) Create(_ context.Context, entry *models.JournalEntry) error {
	if repo.createErr != nil {
		return repo.createErr
	}
	repo.entries[entry.ID] = *entry
	return nil
}

func (repo *stubJournalRepo) ListByUser(_ context.Context, userID uint) ([]models.JournalEntry, error) {
	result := make([]models.JournalEntry, 0)
	for _, entry := range repo.entries {
		if entry.UserID == userID {
			result = append(result, entry)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (repo *stubJournalRepo) FindByUserAndID(_ context.Context, userID uint, id string) (models.JournalEntry, bool, error) {
	entry, ok := repo.entries[id]
	if !ok || entry.UserID != userID {
		return models.JournalEntry{}, false, nil
	}
	return entry, true, nil
}

func (repo *stubJournalRepo) UpdateSuggestedTasks(_ context.Context, entry *models.JournalEntry) error {
	stored := repo.entries[entry.ID]
	stored.SuggestedTasks = entry.SuggestedTasks
	repo.entries[entry.ID] = stored
	return nil
}

func (repo *stubJournalRepo) DeleteByUserAndID(_ context.Context, userID uint, id string) (bool, error) {
	entry, ok := repo.entries[id]
	if !ok || entry.UserID != userID {
		return false, nil
	}
	delete(repo.entries, id)
	return true, nil
}

type stubDailyTaskRepo struct {
	sets map[uint]models.DailyTaskSet
}

func newStubDailyTaskRepo() *stubDailyTaskRepo {
	return &stubDailyTaskRepo{sets: make(map[uint]models.DailyTaskSet)}
}

func (repo *stubDailyTaskRepo) Replace(_ context.Context, set *models.DailyTaskSet) error {
	repo.sets[set.UserID] = *set
	return nil
}

func (repo *stubDailyTaskRepo) FindByUser(_ context.Context, userID uint) (models.DailyTaskSet, bool, error) {
	set, ok := repo.sets[userID]
	return set, ok, nil
}

type stubScheduleRepo struct {
	schedules map[string]models.SleepSchedule
	listErr   error
}

func newStubScheduleRepo() *stubScheduleRepo {
	return &stubScheduleRepo{schedules: make(map[string]models.SleepSchedule)}
}

func (repo *stubScheduleRepo) Create(_ context.Context, schedule *models.SleepSchedule) error {
	repo.schedules[schedule.ID] = *schedule
	return nil
}

func (repo *stubScheduleRepo) Save(_ context.Context, schedule *models.SleepSchedule) error {
	repo.schedules[schedule.ID] = *schedule
	return nil
}

func (repo *stubScheduleRepo) FindByUserAndID(_ context.Context, userID uint, id string) (models.SleepSchedule, bool, error) {
	schedule, ok := repo.schedules[id]
	if !ok || schedule.UserID != userID {
		return models.SleepSchedule{}, false, nil
	}
	return schedule, true, nil
}

func (repo *stubScheduleRepo) ListByUser(_ context.Context, userID uint) ([]models.SleepSchedule, error) {
	result := make([]models.SleepSchedule, 0)
	for _, schedule := range repo.schedules {
		if schedule.UserID == userID {
			result = append(result, schedule)
		}
	}
	return result, nil
}

func (repo *stubScheduleRepo) ListAll(_ context.Context) ([]models.SleepSchedule, error) {
	if repo.listErr != nil {
		return nil, repo.listErr
	}
	result := make([]models.SleepSchedule, 0, len(repo.schedules))
	for _, schedule := range repo.schedules {
		result = append(result, schedule)
	}
	return result, nil
}

func (repo *stubScheduleRepo) DeleteByUserAndID(_ context.Context, userID uint, id string) (bool, error) {
	schedule, ok := repo.schedules[id]
	if !ok || schedule.UserID != userID {
		return false, nil
	}
	delete(repo.schedules, id)
	return true, nil
}

type stubSleepLogRepo struct {
	logs map[string]models.SleepLog
}

func newStubSleepLogRepo() *stubSleepLogRepo {
	return &stubSleepLogRepo{logs: make(map[string]models.SleepLog)}
}

func (repo *stubSleepLogRepo) MergeSleepAt(_ context.Context, userID uint, dateKey string, at time.Time) error {
	log := repo.logs[dateKey]
	log.UserID, log.Date, log.SleepAt = userID, dateKey, &at
	repo.logs[dateKey] = log
	return nil
}

func (repo *stubSleepLogRepo) MergeWakeAt(_ context.Context, userID uint, dateKey string, at time.Time) error {
	log := repo.logs[dateKey]
	log.UserID, log.Date, log.WakeAt = userID, dateKey, &at
	repo.logs[dateKey] = log
	return nil
}

func (repo *stubSleepLogRepo) ListByUser(_ context.Context, userID uint) ([]models.SleepLog, error) {
	result := make([]models.SleepLog, 0)
	for _, log := range repo.logs {
		if log.UserID == userID {
			result = append(result, log)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date < result[j].Date })
	return result, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
}

func (publisher *recordingPublisher) Publish(topic string) {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	publisher.topics = append(publisher.topics, topic)
}

func (publisher *recordingPublisher) published() []string {
	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	return append([]string(nil), publisher.topics...)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
