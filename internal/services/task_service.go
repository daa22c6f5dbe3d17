package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terraincognita07/moodify/internal/inference"
	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
	"github.com/terraincognita07/moodify/internal/spin"
)

var (
	ErrSpinSessionNotFound = errors.New("spin session not found")
	ErrSpinRoundIncomplete = errors.New("spin round incomplete")
	ErrNoSavedTasks        = errors.New("no saved tasks")
)

type TaskGenerator interface {
	GenerateTasks(ctx context.Context, summary string) ([]models.GeneratedTask, error)
}

type DailyTaskRepository interface {
	Replace(ctx context.Context, set *models.DailyTaskSet) error
	FindByUser(ctx context.Context, userID uint) (models.DailyTaskSet, bool, error)
}

type SuggestedTaskWriter interface {
	SetSuggestedTasks(ctx context.Context, userID uint, entryID string, labels []string) error
}

type TaskService struct {
	generator TaskGenerator
	daily     DailyTaskRepository
	journal   SuggestedTaskWriter
	publisher ChangePublisher
	sessions  *spinSessionStore
	log       *logger.Logger
	now       func() time.Time
}

func NewTaskService(generator TaskGenerator, daily DailyTaskRepository, journal SuggestedTaskWriter, publisher ChangePublisher, sessionTTL time.Duration, log *logger.Logger) *TaskService {
	if log == nil {
		log = logger.Nop()
	}
	return &TaskService{
		generator: generator,
		daily:     daily,
		journal:   journal,
		publisher: publisherOrNoop(publisher),
		sessions:  newSpinSessionStore(sessionTTL),
		log:       log.With("service", "tasks"),
		now:       time.Now,
	}
}

// Generate asks for fresh suggestions and opens a new round, replacing any
// round the user had in progress. A failed generation, or a reply without six
// distinct tasks, falls back to placeholder tasks.
func (service *TaskService) Generate(ctx context.Context, userID uint, summary string) SpinSessionView {
	summary = strings.TrimSpace(summary)
	tasks, err := service.generator.GenerateTasks(ctx, summary)
	if err == nil {
		tasks, err = distinctCandidates(tasks)
	}
	placeholder := false
	if err != nil {
		service.log.Warn("task generation failed; using placeholders", "user_id", userID, "error", err)
		tasks = inference.PlaceholderTasks()
		placeholder = true
	}

	return service.sessions.start(userID, service.now(), func(session *spinSession) {
		session.wheel.Reset(tasks)
		session.placeholder = placeholder
	})
}

// Draw spins the wheel once. A spent or empty wheel returns the unchanged view.
func (service *TaskService) Draw(userID uint, sessionID string) (SpinSessionView, error) {
	var view SpinSessionView
	ok := service.sessions.with(userID, strings.TrimSpace(sessionID), service.now(), func(session *spinSession) {
		drawn, drew := session.wheel.Draw()
		view = session.view()
		if drew {
			view.Drawn = &drawn
		}
	})
	if !ok {
		return SpinSessionView{}, ErrSpinSessionNotFound
	}
	return view, nil
}

// SaveSelected stores the round's picks as today's tasks. When entryID is set
// the journal entry's suggested tasks become the saved labels.
func (service *TaskService) SaveSelected(ctx context.Context, userID uint, sessionID string, entryID string) (SpinSessionView, error) {
	var selected []models.GeneratedTask
	complete := false
	ok := service.sessions.with(userID, strings.TrimSpace(sessionID), service.now(), func(session *spinSession) {
		selected = session.wheel.Selected()
		complete = session.savedAt == nil && session.wheel.CanConfirm()
	})
	if !ok {
		return SpinSessionView{}, ErrSpinSessionNotFound
	}
	if !complete {
		return SpinSessionView{}, ErrSpinRoundIncomplete
	}

	toSave := selected[:min(spin.DefaultMaxSpins, len(selected))]
	if entryID = strings.TrimSpace(entryID); entryID != "" {
		labels := make([]string, 0, len(toSave))
		for _, task := range toSave {
			labels = append(labels, task.Task)
		}
		if err := service.journal.SetSuggestedTasks(ctx, userID, entryID, labels); err != nil {
			return SpinSessionView{}, err
		}
	}

	savedAt := service.now().UTC()
	set := models.DailyTaskSet{UserID: userID, Tasks: toSave, SavedAt: savedAt}
	if err := service.daily.Replace(ctx, &set); err != nil {
		return SpinSessionView{}, fmt.Errorf("save daily tasks: %w", err)
	}
	publishUserChange(service.publisher, userID, realtime.CollectionDailyTasks)

	var view SpinSessionView
	ok = service.sessions.with(userID, strings.TrimSpace(sessionID), service.now(), func(session *spinSession) {
		session.savedAt = &savedAt
		view = session.view()
	})
	if !ok {
		// The round was replaced or dropped while saving; the tasks are stored.
		return SpinSessionView{}, ErrSpinSessionNotFound
	}
	return view, nil
}

// LoadSaved restores today's confirmed tasks as a finished round.
func (service *TaskService) LoadSaved(ctx context.Context, userID uint) (SpinSessionView, error) {
	set, found, err := service.daily.FindByUser(ctx, userID)
	if err != nil {
		return SpinSessionView{}, fmt.Errorf("load daily tasks: %w", err)
	}
	if !found {
		return SpinSessionView{}, ErrNoSavedTasks
	}

	savedAt := set.SavedAt
	return service.sessions.start(userID, service.now(), func(session *spinSession) {
		session.wheel.Restore(set.Tasks)
		session.savedAt = &savedAt
	}), nil
}

// Today returns the user's saved task set, or nil when none is stored.
func (service *TaskService) Today(ctx context.Context, userID uint) (*models.DailyTaskSet, error) {
	set, found, err := service.daily.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load daily tasks: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &set, nil
}

// DiscardSessions drops the user's in-memory round, e.g. after account deletion.
func (service *TaskService) DiscardSessions(userID uint) {
	service.sessions.drop(userID)
}

// RunSessionSweeper evicts idle rounds until ctx ends.
func (service *TaskService) RunSessionSweeper(ctx context.Context) error {
	service.sessions.run(ctx, func(removed int) {
		service.log.Debug("evicted idle spin sessions", "count", removed)
	})
	return nil
}

// distinctCandidates keeps the first PlaceholderTaskCount tasks with distinct
// non-blank labels and fails when the reply has fewer.
func distinctCandidates(tasks []models.GeneratedTask) ([]models.GeneratedTask, error) {
	seen := make(map[string]struct{}, len(tasks))
	kept := make([]models.GeneratedTask, 0, inference.PlaceholderTaskCount)
	for _, task := range tasks {
		key := strings.ToLower(strings.TrimSpace(task.Task))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, task)
		if len(kept) == inference.PlaceholderTaskCount {
			return kept, nil
		}
	}
	return nil, fmt.Errorf("expected %d distinct tasks, got %d", inference.PlaceholderTaskCount, len(kept))
}
