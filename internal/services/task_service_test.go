package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
)

type stubGenerator struct {
	tasks []models.GeneratedTask
	err   error
}

func (stub *stubGenerator) GenerateTasks(context.Context, string) ([]models.GeneratedTask, error) {
	return stub.tasks, stub.err
}

type suggestedTaskWriterFunc func(ctx context.Context, userID uint, entryID string, labels []string) error

func (fn suggestedTaskWriterFunc) SetSuggestedTasks(ctx context.Context, userID uint, entryID string, labels []string) error {
	return fn(ctx, userID, entryID, labels)
}

func sixGeneratedTasks() []models.GeneratedTask {
	tasks := make([]models.GeneratedTask, 6)
	for i := range tasks {
		tasks[i] = models.GeneratedTask{Task: fmt.Sprintf("Real %d", i+1), Priority: i + 1, Description: "d"}
	}
	return tasks
}

type taskFixture struct {
	service   *TaskService
	generator *stubGenerator
	daily     *stubDailyTaskRepo
	journal   *JournalService
	entries   *stubJournalRepo
	publisher *recordingPublisher
}

func newTaskFixture() taskFixture {
	entries := newStubJournalRepo()
	journal := NewJournalService(entries, &stubClassifier{}, &stubReflector{}, nil, nil)
	generator := &stubGenerator{tasks: sixGeneratedTasks()}
	daily := newStubDailyTaskRepo()
	publisher := &recordingPublisher{}
	service := NewTaskService(generator, daily, journal, publisher, time.Hour, nil)
	service.sessions.newRand = func() *rand.Rand { return rand.New(rand.NewPCG(1, 2)) }
	return taskFixture{service: service, generator: generator, daily: daily, journal: journal, entries: entries, publisher: publisher}
}

func drawRound(t *testing.T, service *TaskService, userID uint, sessionID string) SpinSessionView {
	t.Helper()
	var view SpinSessionView
	for i := 0; i < 3; i++ {
		var err error
		view, err = service.Draw(userID, sessionID)
		if err != nil {
			t.Fatalf("draw %d: %v", i+1, err)
		}
		if view.Drawn == nil {
			t.Fatalf("draw %d returned nothing", i+1)
		}
	}
	return view
}

func TestGenerateFallsBackToPlaceholders(t *testing.T) {
	fixture := newTaskFixture()
	fixture.generator.err = errors.New("no JSON array found")

	view := fixture.service.Generate(context.Background(), 1, "long day")
	if !view.Placeholder || len(view.Candidates) != 6 {
		t.Fatalf("expected 6 placeholders, got %#v", view)
	}
	for i, task := range view.Candidates {
		if task.Task != fmt.Sprintf("Task #%d", i+1) || task.Priority != 0 || task.Description != "" {
			t.Fatalf("unexpected placeholder %#v", task)
		}
	}
	if view.SpinsLeft != 3 || len(view.Selected) != 0 {
		t.Fatalf("expected fresh round, got %#v", view)
	}
}

func TestGenerateRequiresSixDistinctTasks(t *testing.T) {
	tests := []struct {
		name  string
		tasks []models.GeneratedTask
	}{
		{name: "short reply", tasks: sixGeneratedTasks()[:3]},
		{name: "duplicates", tasks: []models.GeneratedTask{{Task: "Walk"}, {Task: " walk ", Priority: 2}, {Task: "Read"}, {Task: "Nap"}, {Task: "Read"}, {Task: "Cook"}}},
		{name: "blank labels", tasks: append(sixGeneratedTasks()[:5], models.GeneratedTask{Task: "  "})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fixture := newTaskFixture()
			fixture.generator.tasks = tt.tasks

			view := fixture.service.Generate(context.Background(), 1, "summary")
			if !view.Placeholder || len(view.Candidates) != 6 || view.Candidates[0].Task != "Task #1" {
				t.Fatalf("expected placeholder round, got %#v", view)
			}
			final := drawRound(t, fixture.service, 1, view.ID)
			if !final.CanConfirm {
				t.Fatalf("expected round to be confirmable, got %#v", final)
			}
		})
	}
}

func TestGenerateKeepsFirstSixDistinctTasks(t *testing.T) {
	fixture := newTaskFixture()
	tasks := sixGeneratedTasks()
	fixture.generator.tasks = append([]models.GeneratedTask{tasks[0], tasks[0]}, append(tasks[1:], models.GeneratedTask{Task: "Extra"})...)

	view := fixture.service.Generate(context.Background(), 1, "summary")
	if view.Placeholder || len(view.Candidates) != 6 {
		t.Fatalf("expected six generated candidates, got %#v", view)
	}
	for i, task := range view.Candidates {
		if task != tasks[i] {
			t.Fatalf("candidate %d: expected %#v, got %#v", i, tasks[i], task)
		}
	}
}

func TestDrawRoundThenNoOp(t *testing.T) {
	fixture := newTaskFixture()
	view := fixture.service.Generate(context.Background(), 1, "summary")

	final := drawRound(t, fixture.service, 1, view.ID)
	if len(final.Selected) != 3 || final.SpinsLeft != 0 || !final.CanConfirm {
		t.Fatalf("unexpected final view %#v", final)
	}
	seen := map[string]bool{}
	for _, task := range final.Selected {
		if seen[task.Task] {
			t.Fatalf("duplicate selection %v", final.Selected)
		}
		seen[task.Task] = true
	}

	extra, err := fixture.service.Draw(1, view.ID)
	if err != nil {
		t.Fatalf("extra draw: %v", err)
	}
	if extra.Drawn != nil || len(extra.Selected) != 3 {
		t.Fatalf("expected fourth draw to be a no-op, got %#v", extra)
	}
}

func TestRegenerateDiscardsPreviousRound(t *testing.T) {
	fixture := newTaskFixture()
	first := fixture.service.Generate(context.Background(), 1, "summary")
	if _, err := fixture.service.Draw(1, first.ID); err != nil {
		t.Fatalf("draw: %v", err)
	}

	second := fixture.service.Generate(context.Background(), 1, "summary")
	if second.ID == first.ID || len(second.Selected) != 0 || second.SpinsLeft != 3 {
		t.Fatalf("expected fresh round, got %#v", second)
	}
	if _, err := fixture.service.Draw(1, first.ID); !errors.Is(err, ErrSpinSessionNotFound) {
		t.Fatalf("expected old session to be gone, got %v", err)
	}
	if _, err := fixture.service.Draw(2, second.ID); !errors.Is(err, ErrSpinSessionNotFound) {
		t.Fatalf("expected other users to be refused, got %v", err)
	}
}

func TestSaveSelectedRequiresCompleteRound(t *testing.T) {
	fixture := newTaskFixture()
	view := fixture.service.Generate(context.Background(), 1, "summary")
	if _, err := fixture.service.Draw(1, view.ID); err != nil {
		t.Fatalf("draw: %v", err)
	}

	if _, err := fixture.service.SaveSelected(context.Background(), 1, view.ID, ""); !errors.Is(err, ErrSpinRoundIncomplete) {
		t.Fatalf("expected ErrSpinRoundIncomplete, got %v", err)
	}
	if len(fixture.daily.sets) != 0 {
		t.Fatal("expected nothing saved")
	}
}

func TestSaveSelectedStoresTodayAndTagsEntry(t *testing.T) {
	fixture := newTaskFixture()
	fixture.entries.entries["entry-1"] = models.JournalEntry{ID: "entry-1", UserID: 1, SuggestedTasks: []string{}}

	view := fixture.service.Generate(context.Background(), 1, "summary")
	final := drawRound(t, fixture.service, 1, view.ID)

	saved, err := fixture.service.SaveSelected(context.Background(), 1, view.ID, "entry-1")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.SavedAt == nil || saved.CanConfirm {
		t.Fatalf("expected saved view, got %#v", saved)
	}

	set := fixture.daily.sets[1]
	if len(set.Tasks) != 3 {
		t.Fatalf("expected 3 saved tasks, got %#v", set.Tasks)
	}
	labels := fixture.entries.entries["entry-1"].SuggestedTasks
	for i, task := range final.Selected {
		if set.Tasks[i] != task || labels[i] != task.Task {
			t.Fatalf("saved tasks do not follow draw order: %v vs %v / %v", set.Tasks, final.Selected, labels)
		}
	}

	topics := fixture.publisher.published()
	if len(topics) == 0 || topics[len(topics)-1] != realtime.UserTopic(1, realtime.CollectionDailyTasks) {
		t.Fatalf("expected daily tasks publish, got %v", topics)
	}

	if _, err := fixture.service.SaveSelected(context.Background(), 1, view.ID, ""); !errors.Is(err, ErrSpinRoundIncomplete) {
		t.Fatalf("expected saved round to refuse a second save, got %v", err)
	}
}

func TestSaveSelectedReportsRoundReplacedDuringSave(t *testing.T) {
	fixture := newTaskFixture()
	view := fixture.service.Generate(context.Background(), 1, "summary")
	drawRound(t, fixture.service, 1, view.ID)

	fixture.service.journal = suggestedTaskWriterFunc(func(ctx context.Context, userID uint, _ string, _ []string) error {
		fixture.service.Generate(ctx, userID, "again")
		return nil
	})

	saved, err := fixture.service.SaveSelected(context.Background(), 1, view.ID, "entry-1")
	if !errors.Is(err, ErrSpinSessionNotFound) {
		t.Fatalf("expected ErrSpinSessionNotFound, got %#v err=%v", saved, err)
	}
	if len(fixture.daily.sets[1].Tasks) != 3 {
		t.Fatalf("expected picks to be stored, got %#v", fixture.daily.sets[1])
	}
}

func TestTodayReturnsSavedSet(t *testing.T) {
	fixture := newTaskFixture()
	set, err := fixture.service.Today(context.Background(), 1)
	if err != nil || set != nil {
		t.Fatalf("expected no saved set, got %#v err=%v", set, err)
	}

	fixture.daily.sets[1] = models.DailyTaskSet{UserID: 1, Tasks: sixGeneratedTasks()[:3]}
	set, err = fixture.service.Today(context.Background(), 1)
	if err != nil || set == nil || len(set.Tasks) != 3 {
		t.Fatalf("expected saved set, got %#v err=%v", set, err)
	}
}

func TestSaveSelectedUnknownEntry(t *testing.T) {
	fixture := newTaskFixture()
	view := fixture.service.Generate(context.Background(), 1, "summary")
	drawRound(t, fixture.service, 1, view.ID)

	if _, err := fixture.service.SaveSelected(context.Background(), 1, view.ID, "missing"); !errors.Is(err, ErrJournalEntryNotFound) {
		t.Fatalf("expected ErrJournalEntryNotFound, got %v", err)
	}
}

func TestLoadSavedRestoresFinishedRound(t *testing.T) {
	fixture := newTaskFixture()
	if _, err := fixture.service.LoadSaved(context.Background(), 1); !errors.Is(err, ErrNoSavedTasks) {
		t.Fatalf("expected ErrNoSavedTasks, got %v", err)
	}

	savedAt := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	fixture.daily.sets[1] = models.DailyTaskSet{UserID: 1, Tasks: sixGeneratedTasks()[:3], SavedAt: savedAt}

	view, err := fixture.service.LoadSaved(context.Background(), 1)
	if err != nil {
		t.Fatalf("load saved: %v", err)
	}
	if len(view.Selected) != 3 || view.SpinsLeft != 0 || view.CanConfirm {
		t.Fatalf("unexpected restored view %#v", view)
	}
	if view.SavedAt == nil || !view.SavedAt.Equal(savedAt) {
		t.Fatalf("expected saved_at %v, got %v", savedAt, view.SavedAt)
	}

	again, err := fixture.service.Draw(1, view.ID)
	if err != nil || again.Drawn != nil {
		t.Fatalf("expected restored round to refuse draws, got %#v err=%v", again, err)
	}
}

func TestSpinSessionsExpire(t *testing.T) {
	fixture := newTaskFixture()
	start := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	fixture.service.now = fixedClock(start)
	view := fixture.service.Generate(context.Background(), 1, "summary")

	fixture.service.now = fixedClock(start.Add(2 * time.Hour))
	if _, err := fixture.service.Draw(1, view.ID); !errors.Is(err, ErrSpinSessionNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}

	fixture.service.now = fixedClock(start)
	fixture.service.Generate(context.Background(), 2, "summary")
	if removed := fixture.service.sessions.sweep(start.Add(3 * time.Hour)); removed != 1 {
		t.Fatalf("expected sweep to evict one session, got %d", removed)
	}
}
