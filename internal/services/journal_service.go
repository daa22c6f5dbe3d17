package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/moodify/internal/logger"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/realtime"
)

var (
	ErrJournalTextRequired  = errors.New("journal text required")
	ErrJournalEntryNotFound = errors.New("journal entry not found")
)

type JournalRepository interface {
	Create(ctx context.Context, entry *models.JournalEntry) error
	ListByUser(ctx context.Context, userID uint) ([]models.JournalEntry, error)
	FindByUserAndID(ctx context.Context, userID uint, id string) (models.JournalEntry, bool, error)
	UpdateSuggestedTasks(ctx context.Context, entry *models.JournalEntry) error
	DeleteByUserAndID(ctx context.Context, userID uint, id string) (bool, error)
}

type EmotionClassifier interface {
	Classify(ctx context.Context, text string) ([]models.EmotionScore, error)
}

type Reflector interface {
	Reflect(ctx context.Context, text string) (string, error)
}

// JournalAnalysis is what a submission returns. Entry is set only when the
// analysis succeeded and the write went through.
type JournalAnalysis struct {
	Emotions   []models.EmotionScore `json:"emotions"`
	Reflection *string               `json:"reflection"`
	Entry      *models.JournalEntry  `json:"entry,omitempty"`
	Saved      bool                  `json:"saved"`
}

// ErrorAnalysis is the sentinel returned when a collaborator fails.
func ErrorAnalysis() JournalAnalysis {
	return JournalAnalysis{
		Emotions: []models.EmotionScore{{Label: models.ErrorEmotionLabel, Score: 0}},
	}
}

type JournalService struct {
	entries   JournalRepository
	emotions  EmotionClassifier
	reflector Reflector
	publisher ChangePublisher
	log       *logger.Logger
	now       func() time.Time
	newID     func() string
}

func NewJournalService(entries JournalRepository, emotions EmotionClassifier, reflector Reflector, publisher ChangePublisher, log *logger.Logger) *JournalService {
	if log == nil {
		log = logger.Nop()
	}
	return &JournalService{
		entries:   entries,
		emotions:  emotions,
		reflector: reflector,
		publisher: publisherOrNoop(publisher),
		log:       log.With("service", "journal"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// AnalyzeAndSave classifies text, asks for a reflective reply and stores the
// entry. Collaborator failures yield ErrorAnalysis and store nothing.
func (service *JournalService) AnalyzeAndSave(ctx context.Context, userID uint, text string) (JournalAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return JournalAnalysis{}, ErrJournalTextRequired
	}

	emotions, err := service.emotions.Classify(ctx, text)
	if err != nil {
		service.log.Error("emotion classification failed", "user_id", userID, "error", err)
		return ErrorAnalysis(), nil
	}

	reply, err := service.reflector.Reflect(ctx, text)
	if err != nil {
		service.log.Error("reflection failed", "user_id", userID, "error", err)
		return ErrorAnalysis(), nil
	}

	analysis := JournalAnalysis{Emotions: emotions}
	if reply != "" {
		analysis.Reflection = &reply
	}

	entry := models.JournalEntry{
		ID:             service.newID(),
		UserID:         userID,
		Text:           text,
		Emotions:       emotions,
		Reflection:     analysis.Reflection,
		SuggestedTasks: []string{},
		CreatedAt:      service.now().UTC(),
	}
	if err := service.entries.Create(ctx, &entry); err != nil {
		service.log.Error("save journal entry failed", "user_id", userID, "error", err)
		return analysis, nil
	}

	analysis.Entry = &entry
	analysis.Saved = true
	publishUserChange(service.publisher, userID, realtime.CollectionJournal)
	return analysis, nil
}

// List returns the user's entries, newest first.
func (service *JournalService) List(ctx context.Context, userID uint) ([]models.JournalEntry, error) {
	return service.entries.ListByUser(ctx, userID)
}

func (service *JournalService) Get(ctx context.Context, userID uint, id string) (models.JournalEntry, error) {
	entry, found, err := service.entries.FindByUserAndID(ctx, userID, strings.TrimSpace(id))
	if err != nil {
		return models.JournalEntry{}, fmt.Errorf("load journal entry: %w", err)
	}
	if !found {
		return models.JournalEntry{}, ErrJournalEntryNotFound
	}
	return entry, nil
}

// SetSuggestedTasks is the only mutation allowed on a stored entry.
func (service *JournalService) SetSuggestedTasks(ctx context.Context, userID uint, id string, labels []string) error {
	entry, err := service.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	entry.SuggestedTasks = append([]string{}, labels...)
	if err := service.entries.UpdateSuggestedTasks(ctx, &entry); err != nil {
		return fmt.Errorf("update suggested tasks: %w", err)
	}
	publishUserChange(service.publisher, userID, realtime.CollectionJournal)
	return nil
}

func (service *JournalService) Delete(ctx context.Context, userID uint, id string) error {
	deleted, err := service.entries.DeleteByUserAndID(ctx, userID, strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if !deleted {
		return ErrJournalEntryNotFound
	}
	publishUserChange(service.publisher, userID, realtime.CollectionJournal)
	return nil
}
