package services

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/moodify/internal/models"
	"github.com/terraincognita07/moodify/internal/spin"
)

type spinSession struct {
	id          string
	wheel       *spin.Wheel[models.GeneratedTask]
	placeholder bool
	savedAt     *time.Time
	touchedAt   time.Time
}

// spinSessionStore keeps at most one in-progress round per user.
type spinSessionStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[uint]*spinSession
	newRand  func() *rand.Rand
}

func newSpinSessionStore(ttl time.Duration) *spinSessionStore {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &spinSessionStore{
		ttl:      ttl,
		sessions: make(map[uint]*spinSession),
	}
}

func (store *spinSessionStore) rng() *rand.Rand {
	if store.newRand == nil {
		return nil
	}
	return store.newRand()
}

// start replaces the user's session with a fresh one.
func (store *spinSessionStore) start(userID uint, now time.Time, setup func(*spinSession)) SpinSessionView {
	store.mu.Lock()
	defer store.mu.Unlock()

	session := &spinSession{
		id:        uuid.NewString(),
		wheel:     spin.NewWheel[models.GeneratedTask](spin.DefaultMaxSpins, store.rng()),
		touchedAt: now,
	}
	setup(session)
	store.sessions[userID] = session
	return session.view()
}

// with runs fn on the user's session when id matches and it has not expired.
func (store *spinSessionStore) with(userID uint, sessionID string, now time.Time, fn func(*spinSession)) bool {
	store.mu.Lock()
	defer store.mu.Unlock()

	session, ok := store.sessions[userID]
	if !ok || session.id != sessionID {
		return false
	}
	if now.Sub(session.touchedAt) > store.ttl {
		delete(store.sessions, userID)
		return false
	}
	session.touchedAt = now
	fn(session)
	return true
}

func (store *spinSessionStore) sweep(now time.Time) int {
	store.mu.Lock()
	defer store.mu.Unlock()

	removed := 0
	for userID, session := range store.sessions {
		if now.Sub(session.touchedAt) > store.ttl {
			delete(store.sessions, userID)
			removed++
		}
	}
	return removed
}

func (store *spinSessionStore) drop(userID uint) {
	store.mu.Lock()
	defer store.mu.Unlock()
	delete(store.sessions, userID)
}

func (store *spinSessionStore) run(ctx context.Context, onSweep func(removed int)) {
	interval := max(store.ttl/4, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if removed := store.sweep(now); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

// SpinSessionView is the client-facing state of a round.
type SpinSessionView struct {
	ID          string                 `json:"id"`
	Candidates  []models.GeneratedTask `json:"candidates"`
	Selected    []models.GeneratedTask `json:"selected"`
	SpinsLeft   int                    `json:"spins_left"`
	MaxSpins    int                    `json:"max_spins"`
	CanConfirm  bool                   `json:"can_confirm"`
	Placeholder bool                   `json:"placeholder"`
	SavedAt     *time.Time             `json:"saved_at,omitempty"`
	Drawn       *models.GeneratedTask  `json:"drawn,omitempty"`
}

func (session *spinSession) view() SpinSessionView {
	return SpinSessionView{
		ID:          session.id,
		Candidates:  session.wheel.Candidates(),
		Selected:    session.wheel.Selected(),
		SpinsLeft:   session.wheel.SpinsLeft(),
		MaxSpins:    session.wheel.Max(),
		CanConfirm:  session.savedAt == nil && session.wheel.CanConfirm(),
		Placeholder: session.placeholder,
		SavedAt:     session.savedAt,
	}
}
