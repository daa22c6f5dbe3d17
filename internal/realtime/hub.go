package realtime

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/moodify/internal/logger"
)

const (
	CollectionJournal        = "journal"
	CollectionDailyTasks     = "dailyTasks"
	CollectionSleepSchedules = "sleepSchedules"
	CollectionSleepLogs      = "sleepLogs"
)

// UserTopic names the per-user collection a subscription watches.
func UserTopic(userID uint, collection string) string {
	return fmt.Sprintf("users/%d/%s", userID, collection)
}

// Invalidation tells subscribers of Topic to reload their snapshot.
type Invalidation struct {
	Origin string `json:"origin"`
	Topic  string `json:"topic"`
}

// Bus carries invalidations between server instances.
type Bus interface {
	Publish(ctx context.Context, msg Invalidation) error
	StartForwarder(ctx context.Context, onMsg func(Invalidation)) error
	Close() error
}

// Hub fans topic invalidations out to in-process subscriptions and, when a
// bus is attached, to other instances.
type Hub struct {
	mu       sync.Mutex
	log      *logger.Logger
	id       string
	bus      Bus
	watchers map[string]map[chan struct{}]struct{}
}

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		log:      log.With("component", "realtime"),
		id:       uuid.NewString(),
		watchers: make(map[string]map[chan struct{}]struct{}),
	}
}

// UseBus attaches a cross-instance bus. Call before Forward.
func (hub *Hub) UseBus(bus Bus) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	hub.bus = bus
}

// Forward relays invalidations from other instances until ctx ends.
func (hub *Hub) Forward(ctx context.Context) error {
	hub.mu.Lock()
	bus := hub.bus
	hub.mu.Unlock()
	if bus == nil {
		<-ctx.Done()
		return nil
	}

	err := bus.StartForwarder(ctx, func(msg Invalidation) {
		if msg.Origin == hub.id {
			return
		}
		hub.notify(msg.Topic)
	})
	if err != nil {
		return err
	}
	<-ctx.Done()
	return bus.Close()
}

// Publish marks topic as changed.
func (hub *Hub) Publish(topic string) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return
	}
	hub.notify(topic)

	hub.mu.Lock()
	bus := hub.bus
	hub.mu.Unlock()
	if bus == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := bus.Publish(ctx, Invalidation{Origin: hub.id, Topic: topic}); err != nil {
		hub.log.Warn("publish invalidation failed", "topic", topic, "error", err)
	}
}

func (hub *Hub) notify(topic string) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	for signal := range hub.watchers[topic] {
		select {
		case signal <- struct{}{}:
		default:
		}
	}
}

func (hub *Hub) watch(topic string) chan struct{} {
	signal := make(chan struct{}, 1)
	hub.mu.Lock()
	defer hub.mu.Unlock()
	set, ok := hub.watchers[topic]
	if !ok {
		set = make(map[chan struct{}]struct{})
		hub.watchers[topic] = set
	}
	set[signal] = struct{}{}
	return signal
}

func (hub *Hub) unwatch(topic string, signal chan struct{}) {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if set, ok := hub.watchers[topic]; ok {
		delete(set, signal)
		if len(set) == 0 {
			delete(hub.watchers, topic)
		}
	}
}

// Watchers reports how many subscriptions are attached to topic.
func (hub *Hub) Watchers(topic string) int {
	hub.mu.Lock()
	defer hub.mu.Unlock()
	return len(hub.watchers[topic])
}
