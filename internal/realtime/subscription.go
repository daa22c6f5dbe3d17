package realtime

import (
	"context"
	"sync"
)

// Subscription delivers the current snapshot of a topic and a fresh one after
// every change. Bursts of changes collapse into a single reload.
type Subscription[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// Subscribe starts a subscription that lives until ctx ends or Close is
// called. A failed load is logged and skipped; the next change retries it.
func Subscribe[T any](ctx context.Context, hub *Hub, topic string, load func(context.Context) (T, error)) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	signal := hub.watch(topic)
	go func() {
		defer close(sub.done)
		defer close(sub.updates)
		defer hub.unwatch(topic, signal)

		for {
			snapshot, err := load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				hub.log.Warn("snapshot load failed", "topic", topic, "error", err)
			} else {
				select {
				case sub.updates <- snapshot:
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-signal:
			case <-ctx.Done():
				return
			}
		}
	}()

	return sub
}

func (sub *Subscription[T]) Updates() <-chan T {
	return sub.updates
}

// Close stops the subscription and waits for its goroutine to exit.
func (sub *Subscription[T]) Close() {
	sub.once.Do(sub.cancel)
	<-sub.done
}
