package api

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/terraincognita07/moodify/internal/realtime"
)

const streamHeartbeatInterval = 20 * time.Second

// streamSnapshots serves a topic as Server-Sent Events: one "snapshot" event
// with the current state, then another after every change. The subscription
// ends when the client goes away.
func streamSnapshots[T any](c *fiber.Ctx, handler *Handler, topic string, load func(context.Context) (T, error)) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	log := handler.log.With("topic", topic)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(handler.streams)
		defer cancel()

		sub := realtime.Subscribe(ctx, handler.hub, topic, load)
		defer sub.Close()

		heartbeat := time.NewTicker(streamHeartbeatInterval)
		defer heartbeat.Stop()

		for {
			select {
			case snapshot, ok := <-sub.Updates():
				if !ok {
					return
				}
				if err := writeSSEEvent(w, "snapshot", snapshot); err != nil {
					log.Warn("encode snapshot failed", "error", err)
					return
				}
			case <-heartbeat.C:
				if _, err := io.WriteString(w, ": ping\n\n"); err != nil {
					return
				}
			}
			if err := w.Flush(); err != nil {
				log.Debug("stream client disconnected", "error", err)
				return
			}
		}
	})
	return nil
}

func writeSSEEvent(w io.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
