package link

import (
	"context"
	"time"

	"midi-lamps/queue"
)

// DefaultHeartbeatInterval keeps idle connections from being dropped
const DefaultHeartbeatInterval = time.Second

// Heartbeat periodically queues a ping so the session stays alive
type Heartbeat struct {
	queue    *queue.Queue
	interval time.Duration
}

func NewHeartbeat(q *queue.Queue, interval time.Duration) *Heartbeat {
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	return &Heartbeat{queue: q, interval: interval}
}

// Run offers a heartbeat immediately and then every interval. A full queue
// drops the beat; Run never blocks on the queue.
func (h *Heartbeat) Run(ctx context.Context) error {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		h.queue.Push("heartbeat", queue.Heartbeat)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
