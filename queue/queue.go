// Package queue decouples command producers (MIDI input, heartbeat) from the
// websocket writer with a bounded FIFO that never blocks producers.
package queue

import (
	"context"
	"errors"
	"sync/atomic"

	"midi-lamps/debug"
)

// DefaultCapacity matches the lamp bridge's expected burst size
const DefaultCapacity = 100

// ErrFull is returned by Offer when the queue has no room
var ErrFull = errors.New("command queue full")

// Command is one outgoing item: a JSON text payload or the heartbeat sentinel
type Command struct {
	Payload   string
	heartbeat bool
}

// Heartbeat asks the writer for a protocol level ping instead of a text frame
var Heartbeat = Command{Payload: "PING", heartbeat: true}

// Text wraps a payload to be sent as a text frame
func Text(payload string) Command {
	return Command{Payload: payload}
}

// IsHeartbeat reports whether c is the heartbeat sentinel
func (c Command) IsHeartbeat() bool {
	return c.heartbeat
}

// Queue is a bounded multi-producer single-consumer FIFO
type Queue struct {
	ch      chan Command
	dropped atomic.Uint64
}

// New creates a queue holding at most capacity commands
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Queue{ch: make(chan Command, capacity)}
}

// Offer enqueues c without blocking. It fails with ErrFull when the queue is full.
func (q *Queue) Offer(c Command) error {
	select {
	case q.ch <- c:
		return nil
	default:
		q.dropped.Add(1)
		return ErrFull
	}
}

// Push is the producer side policy shared by every source: offer once, and on
// failure log and drop. It reports whether c was accepted.
func (q *Queue) Push(source string, c Command) bool {
	if err := q.Offer(c); err != nil {
		debug.Warn("queue", "%s: dropping command: %v", source, err)
		return false
	}
	return true
}

// Receive blocks until a command is available or ctx is done
func (q *Queue) Receive(ctx context.Context) (Command, error) {
	select {
	case <-ctx.Done():
		return Command{}, ctx.Err()
	case c := <-q.ch:
		return c, nil
	}
}

// Len returns the number of queued commands
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap returns the queue capacity
func (q *Queue) Cap() int {
	return cap(q.ch)
}

// Dropped returns how many offers were rejected so far
func (q *Queue) Dropped() uint64 {
	return q.dropped.Load()
}
