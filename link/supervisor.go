// Package link owns the websocket session to the lamp service. It drains the
// command queue into the socket and reconnects from scratch on any failure.
package link

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"midi-lamps/debug"
	"midi-lamps/queue"
)

// Defaults for Config
const (
	DefaultRetryDelay   = 5 * time.Second
	DefaultWriteTimeout = 5 * time.Second
)

// Conn is the subset of *websocket.Conn the supervisor writes through
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens a session to url
type Dialer func(ctx context.Context, url string) (Conn, error)

// WebsocketDialer dials with gorilla/websocket. Incoming frames are read and
// discarded so control frames (pong, close) keep being processed.
func WebsocketDialer(handshakeTimeout time.Duration) Dialer {
	d := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	return func(ctx context.Context, url string) (Conn, error) {
		conn, resp, err := d.DialContext(ctx, url, nil)
		if err != nil {
			if resp != nil {
				return nil, fmt.Errorf("dial %s: %s: %w", url, resp.Status, err)
			}
			return nil, fmt.Errorf("dial %s: %w", url, err)
		}
		go discard(conn)
		return conn, nil
	}
}

func discard(conn *websocket.Conn) {
	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}

// Config holds the session parameters
type Config struct {
	URL          string
	RetryDelay   time.Duration
	WriteTimeout time.Duration
}

// ConnEvent reports a session state change
type ConnEvent struct {
	Type ConnEventType
	Err  error
}

type ConnEventType int

const (
	Connecting ConnEventType = iota
	Connected
	Disconnected
)

func (t ConnEventType) String() string {
	switch t {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Supervisor is the single consumer of the command queue
type Supervisor struct {
	cfg    Config
	dial   Dialer
	queue  *queue.Queue
	events chan ConnEvent
	sent   atomic.Uint64
}

// NewSupervisor creates a supervisor; dial is usually WebsocketDialer
func NewSupervisor(cfg Config, q *queue.Queue, dial Dialer) *Supervisor {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	return &Supervisor{
		cfg:    cfg,
		dial:   dial,
		queue:  q,
		events: make(chan ConnEvent, 16),
	}
}

// Events returns a channel of session state changes. It is closed when Run returns.
func (s *Supervisor) Events() <-chan ConnEvent {
	return s.events
}

// Sent returns the number of frames written so far
func (s *Supervisor) Sent() uint64 {
	return s.sent.Load()
}

// Run connects, drains, and reconnects until ctx is done. Retries are
// unbounded with a fixed delay between failed dials.
func (s *Supervisor) Run(ctx context.Context) error {
	defer close(s.events)

	for ctx.Err() == nil {
		debug.Log("link", "Trying to connect to %s", s.cfg.URL)
		s.emit(ConnEvent{Type: Connecting})

		conn, err := s.dial(ctx, s.cfg.URL)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			debug.Warn("link", "Could not connect to websocket: %v. Retrying in %s", err, s.cfg.RetryDelay)
			s.emit(ConnEvent{Type: Disconnected, Err: err})
			if !sleep(ctx, s.cfg.RetryDelay) {
				break
			}
			continue
		}

		debug.Log("link", "Connected to %s", s.cfg.URL)
		s.emit(ConnEvent{Type: Connected})

		err = s.drain(ctx, conn)
		conn.Close()
		if ctx.Err() != nil {
			break
		}
		debug.Error("link", err, "Websocket session lost, reconnecting")
		s.emit(ConnEvent{Type: Disconnected, Err: err})
	}

	s.emit(ConnEvent{Type: Disconnected, Err: ctx.Err()})
	return nil
}

// drain writes queued commands until a write fails or ctx is done. A command
// whose write failed is not requeued.
func (s *Supervisor) drain(ctx context.Context, conn Conn) error {
	for {
		cmd, err := s.queue.Receive(ctx)
		if err != nil {
			return err
		}
		if err := s.write(conn, cmd); err != nil {
			return err
		}
		s.sent.Add(1)
	}
}

func (s *Supervisor) write(conn Conn, cmd queue.Command) error {
	deadline := time.Now().Add(s.cfg.WriteTimeout)

	if cmd.IsHeartbeat() {
		debug.Debug("link", "Ping!")
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return fmt.Errorf("failed to ping: %w", err)
		}
		return nil
	}

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(cmd.Payload)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (s *Supervisor) emit(ev ConnEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

// sleep waits for d or until ctx is done; it reports whether the full delay elapsed
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
