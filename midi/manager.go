package midi

import (
	"context"
	"strings"
	"time"

	"midi-lamps/control"
	"midi-lamps/debug"
	"midi-lamps/queue"
)

// DeviceEvent is emitted when the keyboard connects/disconnects
type DeviceEvent struct {
	Type DeviceEventType
	Port Port
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

// Defaults for WatcherConfig
const (
	DefaultPrefix       = "CASIO"
	DefaultPollInterval = time.Second
	scanTimeout         = 3 * time.Second
)

// WatcherConfig selects which device to attach and how often to look for it
type WatcherConfig struct {
	Prefix       string
	PollInterval time.Duration
}

// Watcher handles hot-plug detection of the keyboard. At most one port is
// attached at a time; every attach starts from a fresh control.State.
type Watcher struct {
	backend    Backend
	translator *control.Translator
	queue      *queue.Queue
	prefix     string
	pollRate   time.Duration
	events     chan DeviceEvent

	// only touched by the Run goroutine
	attached *keyboard
}

// NewWatcher creates a watcher feeding commands from the matching device into q
func NewWatcher(cfg WatcherConfig, backend Backend, translator *control.Translator, q *queue.Queue) *Watcher {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Watcher{
		backend:    backend,
		translator: translator,
		queue:      q,
		prefix:     cfg.Prefix,
		pollRate:   cfg.PollInterval,
		events:     make(chan DeviceEvent, 16),
	}
}

// Events returns a channel of device connect/disconnect events. It is closed
// when Run returns.
func (w *Watcher) Events() <-chan DeviceEvent {
	return w.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollRate)
	defer ticker.Stop()
	defer close(w.events)

	// Initial scan
	w.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			w.detach()
			return nil
		case <-ticker.C:
			w.scan(ctx)
		}
	}
}

func (w *Watcher) scan(ctx context.Context) {
	ports, ok := w.ports(ctx)
	if !ok {
		return
	}

	port, found := Match(ports, w.prefix)
	switch {
	case !found && w.attached == nil:
		return

	case !found:
		debug.Log("midi", "Lost connection to keyboard %s", w.attached.port.Name)
		w.detach()

	case w.attached != nil && w.attached.port == port:
		return

	default:
		w.detach()
		kb, err := attachKeyboard(w.backend, port, w.translator, w.queue)
		if err != nil {
			debug.Error("midi", err, "Could not attach keyboard, retrying")
			return
		}
		w.attached = kb
		debug.Log("midi", "Connected to keyboard %s", port.Name)
		w.emit(DeviceEvent{Type: DeviceConnected, Port: port})
	}
}

// ports enumerates inputs with a timeout (CoreMIDI can hang)
func (w *Watcher) ports(ctx context.Context) ([]Port, bool) {
	type portsResult struct {
		ports []Port
		err   error
	}

	ch := make(chan portsResult, 1)
	go func() {
		ports, err := w.backend.Ports()
		ch <- portsResult{ports: ports, err: err}
	}()

	select {
	case result := <-ch:
		if result.err != nil {
			debug.Warn("midi", "port scan failed: %v", result.err)
			return nil, false
		}
		return result.ports, true
	case <-time.After(scanTimeout):
		debug.Warn("midi", "port scan timed out, skipping")
		return nil, false
	case <-ctx.Done():
		return nil, false
	}
}

func (w *Watcher) detach() {
	if w.attached == nil {
		return
	}
	port := w.attached.port
	w.attached.Close()
	w.attached = nil
	w.emit(DeviceEvent{Type: DeviceDisconnected, Port: port})
}

func (w *Watcher) emit(ev DeviceEvent) {
	select {
	case w.events <- ev:
	default:
	}
}

// Match returns the first port whose name starts with prefix
func Match(ports []Port, prefix string) (Port, bool) {
	for _, p := range ports {
		if strings.HasPrefix(p.Name, prefix) {
			return p, true
		}
	}
	return Port{}, false
}
