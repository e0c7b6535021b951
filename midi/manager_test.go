package midi

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-lamps/control"
	"midi-lamps/note"
	"midi-lamps/queue"
)

// fakeBackend implements Backend with ports and listeners under test control
type fakeBackend struct {
	mu        sync.Mutex
	ports     []Port
	listeners map[Port]Receiver
	listens   int
	stops     int
	listenErr error
}

func newFakeBackend(ports ...Port) *fakeBackend {
	return &fakeBackend{ports: ports, listeners: make(map[Port]Receiver)}
}

func (b *fakeBackend) Ports() ([]Port, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Port(nil), b.ports...), nil
}

func (b *fakeBackend) Listen(p Port, recv Receiver) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listenErr != nil {
		return nil, b.listenErr
	}
	b.listens++
	b.listeners[p] = recv
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.stops++
		delete(b.listeners, p)
	}, nil
}

func (b *fakeBackend) Close() error { return nil }

func (b *fakeBackend) setPorts(ports ...Port) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ports = ports
}

func (b *fakeBackend) send(t *testing.T, p Port, msgs ...gomidi.Message) {
	t.Helper()
	b.mu.Lock()
	recv, ok := b.listeners[p]
	b.mu.Unlock()
	require.True(t, ok, "no listener on %s", p)
	for i, msg := range msgs {
		recv(msg, int32(i))
	}
}

var (
	casio = Port{Number: 1, Name: "CASIO USB-MIDI"}
	other = Port{Number: 0, Name: "Midi Through Port-0"}
)

func newTestWatcher(b Backend) (*Watcher, *queue.Queue) {
	q := queue.New(8)
	tr := control.NewTranslator(note.LampMap{note.C: 11}, nil)
	return NewWatcher(WatcherConfig{Prefix: "CASIO", PollInterval: time.Hour}, b, tr, q), q
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		ports []Port
		want  Port
		found bool
	}{
		{"empty", nil, Port{}, false},
		{"no match", []Port{other}, Port{}, false},
		{"match", []Port{other, casio}, casio, true},
		{"first wins", []Port{{Number: 4, Name: "CASIO A"}, {Number: 2, Name: "CASIO B"}}, Port{Number: 4, Name: "CASIO A"}, true},
		{"prefix only", []Port{{Number: 3, Name: "My CASIO"}}, Port{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Match(tt.ports, "CASIO")
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanAttachesOnce(t *testing.T) {
	b := newFakeBackend(other, casio)
	w, _ := newTestWatcher(b)
	ctx := context.Background()

	w.scan(ctx)
	w.scan(ctx)

	assert.Equal(t, 1, b.listens)
	require.NotNil(t, w.attached)
	assert.Equal(t, casio, w.attached.port)

	ev := <-w.Events()
	assert.Equal(t, DeviceEvent{Type: DeviceConnected, Port: casio}, ev)
}

func TestScanNoDeviceIsNoop(t *testing.T) {
	b := newFakeBackend(other)
	w, _ := newTestWatcher(b)

	w.scan(context.Background())
	assert.Nil(t, w.attached)
	assert.Equal(t, 0, b.listens)
	assert.Empty(t, w.Events())
}

func TestDisconnectDiscardsState(t *testing.T) {
	b := newFakeBackend(casio)
	w, q := newTestWatcher(b)
	ctx := context.Background()

	w.scan(ctx)
	// select C in select mode; the bank/program live in the attached state
	b.send(t, casio, gomidi.Message{0xc0, 66}, gomidi.Message{0x90, 60, 100})
	assert.Equal(t, 2, q.Len())

	b.setPorts()
	w.scan(ctx)
	assert.Nil(t, w.attached)
	assert.Equal(t, 1, b.stops)

	b.setPorts(casio)
	w.scan(ctx)
	require.NotNil(t, w.attached)

	// program 0 after reattach: nothing happens on note-on
	b.send(t, casio, gomidi.Message{0x90, 60, 100})
	assert.Equal(t, 2, q.Len())

	// toggle mode: selection was reset, so no targets
	b.send(t, casio, gomidi.Message{0xc0, 65}, gomidi.Message{0x90, 60, 100})
	require.Equal(t, 3, q.Len())

	events := []DeviceEventType{(<-w.Events()).Type, (<-w.Events()).Type, (<-w.Events()).Type}
	assert.Equal(t, []DeviceEventType{DeviceConnected, DeviceDisconnected, DeviceConnected}, events)

	for i := 0; i < 2; i++ {
		_, err := q.Receive(ctx)
		require.NoError(t, err)
	}
	cmd, err := q.Receive(ctx)
	require.NoError(t, err)
	assert.Contains(t, cmd.Payload, `"targets":[]`)
}

func TestSwitchToDifferentPortReattaches(t *testing.T) {
	b := newFakeBackend(casio)
	w, _ := newTestWatcher(b)
	ctx := context.Background()

	w.scan(ctx)
	moved := Port{Number: 2, Name: casio.Name}
	b.setPorts(moved)
	w.scan(ctx)

	assert.Equal(t, 2, b.listens)
	assert.Equal(t, 1, b.stops)
	assert.Equal(t, moved, w.attached.port)
}

func TestMalformedMessageDoesNotStopListener(t *testing.T) {
	b := newFakeBackend(casio)
	w, q := newTestWatcher(b)
	w.scan(context.Background())

	b.send(t, casio,
		gomidi.Message{0x90, 60},
		gomidi.Message{0xc0, 66},
		gomidi.Message{0x90, 60, 100},
	)
	assert.Equal(t, 2, q.Len())
	assert.NotNil(t, w.attached)
}

func TestListenErrorRetriesNextScan(t *testing.T) {
	b := newFakeBackend(casio)
	b.listenErr = errors.New("busy")
	w, _ := newTestWatcher(b)
	ctx := context.Background()

	w.scan(ctx)
	assert.Nil(t, w.attached)

	b.mu.Lock()
	b.listenErr = nil
	b.mu.Unlock()

	w.scan(ctx)
	assert.NotNil(t, w.attached)
}

func TestRunStopsOnCancel(t *testing.T) {
	b := newFakeBackend(casio)
	w, _ := newTestWatcher(b)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return b.listens == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, 1, b.stops)

	// events channel is drained and closed
	var types []DeviceEventType
	for ev := range w.Events() {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []DeviceEventType{DeviceConnected, DeviceDisconnected}, types)
}
