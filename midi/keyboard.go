package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-lamps/control"
	"midi-lamps/debug"
	"midi-lamps/queue"
)

// keyboard is an attached input port together with the session state it owns
type keyboard struct {
	port     Port
	stopFunc func()
}

// attachKeyboard starts listening on port with a fresh control.State. The state
// is captured by the listener closure and dies with it.
func attachKeyboard(backend Backend, port Port, translator *control.Translator, q *queue.Queue) (*keyboard, error) {
	state := &control.State{}

	stop, err := backend.Listen(port, func(msg gomidi.Message, timestampms int32) {
		cmd, ok, err := translator.Handle(state, msg)
		if err != nil {
			debug.Warn("midi", "skipping message at %dms: %v", timestampms, err)
			return
		}
		if ok {
			q.Push("midi", cmd)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", port, err)
	}

	return &keyboard{port: port, stopFunc: stop}, nil
}

func (kb *keyboard) Close() {
	if kb.stopFunc != nil {
		kb.stopFunc()
	}
}
