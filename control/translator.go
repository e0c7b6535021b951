// Package control turns MIDI messages from the keyboard into lamp commands.
//
// Bank and program select a Mode (see ModeOf); note-on messages are then
// interpreted in that mode. Every message yields at most one command.
package control

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"

	"midi-lamps/debug"
	"midi-lamps/lamp"
	"midi-lamps/note"
	"midi-lamps/queue"
)

// Fixed command parameters
const (
	Brightness = 100
	Saturation = 1.0

	minKelvin   = 1700
	kelvinRange = 4800
)

// Snapshot is a copy of a State taken after it changed
type Snapshot struct {
	State State
	Mode  Mode
}

// Observer is notified after every state change. It runs on the MIDI callback
// and must not block.
type Observer func(Snapshot)

// Translator maps messages to commands. It holds no session state itself, so
// one Translator can serve every State the watcher creates.
type Translator struct {
	lamps    note.LampMap
	observer Observer
}

// NewTranslator creates a translator for the given lamp layout. observer may be nil.
func NewTranslator(lamps note.LampMap, observer Observer) *Translator {
	return &Translator{lamps: lamps, observer: observer}
}

// Handle applies one message to s. It returns the command to send, if any.
// A malformed message returns an error wrapping ErrMalformed and leaves s untouched.
func (t *Translator) Handle(s *State, msg gomidi.Message) (queue.Command, bool, error) {
	if err := validate(msg); err != nil {
		return queue.Command{}, false, err
	}

	var channel, key, velocity, controller, value, program uint8

	switch {
	case isActiveSensing(msg):
		return none()

	case msg.GetNoteOn(&channel, &key, &velocity):
		if velocity == 0 {
			// running status release
			return none()
		}
		return t.noteOn(s, note.Parse(key), velocity)

	case msg.GetNoteOff(&channel, &key, &velocity):
		return none()

	case msg.GetControlChange(&channel, &controller, &value):
		t.controlChange(s, controller, value)
		return none()

	case msg.GetProgramChange(&channel, &program):
		return t.programChange(s, program)

	case isRealtime(msg):
		debug.LogEvery(100, "midi", "realtime: %s", msg)
		return none()

	default:
		debug.Log("midi", "Midi: %s", msg)
		return none()
	}
}

func (t *Translator) noteOn(s *State, n note.Note, velocity uint8) (queue.Command, bool, error) {
	debug.Log("midi", "%s %s (%d)", n, note.VelocityBar(velocity), velocity)

	switch s.Mode() {
	case ColorMode:
		return emit(lamp.SetSceneColor(s.Targets(t.lamps), n.Hue(), Saturation, Brightness))

	case TemperatureMode:
		return emit(lamp.SetSceneTemperature(s.Targets(t.lamps), Kelvin(n), Brightness))

	case ToggleMode:
		return emit(lamp.Toggle(s.Targets(t.lamps)))

	case SelectMode:
		selected := s.Toggle(n.Class)
		t.notify(s)

		id, ok := t.lamps.Lookup(n)
		if !ok {
			return none()
		}
		debug.Debug("state", "targets: %d", id)
		if selected {
			return emit(lamp.BlinkGreen(lamp.Targets{id}))
		}
		return emit(lamp.BlinkRed(lamp.Targets{id}))
	}

	return none()
}

func (t *Translator) controlChange(s *State, controller, value uint8) {
	switch controller {
	case BankSelectMSB:
		s.SetBankMSB(value)
	case BankSelectLSB:
		s.SetBankLSB(value)
	default:
		debug.Debug("midi", "controller %d = %d ignored", controller, value)
		return
	}
	t.notify(s)
}

func (t *Translator) programChange(s *State, program uint8) (queue.Command, bool, error) {
	s.Program = program
	debug.Log("state", "Bank is %d, program is %d", s.Bank, s.Program)
	t.notify(s)

	// entering select mode re-announces the current selection
	if s.Mode() == SelectMode {
		targets := s.Targets(t.lamps)
		debug.Debug("state", "targets: %s", targets)
		return emit(lamp.BlinkGreen(targets))
	}
	return none()
}

func (t *Translator) notify(s *State) {
	if t.observer != nil {
		t.observer(Snapshot{State: *s, Mode: s.Mode()})
	}
}

// Kelvin maps the MIDI key range linearly onto 1700K-6500K
func Kelvin(n note.Note) uint32 {
	return uint32(float64(n.Index())*kelvinRange/127.0) + minKelvin
}

func emit(call lamp.Call) (queue.Command, bool, error) {
	payload, err := call.Encode()
	if err != nil {
		return queue.Command{}, false, fmt.Errorf("translate: %w", err)
	}
	return queue.Text(payload), true, nil
}

func none() (queue.Command, bool, error) {
	return queue.Command{}, false, nil
}
