package midi

import (
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"midi-lamps/debug"
)

// Port identifies a MIDI input port as enumerated by the driver
type Port struct {
	Number int
	Name   string
}

func (p Port) String() string {
	return fmt.Sprintf("%d: %s", p.Number, p.Name)
}

// Receiver is called for every message arriving on a port
type Receiver func(msg gomidi.Message, timestampms int32)

// Backend is the part of a MIDI driver the watcher needs
type Backend interface {
	Ports() ([]Port, error)
	Listen(p Port, recv Receiver) (stop func(), err error)
	Close() error
}

type driverBackend struct {
	drv *rtmididrv.Driver
}

// NewDriverBackend opens the rtmidi driver. Failure here is fatal for the bridge.
func NewDriverBackend() (Backend, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &driverBackend{drv: drv}, nil
}

func (b *driverBackend) Ports() ([]Port, error) {
	ins, err := b.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	ports := make([]Port, 0, len(ins))
	for _, in := range ins {
		ports = append(ports, Port{Number: in.Number(), Name: in.String()})
	}
	return ports, nil
}

func (b *driverBackend) Listen(p Port, recv Receiver) (func(), error) {
	in, err := b.find(p)
	if err != nil {
		return nil, err
	}

	stop, err := gomidi.ListenTo(in, recv, gomidi.HandleError(func(err error) {
		debug.Warn("midi", "%s: %v", p.Name, err)
	}))
	if err != nil {
		return nil, fmt.Errorf("listen: %w", err)
	}
	return stop, nil
}

func (b *driverBackend) find(p Port) (drivers.In, error) {
	ins, err := b.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list inputs: %w", err)
	}
	for _, in := range ins {
		if in.Number() == p.Number && in.String() == p.Name {
			return in, nil
		}
	}
	return nil, fmt.Errorf("input port not found: %s", p)
}

func (b *driverBackend) Close() error {
	return b.drv.Close()
}
