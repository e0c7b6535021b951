package control

import (
	"errors"
	"fmt"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// ErrMalformed is returned for bytes that do not form a complete live MIDI message
var ErrMalformed = errors.New("malformed midi message")

const (
	statusSysEx      = 0xf0
	statusEndOfSysEx = 0xf7
	activeSensing    = 0xfe
)

// channelLengths is the full message length per channel voice status nibble
var channelLengths = map[byte]int{
	0x80: 3, // note off
	0x90: 3, // note on
	0xa0: 3, // poly aftertouch
	0xb0: 3, // control change
	0xc0: 2, // program change
	0xd0: 2, // channel pressure
	0xe0: 3, // pitch bend
}

// systemLengths covers system common messages; 0xf4 and 0xf5 are undefined
var systemLengths = map[byte]int{
	0xf1: 2, // time code quarter frame
	0xf2: 3, // song position
	0xf3: 2, // song select
	0xf6: 1, // tune request
}

// validate checks the framing of a single live message
func validate(msg gomidi.Message) error {
	if len(msg) == 0 {
		return fmt.Errorf("%w: empty", ErrMalformed)
	}

	status := msg[0]
	want := 0
	switch {
	case status < 0x80:
		return fmt.Errorf("%w: missing status byte in % X", ErrMalformed, []byte(msg))
	case status < 0xf0:
		want = channelLengths[status&0xf0]
	case status >= 0xf8:
		want = 1
	case status == statusSysEx:
		if msg[len(msg)-1] != statusEndOfSysEx {
			return fmt.Errorf("%w: unterminated sysex % X", ErrMalformed, []byte(msg))
		}
		return checkData(msg[1 : len(msg)-1])
	default:
		n, ok := systemLengths[status]
		if !ok {
			return fmt.Errorf("%w: undefined status %#02x", ErrMalformed, status)
		}
		want = n
	}

	if len(msg) != want {
		return fmt.Errorf("%w: want %d bytes, got % X", ErrMalformed, want, []byte(msg))
	}
	return checkData(msg[1:])
}

func checkData(data []byte) error {
	for _, b := range data {
		if b >= 0x80 {
			return fmt.Errorf("%w: data byte %#02x out of range", ErrMalformed, b)
		}
	}
	return nil
}

func isActiveSensing(msg gomidi.Message) bool {
	return len(msg) == 1 && msg[0] == activeSensing
}

func isRealtime(msg gomidi.Message) bool {
	return len(msg) == 1 && msg[0] >= 0xf8
}
