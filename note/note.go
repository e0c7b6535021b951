package note

import (
	"fmt"
	"strings"
)

// PitchClass is one of the 12 note names within an octave
type PitchClass uint8

const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

// NumClasses is the number of pitch classes in an octave
const NumClasses = 12

var classNames = [NumClasses]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// One hue per pitch class in 30 degree steps. B stops at 359 so it stays distinct from red.
var hues = [NumClasses]float64{30, 60, 90, 120, 150, 180, 210, 240, 270, 300, 330, 359}

func (p PitchClass) String() string {
	return classNames[p%NumClasses]
}

// Hue returns the display hue of the pitch class in degrees
func (p PitchClass) Hue() float64 {
	return hues[p%NumClasses]
}

// Note is a musical note decoded from a MIDI key number
type Note struct {
	Class  PitchClass
	Octave int
}

// Parse decodes a MIDI key number. Only the low 7 bits are used.
func Parse(code uint8) Note {
	code &= 0x7f
	return Note{
		Class:  PitchClass(code % NumClasses),
		Octave: int(code / NumClasses),
	}
}

// Hue returns the hue of the note's pitch class; the octave is ignored
func (n Note) Hue() float64 {
	return n.Class.Hue()
}

// ScaleIndex returns the position of the note inside its octave (0-11)
func (n Note) ScaleIndex() int {
	return int(n.Class)
}

// Index returns the MIDI key number, the inverse of Parse
func (n Note) Index() uint8 {
	return uint8(n.Octave*NumClasses + int(n.Class))
}

func (n Note) String() string {
	return fmt.Sprintf("%s%d", n.Class, n.Octave)
}

// LampMap associates pitch classes with lamp identifiers on the lamp service.
// Classes without an entry have no lamp.
type LampMap map[PitchClass]uint64

// Lookup returns the lamp bound to the note's pitch class
func (m LampMap) Lookup(n Note) (uint64, bool) {
	id, ok := m[n.Class]
	return id, ok
}

var bars = []rune("▁▂▃▄▅▆▇")

// VelocityBar renders a velocity as a seven slot meter, e.g. "[▁▂▃    ]"
func VelocityBar(velocity uint8) string {
	filled := int(velocity&0x7f) / 16
	return "[" + string(bars[:filled]) + strings.Repeat(" ", len(bars)-filled) + "]"
}
