// Package lamp builds the JSON commands understood by the lamp service websocket.
package lamp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// MessageType tags every request sent to the lamp service
const MessageType = "call-lamp-method"

// Lamp methods
const (
	MethodSetScene = "set_scene"
	MethodToggle   = "toggle"
	MethodStartCF  = "start_cf"
)

// Hues used for the selection feedback flashes
const (
	HueGreen = 120.0
	HueRed   = 0.0
)

// Targets is a list of lamp identifiers a command applies to
type Targets []uint64

func (t Targets) String() string {
	parts := make([]string, len(t))
	for i, id := range t {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ", ")
}

// Call is a single lamp method invocation
type Call struct {
	Args    []any   `json:"args"`
	Targets Targets `json:"targets"`
	Method  string  `json:"method"`
}

type request struct {
	Type string `json:"type"`
	Data Call   `json:"data"`
}

// Encode renders the call as the JSON text frame sent to the service
func (c Call) Encode() (string, error) {
	if c.Args == nil {
		c.Args = []any{}
	}
	if c.Targets == nil {
		c.Targets = Targets{}
	}
	data, err := json.Marshal(request{Type: MessageType, Data: c})
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", c.Method, err)
	}
	return string(data), nil
}

// RGB converts a hue at full value into the 0xRRGGBB integer the lamps expect.
// Channels are truncated, not rounded.
func RGB(hue, saturation float64) uint32 {
	c := colorful.Hsv(hue, saturation, 1.0)
	return channel(c.R)<<16 | channel(c.G)<<8 | channel(c.B)
}

func channel(v float64) uint32 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint32(v * 0xff)
}

// SetSceneColor sets the targets to a color at the given brightness (0-100)
func SetSceneColor(targets Targets, hue, saturation float64, brightness uint8) Call {
	return Call{
		Args:    []any{"color", RGB(hue, saturation), brightness},
		Targets: targets,
		Method:  MethodSetScene,
	}
}

// SetSceneTemperature sets the targets to a white color temperature in kelvin
func SetSceneTemperature(targets Targets, kelvin uint32, brightness uint8) Call {
	return Call{
		Args:    []any{"ct", kelvin, brightness},
		Targets: targets,
		Method:  MethodSetScene,
	}
}

// Toggle switches the targets on or off
func Toggle(targets Targets) Call {
	return Call{Targets: targets, Method: MethodToggle}
}

// BlinkGreen flashes the targets green once
func BlinkGreen(targets Targets) Call {
	return blink(targets, RGB(HueGreen, 1))
}

// BlinkRed flashes the targets red once
func BlinkRed(targets Targets) Call {
	return blink(targets, RGB(HueRed, 1))
}

// blink runs a one-shot color flow: 100ms to full color, then 100ms to off.
// Flow tuples are "duration, mode, value, brightness"; mode 1 is a color change.
func blink(targets Targets, rgb uint32) Call {
	flow := fmt.Sprintf("100, 1, %d, 100, 100, 1, %d, 100", rgb, 0)
	return Call{
		Args:    []any{1, 0, flow},
		Targets: targets,
		Method:  MethodStartCF,
	}
}
