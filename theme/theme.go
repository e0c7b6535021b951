package theme

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"midi-lamps/note"
)

type Theme struct {
	Symbols Symbols
}

type Symbols struct {
	// Selection keyboard
	Selected   rune // ● pitch class targeted
	Unselected rune // ○ pitch class not targeted
	NoLamp     rune // · no lamp bound to this pitch class

	// Link and device status
	Up   rune // ▲ connected
	Down rune // ▼ disconnected
	Wait rune // … connecting
}

func New() *Theme {
	return &Theme{
		Symbols: Symbols{
			Selected:   '●',
			Unselected: '○',
			NoLamp:     '·',

			Up:   '▲',
			Down: '▼',
			Wait: '…',
		},
	}
}

// Fixed UI colors
const (
	colorFG      = "#e8dff5"
	colorMuted   = "#6c5b7b"
	colorAccent  = "#c06c84"
	colorWarning = "#f8b195"
	colorSuccess = "#99d98c"
)

func (t *Theme) FG() lipgloss.Color      { return lipgloss.Color(colorFG) }
func (t *Theme) Muted() lipgloss.Color   { return lipgloss.Color(colorMuted) }
func (t *Theme) Accent() lipgloss.Color  { return lipgloss.Color(colorAccent) }
func (t *Theme) Warning() lipgloss.Color { return lipgloss.Color(colorWarning) }
func (t *Theme) Success() lipgloss.Color { return lipgloss.Color(colorSuccess) }

// NoteColor returns the lamp color a pitch class sends, as a terminal color
func (t *Theme) NoteColor(pc note.PitchClass) lipgloss.Color {
	return lipgloss.Color(colorful.Hsv(pc.Hue(), 1, 1).Hex())
}

// KelvinColor approximates a color temperature for display. 1700K is deep
// amber and 6500K is neutral white.
func (t *Theme) KelvinColor(k uint32) lipgloss.Color {
	warm := colorful.Color{R: 1, G: 0.55, B: 0.1}
	cool := colorful.Color{R: 1, G: 1, B: 1}
	frac := (float64(k) - 1700) / 4800
	frac = max(0, min(1, frac))
	return lipgloss.Color(warm.BlendLab(cool, frac).Clamped().Hex())
}
