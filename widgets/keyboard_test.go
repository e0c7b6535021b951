package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"midi-lamps/note"
	"midi-lamps/theme"
)

func TestRenderKeyboard(t *testing.T) {
	th := theme.New()
	var sel [note.NumClasses]bool
	sel[note.C] = true

	out := RenderKeyboard(th, sel, note.LampMap{note.C: 1, note.D: 2})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "C#")
	assert.Contains(t, lines[0], "B")

	plain := stripANSI(lines[1])
	assert.Equal(t, 1, strings.Count(plain, "●"))
	assert.Equal(t, 1, strings.Count(plain, "○"))
	assert.Equal(t, 10, strings.Count(plain, "·"))
	assert.True(t, strings.HasPrefix(plain, "●"))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{
		{Title: "General", Keys: []KeyBinding{{Key: "q", Desc: "quit"}}},
		{Keys: []KeyBinding{{Key: "c", Desc: "clear"}}},
	})
	assert.Equal(t, "General\n  q            quit\n  c            clear", out)
}

func TestRenderLegendItem(t *testing.T) {
	out := stripANSI(RenderLegendItem(lipgloss.Color("#ffffff"), '●', "C", "ceiling"))
	assert.Equal(t, "  ● C - ceiling", out)
}

// stripANSI removes SGR escape sequences
func stripANSI(s string) string {
	var out strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEsc = true
		case inEsc && r == 'm':
			inEsc = false
		case !inEsc:
			out.WriteRune(r)
		}
	}
	return out.String()
}
