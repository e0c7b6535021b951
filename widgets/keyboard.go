package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"midi-lamps/note"
	"midi-lamps/theme"
)

// RenderKey renders a single pitch class slot in its lamp color
func RenderKey(th *theme.Theme, pc note.PitchClass, selected, hasLamp bool) string {
	sym := th.Symbols.Unselected
	switch {
	case !hasLamp:
		sym = th.Symbols.NoLamp
	case selected:
		sym = th.Symbols.Selected
	}

	style := lipgloss.NewStyle().Foreground(th.NoteColor(pc))
	if !hasLamp {
		style = style.Foreground(th.Muted())
	}
	return style.Render(string(sym))
}

// RenderKeyboard renders the 12 pitch classes as two lines: names on top and
// selection state below, each column colored like the lamp it drives.
func RenderKeyboard(th *theme.Theme, selection [note.NumClasses]bool, lamps note.LampMap) string {
	var names, keys strings.Builder
	for i := 0; i < note.NumClasses; i++ {
		pc := note.PitchClass(i)
		_, hasLamp := lamps[pc]

		label := lipgloss.NewStyle().Foreground(th.NoteColor(pc)).Render(fmt.Sprintf("%-3s", pc))
		names.WriteString(label)
		keys.WriteString(RenderKey(th, pc, selection[i], hasLamp))
		keys.WriteString("  ")
	}
	return names.String() + "\n" + keys.String()
}

// RenderLegendItem renders a single legend item: "● Name - description"
func RenderLegendItem(color lipgloss.Color, sym rune, name, desc string) string {
	pad := lipgloss.NewStyle().Foreground(color).Render(string(sym))
	return fmt.Sprintf("  %s %s - %s", pad, name, desc)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
