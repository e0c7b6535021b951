package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"midi-lamps/control"
	"midi-lamps/link"
	"midi-lamps/midi"
	"midi-lamps/note"
	"midi-lamps/theme"
	"midi-lamps/widgets"
)

const refreshRate = 250 * time.Millisecond

// QueueStats is the read side of the command queue
type QueueStats interface {
	Len() int
	Cap() int
	Dropped() uint64
}

// SentCounter reports frames written to the lamp service
type SentCounter interface {
	Sent() uint64
}

// Sources are the event channels the monitor follows. Any of them may be nil.
type Sources struct {
	Devices   <-chan midi.DeviceEvent
	Conns     <-chan link.ConnEvent
	Snapshots <-chan control.Snapshot
}

type Model struct {
	Theme    *theme.Theme
	Lamps    note.LampMap
	Queue    QueueStats
	Link     SentCounter
	URL      string
	src      Sources
	device   *midi.Port
	conn     link.ConnEvent
	connSet  bool
	state    control.Snapshot
	help     bool
	quitting bool
}

type DeviceEventMsg midi.DeviceEvent

type ConnEventMsg link.ConnEvent

type SnapshotMsg control.Snapshot

type TickMsg time.Time

func NewModel(th *theme.Theme, lamps note.LampMap, q QueueStats, l SentCounter, url string, src Sources) Model {
	return Model{
		Theme: th,
		Lamps: lamps,
		Queue: q,
		Link:  l,
		URL:   url,
		src:   src,
	}
}

// NewSnapshotFeed returns an observer for control.NewTranslator and the
// channel it feeds. Snapshots are dropped when the monitor falls behind.
func NewSnapshotFeed(size int) (control.Observer, <-chan control.Snapshot) {
	ch := make(chan control.Snapshot, size)
	return func(s control.Snapshot) {
		select {
		case ch <- s:
		default:
		}
	}, ch
}

func ListenForDevices(ch <-chan midi.DeviceEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func ListenForConns(ch <-chan link.ConnEvent) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-ch
		if !ok {
			return nil
		}
		return ConnEventMsg(event)
	}
}

func ListenForSnapshots(ch <-chan control.Snapshot) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return SnapshotMsg(s)
	}
}

func tick() tea.Cmd {
	return tea.Tick(refreshRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForDevices(m.src.Devices),
		ListenForConns(m.src.Conns),
		ListenForSnapshots(m.src.Snapshots),
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "?":
			m.help = !m.help
		}

	case TickMsg:
		return m, tick()

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			port := event.Port
			m.device = &port
		} else {
			m.device = nil
			// the next attach starts from a fresh state
			m.state = control.Snapshot{}
		}
		return m, ListenForDevices(m.src.Devices)

	case ConnEventMsg:
		m.conn = link.ConnEvent(msg)
		m.connSet = true
		return m, ListenForConns(m.src.Conns)

	case SnapshotMsg:
		m.state = control.Snapshot(msg)
		return m, ListenForSnapshots(m.src.Snapshots)
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	th := m.Theme
	headerStyle := lipgloss.NewStyle().Foreground(th.Accent()).Bold(true)
	labelStyle := lipgloss.NewStyle().Foreground(th.Muted()).Width(10)
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())

	row := func(label, value string) string {
		return labelStyle.Render(label) + value + "\n"
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(headerStyle.Render("midi-lamps"))
	out.WriteString("\n\n")

	out.WriteString(row("keyboard", m.deviceView()))
	out.WriteString(row("link", m.connView()))
	out.WriteString(row("mode", m.modeView()))
	out.WriteString(row("bank", fmt.Sprintf("%d  program %d", m.state.State.Bank, m.state.State.Program)))
	out.WriteString(row("queue", m.queueView()))
	out.WriteString("\n")
	out.WriteString(widgets.RenderKeyboard(th, m.state.State.Selection, m.Lamps))
	out.WriteString("\n\n")

	if m.help {
		out.WriteString(m.helpView())
		out.WriteString("\n\n")
	}
	out.WriteString(dimStyle.Render("?:help  q:quit"))

	return out.String()
}

func (m Model) deviceView() string {
	th := m.Theme
	if m.device == nil {
		return lipgloss.NewStyle().Foreground(th.Warning()).Render(string(th.Symbols.Down) + " waiting for device")
	}
	return lipgloss.NewStyle().Foreground(th.Success()).Render(fmt.Sprintf("%c %s", th.Symbols.Up, m.device))
}

func (m Model) connView() string {
	th := m.Theme
	if !m.connSet {
		return lipgloss.NewStyle().Foreground(th.Muted()).Render(fmt.Sprintf("%c %s", th.Symbols.Wait, m.URL))
	}
	switch m.conn.Type {
	case link.Connected:
		return lipgloss.NewStyle().Foreground(th.Success()).Render(fmt.Sprintf("%c %s", th.Symbols.Up, m.URL))
	case link.Connecting:
		return lipgloss.NewStyle().Foreground(th.FG()).Render(fmt.Sprintf("%c connecting to %s", th.Symbols.Wait, m.URL))
	default:
		msg := fmt.Sprintf("%c disconnected", th.Symbols.Down)
		if m.conn.Err != nil {
			msg += ": " + m.conn.Err.Error()
		}
		return lipgloss.NewStyle().Foreground(th.Warning()).Render(msg)
	}
}

func (m Model) modeView() string {
	mode := m.state.Mode
	style := lipgloss.NewStyle().Foreground(m.Theme.FG())
	if mode != control.Idle {
		style = style.Foreground(m.Theme.Accent())
	}
	out := style.Render(mode.String())
	if mode == control.TemperatureMode {
		warm := lipgloss.NewStyle().Foreground(m.Theme.KelvinColor(1700)).Render("1700K")
		cool := lipgloss.NewStyle().Foreground(m.Theme.KelvinColor(6500)).Render("6500K")
		out += "  " + warm + " .. " + cool
	}
	return out
}

func (m Model) queueView() string {
	if m.Queue == nil {
		return "-"
	}
	s := fmt.Sprintf("%d/%d", m.Queue.Len(), m.Queue.Cap())
	if m.Link != nil {
		s += fmt.Sprintf("  sent %d", m.Link.Sent())
	}
	if dropped := m.Queue.Dropped(); dropped > 0 {
		s += lipgloss.NewStyle().Foreground(m.Theme.Warning()).Render(fmt.Sprintf("  dropped %d", dropped))
	}
	return s
}

func (m Model) helpView() string {
	th := m.Theme
	legend := strings.Join([]string{
		widgets.RenderLegendItem(th.Accent(), th.Symbols.Selected, "selected", "receives color, temperature and toggle"),
		widgets.RenderLegendItem(th.FG(), th.Symbols.Unselected, "unselected", "lamp bound but not targeted"),
		widgets.RenderLegendItem(th.Muted(), th.Symbols.NoLamp, "no lamp", "pitch class has no lamp"),
	}, "\n")
	return legend + "\n\n" + widgets.RenderKeyHelp([]widgets.KeySection{
		{Title: "Keyboard programs (bank 0)", Keys: []widgets.KeyBinding{
			{Key: "63", Desc: "note sets color of selected lamps"},
			{Key: "64", Desc: "note sets color temperature"},
			{Key: "65", Desc: "any note toggles selected lamps"},
			{Key: "66", Desc: "note selects/deselects its lamp"},
		}},
		{Title: "Monitor", Keys: []widgets.KeyBinding{
			{Key: "?", Desc: "toggle this help"},
			{Key: "q", Desc: "quit"},
		}},
	})
}
