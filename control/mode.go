package control

// Mode selects what a note-on does. It is derived from (bank, program) on every
// message and never stored.
type Mode int

const (
	Idle Mode = iota
	ColorMode
	TemperatureMode
	ToggleMode
	SelectMode
)

type patch struct {
	bank    uint16
	program uint8
}

// modes is the whole dispatch table; any other patch is Idle
var modes = map[patch]Mode{
	{bank: 0, program: 63}: ColorMode,
	{bank: 0, program: 64}: TemperatureMode,
	{bank: 0, program: 65}: ToggleMode,
	{bank: 0, program: 66}: SelectMode,
}

// ModeOf looks up the mode for a bank/program pair
func ModeOf(bank uint16, program uint8) Mode {
	return modes[patch{bank: bank, program: program}]
}

func (m Mode) String() string {
	switch m {
	case ColorMode:
		return "color"
	case TemperatureMode:
		return "temperature"
	case ToggleMode:
		return "toggle"
	case SelectMode:
		return "select"
	default:
		return "idle"
	}
}
