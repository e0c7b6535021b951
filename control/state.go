package control

import (
	"midi-lamps/lamp"
	"midi-lamps/note"
)

// Bank select controllers
const (
	BankSelectMSB uint8 = 0
	BankSelectLSB uint8 = 32
)

// State is the session state of one attached keyboard. The zero value is the
// state right after attach: bank 0, program 0, nothing selected.
//
// A State is owned by exactly one listener; it is never shared.
type State struct {
	Bank      uint16 // 14 bits, MSB and LSB halves of 7 bits each
	Program   uint8
	Selection [note.NumClasses]bool
}

// SetBankMSB replaces the high 7 bits of the bank
func (s *State) SetBankMSB(v uint8) {
	s.Bank = uint16(v&0x7f)<<7 | s.Bank&0x7f
}

// SetBankLSB replaces the low 7 bits of the bank
func (s *State) SetBankLSB(v uint8) {
	s.Bank = s.Bank&^0x7f | uint16(v&0x7f)
}

// Toggle flips the selection of a pitch class and returns the new value
func (s *State) Toggle(p note.PitchClass) bool {
	i := int(p) % note.NumClasses
	s.Selection[i] = !s.Selection[i]
	return s.Selection[i]
}

// Mode returns the dispatch mode for the current bank and program
func (s *State) Mode() Mode {
	return ModeOf(s.Bank, s.Program)
}

// Targets returns the lamps of all selected pitch classes, in scale order.
// Selected classes without a lamp are skipped.
func (s *State) Targets(lamps note.LampMap) lamp.Targets {
	targets := lamp.Targets{}
	for i, selected := range s.Selection {
		if !selected {
			continue
		}
		if id, ok := lamps[note.PitchClass(i)]; ok {
			targets = append(targets, id)
		}
	}
	return targets
}
