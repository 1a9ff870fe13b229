package console

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	"github.com/Overflow0xFFFF/nesproject/apu"
	"github.com/Overflow0xFFFF/nesproject/bus"
	"github.com/Overflow0xFFFF/nesproject/cpu"
	"github.com/Overflow0xFFFF/nesproject/ppu"
)

// ErrStateMismatch is returned when a saved state belongs to a different
// cartridge.
var ErrStateMismatch = errors.New("console: state was saved with a different cartridge")

// State is everything needed to resume a session bit for bit.
type State struct {
	MapperID byte
	PRGSize  int
	Cycles   uint64
	NMILine  bool
	CPU      cpu.State
	PPU      ppu.State
	APU      apu.State
	Bus      bus.State
	Mapper   []byte
}

// SaveState writes the session to w with encoding/gob.
func (c *Console) SaveState(w io.Writer) error {
	if c.mapper == nil {
		return ErrNoCartridge
	}
	m, err := c.mapper.Save()
	if err != nil {
		return fmt.Errorf("save mapper state: %w", err)
	}
	s := State{
		MapperID: c.img.MapperID,
		PRGSize:  len(c.img.PRG),
		Cycles:   c.cycles,
		NMILine:  c.nmiLine,
		CPU:      c.cpu.SaveState(),
		PPU:      c.ppu.SaveState(),
		APU:      c.apu.SaveState(),
		Bus:      c.bus.SaveState(),
		Mapper:   m,
	}
	if err := gob.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	return nil
}

// LoadState restores a session written by SaveState. The same cartridge
// must be inserted.
func (c *Console) LoadState(r io.Reader) error {
	if c.mapper == nil {
		return ErrNoCartridge
	}
	var s State
	if err := gob.NewDecoder(r).Decode(&s); err != nil {
		return fmt.Errorf("decode state: %w", err)
	}
	if s.MapperID != c.img.MapperID || s.PRGSize != len(c.img.PRG) {
		return ErrStateMismatch
	}
	if err := c.mapper.Load(s.Mapper); err != nil {
		return fmt.Errorf("load mapper state: %w", err)
	}
	c.cycles = s.Cycles
	c.nmiLine = s.NMILine
	c.cpu.LoadState(s.CPU)
	c.ppu.LoadState(s.PPU)
	c.apu.LoadState(s.APU)
	c.bus.LoadState(s.Bus)
	c.halted = nil
	return nil
}
