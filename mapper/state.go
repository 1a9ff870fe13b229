package mapper

import (
	"bytes"
	"encoding/gob"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
)

// BoardState is the storage shared by every variant.
type BoardState struct {
	PRGRAM    []byte
	CHRRAM    []byte
	Mirroring cartridge.Mirroring
}

func (b *board) saveBoard() BoardState {
	s := BoardState{
		PRGRAM:    append([]byte(nil), b.prgRAM...),
		Mirroring: b.mirroring,
	}
	if b.chrRAM {
		s.CHRRAM = append([]byte(nil), b.chr...)
	}
	return s
}

func (b *board) loadBoard(s BoardState) {
	copy(b.prgRAM, s.PRGRAM)
	if b.chrRAM {
		copy(b.chr, s.CHRRAM)
	}
	b.mirroring = s.Mirroring
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decode(data []byte, v any) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// NROM
func (n *nrom) Save() ([]byte, error) { return encode(n.saveBoard()) }
func (n *nrom) Load(data []byte) error {
	var s BoardState
	if err := decode(data, &s); err != nil {
		return err
	}
	n.loadBoard(s)
	return nil
}

// UXROM
type UxROMState struct {
	Board         BoardState
	PRGBankSelect int
}

func (u *uxrom) Save() ([]byte, error) {
	return encode(UxROMState{u.saveBoard(), u.prgBankSelect})
}

func (u *uxrom) Load(data []byte) error {
	var s UxROMState
	if err := decode(data, &s); err != nil {
		return err
	}
	u.loadBoard(s.Board)
	u.prgBankSelect = s.PRGBankSelect % u.prgBanks
	return nil
}

// CNROM
type CNROMState struct {
	Board         BoardState
	CHRBankSelect int
}

func (c *cnrom) Save() ([]byte, error) {
	return encode(CNROMState{c.saveBoard(), c.chrBankSelect})
}

func (c *cnrom) Load(data []byte) error {
	var s CNROMState
	if err := decode(data, &s); err != nil {
		return err
	}
	c.loadBoard(s.Board)
	c.chrBankSelect = s.CHRBankSelect % c.chrBanks
	return nil
}

// AXROM
type AxROMState struct {
	Board         BoardState
	PRGBankSelect int
}

func (a *axrom) Save() ([]byte, error) {
	return encode(AxROMState{a.saveBoard(), a.prgBankSelect})
}

func (a *axrom) Load(data []byte) error {
	var s AxROMState
	if err := decode(data, &s); err != nil {
		return err
	}
	a.loadBoard(s.Board)
	a.prgBankSelect = s.PRGBankSelect % a.prgBanks
	return nil
}

// MMC1
type MMC1State struct {
	Board                                                           BoardState
	Control, ChrBank0, ChrBank1, PrgBank, ShiftRegister, WriteCount byte
	WriteGuard                                                      bool
}

func (m *mmc1) Save() ([]byte, error) {
	return encode(MMC1State{m.saveBoard(), m.control, m.chrBank0, m.chrBank1, m.prgBank, m.shiftRegister, m.writeCount, m.writeGuard})
}

func (m *mmc1) Load(data []byte) error {
	var s MMC1State
	if err := decode(data, &s); err != nil {
		return err
	}
	m.loadBoard(s.Board)
	m.control, m.chrBank0, m.chrBank1, m.prgBank, m.shiftRegister, m.writeCount, m.writeGuard = s.Control, s.ChrBank0, s.ChrBank1, s.PrgBank, s.ShiftRegister, s.WriteCount, s.WriteGuard
	return nil
}

// MMC3
type MMC3State struct {
	Board                             BoardState
	TargetRegister                    byte
	PrgBankMode, ChrInversion         bool
	Registers                         [8]byte
	PrgRAMEnabled, PrgRAMReadOnly     bool
	IrqCounter, IrqLatch              byte
	IrqReload, IrqEnabled, IrqPending bool
}

func (m *mmc3) Save() ([]byte, error) {
	return encode(MMC3State{m.saveBoard(), m.targetRegister, m.prgBankMode, m.chrInversion, m.registers, m.prgRAMEnabled, m.prgRAMReadOnly, m.irqCounter, m.irqLatch, m.irqReload, m.irqEnabled, m.irqPending})
}

func (m *mmc3) Load(data []byte) error {
	var s MMC3State
	if err := decode(data, &s); err != nil {
		return err
	}
	m.loadBoard(s.Board)
	m.targetRegister, m.prgBankMode, m.chrInversion, m.registers = s.TargetRegister, s.PrgBankMode, s.ChrInversion, s.Registers
	m.prgRAMEnabled, m.prgRAMReadOnly = s.PrgRAMEnabled, s.PrgRAMReadOnly
	m.irqCounter, m.irqLatch, m.irqReload, m.irqEnabled, m.irqPending = s.IrqCounter, s.IrqLatch, s.IrqReload, s.IrqEnabled, s.IrqPending
	return nil
}
