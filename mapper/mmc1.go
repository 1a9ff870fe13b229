package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// mmc1 (mapper 1) is programmed serially: five writes of bit 0 into
// $8000-$FFFF fill a shift register whose contents land in the register
// selected by address bits 13-14 of the fifth write.
type mmc1 struct {
	board

	// Registers
	control  byte
	chrBank0 byte
	chrBank1 byte
	prgBank  byte

	// Shift register for serial writes
	shiftRegister byte
	writeCount    byte

	// Set by a serial write and cleared by the next CPU cycle, so the
	// second write of a read-modify-write instruction is dropped.
	writeGuard bool
}

func newMMC1(img *cartridge.Image) Mapper {
	m := &mmc1{board: newBoard(img), control: 0x0C}
	m.mirroring = m.controlMirroring()
	return m
}

func (m *mmc1) prgRAMEnabled() bool {
	return m.prgBank&0x10 == 0
}

func (m *mmc1) CPUMapRead(addr uint16) (byte, bool) {
	if addr >= 0x8000 {
		return m.prg[m.prgOffset(addr)], true
	}
	if m.prgRAMEnabled() {
		return m.readPRGRAM(addr)
	}
	return 0, false
}

// prgOffset resolves a CPU address in $8000-$FFFF to a PRG ROM offset.
// 512 KB boards use bit 4 of CHR bank 0 to pick the outer 256 KB half.
func (m *mmc1) prgOffset(addr uint16) int {
	outer := 0
	if len(m.prg) > 262144 {
		outer = int(m.chrBank0>>4&1) * 262144
	}
	window := m.prg[outer:]
	if len(window) > 262144 {
		window = window[:262144]
	}
	banks := bankCount(window, 16384)

	var bank int
	switch (m.control >> 2) & 3 {
	case 0, 1: // switch 32 KB at $8000
		bank = int(m.prgBank&0x0E) % banks
		if addr >= 0xC000 {
			bank = (bank + 1) % banks
		}
	case 2: // fix first bank at $8000 and switch 16 KB bank at $C000
		if addr >= 0xC000 {
			bank = int(m.prgBank&0x0F) % banks
		}
	case 3: // fix last bank at $C000 and switch 16 KB bank at $8000
		if addr < 0xC000 {
			bank = int(m.prgBank&0x0F) % banks
		} else {
			bank = banks - 1
		}
	}
	return outer + bank*16384 + int(addr&0x3FFF)
}

func (m *mmc1) CPUMapWrite(addr uint16, data byte) bool {
	if addr < 0x8000 {
		if m.prgRAMEnabled() {
			return m.writePRGRAM(addr, data)
		}
		return false
	}

	if m.writeGuard {
		return true
	}
	m.writeGuard = true

	if data&0x80 != 0 {
		m.shiftRegister = 0
		m.writeCount = 0
		m.control |= 0x0C
		return true
	}

	m.shiftRegister >>= 1
	m.shiftRegister |= (data & 1) << 4
	m.writeCount++

	if m.writeCount == 5 {
		switch (addr >> 13) & 3 {
		case 0: // Control
			m.control = m.shiftRegister
			m.mirroring = m.controlMirroring()
		case 1: // CHR bank 0
			m.chrBank0 = m.shiftRegister
		case 2: // CHR bank 1
			m.chrBank1 = m.shiftRegister
		case 3: // PRG bank
			m.prgBank = m.shiftRegister
		}
		m.shiftRegister = 0
		m.writeCount = 0
	}
	return true
}

// Clock implements Clocked.
func (m *mmc1) Clock() {
	m.writeGuard = false
}

func (m *mmc1) chrOffset(addr uint16) int {
	banks := bankCount(m.chr, 4096)
	if m.control&0x10 == 0 { // 8 KB mode
		bank := int(m.chrBank0&0x1E) % banks
		return bank*4096 + int(addr&0x1FFF)
	}
	bank := m.chrBank0
	if addr >= 0x1000 {
		bank = m.chrBank1
	}
	return (int(bank)%banks)*4096 + int(addr&0x0FFF)
}

func (m *mmc1) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return m.chr[m.chrOffset(addr)%len(m.chr)], true
	}
	return 0, false
}

func (m *mmc1) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && m.chrRAM {
		m.chr[m.chrOffset(addr)%len(m.chr)] = data
		return true
	}
	return false
}

func (m *mmc1) controlMirroring() cartridge.Mirroring {
	switch m.control & 3 {
	case 0:
		return cartridge.MirrorOneScreenLower
	case 1:
		return cartridge.MirrorOneScreenUpper
	case 2:
		return cartridge.MirrorVertical
	}
	return cartridge.MirrorHorizontal
}
