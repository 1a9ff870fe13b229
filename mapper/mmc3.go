package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// mmc3 (mapper 4) has eight bank registers selected through $8000, two
// PRG and CHR layout modes, and a scanline counter that raises IRQ when
// it reaches zero.
type mmc3 struct {
	board

	targetRegister byte
	prgBankMode    bool // false: $8000 is swappable, true: $C000 is swappable
	chrInversion   bool // false: two 2KB banks at $0000, true: two 2KB banks at $1000
	registers      [8]byte

	prgRAMEnabled  bool
	prgRAMReadOnly bool

	prgBanks int
	chrBanks int

	// IRQ State
	irqCounter byte
	irqLatch   byte
	irqReload  bool
	irqEnabled bool
	irqPending bool
}

func newMMC3(img *cartridge.Image) Mapper {
	m := &mmc3{board: newBoard(img), prgRAMEnabled: true}
	m.prgBanks = bankCount(m.prg, 8192)
	m.chrBanks = bankCount(m.chr, 1024)
	return m
}

func (m *mmc3) CPUMapRead(addr uint16) (byte, bool) {
	if addr >= 0x8000 {
		return m.prg[m.prgBank(addr)*8192+int(addr&0x1FFF)], true
	}
	if m.prgRAMEnabled {
		return m.readPRGRAM(addr)
	}
	return 0, false
}

func (m *mmc3) prgBank(addr uint16) int {
	secondToLast := m.prgBanks - 2
	if secondToLast < 0 {
		secondToLast = 0
	}
	switch {
	case addr <= 0x9FFF:
		if m.prgBankMode {
			return secondToLast
		}
		return int(m.registers[6]&0x3F) % m.prgBanks
	case addr <= 0xBFFF:
		return int(m.registers[7]&0x3F) % m.prgBanks
	case addr <= 0xDFFF:
		if m.prgBankMode {
			return int(m.registers[6]&0x3F) % m.prgBanks
		}
		return secondToLast
	}
	return m.prgBanks - 1
}

func (m *mmc3) CPUMapWrite(addr uint16, data byte) bool {
	if addr < 0x8000 {
		if m.prgRAMEnabled && !m.prgRAMReadOnly {
			return m.writePRGRAM(addr, data)
		}
		return false
	}

	even := addr&1 == 0
	switch {
	case addr <= 0x9FFF:
		if even {
			m.targetRegister = data & 0x07
			m.prgBankMode = data&0x40 != 0
			m.chrInversion = data&0x80 != 0
		} else {
			m.registers[m.targetRegister] = data
		}
	case addr <= 0xBFFF:
		if even {
			if m.mirroring != cartridge.MirrorFourScreen {
				if data&1 == 0 {
					m.mirroring = cartridge.MirrorVertical
				} else {
					m.mirroring = cartridge.MirrorHorizontal
				}
			}
		} else {
			m.prgRAMEnabled = data&0x80 != 0
			m.prgRAMReadOnly = data&0x40 != 0
		}
	case addr <= 0xDFFF:
		if even {
			m.irqLatch = data
		} else {
			m.irqCounter = 0
			m.irqReload = true
		}
	default:
		if even {
			m.irqEnabled = false
			m.irqPending = false
		} else {
			m.irqEnabled = true
		}
	}
	return true
}

func (m *mmc3) chrBank(addr uint16) int {
	slot := int(addr>>10) & 7
	if m.chrInversion {
		slot ^= 4
	}
	var bank int
	switch slot {
	case 0:
		bank = int(m.registers[0] & 0xFE)
	case 1:
		bank = int(m.registers[0] | 0x01)
	case 2:
		bank = int(m.registers[1] & 0xFE)
	case 3:
		bank = int(m.registers[1] | 0x01)
	default:
		bank = int(m.registers[slot-2])
	}
	return bank % m.chrBanks
}

func (m *mmc3) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return m.chr[m.chrBank(addr)*1024+int(addr&0x03FF)], true
	}
	return 0, false
}

func (m *mmc3) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && m.chrRAM {
		m.chr[m.chrBank(addr)*1024+int(addr&0x03FF)] = data
		return true
	}
	return false
}

// NotifyScanline implements ScanlineCounter. A zero counter or a pending
// reload copies the latch; otherwise the counter decrements. Reaching zero
// with IRQs enabled raises the line until it is acknowledged.
func (m *mmc3) NotifyScanline() {
	if m.irqCounter == 0 || m.irqReload {
		m.irqCounter = m.irqLatch
		m.irqReload = false
	} else {
		m.irqCounter--
	}

	if m.irqCounter == 0 && m.irqEnabled {
		m.irqPending = true
	}
}

// IRQPending implements IRQSource.
func (m *mmc3) IRQPending() bool {
	return m.irqPending
}
