package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// axrom (mapper 7) switches 32 KB of PRG at once and selects which
// nametable page is shown on all four screens.
type axrom struct {
	board
	prgBanks      int
	prgBankSelect int
}

func newAxROM(img *cartridge.Image) Mapper {
	a := &axrom{board: newBoard(img)}
	a.prgBanks = bankCount(a.prg, 32768)
	a.mirroring = cartridge.MirrorOneScreenLower
	return a
}

func (a *axrom) CPUMapRead(addr uint16) (byte, bool) {
	if addr >= 0x8000 {
		offset := a.prgBankSelect*32768 + int(addr&0x7FFF)
		return a.prg[offset%len(a.prg)], true
	}
	return a.readPRGRAM(addr)
}

func (a *axrom) CPUMapWrite(addr uint16, data byte) bool {
	if addr >= 0x8000 {
		a.prgBankSelect = int(data&0x07) % a.prgBanks
		if data&0x10 != 0 {
			a.mirroring = cartridge.MirrorOneScreenUpper
		} else {
			a.mirroring = cartridge.MirrorOneScreenLower
		}
		return true
	}
	return a.writePRGRAM(addr, data)
}

func (a *axrom) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return a.chr[addr], true
	}
	return 0, false
}

func (a *axrom) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && a.chrRAM {
		a.chr[addr] = data
		return true
	}
	return false
}
