package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// uxrom (mapper 2) switches a 16 KB bank at $8000 and fixes the last bank
// at $C000.
type uxrom struct {
	board
	prgBanks      int
	prgBankSelect int
}

func newUxROM(img *cartridge.Image) Mapper {
	u := &uxrom{board: newBoard(img)}
	u.prgBanks = bankCount(u.prg, 16384)
	return u
}

func (u *uxrom) CPUMapRead(addr uint16) (byte, bool) {
	switch {
	case addr >= 0xC000:
		return u.prg[(u.prgBanks-1)*16384+int(addr&0x3FFF)], true
	case addr >= 0x8000:
		return u.prg[u.prgBankSelect*16384+int(addr&0x3FFF)], true
	}
	return u.readPRGRAM(addr)
}

func (u *uxrom) CPUMapWrite(addr uint16, data byte) bool {
	if addr >= 0x8000 {
		u.prgBankSelect = int(data) % u.prgBanks
		return true
	}
	return u.writePRGRAM(addr, data)
}

func (u *uxrom) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return u.chr[addr], true
	}
	return 0, false
}

func (u *uxrom) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && u.chrRAM {
		u.chr[addr] = data
		return true
	}
	return false
}
