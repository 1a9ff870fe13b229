package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// cnrom (mapper 3) switches the whole 8 KB pattern table.
type cnrom struct {
	board
	chrBanks      int
	chrBankSelect int
}

func newCNROM(img *cartridge.Image) Mapper {
	c := &cnrom{board: newBoard(img)}
	c.chrBanks = bankCount(c.chr, 8192)
	return c
}

func (c *cnrom) CPUMapRead(addr uint16) (byte, bool) {
	if addr >= 0x8000 {
		return c.prg[int(addr-0x8000)%len(c.prg)], true
	}
	return c.readPRGRAM(addr)
}

func (c *cnrom) CPUMapWrite(addr uint16, data byte) bool {
	if addr >= 0x8000 {
		c.chrBankSelect = int(data&0x03) % c.chrBanks
		return true
	}
	return c.writePRGRAM(addr, data)
}

func (c *cnrom) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return c.chr[c.chrBankSelect*8192+int(addr)], true
	}
	return 0, false
}

func (c *cnrom) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && c.chrRAM {
		c.chr[c.chrBankSelect*8192+int(addr)] = data
		return true
	}
	return false
}
