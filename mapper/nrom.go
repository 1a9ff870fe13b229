package mapper

import "github.com/Overflow0xFFFF/nesproject/cartridge"

// nrom (mapper 0) has no bank switching. 16 KB images are mirrored into
// both halves of $8000-$FFFF.
type nrom struct {
	board
}

func newNROM(img *cartridge.Image) Mapper {
	return &nrom{board: newBoard(img)}
}

func (n *nrom) CPUMapRead(addr uint16) (byte, bool) {
	if addr >= 0x8000 {
		return n.prg[int(addr-0x8000)%len(n.prg)], true
	}
	return n.readPRGRAM(addr)
}

func (n *nrom) CPUMapWrite(addr uint16, data byte) bool {
	return n.writePRGRAM(addr, data)
}

func (n *nrom) PPUMapRead(addr uint16) (byte, bool) {
	if addr <= 0x1FFF {
		return n.chr[addr], true
	}
	return 0, false
}

func (n *nrom) PPUMapWrite(addr uint16, data byte) bool {
	if addr <= 0x1FFF && n.chrRAM {
		n.chr[addr] = data
		return true
	}
	return false
}
