package ppu

import (
	"image"
	"image/color"
)

// Peek reads PPU memory without touching the read buffer or any register.
func (p *PPU) Peek(cart Cartridge, addr uint16) byte {
	return p.ppuRead(cart, addr)
}

// OAM returns a copy of sprite memory.
func (p *PPU) OAM() [256]byte {
	return p.oam
}

// PatternTable renders pattern table i (0 or 1) as a 128x128 image using
// palette (0-7). Colour 0 is drawn black so tiles stand out.
func (p *PPU) PatternTable(cart Cartridge, i int, palette byte) *image.RGBA {
	dest := image.NewRGBA(image.Rect(0, 0, 128, 128))
	base := uint16(i&1) * 0x1000
	for tileY := 0; tileY < 16; tileY++ {
		for tileX := 0; tileX < 16; tileX++ {
			offset := base + uint16(tileY*256+tileX*16)
			for row := uint16(0); row < 8; row++ {
				tileLSB := p.ppuRead(cart, offset+row)
				tileMSB := p.ppuRead(cart, offset+row+8)

				for col := 0; col < 8; col++ {
					pixel := tileLSB&0x01 | (tileMSB&0x01)<<1
					tileLSB >>= 1
					tileMSB >>= 1

					c := color.RGBA{0, 0, 0, 0xFF}
					if pixel != 0 {
						c = SystemPalette[p.ppuRead(cart, 0x3F00+uint16(palette&7)*4+uint16(pixel))&0x3F]
					}
					// Decode from right to left
					dest.SetRGBA(tileX*8+(7-col), tileY*8+int(row), c)
				}
			}
		}
	}
	return dest
}
