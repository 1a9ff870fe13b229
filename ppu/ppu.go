// Package ppu implements the 2C02 picture processing unit, one dot per Tick.
package ppu

import (
	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/mapper"
)

// Raster geometry (NTSC).
const (
	DotsPerScanline   = 341
	ScanlinesPerFrame = 262
	VBlankScanline    = 241
	PreRenderScanline = 261
)

// Register bits.
const (
	ctrlIncrement32   = 0x04
	ctrlSpriteTable   = 0x08
	ctrlBGTable       = 0x10
	ctrlSprite8x16    = 0x20
	ctrlNMIEnable     = 0x80
	maskGreyscale     = 0x01
	maskBGLeft        = 0x02
	maskSpritesLeft   = 0x04
	maskShowBG        = 0x08
	maskShowSprites   = 0x10
	statusOverflow    = 0x20
	statusSpriteZero  = 0x40
	statusVBlank      = 0x80
	maxSpritesPerLine = 8
)

// Cartridge is the PPU side of the mapper: pattern tables and the
// nametable arrangement.
type Cartridge interface {
	PPUMapRead(addr uint16) (byte, bool)
	PPUMapWrite(addr uint16, data byte) bool
	Mirroring() cartridge.Mirroring
}

type spriteSlot struct {
	x         byte
	attr      byte
	lo, hi    byte
	isSprite0 bool
}

// PPU represents the Picture Processing Unit.
type PPU struct {
	vram    [4096]byte // 2 KB on the console; four-screen boards supply the rest
	oam     [256]byte
	palette [32]byte

	ctrl    byte
	mask    byte
	status  byte
	oamAddr byte

	// I/O latch: the value last driven onto the PPU data bus by the CPU.
	ioLatch byte

	// Loopy registers
	vramAddr    uint16 // v
	vramTmpAddr uint16 // t
	fineX       byte   // x
	addrLatch   bool   // w
	dataBuffer  byte

	scanline int
	dot      int
	frame    uint64
	oddFrame bool

	bgNextTileID      byte
	bgNextTileAttrib  byte
	bgNextTileLSB     byte
	bgNextTileMSB     byte
	bgShifterPatternL uint16
	bgShifterPatternH uint16
	bgShifterAttribL  uint16
	bgShifterAttribH  uint16

	sprites     [maxSpritesPerLine]spriteSlot
	spriteCount int

	back  FrameBuffer
	front FrameBuffer
}

// New creates a PPU positioned at the first dot of scanline 0.
func New() *PPU {
	p := &PPU{}
	p.Reset()
	return p
}

// Reset clears the registers and restarts the raster at scanline 0 so the
// first frame handed out by Tick covers every visible line.
func (p *PPU) Reset() {
	p.ctrl, p.mask, p.status = 0, 0, 0
	p.addrLatch = false
	p.dataBuffer = 0
	p.vramTmpAddr = 0
	p.fineX = 0
	p.scanline = 0
	p.dot = 0
	p.oddFrame = false
	p.spriteCount = 0
}

// Frame returns the last completed picture. It is replaced when the
// raster wraps from the pre-render line to scanline 0.
func (p *PPU) Frame() *FrameBuffer {
	return &p.front
}

// FrameCount is the number of completed frames.
func (p *PPU) FrameCount() uint64 {
	return p.frame
}

// Position returns the current scanline and dot.
func (p *PPU) Position() (scanline, dot int) {
	return p.scanline, p.dot
}

// NMI reports the level of the NMI output: high while the vertical blank
// flag and the NMI enable bit are both set.
func (p *PPU) NMI() bool {
	return p.status&statusVBlank != 0 && p.ctrl&ctrlNMIEnable != 0
}

func (p *PPU) renderingEnabled() bool {
	return p.mask&(maskShowBG|maskShowSprites) != 0
}

// nametableOffset maps $2000-$3EFF onto VRAM according to the board's
// mirroring.
func nametableOffset(m cartridge.Mirroring, addr uint16) uint16 {
	addr = (addr - 0x2000) & 0x0FFF
	table, offset := addr/0x0400, addr%0x0400
	switch m {
	case cartridge.MirrorHorizontal:
		table >>= 1
	case cartridge.MirrorVertical:
		table &= 1
	case cartridge.MirrorOneScreenLower:
		table = 0
	case cartridge.MirrorOneScreenUpper:
		table = 1
	}
	return table*0x0400 + offset
}

func paletteOffset(addr uint16) uint16 {
	addr &= 0x001F
	if addr >= 0x0010 && addr&0x03 == 0 {
		addr -= 0x0010
	}
	return addr
}

// ppuRead and ppuWrite treat a missing cartridge as an empty slot: the
// pattern and nametable space reads 0 and ignores writes.
func (p *PPU) ppuRead(cart Cartridge, addr uint16) byte {
	addr &= 0x3FFF
	switch {
	case addr <= 0x3EFF && cart == nil:
		return 0
	case addr <= 0x1FFF:
		if data, ok := cart.PPUMapRead(addr); ok {
			return data
		}
		return 0
	case addr <= 0x3EFF:
		return p.vram[nametableOffset(cart.Mirroring(), addr)]
	}
	return p.palette[paletteOffset(addr)]
}

func (p *PPU) ppuWrite(cart Cartridge, addr uint16, data byte) {
	addr &= 0x3FFF
	switch {
	case addr <= 0x3EFF && cart == nil:
	case addr <= 0x1FFF:
		cart.PPUMapWrite(addr, data)
	case addr <= 0x3EFF:
		p.vram[nametableOffset(cart.Mirroring(), addr)] = data
	default:
		p.palette[paletteOffset(addr)] = data & 0x3F
	}
}

// ReadRegister services a CPU read of $2000-$2007; reg is the address
// modulo 8. Write-only registers return the I/O latch.
func (p *PPU) ReadRegister(cart Cartridge, reg uint16) byte {
	switch reg & 7 {
	case 2:
		p.ioLatch = p.status&0xE0 | p.ioLatch&0x1F
		p.status &^= statusVBlank
		p.addrLatch = false
	case 4:
		p.ioLatch = p.oam[p.oamAddr]
	case 7:
		addr := p.vramAddr & 0x3FFF
		if addr >= 0x3F00 {
			p.ioLatch = p.ioLatch&0xC0 | p.ppuRead(cart, addr)
			p.dataBuffer = p.ppuRead(cart, addr-0x1000)
		} else {
			p.ioLatch = p.dataBuffer
			p.dataBuffer = p.ppuRead(cart, addr)
		}
		p.incrementAddr()
	}
	return p.ioLatch
}

// PeekRegister returns what ReadRegister would, without side effects.
func (p *PPU) PeekRegister(cart Cartridge, reg uint16) byte {
	switch reg & 7 {
	case 2:
		return p.status&0xE0 | p.ioLatch&0x1F
	case 4:
		return p.oam[p.oamAddr]
	case 7:
		if addr := p.vramAddr & 0x3FFF; addr >= 0x3F00 {
			return p.ioLatch&0xC0 | p.palette[paletteOffset(addr)]
		}
		return p.dataBuffer
	}
	return p.ioLatch
}

// WriteRegister services a CPU write of $2000-$2007.
func (p *PPU) WriteRegister(cart Cartridge, reg uint16, data byte) {
	p.ioLatch = data
	switch reg & 7 {
	case 0:
		p.ctrl = data
		p.vramTmpAddr = p.vramTmpAddr&0xF3FF | uint16(data&0x03)<<10
	case 1:
		p.mask = data
	case 3:
		p.oamAddr = data
	case 4:
		p.WriteOAM(data)
	case 5: // PPUSCROLL
		if p.addrLatch {
			p.vramTmpAddr = p.vramTmpAddr&0x8C1F | uint16(data&0xF8)<<2 | uint16(data&0x07)<<12
			p.addrLatch = false
		} else {
			p.fineX = data & 0x07
			p.vramTmpAddr = p.vramTmpAddr&0xFFE0 | uint16(data)>>3
			p.addrLatch = true
		}
	case 6: // PPUADDR
		if p.addrLatch {
			p.vramTmpAddr = p.vramTmpAddr&0xFF00 | uint16(data)
			p.vramAddr = p.vramTmpAddr
			p.addrLatch = false
		} else {
			p.vramTmpAddr = p.vramTmpAddr&0x00FF | uint16(data&0x3F)<<8
			p.addrLatch = true
		}
	case 7: // PPUDATA
		p.ppuWrite(cart, p.vramAddr, data)
		p.incrementAddr()
	}
}

// WriteOAM stores one byte at OAMADDR and advances it. OAM DMA uses it
// for each of its 256 transfers.
func (p *PPU) WriteOAM(data byte) {
	p.oam[p.oamAddr] = data
	p.oamAddr++
}

func (p *PPU) incrementAddr() {
	if p.ctrl&ctrlIncrement32 != 0 {
		p.vramAddr += 32
	} else {
		p.vramAddr++
	}
	p.vramAddr &= 0x7FFF
}

// Tick advances the PPU by one dot. It reports true when the raster wraps
// from the pre-render line to scanline 0, at which point Frame holds the
// picture just finished.
func (p *PPU) Tick(cart Cartridge) bool {
	rendering := p.renderingEnabled()
	visible := p.scanline < 240
	preRender := p.scanline == PreRenderScanline

	if visible || preRender {
		if preRender && p.dot == 1 {
			p.status &^= statusVBlank | statusSpriteZero | statusOverflow
		}
		if rendering {
			p.renderStep(cart, preRender)
		}
		if visible && p.dot >= 1 && p.dot <= 256 {
			p.outputPixel(cart, p.dot-1, rendering)
		}
		if rendering && p.dot == 257 {
			if visible {
				p.evaluateSprites(cart)
			} else {
				p.spriteCount = 0
			}
		}
		if rendering && p.dot == 260 {
			if counter, ok := cart.(mapper.ScanlineCounter); ok {
				counter.NotifyScanline()
			}
		}
	}

	if p.scanline == VBlankScanline && p.dot == 1 {
		p.status |= statusVBlank
	}

	p.dot++
	if preRender && p.dot == 340 && p.oddFrame && rendering {
		p.dot = DotsPerScanline
	}
	if p.dot >= DotsPerScanline {
		p.dot = 0
		p.scanline++
		if p.scanline >= ScanlinesPerFrame {
			p.scanline = 0
			p.frame++
			p.oddFrame = !p.oddFrame
			p.front = p.back
			return true
		}
	}
	return false
}

// renderStep runs the background fetch pipeline and the scroll register
// updates for one dot of a rendering line.
func (p *PPU) renderStep(cart Cartridge, preRender bool) {
	if (p.dot >= 2 && p.dot < 258) || (p.dot >= 321 && p.dot < 338) {
		p.updateShifters()

		switch (p.dot - 1) % 8 {
		case 0:
			p.loadShifters()
			// Load tile ID
			p.bgNextTileID = p.ppuRead(cart, 0x2000|(p.vramAddr&0x0FFF))
		case 2:
			// Load tile attribute
			p.bgNextTileAttrib = p.ppuRead(cart, 0x23C0|(p.vramAddr&0x0C00)|((p.vramAddr>>4)&0x38)|((p.vramAddr>>2)&0x07))
			if p.vramAddr&0x0040 != 0 {
				p.bgNextTileAttrib >>= 4
			}
			if p.vramAddr&0x0002 != 0 {
				p.bgNextTileAttrib >>= 2
			}
			p.bgNextTileAttrib &= 0x03
		case 4:
			p.bgNextTileLSB = p.ppuRead(cart, p.bgPatternAddr())
		case 6:
			p.bgNextTileMSB = p.ppuRead(cart, p.bgPatternAddr()+8)
		case 7:
			p.incrementX()
		}
	}

	switch {
	case p.dot == 256:
		p.incrementY()
	case p.dot == 257:
		p.loadShifters()
		p.vramAddr = p.vramAddr&0xFBE0 | p.vramTmpAddr&0x041F
	case p.dot == 338 || p.dot == 340:
		p.bgNextTileID = p.ppuRead(cart, 0x2000|(p.vramAddr&0x0FFF))
	case preRender && p.dot >= 280 && p.dot <= 304:
		p.vramAddr = p.vramAddr&0x841F | p.vramTmpAddr&0x7BE0
	}
}

func (p *PPU) bgPatternAddr() uint16 {
	var table uint16
	if p.ctrl&ctrlBGTable != 0 {
		table = 0x1000
	}
	return table + uint16(p.bgNextTileID)<<4 + (p.vramAddr>>12)&0x07
}

func (p *PPU) updateShifters() {
	if p.mask&maskShowBG != 0 {
		p.bgShifterPatternL <<= 1
		p.bgShifterPatternH <<= 1
		p.bgShifterAttribL <<= 1
		p.bgShifterAttribH <<= 1
	}
}

func (p *PPU) loadShifters() {
	p.bgShifterPatternL = p.bgShifterPatternL&0xFF00 | uint16(p.bgNextTileLSB)
	p.bgShifterPatternH = p.bgShifterPatternH&0xFF00 | uint16(p.bgNextTileMSB)
	p.bgShifterAttribL = p.bgShifterAttribL&0xFF00 | uint16(p.bgNextTileAttrib&1)*0xFF
	p.bgShifterAttribH = p.bgShifterAttribH&0xFF00 | uint16(p.bgNextTileAttrib>>1)*0xFF
}

// Increment horizontal vram address
func (p *PPU) incrementX() {
	if p.vramAddr&0x001F == 31 {
		p.vramAddr &^= 0x001F
		p.vramAddr ^= 0x0400
	} else {
		p.vramAddr++
	}
}

// Increment vertical vram address
func (p *PPU) incrementY() {
	if p.vramAddr&0x7000 != 0x7000 {
		p.vramAddr += 0x1000
		return
	}
	p.vramAddr &^= 0x7000
	y := (p.vramAddr & 0x03E0) >> 5
	switch y {
	case 29:
		y = 0
		p.vramAddr ^= 0x0800
	case 31:
		y = 0
	default:
		y++
	}
	p.vramAddr = p.vramAddr&^0x03E0 | y<<5
}

// evaluateSprites selects the sprites covering the next scanline and
// fetches their pattern rows.
func (p *PPU) evaluateSprites(cart Cartridge) {
	height := 8
	if p.ctrl&ctrlSprite8x16 != 0 {
		height = 16
	}

	p.spriteCount = 0
	for i := 0; i < 64; i++ {
		y := int(p.oam[i*4])
		row := p.scanline - y
		if row < 0 || row >= height {
			continue
		}
		if p.spriteCount == maxSpritesPerLine {
			p.status |= statusOverflow
			break
		}

		tile := p.oam[i*4+1]
		attr := p.oam[i*4+2]
		if attr&0x80 != 0 {
			row = height - 1 - row
		}

		var addr uint16
		if height == 16 {
			addr = uint16(tile&0x01)<<12 | uint16(tile&0xFE)<<4
			if row >= 8 {
				addr += 16
				row -= 8
			}
		} else {
			if p.ctrl&ctrlSpriteTable != 0 {
				addr = 0x1000
			}
			addr |= uint16(tile) << 4
		}
		addr += uint16(row)

		lo := p.ppuRead(cart, addr)
		hi := p.ppuRead(cart, addr+8)
		if attr&0x40 != 0 {
			lo, hi = reverseBits(lo), reverseBits(hi)
		}

		p.sprites[p.spriteCount] = spriteSlot{
			x:         p.oam[i*4+3],
			attr:      attr,
			lo:        lo,
			hi:        hi,
			isSprite0: i == 0,
		}
		p.spriteCount++
	}
}

func reverseBits(b byte) byte {
	b = b&0xF0>>4 | b&0x0F<<4
	b = b&0xCC>>2 | b&0x33<<2
	b = b&0xAA>>1 | b&0x55<<1
	return b
}

// outputPixel composes background and sprite candidates for column x of
// the current scanline into the back buffer.
func (p *PPU) outputPixel(cart Cartridge, x int, rendering bool) {
	var colorAddr uint16 = 0x3F00

	if rendering {
		var bgPixel, bgPalette byte
		if p.mask&maskShowBG != 0 && (x >= 8 || p.mask&maskBGLeft != 0) {
			mux := uint16(0x8000) >> p.fineX
			bgPixel = bit(p.bgShifterPatternH, mux)<<1 | bit(p.bgShifterPatternL, mux)
			bgPalette = bit(p.bgShifterAttribH, mux)<<1 | bit(p.bgShifterAttribL, mux)
		}

		var spPixel, spPalette byte
		var spBehind, spZero bool
		if p.mask&maskShowSprites != 0 && (x >= 8 || p.mask&maskSpritesLeft != 0) {
			for i := 0; i < p.spriteCount; i++ {
				s := &p.sprites[i]
				offset := x - int(s.x)
				if offset < 0 || offset > 7 {
					continue
				}
				shift := 7 - offset
				pixel := (s.hi>>shift&1)<<1 | s.lo>>shift&1
				if pixel == 0 {
					continue
				}
				spPixel = pixel
				spPalette = s.attr&0x03 + 4
				spBehind = s.attr&0x20 != 0
				spZero = s.isSprite0
				break
			}
		}

		switch {
		case bgPixel == 0 && spPixel == 0:
		case bgPixel == 0:
			colorAddr |= uint16(spPalette)<<2 | uint16(spPixel)
		case spPixel == 0:
			colorAddr |= uint16(bgPalette)<<2 | uint16(bgPixel)
		default:
			if spZero && x != 255 {
				p.status |= statusSpriteZero
			}
			if spBehind {
				colorAddr |= uint16(bgPalette)<<2 | uint16(bgPixel)
			} else {
				colorAddr |= uint16(spPalette)<<2 | uint16(spPixel)
			}
		}
	} else if v := p.vramAddr & 0x3FFF; v >= 0x3F00 {
		// With rendering off and v pointing into palette RAM the PPU
		// outputs that entry instead of the backdrop.
		colorAddr = v
	}

	index := p.ppuRead(cart, colorAddr) & 0x3F
	if p.mask&maskGreyscale != 0 {
		index &= 0x30
	}
	p.back[p.scanline*Width+x] = index
}

func bit(shifter, mux uint16) byte {
	if shifter&mux != 0 {
		return 1
	}
	return 0
}
