package ppu

type State struct {
	Vram                                                                     [4096]byte
	Oam                                                                      [256]byte
	Palette                                                                  [32]byte
	Ctrl, Mask, Status, OamAddr, IoLatch, FineX, DataBuffer                  byte
	VramAddr, VramTmpAddr                                                    uint16
	AddrLatch, OddFrame                                                      bool
	Scanline, Dot                                                            int
	Frame                                                                    uint64
	BgNextTileID, BgNextTileAttrib, BgNextTileLSB, BgNextTileMSB             byte
	BgShifterPatternL, BgShifterPatternH, BgShifterAttribL, BgShifterAttribH uint16
	SpriteX, SpriteAttr, SpriteLo, SpriteHi                                  [maxSpritesPerLine]byte
	SpriteZero                                                               [maxSpritesPerLine]bool
	SpriteCount                                                              int
	Back, Front                                                              FrameBuffer
}

func (p *PPU) SaveState() State {
	s := State{
		p.vram, p.oam, p.palette,
		p.ctrl, p.mask, p.status, p.oamAddr, p.ioLatch, p.fineX, p.dataBuffer,
		p.vramAddr, p.vramTmpAddr,
		p.addrLatch, p.oddFrame,
		p.scanline, p.dot,
		p.frame,
		p.bgNextTileID, p.bgNextTileAttrib, p.bgNextTileLSB, p.bgNextTileMSB,
		p.bgShifterPatternL, p.bgShifterPatternH, p.bgShifterAttribL, p.bgShifterAttribH,
		[maxSpritesPerLine]byte{}, [maxSpritesPerLine]byte{}, [maxSpritesPerLine]byte{}, [maxSpritesPerLine]byte{},
		[maxSpritesPerLine]bool{},
		p.spriteCount,
		p.back, p.front,
	}
	for i, sp := range p.sprites {
		s.SpriteX[i], s.SpriteAttr[i], s.SpriteLo[i], s.SpriteHi[i], s.SpriteZero[i] = sp.x, sp.attr, sp.lo, sp.hi, sp.isSprite0
	}
	return s
}

func (p *PPU) LoadState(s State) {
	p.vram, p.oam, p.palette = s.Vram, s.Oam, s.Palette
	p.ctrl, p.mask, p.status, p.oamAddr, p.ioLatch, p.fineX, p.dataBuffer = s.Ctrl, s.Mask, s.Status, s.OamAddr, s.IoLatch, s.FineX, s.DataBuffer
	p.vramAddr, p.vramTmpAddr = s.VramAddr, s.VramTmpAddr
	p.addrLatch, p.oddFrame = s.AddrLatch, s.OddFrame
	p.scanline, p.dot, p.frame = s.Scanline, s.Dot, s.Frame
	p.bgNextTileID, p.bgNextTileAttrib, p.bgNextTileLSB, p.bgNextTileMSB = s.BgNextTileID, s.BgNextTileAttrib, s.BgNextTileLSB, s.BgNextTileMSB
	p.bgShifterPatternL, p.bgShifterPatternH, p.bgShifterAttribL, p.bgShifterAttribH = s.BgShifterPatternL, s.BgShifterPatternH, s.BgShifterAttribL, s.BgShifterAttribH
	for i := range p.sprites {
		p.sprites[i] = spriteSlot{x: s.SpriteX[i], attr: s.SpriteAttr[i], lo: s.SpriteLo[i], hi: s.SpriteHi[i], isSprite0: s.SpriteZero[i]}
	}
	p.spriteCount = s.SpriteCount
	p.back, p.front = s.Back, s.Front
}
