// Package bus decodes the CPU address space. The Bus owns system RAM,
// the controllers, the PPU, the APU and the inserted mapper, so every
// unit reaches the others through it rather than through back-references.
package bus

import (
	"github.com/Overflow0xFFFF/nesproject/apu"
	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/mapper"
	"github.com/Overflow0xFFFF/nesproject/ppu"
)

// Register addresses outside the PPU window.
const (
	OAMDMA    = 0x4014
	APUStatus = 0x4015
	Joypad1   = 0x4016
	Joypad2   = 0x4017
)

// Bus represents the system bus.
type Bus struct {
	ram     [2048]byte
	openBus byte

	PPU         *ppu.PPU
	APU         *apu.APU
	Controllers [2]*controller.Controller

	mapper mapper.Mapper

	dmaPage    byte
	dmaPending bool
}

// New creates a Bus around the given units with no cartridge inserted.
func New(p *ppu.PPU, a *apu.APU) *Bus {
	return &Bus{
		PPU:         p,
		APU:         a,
		Controllers: [2]*controller.Controller{controller.New(), controller.New()},
	}
}

// Insert plugs a cartridge board into the bus.
func (b *Bus) Insert(m mapper.Mapper) {
	b.mapper = m
}

// Mapper returns the inserted board, or nil.
func (b *Bus) Mapper() mapper.Mapper {
	return b.mapper
}

// OpenBus returns the value last driven on the CPU data bus.
func (b *Bus) OpenBus() byte {
	return b.openBus
}

// Read reads a byte from the bus. Addresses nothing drives return the
// open bus value.
func (b *Bus) Read(addr uint16) byte {
	data := b.openBus
	switch {
	case addr <= 0x1FFF:
		data = b.ram[addr&0x07FF]
	case addr <= 0x3FFF:
		data = b.PPU.ReadRegister(b.mapper, addr&0x0007)
	case addr == APUStatus:
		data = b.APU.ReadStatus() | b.openBus&0x20
	case addr == Joypad1 || addr == Joypad2:
		data = b.openBus&0xE0 | b.Controllers[addr-Joypad1].Read()
	case addr >= 0x4020 && b.mapper != nil:
		if v, ok := b.mapper.CPUMapRead(addr); ok {
			data = v
		}
	}
	b.openBus = data
	return data
}

// Peek returns what Read would return without side effects on any unit.
func (b *Bus) Peek(addr uint16) byte {
	switch {
	case addr <= 0x1FFF:
		return b.ram[addr&0x07FF]
	case addr <= 0x3FFF:
		return b.PPU.PeekRegister(b.mapper, addr&0x0007)
	case addr == APUStatus:
		return b.APU.PeekStatus() | b.openBus&0x20
	case addr == Joypad1 || addr == Joypad2:
		return b.openBus&0xE0 | b.Controllers[addr-Joypad1].Peek()
	case addr >= 0x4020 && b.mapper != nil:
		if v, ok := b.mapper.CPUMapRead(addr); ok {
			return v
		}
	}
	return b.openBus
}

// Write writes a byte to the bus.
func (b *Bus) Write(addr uint16, data byte) {
	b.openBus = data
	switch {
	case addr <= 0x1FFF:
		b.ram[addr&0x07FF] = data
	case addr <= 0x3FFF:
		b.PPU.WriteRegister(b.mapper, addr&0x0007, data)
	case addr == OAMDMA:
		b.dmaPage = data
		b.dmaPending = true
	case addr == Joypad1:
		b.Controllers[0].Write(data)
		b.Controllers[1].Write(data)
	case addr <= 0x4017:
		b.APU.CPUWrite(addr, data)
	case addr >= 0x4020 && b.mapper != nil:
		b.mapper.CPUMapWrite(addr, data)
	}
}

// DMARequest reports and clears a pending OAM DMA, returning the source
// page.
func (b *Bus) DMARequest() (byte, bool) {
	if !b.dmaPending {
		return 0, false
	}
	b.dmaPending = false
	return b.dmaPage, true
}
