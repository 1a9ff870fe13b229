// Package mapper implements the cartridge boards that sit between the
// console buses and the cartridge ROM.
package mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
)

// ErrUnsupported is returned for mapper ids with no implementation.
var ErrUnsupported = errors.New("unsupported mapper")

// Mapper is the capability set every board provides. The CPU side covers
// $4020-$FFFF and the PPU side covers the pattern tables at $0000-$1FFF.
// The boolean results report whether the board drove the bus.
type Mapper interface {
	CPUMapRead(addr uint16) (byte, bool)
	CPUMapWrite(addr uint16, data byte) bool
	PPUMapRead(addr uint16) (byte, bool)
	PPUMapWrite(addr uint16, data byte) bool
	Mirroring() cartridge.Mirroring

	// Save and Load capture the bank registers and any on-board RAM.
	Save() ([]byte, error)
	Load(data []byte) error
}

// IRQSource is implemented by boards that can drive the CPU IRQ line.
type IRQSource interface {
	IRQPending() bool
}

// ScanlineCounter is implemented by boards that count rendered scanlines.
// The PPU notifies once per rendered line while rendering is enabled.
type ScanlineCounter interface {
	NotifyScanline()
}

// Clocked is implemented by boards that observe every CPU cycle.
type Clocked interface {
	Clock()
}

// BatteryBacked is implemented by boards whose PRG RAM can be kept
// across sessions. BatteryRAM returns nil when the cartridge has no battery.
type BatteryBacked interface {
	BatteryRAM() []byte
}

type variant struct {
	name string
	new  func(img *cartridge.Image) Mapper
}

var variants = map[byte]variant{
	0: {"NROM", newNROM},
	1: {"MMC1", newMMC1},
	2: {"UxROM", newUxROM},
	3: {"CNROM", newCNROM},
	4: {"MMC3", newMMC3},
	7: {"AxROM", newAxROM},
}

// New validates img and builds the board selected by its mapper id.
func New(img *cartridge.Image) (Mapper, error) {
	v, ok := variants[img.MapperID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupported, img.MapperID)
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return v.new(img), nil
}

// Name returns the board name for a mapper id.
func Name(id byte) string {
	if v, ok := variants[id]; ok {
		return v.name
	}
	return fmt.Sprintf("mapper %d", id)
}

// Supported lists the implemented mapper ids in ascending order.
func Supported() []byte {
	ids := make([]byte, 0, len(variants))
	for id := range variants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

const prgRAMSize = 8192

// board holds the storage every variant shares.
type board struct {
	prg       []byte
	chr       []byte
	prgRAM    []byte
	chrRAM    bool
	battery   bool
	mirroring cartridge.Mirroring
}

func newBoard(img *cartridge.Image) board {
	b := board{
		prg:       img.PRG,
		chr:       img.CHR,
		prgRAM:    make([]byte, prgRAMSize),
		battery:   img.Battery,
		mirroring: img.Mirroring,
	}
	if img.HasCHRRAM() {
		b.chr = make([]byte, cartridge.CHRBankSize)
		b.chrRAM = true
	}
	return b
}

func (b *board) Mirroring() cartridge.Mirroring {
	return b.mirroring
}

func (b *board) BatteryRAM() []byte {
	if !b.battery {
		return nil
	}
	return b.prgRAM
}

func (b *board) readPRGRAM(addr uint16) (byte, bool) {
	if addr >= 0x6000 && addr <= 0x7FFF {
		return b.prgRAM[addr-0x6000], true
	}
	return 0, false
}

func (b *board) writePRGRAM(addr uint16, data byte) bool {
	if addr >= 0x6000 && addr <= 0x7FFF {
		b.prgRAM[addr-0x6000] = data
		return true
	}
	return false
}

// bankCount returns how many banks of size fit in mem, never zero.
func bankCount(mem []byte, size int) int {
	if n := len(mem) / size; n > 0 {
		return n
	}
	return 1
}
