// Package console is the scheduler. A Console owns one set of units and
// the inserted cartridge, and advances them in the fixed order the
// hardware uses: each CPU cycle is followed by three PPU dots, one APU
// tick, the mapper's cycle hook and a sample of the interrupt lines.
package console

import (
	"errors"
	"fmt"
	"image"

	"github.com/golang/glog"

	"github.com/Overflow0xFFFF/nesproject/apu"
	"github.com/Overflow0xFFFF/nesproject/bus"
	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/controller"
	"github.com/Overflow0xFFFF/nesproject/cpu"
	"github.com/Overflow0xFFFF/nesproject/mapper"
	"github.com/Overflow0xFFFF/nesproject/ppu"
)

var (
	// ErrNoCartridge is returned when stepping a console with nothing inserted.
	ErrNoCartridge = errors.New("console: no cartridge inserted")
	// ErrHalted is returned by every step after the CPU fetched an opcode
	// it cannot execute. Reset or Insert clears it.
	ErrHalted = errors.New("console: halted")
)

const (
	dotsPerCycle   = 3
	dmcStallCycles = 4
)

// Options configures a Console.
type Options struct {
	// SampleRate is the audio output rate in Hz.
	SampleRate int
	// Trace logs a nestest-style line per instruction at glog V(2).
	Trace bool
}

// DefaultOptions returns the settings used by the host.
func DefaultOptions() Options {
	return Options{SampleRate: apu.DefaultSampleRate}
}

// StepResult describes one call to Step.
type StepResult struct {
	// Cycles is the number of CPU cycles consumed, including DMA stalls.
	Cycles int
	// FrameReady is set when the PPU completed a frame during the step.
	FrameReady bool
}

// Frame is the output of one completed frame. The caller owns it.
type Frame struct {
	Pixels  *ppu.FrameBuffer
	Samples []float32
	Number  uint64
}

// Console represents one emulation session.
type Console struct {
	opts Options

	cpu *cpu.CPU
	ppu *ppu.PPU
	apu *apu.APU
	bus *bus.Bus

	img       *cartridge.Image
	mapper    mapper.Mapper
	clocked   mapper.Clocked
	irqSource mapper.IRQSource

	cycles  uint64
	nmiLine bool
	halted  error
}

// New creates a console with no cartridge inserted.
func New(opts Options) *Console {
	if opts.SampleRate <= 0 {
		opts.SampleRate = apu.DefaultSampleRate
	}
	c := &Console{opts: opts}
	c.powerOn()
	return c
}

func (c *Console) powerOn() {
	c.cpu = cpu.New()
	c.ppu = ppu.New()
	c.apu = apu.New(c.opts.SampleRate)
	c.bus = bus.New(c.ppu, c.apu)
	c.cycles = 0
	c.nmiLine = false
	c.halted = nil
}

// Insert builds the board for img and powers the console on with it.
func (c *Console) Insert(img *cartridge.Image) error {
	m, err := mapper.New(img)
	if err != nil {
		return fmt.Errorf("insert cartridge: %w", err)
	}

	c.powerOn()
	c.img = img
	c.mapper = m
	c.clocked, _ = m.(mapper.Clocked)
	c.irqSource, _ = m.(mapper.IRQSource)
	c.bus.Insert(m)

	glog.Infof("Inserted %s cartridge: %d KB PRG, %d KB CHR, %s mirroring",
		mapper.Name(img.MapperID), len(img.PRG)/1024, len(img.CHR)/1024, img.Mirroring)
	c.Reset()
	return nil
}

// HasCartridge reports whether a cartridge is inserted.
func (c *Console) HasCartridge() bool {
	return c.mapper != nil
}

// Cartridge returns the inserted image, or nil.
func (c *Console) Cartridge() *cartridge.Image {
	return c.img
}

// Reset presses the reset button. RAM and the cartridge survive.
func (c *Console) Reset() {
	c.halted = nil
	c.ppu.Reset()
	c.apu.Reset()
	c.nmiLine = false
	if c.mapper == nil {
		return
	}
	c.tick(c.cpu.Reset(c.bus))
	glog.V(1).Infof("Reset: PC=$%04X", c.cpu.PC)
}

// Step executes one CPU instruction (or interrupt entry) and runs the
// rest of the machine for the cycles it took, plus any OAM DMA the
// instruction triggered.
func (c *Console) Step() (StepResult, error) {
	if c.mapper == nil {
		return StepResult{}, ErrNoCartridge
	}
	if c.halted != nil {
		return StepResult{}, fmt.Errorf("%w: %w", ErrHalted, c.halted)
	}

	if c.opts.Trace {
		if v := glog.V(2); v {
			scanline, dot := c.ppu.Position()
			v.Info(c.cpu.Trace(peeker{c.bus}, scanline, dot, c.cycles))
		}
	}

	n, err := c.cpu.Step(c.bus)
	if err != nil {
		c.halted = err
		glog.Errorf("CPU halted: %v", err)
		return StepResult{}, err
	}

	cycles, frame := c.tick(n)
	if page, ok := c.bus.DMARequest(); ok {
		stall, dmaFrame := c.oamDMA(page)
		cycles += stall
		frame = frame || dmaFrame
	}
	return StepResult{Cycles: cycles, FrameReady: frame}, nil
}

// StepFrame steps until the PPU completes a frame and returns it with the
// audio produced since the previous frame.
func (c *Console) StepFrame() (Frame, error) {
	for {
		res, err := c.Step()
		if err != nil {
			return Frame{}, err
		}
		if res.FrameReady {
			break
		}
	}
	f := Frame{
		Pixels:  c.Pixels(),
		Samples: c.apu.Samples(),
		Number:  c.ppu.FrameCount(),
	}
	glog.V(1).Infof("Frame %d: %d samples, %d cycles", f.Number, len(f.Samples), c.cycles)
	return f, nil
}

// tick runs n CPU cycles worth of the other units. DMC sample fetches
// requested along the way add their stall cycles to the count returned.
func (c *Console) tick(n int) (int, bool) {
	frame := false
	for i := 0; i < n; i++ {
		if c.clock() {
			frame = true
		}
		if addr, ok := c.apu.DMCRequest(); ok {
			c.apu.DMCFill(c.bus.Read(addr))
			n += dmcStallCycles
		}
	}
	return n, frame
}

// clock advances the machine by one CPU cycle.
func (c *Console) clock() bool {
	frame := false
	for i := 0; i < dotsPerCycle; i++ {
		if c.ppu.Tick(c.mapper) {
			frame = true
		}
	}
	c.apu.Clock()
	if c.clocked != nil {
		c.clocked.Clock()
	}

	nmi := c.ppu.NMI()
	if nmi && !c.nmiLine {
		c.cpu.TriggerNMI()
	}
	c.nmiLine = nmi

	irq := c.apu.IRQ()
	if c.irqSource != nil && c.irqSource.IRQPending() {
		irq = true
	}
	c.cpu.SetIRQ(irq)

	c.cycles++
	return frame
}

// oamDMA copies a page into OAM. The transfer takes 513 cycles, plus one
// to align when it starts on an odd cycle.
func (c *Console) oamDMA(page byte) (int, bool) {
	cycles, frame := c.tick(1)
	if c.cycles%2 == 0 {
		n, f := c.tick(1)
		cycles += n
		frame = frame || f
	}
	base := uint16(page) << 8
	for i := uint16(0); i < 256; i++ {
		data := c.bus.Read(base | i)
		n, f := c.tick(1)
		c.ppu.WriteOAM(data)
		m, g := c.tick(1)
		cycles += n + m
		frame = frame || f || g
	}
	return cycles, frame
}

// SetButtons sets the input snapshot for controller port 0 or 1.
func (c *Console) SetButtons(port int, buttons controller.Buttons) {
	c.bus.Controllers[port&1].SetButtons(buttons)
}

// Cycles returns the CPU cycles executed since power on.
func (c *Console) Cycles() uint64 {
	return c.cycles
}

// Peek reads the CPU address space without side effects.
func (c *Console) Peek(addr uint16) byte {
	return c.bus.Peek(addr)
}

// PeekBlock reads size bytes starting at addr, wrapping at $FFFF.
func (c *Console) PeekBlock(addr uint16, size int) []byte {
	out := make([]byte, size)
	for i := range out {
		out[i] = c.bus.Peek(addr + uint16(i))
	}
	return out
}

// CPUState returns the CPU registers.
func (c *Console) CPUState() cpu.State {
	return c.cpu.SaveState()
}

// Disassemble decodes the instruction at pc without side effects.
func (c *Console) Disassemble(pc uint16) (string, uint16) {
	return c.cpu.Disassemble(peeker{c.bus}, pc)
}

// Position returns the PPU scanline and dot.
func (c *Console) Position() (scanline, dot int) {
	return c.ppu.Position()
}

// Pixels returns a copy of the last completed frame.
func (c *Console) Pixels() *ppu.FrameBuffer {
	px := *c.ppu.Frame()
	return &px
}

// FrameCount returns the number of frames completed since power on.
func (c *Console) FrameCount() uint64 {
	return c.ppu.FrameCount()
}

// SampleRate returns the audio output rate in Hz.
func (c *Console) SampleRate() int {
	return c.apu.SampleRate()
}

// BatteryRAM returns the cartridge's battery-backed RAM, or nil. Writes
// to the returned slice reach the cartridge.
func (c *Console) BatteryRAM() []byte {
	if b, ok := c.mapper.(mapper.BatteryBacked); ok {
		return b.BatteryRAM()
	}
	return nil
}

// PatternTable renders pattern table i with palette for debugging. It
// returns nil when no cartridge is inserted.
func (c *Console) PatternTable(i int, palette byte) *image.RGBA {
	if c.mapper == nil {
		return nil
	}
	return c.ppu.PatternTable(c.mapper, i, palette)
}

// OAM returns a copy of sprite memory.
func (c *Console) OAM() [256]byte {
	return c.ppu.OAM()
}

// peeker adapts the bus for the disassembler.
type peeker struct {
	b *bus.Bus
}

func (p peeker) Read(addr uint16) byte {
	return p.b.Peek(addr)
}
