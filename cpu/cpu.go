// Package cpu implements the Ricoh 2A03 core: a 6502 without decimal mode.
package cpu

import (
	"errors"
	"fmt"
)

// Processor status flags.
const (
	C byte = 1 << iota // Carry
	Z                  // Zero
	I                  // Disable interrupts
	D                  // Decimal (stored, never used for arithmetic)
	B                  // Break
	U                  // Unused, always reads as 1
	V                  // Overflow
	N                  // Negative
)

// Interrupt vectors.
const (
	NMIVector   uint16 = 0xFFFA
	ResetVector uint16 = 0xFFFC
	IRQVector   uint16 = 0xFFFE
)

// InterruptCycles is the cost of servicing NMI, IRQ or reset.
const InterruptCycles = 7

// ErrIllegalOpcode is matched by every OpcodeError.
var ErrIllegalOpcode = errors.New("illegal opcode")

// OpcodeError reports an opcode that locks up the processor.
type OpcodeError struct {
	Opcode byte
	PC     uint16
}

func (e *OpcodeError) Error() string {
	return fmt.Sprintf("illegal opcode $%02X at $%04X", e.Opcode, e.PC)
}

func (e *OpcodeError) Is(target error) bool {
	return target == ErrIllegalOpcode
}

// Reader is a side-effect free view of memory, used for disassembly.
type Reader interface {
	Read(addr uint16) byte
}

// Memory is the CPU address space.
type Memory interface {
	Reader
	Write(addr uint16, data byte)
}

// CPU represents the 6502 CPU.
type CPU struct {
	// Program Counter
	PC uint16

	// Stack Pointer
	SP byte

	// Accumulator
	A byte

	// Index Register X
	X byte

	// Index Register Y
	Y byte

	// Processor Status
	P byte

	nmiPending bool
	irqPending bool

	// Per-instruction scratch.
	crossed bool
	extra   int
}

// New creates a CPU in its power-on state. Call Reset before stepping.
func New() *CPU {
	return &CPU{P: U}
}

// Reset runs the reset sequence: the stack pointer moves down three
// bytes without writing, interrupts are disabled and PC is loaded from
// the reset vector. It returns the cycles consumed.
func (c *CPU) Reset(mem Memory) int {
	c.SP -= 3
	c.P |= I | U
	c.PC = read16(mem, ResetVector)
	c.nmiPending = false
	c.irqPending = false
	return InterruptCycles
}

// TriggerNMI latches a non-maskable interrupt. It is serviced before the
// next instruction fetch.
func (c *CPU) TriggerNMI() {
	c.nmiPending = true
}

// SetIRQ drives the level of the maskable interrupt line.
func (c *CPU) SetIRQ(asserted bool) {
	c.irqPending = asserted
}

// NMIPending reports whether an NMI is latched.
func (c *CPU) NMIPending() bool {
	return c.nmiPending
}

// Step executes one instruction, or services one pending interrupt, and
// returns the number of cycles consumed.
func (c *CPU) Step(mem Memory) (int, error) {
	if c.nmiPending {
		c.nmiPending = false
		c.interrupt(mem, NMIVector, false)
		return InterruptCycles, nil
	}
	if c.irqPending && c.P&I == 0 {
		c.interrupt(mem, IRQVector, false)
		return InterruptCycles, nil
	}

	opcode := mem.Read(c.PC)
	instr := &instructions[opcode]
	if instr.operate == nil {
		return 0, &OpcodeError{Opcode: opcode, PC: c.PC}
	}
	c.PC++

	c.crossed = false
	c.extra = 0
	addr := c.operandAddress(mem, instr.Mode)
	instr.operate(c, mem, addr)

	cycles := instr.Cycles + c.extra
	if c.crossed && instr.PageCycle {
		cycles++
	}
	return cycles, nil
}

// interrupt pushes PC and status and jumps through vector. brk marks the
// pushed status with the break flag.
func (c *CPU) interrupt(mem Memory, vector uint16, brk bool) {
	c.push16(mem, c.PC)
	flags := c.P | U
	if brk {
		flags |= B
	} else {
		flags &^= B
	}
	c.push(mem, flags)
	c.P |= I
	c.PC = read16(mem, vector)
}

func (c *CPU) setFlag(f byte, v bool) {
	if v {
		c.P |= f
	} else {
		c.P &^= f
	}
}

func (c *CPU) flag(f byte) bool {
	return c.P&f != 0
}

func (c *CPU) setZN(v byte) {
	c.setFlag(Z, v == 0)
	c.setFlag(N, v&0x80 != 0)
}

func (c *CPU) push(mem Memory, v byte) {
	mem.Write(0x0100|uint16(c.SP), v)
	c.SP--
}

func (c *CPU) pull(mem Memory) byte {
	c.SP++
	return mem.Read(0x0100 | uint16(c.SP))
}

func (c *CPU) push16(mem Memory, v uint16) {
	c.push(mem, byte(v>>8))
	c.push(mem, byte(v))
}

func (c *CPU) pull16(mem Memory) uint16 {
	lo := uint16(c.pull(mem))
	hi := uint16(c.pull(mem))
	return hi<<8 | lo
}

func read16(mem Reader, addr uint16) uint16 {
	lo := uint16(mem.Read(addr))
	hi := uint16(mem.Read(addr + 1))
	return hi<<8 | lo
}

// read16Wrap reads a pointer whose high byte comes from the same page,
// reproducing the JMP ($xxFF) and zero page pointer wrap.
func read16Wrap(mem Reader, addr uint16) uint16 {
	lo := uint16(mem.Read(addr))
	hi := uint16(mem.Read(addr&0xFF00 | uint16(byte(addr)+1)))
	return hi<<8 | lo
}

func pagesDiffer(a, b uint16) bool {
	return a&0xFF00 != b&0xFF00
}
