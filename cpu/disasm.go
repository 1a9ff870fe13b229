package cpu

import (
	"fmt"
	"strings"
)

// Disassemble formats the instruction at pc using the current index
// registers to resolve effective addresses. mem must be side-effect free.
// It returns the text and the instruction length.
func (c *CPU) Disassemble(mem Reader, pc uint16) (string, uint16) {
	opcode := mem.Read(pc)
	instr, ok := Lookup(opcode)
	if !ok {
		return fmt.Sprintf("JAM ($%02X)", opcode), 1
	}

	lo := mem.Read(pc + 1)
	hi := mem.Read(pc + 2)
	abs := uint16(hi)<<8 | uint16(lo)

	var operand string
	switch instr.Mode {
	case Implied:
	case Accumulator:
		operand = "A"
	case Immediate:
		operand = fmt.Sprintf("#$%02X", lo)
	case ZeroPage:
		operand = fmt.Sprintf("$%02X = %02X", lo, mem.Read(uint16(lo)))
	case ZeroPageX:
		addr := lo + c.X
		operand = fmt.Sprintf("$%02X,X @ %02X = %02X", lo, addr, mem.Read(uint16(addr)))
	case ZeroPageY:
		addr := lo + c.Y
		operand = fmt.Sprintf("$%02X,Y @ %02X = %02X", lo, addr, mem.Read(uint16(addr)))
	case Relative:
		operand = fmt.Sprintf("$%04X", pc+2+uint16(int8(lo)))
	case Absolute:
		if instr.Name == "JMP" || instr.Name == "JSR" {
			operand = fmt.Sprintf("$%04X", abs)
		} else {
			operand = fmt.Sprintf("$%04X = %02X", abs, mem.Read(abs))
		}
	case AbsoluteX:
		addr := abs + uint16(c.X)
		operand = fmt.Sprintf("$%04X,X @ %04X = %02X", abs, addr, mem.Read(addr))
	case AbsoluteY:
		addr := abs + uint16(c.Y)
		operand = fmt.Sprintf("$%04X,Y @ %04X = %02X", abs, addr, mem.Read(addr))
	case Indirect:
		operand = fmt.Sprintf("($%04X) = %04X", abs, read16Wrap(mem, abs))
	case IndexedIndirect:
		ptr := lo + c.X
		addr := read16Wrap(mem, uint16(ptr))
		operand = fmt.Sprintf("($%02X,X) @ %02X = %04X = %02X", lo, ptr, addr, mem.Read(addr))
	case IndirectIndexed:
		base := read16Wrap(mem, uint16(lo))
		addr := base + uint16(c.Y)
		operand = fmt.Sprintf("($%02X),Y = %04X @ %04X = %02X", lo, base, addr, mem.Read(addr))
	}

	text := instr.Name
	if operand != "" {
		text += " " + operand
	}
	return text, instr.Mode.Size()
}

// Trace formats the instruction at PC as a nestest log line. The register
// columns show the state before the instruction executes.
func (c *CPU) Trace(mem Reader, scanline, dot int, cycles uint64) string {
	text, size := c.Disassemble(mem, c.PC)

	raw := make([]string, size)
	for i := range raw {
		raw[i] = fmt.Sprintf("%02X", mem.Read(c.PC+uint16(i)))
	}

	marker := " "
	if instr, ok := Lookup(mem.Read(c.PC)); ok && instr.Undocumented {
		marker = "*"
	}

	return fmt.Sprintf("%04X  %-9s%s%-31s A:%02X X:%02X Y:%02X P:%02X SP:%02X PPU:%3d,%3d CYC:%d",
		c.PC, strings.Join(raw, " "), marker, text, c.A, c.X, c.Y, c.P, c.SP, scanline, dot, cycles)
}
