package cpu

// AddrMode identifies how an instruction locates its operand.
type AddrMode byte

const (
	Implied AddrMode = iota
	Accumulator
	Immediate
	ZeroPage
	ZeroPageX
	ZeroPageY
	Relative
	Absolute
	AbsoluteX
	AbsoluteY
	Indirect
	IndexedIndirect // (zp,X)
	IndirectIndexed // (zp),Y
)

// operandBytes is the number of bytes following the opcode.
var operandBytes = [...]uint16{
	Implied:         0,
	Accumulator:     0,
	Immediate:       1,
	ZeroPage:        1,
	ZeroPageX:       1,
	ZeroPageY:       1,
	Relative:        1,
	Absolute:        2,
	AbsoluteX:       2,
	AbsoluteY:       2,
	Indirect:        2,
	IndexedIndirect: 1,
	IndirectIndexed: 1,
}

// Size returns the instruction length in bytes for the mode.
func (m AddrMode) Size() uint16 {
	return 1 + operandBytes[m]
}

// operandAddress consumes the operand bytes at PC and returns the
// effective address. Indexed modes record a page crossing in c.crossed.
func (c *CPU) operandAddress(mem Memory, mode AddrMode) uint16 {
	switch mode {
	case Implied, Accumulator:
		return 0
	case Immediate:
		addr := c.PC
		c.PC++
		return addr
	case ZeroPage:
		addr := uint16(mem.Read(c.PC))
		c.PC++
		return addr
	case ZeroPageX:
		addr := uint16(mem.Read(c.PC) + c.X)
		c.PC++
		return addr
	case ZeroPageY:
		addr := uint16(mem.Read(c.PC) + c.Y)
		c.PC++
		return addr
	case Relative:
		offset := int8(mem.Read(c.PC))
		c.PC++
		return c.PC + uint16(offset)
	case Absolute:
		addr := read16(mem, c.PC)
		c.PC += 2
		return addr
	case AbsoluteX:
		base := read16(mem, c.PC)
		c.PC += 2
		addr := base + uint16(c.X)
		c.crossed = pagesDiffer(base, addr)
		return addr
	case AbsoluteY:
		base := read16(mem, c.PC)
		c.PC += 2
		addr := base + uint16(c.Y)
		c.crossed = pagesDiffer(base, addr)
		return addr
	case Indirect:
		ptr := read16(mem, c.PC)
		c.PC += 2
		return read16Wrap(mem, ptr)
	case IndexedIndirect:
		ptr := mem.Read(c.PC) + c.X
		c.PC++
		return read16Wrap(mem, uint16(ptr))
	case IndirectIndexed:
		ptr := mem.Read(c.PC)
		c.PC++
		base := read16Wrap(mem, uint16(ptr))
		addr := base + uint16(c.Y)
		c.crossed = pagesDiffer(base, addr)
		return addr
	}
	return 0
}
