package cpu

// Loads and stores

func lda(c *CPU, mem Memory, addr uint16) {
	c.A = mem.Read(addr)
	c.setZN(c.A)
}

func ldx(c *CPU, mem Memory, addr uint16) {
	c.X = mem.Read(addr)
	c.setZN(c.X)
}

func ldy(c *CPU, mem Memory, addr uint16) {
	c.Y = mem.Read(addr)
	c.setZN(c.Y)
}

func sta(c *CPU, mem Memory, addr uint16) { mem.Write(addr, c.A) }
func stx(c *CPU, mem Memory, addr uint16) { mem.Write(addr, c.X) }
func sty(c *CPU, mem Memory, addr uint16) { mem.Write(addr, c.Y) }

// Transfers

func tax(c *CPU, mem Memory, addr uint16) { c.X = c.A; c.setZN(c.X) }
func tay(c *CPU, mem Memory, addr uint16) { c.Y = c.A; c.setZN(c.Y) }
func txa(c *CPU, mem Memory, addr uint16) { c.A = c.X; c.setZN(c.A) }
func tya(c *CPU, mem Memory, addr uint16) { c.A = c.Y; c.setZN(c.A) }
func tsx(c *CPU, mem Memory, addr uint16) { c.X = c.SP; c.setZN(c.X) }
func txs(c *CPU, mem Memory, addr uint16) { c.SP = c.X }

// Stack

func pha(c *CPU, mem Memory, addr uint16) { c.push(mem, c.A) }
func php(c *CPU, mem Memory, addr uint16) { c.push(mem, c.P|B|U) }

func pla(c *CPU, mem Memory, addr uint16) {
	c.A = c.pull(mem)
	c.setZN(c.A)
}

func plp(c *CPU, mem Memory, addr uint16) {
	c.P = c.pull(mem)&^B | U
}

// Arithmetic and logic

func addWithCarry(c *CPU, v byte) {
	sum := uint16(c.A) + uint16(v)
	if c.flag(C) {
		sum++
	}
	result := byte(sum)
	c.setFlag(C, sum > 0xFF)
	c.setFlag(V, (c.A^result)&(v^result)&0x80 != 0)
	c.A = result
	c.setZN(c.A)
}

func adc(c *CPU, mem Memory, addr uint16) { addWithCarry(c, mem.Read(addr)) }
func sbc(c *CPU, mem Memory, addr uint16) { addWithCarry(c, ^mem.Read(addr)) }

func and(c *CPU, mem Memory, addr uint16) {
	c.A &= mem.Read(addr)
	c.setZN(c.A)
}

func ora(c *CPU, mem Memory, addr uint16) {
	c.A |= mem.Read(addr)
	c.setZN(c.A)
}

func eor(c *CPU, mem Memory, addr uint16) {
	c.A ^= mem.Read(addr)
	c.setZN(c.A)
}

func bit(c *CPU, mem Memory, addr uint16) {
	v := mem.Read(addr)
	c.setFlag(Z, c.A&v == 0)
	c.setFlag(V, v&0x40 != 0)
	c.setFlag(N, v&0x80 != 0)
}

func compare(c *CPU, reg, v byte) {
	c.setFlag(C, reg >= v)
	c.setZN(reg - v)
}

func cmp(c *CPU, mem Memory, addr uint16) { compare(c, c.A, mem.Read(addr)) }
func cpx(c *CPU, mem Memory, addr uint16) { compare(c, c.X, mem.Read(addr)) }
func cpy(c *CPU, mem Memory, addr uint16) { compare(c, c.Y, mem.Read(addr)) }

// Increments and decrements

// modify performs a read-modify-write cycle. The unmodified value is
// written back first, as the hardware does.
func modify(mem Memory, addr uint16, f func(byte) byte) byte {
	v := mem.Read(addr)
	mem.Write(addr, v)
	v = f(v)
	mem.Write(addr, v)
	return v
}

func inc(c *CPU, mem Memory, addr uint16) {
	c.setZN(modify(mem, addr, func(v byte) byte { return v + 1 }))
}

func dec(c *CPU, mem Memory, addr uint16) {
	c.setZN(modify(mem, addr, func(v byte) byte { return v - 1 }))
}

func inx(c *CPU, mem Memory, addr uint16) { c.X++; c.setZN(c.X) }
func iny(c *CPU, mem Memory, addr uint16) { c.Y++; c.setZN(c.Y) }
func dex(c *CPU, mem Memory, addr uint16) { c.X--; c.setZN(c.X) }
func dey(c *CPU, mem Memory, addr uint16) { c.Y--; c.setZN(c.Y) }

// Shifts

func (c *CPU) shiftLeft(v byte, carryIn bool) byte {
	c.setFlag(C, v&0x80 != 0)
	v <<= 1
	if carryIn {
		v |= 0x01
	}
	c.setZN(v)
	return v
}

func (c *CPU) shiftRight(v byte, carryIn bool) byte {
	c.setFlag(C, v&0x01 != 0)
	v >>= 1
	if carryIn {
		v |= 0x80
	}
	c.setZN(v)
	return v
}

func asl(c *CPU, mem Memory, addr uint16) { aslMem(c, mem, addr) }
func lsr(c *CPU, mem Memory, addr uint16) { lsrMem(c, mem, addr) }
func rol(c *CPU, mem Memory, addr uint16) { rolMem(c, mem, addr) }
func ror(c *CPU, mem Memory, addr uint16) { rorMem(c, mem, addr) }

// The *Mem shifts return the value written back so the combined
// undocumented opcodes never read the operand a second time.

func aslMem(c *CPU, mem Memory, addr uint16) byte {
	return modify(mem, addr, func(v byte) byte { return c.shiftLeft(v, false) })
}

func lsrMem(c *CPU, mem Memory, addr uint16) byte {
	return modify(mem, addr, func(v byte) byte { return c.shiftRight(v, false) })
}

func rolMem(c *CPU, mem Memory, addr uint16) byte {
	carry := c.flag(C)
	return modify(mem, addr, func(v byte) byte { return c.shiftLeft(v, carry) })
}

func rorMem(c *CPU, mem Memory, addr uint16) byte {
	carry := c.flag(C)
	return modify(mem, addr, func(v byte) byte { return c.shiftRight(v, carry) })
}

func aslAcc(c *CPU, mem Memory, addr uint16) { c.A = c.shiftLeft(c.A, false) }
func lsrAcc(c *CPU, mem Memory, addr uint16) { c.A = c.shiftRight(c.A, false) }
func rolAcc(c *CPU, mem Memory, addr uint16) { c.A = c.shiftLeft(c.A, c.flag(C)) }
func rorAcc(c *CPU, mem Memory, addr uint16) { c.A = c.shiftRight(c.A, c.flag(C)) }

// Jumps and calls

func jmp(c *CPU, mem Memory, addr uint16) { c.PC = addr }

func jsr(c *CPU, mem Memory, addr uint16) {
	c.push16(mem, c.PC-1)
	c.PC = addr
}

func rts(c *CPU, mem Memory, addr uint16) {
	c.PC = c.pull16(mem) + 1
}

func rti(c *CPU, mem Memory, addr uint16) {
	c.P = c.pull(mem)&^B | U
	c.PC = c.pull16(mem)
}

func brk(c *CPU, mem Memory, addr uint16) {
	c.PC++ // padding byte
	c.interrupt(mem, IRQVector, true)
}

// Branches

// branch takes one extra cycle when taken and another when the target
// lies on a different page.
func (c *CPU) branch(cond bool, addr uint16) {
	if !cond {
		return
	}
	c.extra++
	if pagesDiffer(c.PC, addr) {
		c.extra++
	}
	c.PC = addr
}

func bpl(c *CPU, mem Memory, addr uint16) { c.branch(!c.flag(N), addr) }
func bmi(c *CPU, mem Memory, addr uint16) { c.branch(c.flag(N), addr) }
func bvc(c *CPU, mem Memory, addr uint16) { c.branch(!c.flag(V), addr) }
func bvs(c *CPU, mem Memory, addr uint16) { c.branch(c.flag(V), addr) }
func bcc(c *CPU, mem Memory, addr uint16) { c.branch(!c.flag(C), addr) }
func bcs(c *CPU, mem Memory, addr uint16) { c.branch(c.flag(C), addr) }
func bne(c *CPU, mem Memory, addr uint16) { c.branch(!c.flag(Z), addr) }
func beq(c *CPU, mem Memory, addr uint16) { c.branch(c.flag(Z), addr) }

// Flags

func clc(c *CPU, mem Memory, addr uint16) { c.P &^= C }
func sec(c *CPU, mem Memory, addr uint16) { c.P |= C }
func cli(c *CPU, mem Memory, addr uint16) { c.P &^= I }
func sei(c *CPU, mem Memory, addr uint16) { c.P |= I }
func cld(c *CPU, mem Memory, addr uint16) { c.P &^= D }
func sed(c *CPU, mem Memory, addr uint16) { c.P |= D }
func clv(c *CPU, mem Memory, addr uint16) { c.P &^= V }

func nop(c *CPU, mem Memory, addr uint16) {}

// nopRead is the unofficial NOP with an operand; the operand is still read.
func nopRead(c *CPU, mem Memory, addr uint16) { mem.Read(addr) }

// Undocumented opcodes

func lax(c *CPU, mem Memory, addr uint16) {
	c.A = mem.Read(addr)
	c.X = c.A
	c.setZN(c.A)
}

func sax(c *CPU, mem Memory, addr uint16) { mem.Write(addr, c.A&c.X) }

func slo(c *CPU, mem Memory, addr uint16) {
	c.A |= aslMem(c, mem, addr)
	c.setZN(c.A)
}

func rla(c *CPU, mem Memory, addr uint16) {
	c.A &= rolMem(c, mem, addr)
	c.setZN(c.A)
}

func sre(c *CPU, mem Memory, addr uint16) {
	c.A ^= lsrMem(c, mem, addr)
	c.setZN(c.A)
}

func rra(c *CPU, mem Memory, addr uint16) {
	addWithCarry(c, rorMem(c, mem, addr))
}

func dcp(c *CPU, mem Memory, addr uint16) {
	v := modify(mem, addr, func(v byte) byte { return v - 1 })
	compare(c, c.A, v)
}

func isc(c *CPU, mem Memory, addr uint16) {
	v := modify(mem, addr, func(v byte) byte { return v + 1 })
	addWithCarry(c, ^v)
}

func anc(c *CPU, mem Memory, addr uint16) {
	and(c, mem, addr)
	c.setFlag(C, c.flag(N))
}

func alr(c *CPU, mem Memory, addr uint16) {
	c.A = c.shiftRight(c.A&mem.Read(addr), false)
}

func arr(c *CPU, mem Memory, addr uint16) {
	v := c.A & mem.Read(addr)
	v >>= 1
	if c.flag(C) {
		v |= 0x80
	}
	c.A = v
	c.setZN(v)
	c.setFlag(C, v&0x40 != 0)
	c.setFlag(V, (v>>6^v>>5)&1 != 0)
}

func axs(c *CPU, mem Memory, addr uint16) {
	v := mem.Read(addr)
	ax := c.A & c.X
	c.setFlag(C, ax >= v)
	c.X = ax - v
	c.setZN(c.X)
}

func las(c *CPU, mem Memory, addr uint16) {
	v := mem.Read(addr) & c.SP
	c.A, c.X, c.SP = v, v, v
	c.setZN(v)
}

// xaa and lxa depend on analog behaviour; 0xEE is the commonly observed
// constant on 2A03 parts.
func xaa(c *CPU, mem Memory, addr uint16) {
	c.A = (c.A | 0xEE) & c.X & mem.Read(addr)
	c.setZN(c.A)
}

func lxa(c *CPU, mem Memory, addr uint16) {
	c.A = (c.A | 0xEE) & mem.Read(addr)
	c.X = c.A
	c.setZN(c.A)
}

// storeHigh implements the SH* family: the stored value is ANDed with
// the high byte of the base address plus one, and a page crossing
// replaces the high byte of the target with that value.
func storeHigh(mem Memory, addr uint16, index, v byte) {
	base := addr - uint16(index)
	v &= byte(base>>8) + 1
	if pagesDiffer(base, addr) {
		addr = uint16(v)<<8 | addr&0x00FF
	}
	mem.Write(addr, v)
}

func shy(c *CPU, mem Memory, addr uint16) { storeHigh(mem, addr, c.X, c.Y) }
func shx(c *CPU, mem Memory, addr uint16) { storeHigh(mem, addr, c.Y, c.X) }
func ahx(c *CPU, mem Memory, addr uint16) { storeHigh(mem, addr, c.Y, c.A&c.X) }

func tas(c *CPU, mem Memory, addr uint16) {
	c.SP = c.A & c.X
	storeHigh(mem, addr, c.Y, c.SP)
}
