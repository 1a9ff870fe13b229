package cpu

// Instruction describes one opcode.
type Instruction struct {
	Name         string
	Mode         AddrMode
	Cycles       int
	PageCycle    bool // +1 cycle when indexing crosses a page
	Undocumented bool
	operate      func(c *CPU, mem Memory, addr uint16)
}

// Lookup returns the instruction for opcode. ok is false for the opcodes
// that halt the processor.
func Lookup(opcode byte) (Instruction, bool) {
	instr := instructions[opcode]
	return instr, instr.operate != nil
}

var instructions = [256]Instruction{
	0x00: {"BRK", Implied, 7, false, false, brk},
	0x01: {"ORA", IndexedIndirect, 6, false, false, ora},
	0x03: {"SLO", IndexedIndirect, 8, false, true, slo},
	0x04: {"NOP", ZeroPage, 3, false, true, nopRead},
	0x05: {"ORA", ZeroPage, 3, false, false, ora},
	0x06: {"ASL", ZeroPage, 5, false, false, asl},
	0x07: {"SLO", ZeroPage, 5, false, true, slo},
	0x08: {"PHP", Implied, 3, false, false, php},
	0x09: {"ORA", Immediate, 2, false, false, ora},
	0x0A: {"ASL", Accumulator, 2, false, false, aslAcc},
	0x0B: {"ANC", Immediate, 2, false, true, anc},
	0x0C: {"NOP", Absolute, 4, false, true, nopRead},
	0x0D: {"ORA", Absolute, 4, false, false, ora},
	0x0E: {"ASL", Absolute, 6, false, false, asl},
	0x0F: {"SLO", Absolute, 6, false, true, slo},
	0x10: {"BPL", Relative, 2, false, false, bpl},
	0x11: {"ORA", IndirectIndexed, 5, true, false, ora},
	0x13: {"SLO", IndirectIndexed, 8, false, true, slo},
	0x14: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0x15: {"ORA", ZeroPageX, 4, false, false, ora},
	0x16: {"ASL", ZeroPageX, 6, false, false, asl},
	0x17: {"SLO", ZeroPageX, 6, false, true, slo},
	0x18: {"CLC", Implied, 2, false, false, clc},
	0x19: {"ORA", AbsoluteY, 4, true, false, ora},
	0x1A: {"NOP", Implied, 2, false, true, nop},
	0x1B: {"SLO", AbsoluteY, 7, false, true, slo},
	0x1C: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0x1D: {"ORA", AbsoluteX, 4, true, false, ora},
	0x1E: {"ASL", AbsoluteX, 7, false, false, asl},
	0x1F: {"SLO", AbsoluteX, 7, false, true, slo},
	0x20: {"JSR", Absolute, 6, false, false, jsr},
	0x21: {"AND", IndexedIndirect, 6, false, false, and},
	0x23: {"RLA", IndexedIndirect, 8, false, true, rla},
	0x24: {"BIT", ZeroPage, 3, false, false, bit},
	0x25: {"AND", ZeroPage, 3, false, false, and},
	0x26: {"ROL", ZeroPage, 5, false, false, rol},
	0x27: {"RLA", ZeroPage, 5, false, true, rla},
	0x28: {"PLP", Implied, 4, false, false, plp},
	0x29: {"AND", Immediate, 2, false, false, and},
	0x2A: {"ROL", Accumulator, 2, false, false, rolAcc},
	0x2B: {"ANC", Immediate, 2, false, true, anc},
	0x2C: {"BIT", Absolute, 4, false, false, bit},
	0x2D: {"AND", Absolute, 4, false, false, and},
	0x2E: {"ROL", Absolute, 6, false, false, rol},
	0x2F: {"RLA", Absolute, 6, false, true, rla},
	0x30: {"BMI", Relative, 2, false, false, bmi},
	0x31: {"AND", IndirectIndexed, 5, true, false, and},
	0x33: {"RLA", IndirectIndexed, 8, false, true, rla},
	0x34: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0x35: {"AND", ZeroPageX, 4, false, false, and},
	0x36: {"ROL", ZeroPageX, 6, false, false, rol},
	0x37: {"RLA", ZeroPageX, 6, false, true, rla},
	0x38: {"SEC", Implied, 2, false, false, sec},
	0x39: {"AND", AbsoluteY, 4, true, false, and},
	0x3A: {"NOP", Implied, 2, false, true, nop},
	0x3B: {"RLA", AbsoluteY, 7, false, true, rla},
	0x3C: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0x3D: {"AND", AbsoluteX, 4, true, false, and},
	0x3E: {"ROL", AbsoluteX, 7, false, false, rol},
	0x3F: {"RLA", AbsoluteX, 7, false, true, rla},
	0x40: {"RTI", Implied, 6, false, false, rti},
	0x41: {"EOR", IndexedIndirect, 6, false, false, eor},
	0x43: {"SRE", IndexedIndirect, 8, false, true, sre},
	0x44: {"NOP", ZeroPage, 3, false, true, nopRead},
	0x45: {"EOR", ZeroPage, 3, false, false, eor},
	0x46: {"LSR", ZeroPage, 5, false, false, lsr},
	0x47: {"SRE", ZeroPage, 5, false, true, sre},
	0x48: {"PHA", Implied, 3, false, false, pha},
	0x49: {"EOR", Immediate, 2, false, false, eor},
	0x4A: {"LSR", Accumulator, 2, false, false, lsrAcc},
	0x4B: {"ALR", Immediate, 2, false, true, alr},
	0x4C: {"JMP", Absolute, 3, false, false, jmp},
	0x4D: {"EOR", Absolute, 4, false, false, eor},
	0x4E: {"LSR", Absolute, 6, false, false, lsr},
	0x4F: {"SRE", Absolute, 6, false, true, sre},
	0x50: {"BVC", Relative, 2, false, false, bvc},
	0x51: {"EOR", IndirectIndexed, 5, true, false, eor},
	0x53: {"SRE", IndirectIndexed, 8, false, true, sre},
	0x54: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0x55: {"EOR", ZeroPageX, 4, false, false, eor},
	0x56: {"LSR", ZeroPageX, 6, false, false, lsr},
	0x57: {"SRE", ZeroPageX, 6, false, true, sre},
	0x58: {"CLI", Implied, 2, false, false, cli},
	0x59: {"EOR", AbsoluteY, 4, true, false, eor},
	0x5A: {"NOP", Implied, 2, false, true, nop},
	0x5B: {"SRE", AbsoluteY, 7, false, true, sre},
	0x5C: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0x5D: {"EOR", AbsoluteX, 4, true, false, eor},
	0x5E: {"LSR", AbsoluteX, 7, false, false, lsr},
	0x5F: {"SRE", AbsoluteX, 7, false, true, sre},
	0x60: {"RTS", Implied, 6, false, false, rts},
	0x61: {"ADC", IndexedIndirect, 6, false, false, adc},
	0x63: {"RRA", IndexedIndirect, 8, false, true, rra},
	0x64: {"NOP", ZeroPage, 3, false, true, nopRead},
	0x65: {"ADC", ZeroPage, 3, false, false, adc},
	0x66: {"ROR", ZeroPage, 5, false, false, ror},
	0x67: {"RRA", ZeroPage, 5, false, true, rra},
	0x68: {"PLA", Implied, 4, false, false, pla},
	0x69: {"ADC", Immediate, 2, false, false, adc},
	0x6A: {"ROR", Accumulator, 2, false, false, rorAcc},
	0x6B: {"ARR", Immediate, 2, false, true, arr},
	0x6C: {"JMP", Indirect, 5, false, false, jmp},
	0x6D: {"ADC", Absolute, 4, false, false, adc},
	0x6E: {"ROR", Absolute, 6, false, false, ror},
	0x6F: {"RRA", Absolute, 6, false, true, rra},
	0x70: {"BVS", Relative, 2, false, false, bvs},
	0x71: {"ADC", IndirectIndexed, 5, true, false, adc},
	0x73: {"RRA", IndirectIndexed, 8, false, true, rra},
	0x74: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0x75: {"ADC", ZeroPageX, 4, false, false, adc},
	0x76: {"ROR", ZeroPageX, 6, false, false, ror},
	0x77: {"RRA", ZeroPageX, 6, false, true, rra},
	0x78: {"SEI", Implied, 2, false, false, sei},
	0x79: {"ADC", AbsoluteY, 4, true, false, adc},
	0x7A: {"NOP", Implied, 2, false, true, nop},
	0x7B: {"RRA", AbsoluteY, 7, false, true, rra},
	0x7C: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0x7D: {"ADC", AbsoluteX, 4, true, false, adc},
	0x7E: {"ROR", AbsoluteX, 7, false, false, ror},
	0x7F: {"RRA", AbsoluteX, 7, false, true, rra},
	0x80: {"NOP", Immediate, 2, false, true, nopRead},
	0x81: {"STA", IndexedIndirect, 6, false, false, sta},
	0x82: {"NOP", Immediate, 2, false, true, nopRead},
	0x83: {"SAX", IndexedIndirect, 6, false, true, sax},
	0x84: {"STY", ZeroPage, 3, false, false, sty},
	0x85: {"STA", ZeroPage, 3, false, false, sta},
	0x86: {"STX", ZeroPage, 3, false, false, stx},
	0x87: {"SAX", ZeroPage, 3, false, true, sax},
	0x88: {"DEY", Implied, 2, false, false, dey},
	0x89: {"NOP", Immediate, 2, false, true, nopRead},
	0x8A: {"TXA", Implied, 2, false, false, txa},
	0x8B: {"XAA", Immediate, 2, false, true, xaa},
	0x8C: {"STY", Absolute, 4, false, false, sty},
	0x8D: {"STA", Absolute, 4, false, false, sta},
	0x8E: {"STX", Absolute, 4, false, false, stx},
	0x8F: {"SAX", Absolute, 4, false, true, sax},
	0x90: {"BCC", Relative, 2, false, false, bcc},
	0x91: {"STA", IndirectIndexed, 6, false, false, sta},
	0x93: {"AHX", IndirectIndexed, 6, false, true, ahx},
	0x94: {"STY", ZeroPageX, 4, false, false, sty},
	0x95: {"STA", ZeroPageX, 4, false, false, sta},
	0x96: {"STX", ZeroPageY, 4, false, false, stx},
	0x97: {"SAX", ZeroPageY, 4, false, true, sax},
	0x98: {"TYA", Implied, 2, false, false, tya},
	0x99: {"STA", AbsoluteY, 5, false, false, sta},
	0x9A: {"TXS", Implied, 2, false, false, txs},
	0x9B: {"TAS", AbsoluteY, 5, false, true, tas},
	0x9C: {"SHY", AbsoluteX, 5, false, true, shy},
	0x9D: {"STA", AbsoluteX, 5, false, false, sta},
	0x9E: {"SHX", AbsoluteY, 5, false, true, shx},
	0x9F: {"AHX", AbsoluteY, 5, false, true, ahx},
	0xA0: {"LDY", Immediate, 2, false, false, ldy},
	0xA1: {"LDA", IndexedIndirect, 6, false, false, lda},
	0xA2: {"LDX", Immediate, 2, false, false, ldx},
	0xA3: {"LAX", IndexedIndirect, 6, false, true, lax},
	0xA4: {"LDY", ZeroPage, 3, false, false, ldy},
	0xA5: {"LDA", ZeroPage, 3, false, false, lda},
	0xA6: {"LDX", ZeroPage, 3, false, false, ldx},
	0xA7: {"LAX", ZeroPage, 3, false, true, lax},
	0xA8: {"TAY", Implied, 2, false, false, tay},
	0xA9: {"LDA", Immediate, 2, false, false, lda},
	0xAA: {"TAX", Implied, 2, false, false, tax},
	0xAB: {"LXA", Immediate, 2, false, true, lxa},
	0xAC: {"LDY", Absolute, 4, false, false, ldy},
	0xAD: {"LDA", Absolute, 4, false, false, lda},
	0xAE: {"LDX", Absolute, 4, false, false, ldx},
	0xAF: {"LAX", Absolute, 4, false, true, lax},
	0xB0: {"BCS", Relative, 2, false, false, bcs},
	0xB1: {"LDA", IndirectIndexed, 5, true, false, lda},
	0xB3: {"LAX", IndirectIndexed, 5, true, true, lax},
	0xB4: {"LDY", ZeroPageX, 4, false, false, ldy},
	0xB5: {"LDA", ZeroPageX, 4, false, false, lda},
	0xB6: {"LDX", ZeroPageY, 4, false, false, ldx},
	0xB7: {"LAX", ZeroPageY, 4, false, true, lax},
	0xB8: {"CLV", Implied, 2, false, false, clv},
	0xB9: {"LDA", AbsoluteY, 4, true, false, lda},
	0xBA: {"TSX", Implied, 2, false, false, tsx},
	0xBB: {"LAS", AbsoluteY, 4, true, true, las},
	0xBC: {"LDY", AbsoluteX, 4, true, false, ldy},
	0xBD: {"LDA", AbsoluteX, 4, true, false, lda},
	0xBE: {"LDX", AbsoluteY, 4, true, false, ldx},
	0xBF: {"LAX", AbsoluteY, 4, true, true, lax},
	0xC0: {"CPY", Immediate, 2, false, false, cpy},
	0xC1: {"CMP", IndexedIndirect, 6, false, false, cmp},
	0xC2: {"NOP", Immediate, 2, false, true, nopRead},
	0xC3: {"DCP", IndexedIndirect, 8, false, true, dcp},
	0xC4: {"CPY", ZeroPage, 3, false, false, cpy},
	0xC5: {"CMP", ZeroPage, 3, false, false, cmp},
	0xC6: {"DEC", ZeroPage, 5, false, false, dec},
	0xC7: {"DCP", ZeroPage, 5, false, true, dcp},
	0xC8: {"INY", Implied, 2, false, false, iny},
	0xC9: {"CMP", Immediate, 2, false, false, cmp},
	0xCA: {"DEX", Implied, 2, false, false, dex},
	0xCB: {"AXS", Immediate, 2, false, true, axs},
	0xCC: {"CPY", Absolute, 4, false, false, cpy},
	0xCD: {"CMP", Absolute, 4, false, false, cmp},
	0xCE: {"DEC", Absolute, 6, false, false, dec},
	0xCF: {"DCP", Absolute, 6, false, true, dcp},
	0xD0: {"BNE", Relative, 2, false, false, bne},
	0xD1: {"CMP", IndirectIndexed, 5, true, false, cmp},
	0xD3: {"DCP", IndirectIndexed, 8, false, true, dcp},
	0xD4: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0xD5: {"CMP", ZeroPageX, 4, false, false, cmp},
	0xD6: {"DEC", ZeroPageX, 6, false, false, dec},
	0xD7: {"DCP", ZeroPageX, 6, false, true, dcp},
	0xD8: {"CLD", Implied, 2, false, false, cld},
	0xD9: {"CMP", AbsoluteY, 4, true, false, cmp},
	0xDA: {"NOP", Implied, 2, false, true, nop},
	0xDB: {"DCP", AbsoluteY, 7, false, true, dcp},
	0xDC: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0xDD: {"CMP", AbsoluteX, 4, true, false, cmp},
	0xDE: {"DEC", AbsoluteX, 7, false, false, dec},
	0xDF: {"DCP", AbsoluteX, 7, false, true, dcp},
	0xE0: {"CPX", Immediate, 2, false, false, cpx},
	0xE1: {"SBC", IndexedIndirect, 6, false, false, sbc},
	0xE2: {"NOP", Immediate, 2, false, true, nopRead},
	0xE3: {"ISC", IndexedIndirect, 8, false, true, isc},
	0xE4: {"CPX", ZeroPage, 3, false, false, cpx},
	0xE5: {"SBC", ZeroPage, 3, false, false, sbc},
	0xE6: {"INC", ZeroPage, 5, false, false, inc},
	0xE7: {"ISC", ZeroPage, 5, false, true, isc},
	0xE8: {"INX", Implied, 2, false, false, inx},
	0xE9: {"SBC", Immediate, 2, false, false, sbc},
	0xEA: {"NOP", Implied, 2, false, false, nop},
	0xEB: {"SBC", Immediate, 2, false, true, sbc},
	0xEC: {"CPX", Absolute, 4, false, false, cpx},
	0xED: {"SBC", Absolute, 4, false, false, sbc},
	0xEE: {"INC", Absolute, 6, false, false, inc},
	0xEF: {"ISC", Absolute, 6, false, true, isc},
	0xF0: {"BEQ", Relative, 2, false, false, beq},
	0xF1: {"SBC", IndirectIndexed, 5, true, false, sbc},
	0xF3: {"ISC", IndirectIndexed, 8, false, true, isc},
	0xF4: {"NOP", ZeroPageX, 4, false, true, nopRead},
	0xF5: {"SBC", ZeroPageX, 4, false, false, sbc},
	0xF6: {"INC", ZeroPageX, 6, false, false, inc},
	0xF7: {"ISC", ZeroPageX, 6, false, true, isc},
	0xF8: {"SED", Implied, 2, false, false, sed},
	0xF9: {"SBC", AbsoluteY, 4, true, false, sbc},
	0xFA: {"NOP", Implied, 2, false, true, nop},
	0xFB: {"ISC", AbsoluteY, 7, false, true, isc},
	0xFC: {"NOP", AbsoluteX, 4, true, true, nopRead},
	0xFD: {"SBC", AbsoluteX, 4, true, false, sbc},
	0xFE: {"INC", AbsoluteX, 7, false, false, inc},
	0xFF: {"ISC", AbsoluteX, 7, false, true, isc},
}
