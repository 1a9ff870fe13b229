package cpu

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// referenceCycles is the base cost of every opcode from the nestest log
// and the instr_timing test ROM. Zero marks the opcodes that halt.
var referenceCycles = [256]int{
	// 0  1  2  3  4  5  6  7  8  9  A  B  C  D  E  F
	7, 6, 0, 8, 3, 3, 5, 5, 3, 2, 2, 2, 4, 4, 6, 6, // 0x
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 1x
	6, 6, 0, 8, 3, 3, 5, 5, 4, 2, 2, 2, 4, 4, 6, 6, // 2x
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 3x
	6, 6, 0, 8, 3, 3, 5, 5, 3, 2, 2, 2, 3, 4, 6, 6, // 4x
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 5x
	6, 6, 0, 8, 3, 3, 5, 5, 4, 2, 2, 2, 5, 4, 6, 6, // 6x
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // 7x
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4, // 8x
	2, 6, 0, 6, 4, 4, 4, 4, 2, 5, 2, 5, 5, 5, 5, 5, // 9x
	2, 6, 2, 6, 3, 3, 3, 3, 2, 2, 2, 2, 4, 4, 4, 4, // Ax
	2, 5, 0, 5, 4, 4, 4, 4, 2, 4, 2, 4, 4, 4, 4, 4, // Bx
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6, // Cx
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // Dx
	2, 6, 2, 8, 3, 3, 5, 5, 2, 2, 2, 2, 4, 4, 6, 6, // Ex
	2, 5, 0, 8, 4, 4, 6, 6, 2, 4, 2, 7, 4, 4, 7, 7, // Fx
}

// pagePenalty lists the indexed reads that take one more cycle when the
// index carries into the high byte of the address.
var pagePenalty = map[byte]bool{
	0x11: true, 0x19: true, 0x1C: true, 0x1D: true,
	0x31: true, 0x39: true, 0x3C: true, 0x3D: true,
	0x51: true, 0x59: true, 0x5C: true, 0x5D: true,
	0x71: true, 0x79: true, 0x7C: true, 0x7D: true,
	0xB1: true, 0xB3: true, 0xB9: true, 0xBB: true,
	0xBC: true, 0xBD: true, 0xBE: true, 0xBF: true,
	0xD1: true, 0xD9: true, 0xDC: true, 0xDD: true,
	0xF1: true, 0xF9: true, 0xFC: true, 0xFD: true,
}

var (
	readModifyWrite = map[string]bool{
		"ASL": true, "LSR": true, "ROL": true, "ROR": true, "INC": true, "DEC": true,
		"SLO": true, "RLA": true, "SRE": true, "RRA": true, "DCP": true, "ISC": true,
	}
	storeOnly = map[string]bool{
		"STA": true, "STX": true, "STY": true, "SAX": true,
		"SHX": true, "SHY": true, "AHX": true, "TAS": true,
	}
)

// countingBus records how often each address is read and written.
type countingBus struct {
	mockBus
	reads  map[uint16]int
	stores map[uint16]int
}

func (b *countingBus) Read(addr uint16) byte {
	b.reads[addr]++
	return b.mockBus.Read(addr)
}

func (b *countingBus) Write(addr uint16, data byte) {
	b.stores[addr]++
	b.mockBus.Write(addr, data)
}

// runOpcode executes op once with X and Y set to index. Memory operands
// resolve to $0040 for the zero page modes and to $0210+index otherwise.
func runOpcode(t *testing.T, op, index byte, p byte) (*CPU, *countingBus, int) {
	t.Helper()
	c := New()
	bus := &countingBus{reads: map[uint16]int{}, stores: map[uint16]int{}}
	bus.load(ResetVector, 0x00, 0x80)
	bus.load(IRQVector, 0x00, 0xA0)
	c.Reset(bus)

	instr, ok := Lookup(op)
	require.True(t, ok)
	switch instr.Mode {
	case ZeroPage, ZeroPageX, ZeroPageY:
		bus.load(0x8000, op, 0x40)
	case IndexedIndirect, IndirectIndexed:
		bus.load(0x8000, op, 0x10)
	default:
		bus.load(0x8000, op, 0x10, 0x02)
	}
	bus.load(0x0010, 0x10, 0x02)
	c.X, c.Y, c.P = index, index, p

	bus.reads = map[uint16]int{}
	bus.stores = map[uint16]int{}
	cycles, err := c.Step(bus)
	require.NoError(t, err)
	return c, bus, cycles
}

func isBranch(instr Instruction) bool {
	return instr.Mode == Relative
}

func TestOpcodeTableMatchesReference(t *testing.T) {
	defined := 0
	for op := 0; op < 256; op++ {
		instr, ok := Lookup(byte(op))
		if referenceCycles[op] == 0 {
			assert.False(t, ok, "opcode $%02X should halt", op)
			continue
		}
		defined++
		require.True(t, ok, "opcode $%02X", op)
		assert.Equal(t, referenceCycles[op], instr.Cycles, "opcode $%02X %s", op, instr.Name)
		assert.Equal(t, pagePenalty[byte(op)], instr.PageCycle, "opcode $%02X %s", op, instr.Name)
	}
	assert.Equal(t, 244, defined)
}

func TestEveryOpcodeCostOnTheBus(t *testing.T) {
	for op := 0; op < 256; op++ {
		instr, ok := Lookup(byte(op))
		if !ok || isBranch(instr) {
			continue
		}
		t.Run(fmt.Sprintf("%02X_%s", op, instr.Name), func(t *testing.T) {
			_, _, cycles := runOpcode(t, byte(op), 0, U|I)
			assert.Equal(t, referenceCycles[op], cycles, "no page crossing")

			switch instr.Mode {
			case AbsoluteX, AbsoluteY, IndirectIndexed:
				want := referenceCycles[op]
				if pagePenalty[byte(op)] {
					want++
				}
				_, _, cycles = runOpcode(t, byte(op), 0xFF, U|I)
				assert.Equal(t, want, cycles, "page crossing")
			}
		})
	}
}

func TestBranchCosts(t *testing.T) {
	for op := 0; op < 256; op++ {
		instr, ok := Lookup(byte(op))
		if !ok || !isBranch(instr) {
			continue
		}
		t.Run(instr.Name, func(t *testing.T) {
			taken := 0
			for _, p := range []byte{U, 0xFF} {
				c, _, cycles := runOpcode(t, byte(op), 0, p)
				if c.PC == 0x8012 {
					taken++
					assert.Equal(t, 3, cycles, "taken with P=$%02X", p)

					c, bus, _ := runOpcode(t, byte(op), 0, p)
					bus.load(0x8000, byte(op), 0x80)
					c.PC = 0x8000
					cycles, err := c.Step(bus)
					require.NoError(t, err)
					assert.Equal(t, uint16(0x7F82), c.PC)
					assert.Equal(t, 4, cycles, "taken across a page")
				} else {
					assert.Equal(t, uint16(0x8002), c.PC)
					assert.Equal(t, 2, cycles, "not taken with P=$%02X", p)
				}
			}
			assert.Equal(t, 1, taken)
		})
	}
}

func TestMemoryOperandAccessCounts(t *testing.T) {
	for op := 0; op < 256; op++ {
		instr, ok := Lookup(byte(op))
		if !ok || instr.Name == "JMP" || instr.Name == "JSR" {
			continue
		}
		var target uint16
		switch instr.Mode {
		case ZeroPage, ZeroPageX, ZeroPageY:
			target = 0x0040
		case Absolute, AbsoluteX, AbsoluteY, IndexedIndirect, IndirectIndexed:
			target = 0x0210
		default:
			continue
		}
		reads, writes := 1, 0
		switch {
		case readModifyWrite[instr.Name]:
			writes = 2
		case storeOnly[instr.Name]:
			reads, writes = 0, 1
		}

		t.Run(fmt.Sprintf("%02X_%s", op, instr.Name), func(t *testing.T) {
			_, bus, _ := runOpcode(t, byte(op), 0, U|I)
			assert.Equal(t, reads, bus.reads[target], "reads of $%04X", target)
			assert.Equal(t, writes, bus.stores[target], "writes of $%04X", target)
		})
	}
}

func TestCombinedShiftsUseTheWrittenValue(t *testing.T) {
	tests := []struct {
		op      byte
		a, m    byte
		carry   bool
		wantA   byte
		wantMem byte
	}{
		{0x0F, 0x01, 0x40, false, 0x81, 0x80}, // SLO
		{0x2F, 0xFF, 0x40, true, 0x81, 0x81},  // RLA
		{0x4F, 0x0F, 0x04, false, 0x0D, 0x02}, // SRE
		{0x6F, 0x01, 0x02, true, 0x82, 0x81},  // RRA
	}
	for _, tt := range tests {
		instr, _ := Lookup(tt.op)
		t.Run(instr.Name, func(t *testing.T) {
			c, bus := setupCPU(t)
			bus.load(0x8000, tt.op, 0x10, 0x02)
			bus.ram[0x0210] = tt.m
			c.A = tt.a
			c.setFlag(C, tt.carry)
			step(t, c, bus)
			assert.Equal(t, tt.wantMem, bus.ram[0x0210])
			assert.Equal(t, tt.wantA, c.A)
		})
	}
}
