package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBus struct {
	ram    [65536]byte
	writes []uint16
}

func (b *mockBus) Read(addr uint16) byte {
	return b.ram[addr]
}

func (b *mockBus) Write(addr uint16, data byte) {
	b.ram[addr] = data
	b.writes = append(b.writes, addr)
}

func (b *mockBus) load(addr uint16, program ...byte) {
	copy(b.ram[addr:], program)
}

func setupCPU(t *testing.T) (*CPU, *mockBus) {
	t.Helper()
	c := New()
	bus := &mockBus{}
	bus.load(ResetVector, 0x00, 0x80)
	bus.load(NMIVector, 0x00, 0x90)
	bus.load(IRQVector, 0x00, 0xA0)
	require.Equal(t, InterruptCycles, c.Reset(bus))
	require.Equal(t, uint16(0x8000), c.PC)
	return c, bus
}

func step(t *testing.T, c *CPU, bus *mockBus) int {
	t.Helper()
	cycles, err := c.Step(bus)
	require.NoError(t, err)
	return cycles
}

func TestReset(t *testing.T) {
	c, _ := setupCPU(t)
	assert.Equal(t, byte(0xFD), c.SP)
	assert.Equal(t, byte(0x24), c.P)
}

func TestLoadStore(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000,
		0xA9, 0x42, // LDA #$42
		0x8D, 0x10, 0x01, // STA $0110
		0xA2, 0x00, // LDX #$00
	)

	step(t, c, bus)
	assert.Equal(t, byte(0x42), c.A)
	step(t, c, bus)
	assert.Equal(t, byte(0x42), bus.ram[0x0110])
	step(t, c, bus)
	assert.True(t, c.flag(Z))
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		a       byte
		carry   bool
		want    byte
		flags   byte
	}{
		{"adc", []byte{0x69, 0x05}, 10, false, 15, 0},
		{"adc carry in", []byte{0x69, 0x05}, 10, true, 16, 0},
		{"adc carry out", []byte{0x69, 0x01}, 0xFF, false, 0x00, C | Z},
		{"adc overflow", []byte{0x69, 0x01}, 0x7F, false, 0x80, V | N},
		{"sbc", []byte{0xE9, 0x05}, 10, true, 5, C},
		{"sbc borrow", []byte{0xE9, 0x05}, 10, false, 4, C},
		{"sbc underflow", []byte{0xE9, 0x01}, 0x00, true, 0xFF, N},
		{"sbc overflow", []byte{0xE9, 0x01}, 0x80, true, 0x7F, C | V},
		{"sbc undocumented", []byte{0xEB, 0x01}, 0x03, true, 0x02, C},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := setupCPU(t)
			bus.load(0x8000, tt.program...)
			c.A = tt.a
			c.setFlag(C, tt.carry)
			step(t, c, bus)
			assert.Equal(t, tt.want, c.A)
			assert.Equal(t, tt.flags, c.P&(C|Z|V|N))
		})
	}
}

func TestIncDec(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x10] = 0x41
	bus.load(0x8000,
		0xE6, 0x10, // INC $10
		0xE8,       // INX
		0xC6, 0x11, // DEC $11
	)
	c.X = 0x10

	step(t, c, bus)
	assert.Equal(t, byte(0x42), bus.ram[0x10])
	step(t, c, bus)
	assert.Equal(t, byte(0x11), c.X)
	step(t, c, bus)
	assert.Equal(t, byte(0xFF), bus.ram[0x11])
	assert.True(t, c.flag(N))
}

func TestReadModifyWriteWritesTwice(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0xEE, 0x00, 0x02) // INC $0200
	bus.writes = nil
	step(t, c, bus)
	assert.Equal(t, []uint16{0x0200, 0x0200}, bus.writes)
}

func TestLogical(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x20] = 0xC0
	bus.load(0x8000,
		0x29, 0x0F, // AND #$0F
		0x09, 0x30, // ORA #$30
		0x49, 0xFF, // EOR #$FF
		0x24, 0x20, // BIT $20
	)
	c.A = 0b10101010

	step(t, c, bus)
	assert.Equal(t, byte(0x0A), c.A)
	step(t, c, bus)
	assert.Equal(t, byte(0x3A), c.A)
	step(t, c, bus)
	assert.Equal(t, byte(0xC5), c.A)
	step(t, c, bus)
	assert.True(t, c.flag(V))
	assert.True(t, c.flag(N))
	assert.False(t, c.flag(Z))
}

func TestShiftRotate(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000,
		0x0A, // ASL
		0x4A, // LSR
		0x38, // SEC
		0x2A, // ROL
		0x6A, // ROR
	)
	c.A = 0b01010101

	step(t, c, bus)
	assert.Equal(t, byte(0b10101010), c.A)
	assert.False(t, c.flag(C))
	step(t, c, bus)
	assert.Equal(t, byte(0b01010101), c.A)
	assert.False(t, c.flag(C))
	step(t, c, bus)
	step(t, c, bus)
	assert.Equal(t, byte(0b10101011), c.A)
	step(t, c, bus)
	assert.Equal(t, byte(0b01010101), c.A)
	assert.True(t, c.flag(C))
}

func TestBranch(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0xF0, 0x10) // BEQ +$10
	assert.Equal(t, 2, step(t, c, bus))
	assert.Equal(t, uint16(0x8002), c.PC)

	c.PC = 0x8002
	c.setFlag(Z, true)
	bus.load(0x8002, 0xF0, 0x10)
	assert.Equal(t, 3, step(t, c, bus))
	assert.Equal(t, uint16(0x8014), c.PC)
}

func TestSubroutine(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0x20, 0x00, 0x90) // JSR $9000
	bus.load(0x9000, 0x60)             // RTS

	assert.Equal(t, 6, step(t, c, bus))
	assert.Equal(t, uint16(0x9000), c.PC)
	assert.Equal(t, byte(0x80), bus.ram[0x01FD])
	assert.Equal(t, byte(0x02), bus.ram[0x01FC])
	assert.Equal(t, 6, step(t, c, bus))
	assert.Equal(t, uint16(0x8003), c.PC)
	assert.Equal(t, byte(0xFD), c.SP)
}

func TestJumpIndirectPageWrap(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0x6C, 0xFF, 0x02) // JMP ($02FF)
	bus.ram[0x02FF] = 0x34
	bus.ram[0x0200] = 0x12
	bus.ram[0x0300] = 0x99

	assert.Equal(t, 5, step(t, c, bus))
	assert.Equal(t, uint16(0x1234), c.PC)
}

// Cycle costs including page-crossing penalties.
func TestCycleCounts(t *testing.T) {
	tests := []struct {
		name    string
		program []byte
		x, y    byte
		setup   func(c *CPU, bus *mockBus)
		cycles  int
	}{
		{"NOP", []byte{0xEA}, 0, 0, nil, 2},
		{"LDA imm", []byte{0xA9, 0x01}, 0, 0, nil, 2},
		{"LDA zp", []byte{0xA5, 0x10}, 0, 0, nil, 3},
		{"LDA zp,X", []byte{0xB5, 0x10}, 1, 0, nil, 4},
		{"LDA abs", []byte{0xAD, 0x00, 0x02}, 0, 0, nil, 4},
		{"LDA abs,X", []byte{0xBD, 0x00, 0x02}, 0x10, 0, nil, 4},
		{"LDA abs,X page cross", []byte{0xBD, 0xF8, 0x02}, 0x10, 0, nil, 5},
		{"LDA abs,Y page cross", []byte{0xB9, 0xFF, 0x02}, 0, 1, nil, 5},
		{"LDX abs,Y page cross", []byte{0xBE, 0xFF, 0x02}, 0, 1, nil, 5},
		{"LDA (zp,X)", []byte{0xA1, 0x10}, 2, 0, nil, 6},
		{"LDA (zp),Y", []byte{0xB1, 0x10}, 0, 0x10, func(c *CPU, bus *mockBus) {
			bus.load(0x0010, 0x00, 0x02)
		}, 5},
		{"LDA (zp),Y page cross", []byte{0xB1, 0x10}, 0, 0x10, func(c *CPU, bus *mockBus) {
			bus.load(0x0010, 0xF8, 0x02)
		}, 6},
		{"STA abs,X never penalised", []byte{0x9D, 0x00, 0x02}, 0, 0, nil, 5},
		{"STA abs,X page cross", []byte{0x9D, 0xFF, 0x02}, 1, 0, nil, 5},
		{"STA (zp),Y", []byte{0x91, 0x10}, 0, 0xFF, func(c *CPU, bus *mockBus) {
			bus.load(0x0010, 0x80, 0x02)
		}, 6},
		{"INC abs,X", []byte{0xFE, 0xFF, 0x02}, 1, 0, nil, 7},
		{"ASL zp", []byte{0x06, 0x10}, 0, 0, nil, 5},
		{"JMP abs", []byte{0x4C, 0x00, 0x90}, 0, 0, nil, 3},
		{"PHA", []byte{0x48}, 0, 0, nil, 3},
		{"PLA", []byte{0x68}, 0, 0, nil, 4},
		{"BRK", []byte{0x00}, 0, 0, nil, 7},
		{"BNE not taken", []byte{0xD0, 0x10}, 0, 0, func(c *CPU, bus *mockBus) { c.setFlag(Z, true) }, 2},
		{"BNE taken", []byte{0xD0, 0x10}, 0, 0, nil, 3},
		{"BNE taken page cross", []byte{0xD0, 0x80}, 0, 0, nil, 4},
		{"NOP abs,X page cross", []byte{0x1C, 0xFF, 0x02}, 1, 0, nil, 5},
		{"LAX (zp),Y page cross", []byte{0xB3, 0x10}, 0, 0x10, func(c *CPU, bus *mockBus) {
			bus.load(0x0010, 0xF8, 0x02)
		}, 6},
		{"DCP abs,Y", []byte{0xDB, 0xFF, 0x02}, 0, 1, nil, 7},
		{"ISC (zp),Y", []byte{0xF3, 0x10}, 0, 0, nil, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, bus := setupCPU(t)
			bus.load(0x8000, tt.program...)
			c.X, c.Y = tt.x, tt.y
			if tt.setup != nil {
				tt.setup(c, bus)
			}
			assert.Equal(t, tt.cycles, step(t, c, bus))
		})
	}
}

func TestEveryDefinedOpcodeHasACost(t *testing.T) {
	jams := 0
	for op := 0; op < 256; op++ {
		instr, ok := Lookup(byte(op))
		if !ok {
			jams++
			continue
		}
		assert.GreaterOrEqual(t, instr.Cycles, 2, "opcode $%02X", op)
		assert.NotEmpty(t, instr.Name, "opcode $%02X", op)
	}
	assert.Equal(t, 12, jams)
}

func TestIllegalOpcode(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0x02)

	_, err := c.Step(bus)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIllegalOpcode)
	var opErr *OpcodeError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, byte(0x02), opErr.Opcode)
	assert.Equal(t, uint16(0x8000), opErr.PC)
	assert.Equal(t, uint16(0x8000), c.PC)
}

func TestNMI(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0xEA)
	c.TriggerNMI()

	assert.Equal(t, InterruptCycles, step(t, c, bus))
	assert.Equal(t, uint16(0x9000), c.PC)
	assert.True(t, c.flag(I))
	assert.False(t, c.NMIPending())
	assert.Equal(t, byte(0x80), bus.ram[0x01FD])
	assert.Equal(t, byte(0x00), bus.ram[0x01FC])
	assert.Equal(t, byte(0), bus.ram[0x01FB]&B, "break flag clear on hardware interrupts")
	assert.Equal(t, U, bus.ram[0x01FB]&U)
}

func TestIRQ(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0xEA, 0x58, 0xEA) // NOP; CLI; NOP
	c.SetIRQ(true)

	assert.Equal(t, 2, step(t, c, bus), "masked after reset")
	assert.Equal(t, 2, step(t, c, bus))
	assert.Equal(t, InterruptCycles, step(t, c, bus))
	assert.Equal(t, uint16(0xA000), c.PC)
}

func TestNMITakesPriorityOverIRQ(t *testing.T) {
	c, bus := setupCPU(t)
	c.P &^= I
	c.SetIRQ(true)
	c.TriggerNMI()
	step(t, c, bus)
	assert.Equal(t, uint16(0x9000), c.PC)
}

func TestBRKAndRTI(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0x00, 0xFF) // BRK + padding
	bus.load(0xA000, 0x40)       // RTI
	c.P = U | C

	step(t, c, bus)
	assert.Equal(t, uint16(0xA000), c.PC)
	assert.Equal(t, B|U|C, bus.ram[0x01FB])

	assert.Equal(t, 6, step(t, c, bus))
	assert.Equal(t, uint16(0x8002), c.PC)
	assert.Equal(t, U|C, c.P)
}

func TestStackFlags(t *testing.T) {
	c, bus := setupCPU(t)
	bus.load(0x8000, 0x08, 0x28) // PHP; PLP
	step(t, c, bus)
	assert.Equal(t, c.P|B, bus.ram[0x01FD])
	bus.ram[0x01FD] = 0xFF
	step(t, c, bus)
	assert.Equal(t, byte(0xFF)&^B, c.P)
}

func TestUndocumented(t *testing.T) {
	c, bus := setupCPU(t)
	bus.ram[0x10] = 0x5A
	bus.ram[0x11] = 0x01
	bus.ram[0x12] = 0xFF
	bus.load(0x8000,
		0xA7, 0x10, // LAX $10
		0x87, 0x20, // SAX $20
		0xC7, 0x11, // DCP $11
		0xE7, 0x12, // ISC $12
		0xCB, 0x02, // AXS #$02
	)

	step(t, c, bus)
	assert.Equal(t, byte(0x5A), c.A)
	assert.Equal(t, byte(0x5A), c.X)

	c.A = 0x0F
	step(t, c, bus)
	assert.Equal(t, byte(0x0A), bus.ram[0x20])

	c.A = 0x00
	step(t, c, bus)
	assert.Equal(t, byte(0x00), bus.ram[0x11])
	assert.True(t, c.flag(Z))
	assert.True(t, c.flag(C))

	c.A = 0x05
	step(t, c, bus)
	assert.Equal(t, byte(0x00), bus.ram[0x12])
	assert.Equal(t, byte(0x05), c.A)

	c.A, c.X = 0xFF, 0x07
	step(t, c, bus)
	assert.Equal(t, byte(0x05), c.X)
	assert.True(t, c.flag(C))
}

func TestDisassembleAndTrace(t *testing.T) {
	c, bus := setupCPU(t)
	c.PC = 0xC000
	bus.load(0xC000, 0x4C, 0xF5, 0xC5)
	bus.load(0xC003, 0x04, 0xA9)
	bus.ram[0xA9] = 0x33

	text, size := c.Disassemble(bus, 0xC000)
	assert.Equal(t, "JMP $C5F5", text)
	assert.Equal(t, uint16(3), size)

	text, size = c.Disassemble(bus, 0xC003)
	assert.Equal(t, "NOP $A9 = 33", text)
	assert.Equal(t, uint16(2), size)

	c.SP, c.P = 0xFD, 0x24
	assert.Equal(t,
		"C000  4C F5 C5  JMP $C5F5                       A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7",
		c.Trace(bus, 0, 21, 7))

	c.PC = 0xC003
	assert.Equal(t,
		"C003  04 A9    *NOP $A9 = 33                    A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7",
		c.Trace(bus, 0, 21, 7))
}

func TestState(t *testing.T) {
	c, bus := setupCPU(t)
	c.A, c.X, c.Y = 1, 2, 3
	c.TriggerNMI()
	s := c.SaveState()

	other := New()
	other.LoadState(s)
	assert.Equal(t, s, other.SaveState())
	assert.True(t, other.NMIPending())
	step(t, other, bus)
	assert.Equal(t, uint16(0x9000), other.PC)
}
