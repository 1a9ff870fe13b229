package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
)

// testImage fills each PRG byte with its 8 KB bank index and each CHR byte
// with its 1 KB bank index, so reads reveal which bank is mapped.
func testImage(id byte, prgBanks, chrBanks int) *cartridge.Image {
	img := &cartridge.Image{
		MapperID: id,
		PRG:      make([]byte, prgBanks*cartridge.PRGBankSize),
		CHR:      make([]byte, chrBanks*cartridge.CHRBankSize),
	}
	for i := range img.PRG {
		img.PRG[i] = byte(i / 8192)
	}
	for i := range img.CHR {
		img.CHR[i] = byte(i / 1024)
	}
	return img
}

func newTestMapper(t *testing.T, id byte, prgBanks, chrBanks int) Mapper {
	t.Helper()
	m, err := New(testImage(id, prgBanks, chrBanks))
	require.NoError(t, err)
	return m
}

func cpuRead(t *testing.T, m Mapper, addr uint16) byte {
	t.Helper()
	v, ok := m.CPUMapRead(addr)
	require.True(t, ok, "address $%04X not driven", addr)
	return v
}

func ppuRead(t *testing.T, m Mapper, addr uint16) byte {
	t.Helper()
	v, ok := m.PPUMapRead(addr)
	require.True(t, ok, "address $%04X not driven", addr)
	return v
}

func TestNewErrors(t *testing.T) {
	_, err := New(testImage(5, 1, 1))
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.EqualError(t, err, "unsupported mapper: 5")

	img := testImage(0, 1, 1)
	img.PRG = img.PRG[:1000]
	_, err = New(img)
	assert.ErrorIs(t, err, cartridge.ErrMalformed)

	img = testImage(4, 2, 1)
	img.CHR = img.CHR[:4096]
	_, err = New(img)
	assert.ErrorIs(t, err, cartridge.ErrMalformed)
}

func TestSupported(t *testing.T) {
	assert.Equal(t, []byte{0, 1, 2, 3, 4, 7}, Supported())
	assert.Equal(t, "MMC3", Name(4))
	assert.Equal(t, "mapper 9", Name(9))
}

func TestNROM(t *testing.T) {
	m := newTestMapper(t, 0, 1, 0)

	assert.Equal(t, cpuRead(t, m, 0x8123), cpuRead(t, m, 0xC123))
	assert.Equal(t, byte(1), cpuRead(t, m, 0xA000))

	assert.True(t, m.PPUMapWrite(0x0010, 0x5A))
	assert.Equal(t, byte(0x5A), ppuRead(t, m, 0x0010))

	assert.True(t, m.CPUMapWrite(0x6000, 0x77))
	assert.Equal(t, byte(0x77), cpuRead(t, m, 0x6000))

	_, ok := m.CPUMapRead(0x5000)
	assert.False(t, ok)
}

func TestNROMCHRROMIsReadOnly(t *testing.T) {
	m := newTestMapper(t, 0, 2, 1)
	assert.False(t, m.PPUMapWrite(0x0400, 0xFF))
	assert.Equal(t, byte(1), ppuRead(t, m, 0x0400))
	assert.Equal(t, byte(2), cpuRead(t, m, 0xC000))
}

func TestUxROM(t *testing.T) {
	m := newTestMapper(t, 2, 8, 0)

	assert.Equal(t, byte(0), cpuRead(t, m, 0x8000))
	assert.Equal(t, byte(14), cpuRead(t, m, 0xC000))

	m.CPUMapWrite(0x8000, 2)
	assert.Equal(t, byte(4), cpuRead(t, m, 0x8000))
	assert.Equal(t, byte(14), cpuRead(t, m, 0xC000))
}

func TestCNROM(t *testing.T) {
	m := newTestMapper(t, 3, 2, 4)

	assert.Equal(t, byte(0), ppuRead(t, m, 0x0000))
	m.CPUMapWrite(0x8000, 1)
	assert.Equal(t, byte(8), ppuRead(t, m, 0x0000))
	assert.Equal(t, byte(12), ppuRead(t, m, 0x1000))
}

func TestAxROM(t *testing.T) {
	m := newTestMapper(t, 7, 8, 0)

	assert.Equal(t, cartridge.MirrorOneScreenLower, m.Mirroring())
	m.CPUMapWrite(0x8000, 0x11)
	assert.Equal(t, byte(4), cpuRead(t, m, 0x8000))
	assert.Equal(t, byte(7), cpuRead(t, m, 0xE000))
	assert.Equal(t, cartridge.MirrorOneScreenUpper, m.Mirroring())
}

// serialWrite loads value into an MMC1 register one bit per CPU cycle.
func serialWrite(m Mapper, addr uint16, value byte) {
	for i := 0; i < 5; i++ {
		m.CPUMapWrite(addr, value>>i&1)
		m.(Clocked).Clock()
	}
}

func TestMMC1(t *testing.T) {
	m := newTestMapper(t, 1, 8, 2)

	// Power-on PRG mode fixes the last bank at $C000.
	assert.Equal(t, byte(14), cpuRead(t, m, 0xC000))

	serialWrite(m, 0xE000, 1)
	assert.Equal(t, byte(2), cpuRead(t, m, 0x8000))

	serialWrite(m, 0x8000, 0x02)
	assert.Equal(t, cartridge.MirrorVertical, m.Mirroring())
	assert.Equal(t, byte(0), cpuRead(t, m, 0x8000), "32 KB mode")
	assert.Equal(t, byte(2), cpuRead(t, m, 0xC000), "32 KB mode")

	serialWrite(m, 0x8000, 0x13)
	assert.Equal(t, cartridge.MirrorHorizontal, m.Mirroring())
	serialWrite(m, 0xA000, 3)
	serialWrite(m, 0xC000, 5)
	assert.Equal(t, byte(12), ppuRead(t, m, 0x0000))
	assert.Equal(t, byte(5), ppuRead(t, m, 0x1400))
}

func TestMMC1DropsConsecutiveCycleWrites(t *testing.T) {
	m := newTestMapper(t, 1, 8, 2)
	serialWrite(m, 0xE000, 1)

	// A read-modify-write lands two writes in adjacent cycles; only the first counts.
	m.CPUMapWrite(0x8000, 0x80)
	m.CPUMapWrite(0x8000, 0x01)
	m.(Clocked).Clock()
	serialWrite(m, 0xE000, 2)
	assert.Equal(t, byte(4), cpuRead(t, m, 0x8000))
}

func TestMMC1PRGRAMDisable(t *testing.T) {
	m := newTestMapper(t, 1, 2, 1)
	m.CPUMapWrite(0x6000, 0x42)
	assert.Equal(t, byte(0x42), cpuRead(t, m, 0x6000))

	serialWrite(m, 0xE000, 0x10)
	_, ok := m.CPUMapRead(0x6000)
	assert.False(t, ok)
}

func TestMMC3Banking(t *testing.T) {
	m := newTestMapper(t, 4, 4, 2) // 8 PRG banks of 8 KB, 16 CHR banks of 1 KB

	m.CPUMapWrite(0x8000, 6)
	m.CPUMapWrite(0x8001, 5)
	m.CPUMapWrite(0x8000, 7)
	m.CPUMapWrite(0x8001, 3)
	assert.Equal(t, byte(5), cpuRead(t, m, 0x8000))
	assert.Equal(t, byte(3), cpuRead(t, m, 0xA000))
	assert.Equal(t, byte(6), cpuRead(t, m, 0xC000))
	assert.Equal(t, byte(7), cpuRead(t, m, 0xE000))

	m.CPUMapWrite(0x8000, 0x40)
	assert.Equal(t, byte(6), cpuRead(t, m, 0x8000))
	assert.Equal(t, byte(5), cpuRead(t, m, 0xC000))

	m.CPUMapWrite(0x8000, 0x00)
	m.CPUMapWrite(0x8001, 9)
	m.CPUMapWrite(0x8000, 0x02)
	m.CPUMapWrite(0x8001, 13)
	assert.Equal(t, byte(8), ppuRead(t, m, 0x0000))
	assert.Equal(t, byte(9), ppuRead(t, m, 0x0400))
	assert.Equal(t, byte(13), ppuRead(t, m, 0x1000))

	m.CPUMapWrite(0x8000, 0x80)
	assert.Equal(t, byte(13), ppuRead(t, m, 0x0000))
	assert.Equal(t, byte(8), ppuRead(t, m, 0x1000))

	m.CPUMapWrite(0xA000, 1)
	assert.Equal(t, cartridge.MirrorHorizontal, m.Mirroring())
	m.CPUMapWrite(0xA000, 0)
	assert.Equal(t, cartridge.MirrorVertical, m.Mirroring())
}

func TestMMC3IRQAfterFourScanlines(t *testing.T) {
	m := newTestMapper(t, 4, 2, 1)
	irq := m.(IRQSource)
	counter := m.(ScanlineCounter)

	m.CPUMapWrite(0xC000, 4) // latch
	m.CPUMapWrite(0xC001, 0) // reload
	m.CPUMapWrite(0xE001, 0) // enable

	counter.NotifyScanline() // counter reloaded to 4
	assert.False(t, irq.IRQPending())

	for i := 1; i < 4; i++ {
		counter.NotifyScanline()
		assert.False(t, irq.IRQPending(), "notification %d", i)
	}
	counter.NotifyScanline()
	assert.True(t, irq.IRQPending())

	m.CPUMapWrite(0xE000, 0) // acknowledge and disable
	assert.False(t, irq.IRQPending())
}

func TestMMC3IRQDisabledDoesNotAssert(t *testing.T) {
	m := newTestMapper(t, 4, 2, 1)
	m.CPUMapWrite(0xC000, 1)
	m.CPUMapWrite(0xC001, 0)
	for i := 0; i < 10; i++ {
		m.(ScanlineCounter).NotifyScanline()
	}
	assert.False(t, m.(IRQSource).IRQPending())
}

func TestSaveLoad(t *testing.T) {
	for _, id := range Supported() {
		t.Run(Name(id), func(t *testing.T) {
			img := testImage(id, 8, 0)
			m, err := New(img)
			require.NoError(t, err)

			m.CPUMapWrite(0x6000, 0xAB)
			m.PPUMapWrite(0x0001, 0xCD)
			m.CPUMapWrite(0x8000, 0x01)
			if c, ok := m.(Clocked); ok {
				c.Clock()
			}

			data, err := m.Save()
			require.NoError(t, err)

			restored, err := New(img)
			require.NoError(t, err)
			require.NoError(t, restored.Load(data))

			for _, addr := range []uint16{0x6000, 0x8000, 0xA000, 0xC000, 0xE000} {
				assert.Equal(t, cpuRead(t, m, addr), cpuRead(t, restored, addr), "$%04X", addr)
			}
			assert.Equal(t, ppuRead(t, m, 0x0001), ppuRead(t, restored, 0x0001))
			assert.Equal(t, m.Mirroring(), restored.Mirroring())
		})
	}
}

func TestBatteryRAM(t *testing.T) {
	m := newTestMapper(t, 1, 2, 1)
	assert.Nil(t, m.(BatteryBacked).BatteryRAM())

	img := testImage(1, 2, 1)
	img.Battery = true
	m, err := New(img)
	require.NoError(t, err)
	m.CPUMapWrite(0x6001, 9)
	assert.Equal(t, byte(9), m.(BatteryBacked).BatteryRAM()[1])
}
