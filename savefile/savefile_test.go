package savefile

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
	"github.com/Overflow0xFFFF/nesproject/console"
)

func newConsole(t *testing.T, battery bool) *console.Console {
	t.Helper()
	img := &cartridge.Image{
		PRG:       bytes.Repeat([]byte{0xEA}, 2*cartridge.PRGBankSize),
		CHR:       make([]byte, cartridge.CHRBankSize),
		Mirroring: cartridge.MirrorVertical,
		Battery:   battery,
	}
	// Reset vector at $8000.
	img.PRG[len(img.PRG)-4] = 0x00
	img.PRG[len(img.PRG)-3] = 0x80
	c := console.New(console.DefaultOptions())
	require.NoError(t, c.Insert(img))
	return c
}

func TestBatteryPath(t *testing.T) {
	assert.Equal(t, "/roms/zelda.sav", BatteryPath("/roms/zelda.nes"))
	assert.Equal(t, "game.sav", BatteryPath("game"))
}

func TestStateFiles(t *testing.T) {
	c := newConsole(t, false)
	_, err := c.Step()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "slot1.state")
	require.NoError(t, SaveState(c, path))

	pc := c.CPUState().PC
	_, err = c.Step()
	require.NoError(t, err)
	require.NotEqual(t, pc, c.CPUState().PC)
	require.NoError(t, LoadState(c, path))
	assert.Equal(t, pc, c.CPUState().PC)

	assert.ErrorIs(t, LoadState(c, filepath.Join(t.TempDir(), "missing.state")), os.ErrNotExist)
}

func TestBatteryFiles(t *testing.T) {
	c := newConsole(t, true)
	file := filepath.Join(t.TempDir(), "game.sav")

	require.NoError(t, LoadBattery(c, file), "missing file")
	c.BatteryRAM()[0x10] = 0xA5
	require.NoError(t, SaveBattery(c, file))

	d := newConsole(t, true)
	require.NoError(t, LoadBattery(d, file))
	assert.Equal(t, byte(0xA5), d.Peek(0x6010))

	require.NoError(t, os.WriteFile(file, []byte{1, 2, 3}, 0o644))
	assert.Error(t, LoadBattery(d, file))
}

func TestBatteryFilesWithoutBattery(t *testing.T) {
	c := newConsole(t, false)
	file := filepath.Join(t.TempDir(), "none.sav")
	require.NoError(t, SaveBattery(c, file))
	assert.NoFileExists(t, file)
	require.NoError(t, LoadBattery(c, file))
}
