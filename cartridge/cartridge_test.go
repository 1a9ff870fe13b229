package cartridge

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inesFile(flags6, flags7 byte, prgBanks, chrBanks int, trainer bool) []byte {
	if trainer {
		flags6 |= 0x04
	}
	header := []byte{'N', 'E', 'S', 0x1A, byte(prgBanks), byte(chrBanks), flags6, flags7, 0, 0, 0, 0, 0, 0, 0, 0}
	data := append([]byte{}, header...)
	if trainer {
		data = append(data, make([]byte, inesTrainerSize)...)
	}
	prg := make([]byte, prgBanks*PRGBankSize)
	for i := range prg {
		prg[i] = byte(i)
	}
	chr := bytes.Repeat([]byte{0xCC}, chrBanks*CHRBankSize)
	data = append(data, prg...)
	return append(data, chr...)
}

func TestDecode(t *testing.T) {
	img, err := Decode(bytes.NewReader(inesFile(0x31, 0x00, 2, 1, false)))
	require.NoError(t, err)

	assert.Len(t, img.PRG, 2*PRGBankSize)
	assert.Len(t, img.CHR, CHRBankSize)
	assert.Equal(t, byte(3), img.MapperID)
	assert.Equal(t, MirrorVertical, img.Mirroring)
	assert.False(t, img.Battery)
	assert.False(t, img.HasCHRRAM())
	assert.Equal(t, byte(0x01), img.PRG[1])
}

func TestDecodeHeaderFlags(t *testing.T) {
	tests := []struct {
		name      string
		flags6    byte
		flags7    byte
		mapperID  byte
		mirroring Mirroring
		battery   bool
	}{
		{"horizontal", 0x00, 0x00, 0, MirrorHorizontal, false},
		{"battery mmc1", 0x12, 0x00, 1, MirrorHorizontal, true},
		{"four screen mmc3", 0x48, 0x00, 4, MirrorFourScreen, false},
		{"high nibble", 0x71, 0x00, 7, MirrorVertical, false},
		{"flags7 nibble", 0x00, 0x10, 16, MirrorHorizontal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(bytes.NewReader(inesFile(tt.flags6, tt.flags7, 1, 0, false)))
			require.NoError(t, err)
			assert.Equal(t, tt.mapperID, img.MapperID)
			assert.Equal(t, tt.mirroring, img.Mirroring)
			assert.Equal(t, tt.battery, img.Battery)
			assert.True(t, img.HasCHRRAM())
		})
	}
}

func TestDecodeSkipsTrainer(t *testing.T) {
	img, err := Decode(bytes.NewReader(inesFile(0, 0, 1, 1, true)))
	require.NoError(t, err)
	assert.Equal(t, byte(0x00), img.PRG[0])
	assert.Equal(t, byte(0x05), img.PRG[5])
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("NES")))
	assert.ErrorIs(t, err, ErrMalformed)

	bad := inesFile(0, 0, 1, 1, false)
	bad[0] = 'X'
	_, err = Decode(bytes.NewReader(bad))
	assert.ErrorIs(t, err, ErrMalformed)

	truncated := inesFile(0, 0, 2, 1, false)
	_, err = Decode(bytes.NewReader(truncated[:inesHeaderSize+PRGBankSize]))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Decode(bytes.NewReader(inesFile(0, 0, 0, 1, false)))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, (&Image{PRG: make([]byte, PRGBankSize)}).Validate())
	assert.ErrorIs(t, (&Image{PRG: make([]byte, PRGBankSize+1)}).Validate(), ErrMalformed)
	assert.ErrorIs(t, (&Image{PRG: make([]byte, PRGBankSize), CHR: make([]byte, 100)}).Validate(), ErrMalformed)
	assert.ErrorIs(t, (&Image{PRG: make([]byte, PRGBankSize), Mirroring: 9}).Validate(), ErrMalformed)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.nes")
	require.NoError(t, os.WriteFile(path, inesFile(0x01, 0, 1, 1, false), 0o644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, img.PRGBanks())
	assert.Equal(t, 1, img.CHRBanks())

	_, err = Load(filepath.Join(t.TempDir(), "missing.nes"))
	assert.Error(t, err)
}
