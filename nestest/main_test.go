package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Overflow0xFFFF/nesproject/cartridge"
)

var wantTrace = []string{
	"C000  A9 01     LDA #$01                        A:00 X:00 Y:00 P:24 SP:FD PPU:  0, 21 CYC:7",
	"C002  85 02     STA $02 = 00                    A:01 X:00 Y:00 P:24 SP:FD PPU:  0, 27 CYC:9",
	"C004  04 03    *NOP $03 = 00                    A:01 X:00 Y:00 P:24 SP:FD PPU:  0, 36 CYC:12",
}

// automationImage is a single-bank ROM whose code at $C000 stores a result
// code in $02.
func automationImage() *cartridge.Image {
	prg := make([]byte, cartridge.PRGBankSize)
	copy(prg, []byte{0xA9, 0x01, 0x85, 0x02, 0x04, 0x03, 0xEA})
	return &cartridge.Image{PRG: prg, CHR: make([]byte, cartridge.CHRBankSize)}
}

func TestTraceFormat(t *testing.T) {
	var out bytes.Buffer
	official, unofficial, err := run(automationImage(), 3, &out, nil)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(wantTrace, "\n")+"\n", out.String())
	assert.Equal(t, byte(0x01), official)
	assert.Equal(t, byte(0x00), unofficial)
}

func TestReferenceComparison(t *testing.T) {
	ref := strings.Join(wantTrace, "  \r\n")
	_, _, err := run(automationImage(), 3, &bytes.Buffer{}, strings.NewReader(ref))
	require.NoError(t, err)

	bad := append([]string{}, wantTrace...)
	bad[1] = strings.Replace(bad[1], "A:01", "A:02", 1)
	_, _, err = run(automationImage(), 3, &bytes.Buffer{}, strings.NewReader(strings.Join(bad, "\n")))
	var mismatch *mismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 2, mismatch.line)
}

func TestPosition(t *testing.T) {
	scanline, dot := position(7)
	assert.Equal(t, 0, scanline)
	assert.Equal(t, 21, dot)

	scanline, dot = position(114)
	assert.Equal(t, 1, scanline)
	assert.Equal(t, 1, dot)
}
