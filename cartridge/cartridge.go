// Package cartridge holds the decoded cartridge image consumed by the
// mapper factory, and the iNES decoder that produces it.
package cartridge

import (
	"errors"
	"fmt"
)

// Bank sizes the image layout is validated against.
const (
	PRGBankSize = 16384
	CHRBankSize = 8192
)

// ErrMalformed is returned for images whose layout cannot be mapped.
var ErrMalformed = errors.New("malformed cartridge image")

// Mirroring selects how the four logical nametables map onto VRAM.
type Mirroring byte

const (
	MirrorHorizontal Mirroring = iota
	MirrorVertical
	MirrorOneScreenLower
	MirrorOneScreenUpper
	MirrorFourScreen
)

func (m Mirroring) String() string {
	switch m {
	case MirrorHorizontal:
		return "horizontal"
	case MirrorVertical:
		return "vertical"
	case MirrorOneScreenLower:
		return "one-screen-lower"
	case MirrorOneScreenUpper:
		return "one-screen-upper"
	case MirrorFourScreen:
		return "four-screen"
	}
	return fmt.Sprintf("mirroring(%d)", byte(m))
}

// Image is a decoded cartridge. The mapper reads PRG and CHR from it but
// copies anything it needs to write, so an Image is never mutated after
// decoding.
type Image struct {
	PRG       []byte
	CHR       []byte // empty when the board carries CHR RAM instead
	MapperID  byte
	Mirroring Mirroring
	Battery   bool
}

// HasCHRRAM reports whether the board supplies writable pattern memory.
func (img *Image) HasCHRRAM() bool {
	return len(img.CHR) == 0
}

// PRGBanks returns the number of 16 KB program banks.
func (img *Image) PRGBanks() int {
	return len(img.PRG) / PRGBankSize
}

// CHRBanks returns the number of 8 KB pattern banks.
func (img *Image) CHRBanks() int {
	return len(img.CHR) / CHRBankSize
}

// Validate checks the ROM sizes against the bank granularity.
func (img *Image) Validate() error {
	if len(img.PRG) == 0 {
		return fmt.Errorf("%w: no PRG ROM", ErrMalformed)
	}
	if len(img.PRG)%PRGBankSize != 0 {
		return fmt.Errorf("%w: PRG ROM size %d is not a multiple of %d", ErrMalformed, len(img.PRG), PRGBankSize)
	}
	if len(img.CHR)%CHRBankSize != 0 {
		return fmt.Errorf("%w: CHR ROM size %d is not a multiple of %d", ErrMalformed, len(img.CHR), CHRBankSize)
	}
	if img.Mirroring > MirrorFourScreen {
		return fmt.Errorf("%w: unknown mirroring mode %d", ErrMalformed, img.Mirroring)
	}
	return nil
}
