package cartridge

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

const (
	inesHeaderSize  = 16
	inesTrainerSize = 512
)

// Decode parses an iNES (.nes) stream into an Image.
func Decode(r io.Reader) (*Image, error) {
	var header [inesHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformed, err)
	}

	// Verify iNES header signature
	if header[0] != 'N' || header[1] != 'E' || header[2] != 'S' || header[3] != 0x1A {
		return nil, fmt.Errorf("%w: missing iNES signature", ErrMalformed)
	}

	flags6, flags7 := header[6], header[7]
	img := &Image{
		PRG:      make([]byte, int(header[4])*PRGBankSize),
		CHR:      make([]byte, int(header[5])*CHRBankSize),
		MapperID: (flags6 >> 4) | (flags7 & 0xF0),
		Battery:  flags6&0x02 != 0,
	}

	switch {
	case flags6&0x08 != 0:
		img.Mirroring = MirrorFourScreen
	case flags6&0x01 != 0:
		img.Mirroring = MirrorVertical
	default:
		img.Mirroring = MirrorHorizontal
	}

	if flags6&0x04 != 0 {
		if _, err := io.CopyN(io.Discard, r, inesTrainerSize); err != nil {
			return nil, fmt.Errorf("%w: reading trainer: %v", ErrMalformed, err)
		}
	}
	if _, err := io.ReadFull(r, img.PRG); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytes of PRG ROM: %v", ErrMalformed, len(img.PRG), err)
	}
	if _, err := io.ReadFull(r, img.CHR); err != nil {
		return nil, fmt.Errorf("%w: reading %d bytes of CHR ROM: %v", ErrMalformed, len(img.CHR), err)
	}

	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Load decodes the .nes file at path.
func Load(path string) (*Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}
