package ppu

import (
	"image"
	"image/color"
)

// Visible picture size.
const (
	Width  = 256
	Height = 240
)

// FrameBuffer holds one picture as system palette indices.
type FrameBuffer [Width * Height]byte

// At returns the palette index of the pixel at (x, y).
func (f *FrameBuffer) At(x, y int) byte {
	return f[y*Width+x]
}

// ColorAt resolves the pixel at (x, y) through SystemPalette.
func (f *FrameBuffer) ColorAt(x, y int) color.RGBA {
	return SystemPalette[f.At(x, y)&0x3F]
}

// Draw resolves the frame into dst, which must be at least Width x Height.
func (f *FrameBuffer) Draw(dst *image.RGBA) {
	for y := 0; y < Height; y++ {
		row := dst.Pix[y*dst.Stride:]
		for x := 0; x < Width; x++ {
			c := SystemPalette[f[y*Width+x]&0x3F]
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = c.R, c.G, c.B, 0xFF
		}
	}
}

// Image returns the frame as a new RGBA image.
func (f *FrameBuffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	f.Draw(img)
	return img
}
