package pngcodec

import "fmt"

// Raster is the flat in-memory image the codec consumes and produces.
// Pix holds Channels samples per pixel, packed row after row with no
// padding; 16-bit samples are stored as big-endian byte pairs.
//
// Rows are stored bottom-up: row 0 of Pix is the bottom scanline of the
// image. The decoder writes stream scanline i into row Height-1-i, and the
// encoder walks rows in reverse so the emitted stream is top-to-bottom
// again. Round-tripping through Encode and Decode preserves Pix exactly.
type Raster struct {
	Width    int
	Height   int
	Channels int // samples per pixel: 1 (grey) up to 4 (RGBA)
	Depth    int // bits per sample: 8 or 16
	Pix      []byte
}

// Stride returns the number of bytes in one row of Pix.
func (r *Raster) Stride() int {
	return (r.Width*r.Channels*r.Depth + 7) / 8
}

func (r *Raster) validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("pngcodec: invalid raster dimensions %dx%d", r.Width, r.Height)
	}
	if r.Channels < 1 || r.Channels > 4 {
		return fmt.Errorf("%w: %d channels", ErrUnsupportedColorType, r.Channels)
	}
	if r.Depth != 8 && r.Depth != 16 {
		return fmt.Errorf("%w: %d bits per sample", ErrUnsupportedBitDepth, r.Depth)
	}
	if want := r.Stride() * r.Height; len(r.Pix) != want {
		return fmt.Errorf("%w: pixel buffer is %d bytes, want %d", ErrSizeMismatch, len(r.Pix), want)
	}
	return nil
}
