package pngcodec

import "fmt"

// Scanline filter types, as per the PNG spec.
const (
	filterNone    = 0
	filterSub     = 1
	filterUp      = 2
	filterAverage = 3
	filterPaeth   = 4
)

// paeth picks whichever of left (a), up (b) and up-left (c) is closest to
// a+b-c, breaking ties in the order a, b, c.
func paeth(a, b, c int) int {
	p := a + b - c
	pa, pb, pc := abs(p-a), abs(p-b), abs(p-c)
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// reconstruct undoes the per-scanline filters. raw holds height rows in
// stream (top-to-bottom) order, each one filter-type byte followed by
// rowBytes of packed samples. bpp is the byte distance to the previous
// pixel's corresponding sample; for packed sub-byte depths it is 1.
//
// The returned buffer indexes rows bottom-to-top: stream scanline i lands
// at row height-1-i, so the already reconstructed scanline above the
// current one sits one row later in the buffer. Neighbor lookups ("up",
// "up-left") must use that convention or the predictor math breaks.
// Samples wrap mod 256; out-of-image neighbors read as 0.
func reconstruct(raw []byte, rowBytes, height, bpp int) ([]byte, error) {
	if len(raw) != (rowBytes+1)*height {
		return nil, fmt.Errorf("pngcodec: scanlines: %w: got %d bytes, want %d", ErrSizeMismatch, len(raw), (rowBytes+1)*height)
	}

	out := make([]byte, rowBytes*height)
	for i := 0; i < height; i++ {
		ft := raw[i*(rowBytes+1)]
		src := raw[i*(rowBytes+1)+1 : (i+1)*(rowBytes+1)]
		dst := out[(height-1-i)*rowBytes : (height-i)*rowBytes]
		var prev []byte // scanline above the current one, already reconstructed
		if i > 0 {
			prev = out[(height-i)*rowBytes : (height-i+1)*rowBytes]
		}

		switch ft {
		case filterNone:
			copy(dst, src)
		case filterSub:
			for j := range src {
				var left byte
				if j >= bpp {
					left = dst[j-bpp]
				}
				dst[j] = src[j] + left
			}
		case filterUp:
			for j := range src {
				var up byte
				if prev != nil {
					up = prev[j]
				}
				dst[j] = src[j] + up
			}
		case filterAverage:
			for j := range src {
				var left, up int
				if j >= bpp {
					left = int(dst[j-bpp])
				}
				if prev != nil {
					up = int(prev[j])
				}
				dst[j] = src[j] + byte((left+up)/2)
			}
		case filterPaeth:
			for j := range src {
				var left, up, upLeft int
				if j >= bpp {
					left = int(dst[j-bpp])
				}
				if prev != nil {
					up = int(prev[j])
					if j >= bpp {
						upLeft = int(prev[j-bpp])
					}
				}
				dst[j] = src[j] + byte(paeth(left, up, upLeft))
			}
		default:
			return nil, fmt.Errorf("pngcodec: scanline %d: %w: %d", i, ErrUnknownFilter, ft)
		}
	}
	return out, nil
}

// filterRows builds the encode-side scanline buffer: every row gets a
// leading None filter byte (no adaptive selection), and raster rows are
// walked bottom-to-top so the emitted stream reads top-to-bottom.
func filterRows(ras *Raster) []byte {
	rowBytes := ras.Stride()
	out := make([]byte, (rowBytes+1)*ras.Height)
	for i := 0; i < ras.Height; i++ {
		row := ras.Pix[(ras.Height-1-i)*rowBytes : (ras.Height-i)*rowBytes]
		dst := out[i*(rowBytes+1) : (i+1)*(rowBytes+1)]
		dst[0] = filterNone
		copy(dst[1:], row)
	}
	return out
}
