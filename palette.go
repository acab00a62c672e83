package pngcodec

import "fmt"

// expandPalette replaces packed palette indices with direct color samples.
// idx holds the reconstructed rows (byte-padded per row, bottom-up order,
// which the per-row expansion preserves), palette the PLTE payload and trns
// the tRNS payload or nil. The result has 3 channels, or 4 when a tRNS
// chunk was present, reallocated to width*height*channels.
func expandPalette(idx []byte, h Header, palette, trns []byte) ([]byte, int, error) {
	if palette == nil {
		return nil, 0, ErrMissingPalette
	}
	if len(palette)%3 != 0 {
		return nil, 0, fmt.Errorf("pngcodec: PLTE payload is %d bytes, want a multiple of 3", len(palette))
	}

	channels := 3
	if trns != nil {
		channels = 4
	}
	width, height := int(h.Width), int(h.Height)
	rowBytes := h.rowBytes()

	out := make([]byte, width*height*channels)
	for row := 0; row < height; row++ {
		src := idx[row*rowBytes : (row+1)*rowBytes]
		dst := out[row*width*channels : (row+1)*width*channels]
		expandRow(src, dst, width, int(h.BitDepth), channels, palette, trns)
	}
	return out, channels, nil
}

// expandRow unpacks one packed row of indices and looks each one up in the
// palette. Indices are packed msb-first: the shift starts at 8-depth and
// drops by depth per pixel, advancing to the next byte when it goes
// negative. Packing restarts at every row boundary since scanlines are
// byte-padded.
//
// An index past the end of the tRNS table reads as alpha 0, not opaque;
// an index past the end of the palette leaves the pixel black.
func expandRow(src, dst []byte, width, depth, channels int, palette, trns []byte) {
	pos := 0
	shift := 8 - depth
	mask := byte(1<<depth - 1)
	for x := 0; x < width; x++ {
		var index int
		if depth == 8 {
			index = int(src[x])
		} else {
			index = int((src[pos] >> shift) & mask)
			shift -= depth
			if shift < 0 {
				shift = 8 - depth
				pos++
			}
		}

		o := x * channels
		if base := index * 3; base+3 <= len(palette) {
			dst[o] = palette[base]
			dst[o+1] = palette[base+1]
			dst[o+2] = palette[base+2]
		}
		if channels == 4 {
			if index < len(trns) {
				dst[o+3] = trns[index]
			} else {
				dst[o+3] = 0
			}
		}
	}
}
