package pngcodec

import (
	"encoding/binary"
	"fmt"
)

// Color types, as per the PNG spec.
const (
	colorGreyscale      = 0
	colorRGB            = 2
	colorPalette        = 3
	colorGreyscaleAlpha = 4
	colorRGBA           = 6
)

const headerSize = 13

// Header mirrors the 13-byte IHDR payload.
type Header struct {
	Width             uint32
	Height            uint32
	BitDepth          uint8
	ColorType         uint8
	CompressionMethod uint8
	FilterMethod      uint8
	InterlaceMethod   uint8
}

// ParseHeader decodes an IHDR payload field by field, big-endian.
func ParseHeader(data []byte) (Header, error) {
	if len(data) != headerSize {
		return Header{}, fmt.Errorf("pngcodec: IHDR payload is %d bytes, want %d", len(data), headerSize)
	}
	return Header{
		Width:             binary.BigEndian.Uint32(data[0:4]),
		Height:            binary.BigEndian.Uint32(data[4:8]),
		BitDepth:          data[8],
		ColorType:         data[9],
		CompressionMethod: data[10],
		FilterMethod:      data[11],
		InterlaceMethod:   data[12],
	}, nil
}

// channels returns the number of samples per pixel for the color type, or 0
// if the color type is unknown. Indexed images count as one channel until
// palette expansion.
func (h Header) channels() int {
	switch h.ColorType {
	case colorGreyscale, colorPalette:
		return 1
	case colorGreyscaleAlpha:
		return 2
	case colorRGB:
		return 3
	case colorRGBA:
		return 4
	}
	return 0
}

// rowBytes returns the byte length of one packed scanline, excluding the
// filter-type byte.
func (h Header) rowBytes() int {
	return (int(h.Width)*h.channels()*int(h.BitDepth) + 7) / 8
}

// validate enforces the supported feature matrix: direct color at depth 8
// or 16, indexed color at 1/2/4/8, deflate compression, adaptive per-row
// filtering, no interlacing.
func (h Header) validate() error {
	switch h.ColorType {
	case colorGreyscale, colorGreyscaleAlpha, colorRGB, colorRGBA:
		if h.BitDepth != 8 && h.BitDepth != 16 {
			return fmt.Errorf("%w: %d for color type %d", ErrUnsupportedBitDepth, h.BitDepth, h.ColorType)
		}
	case colorPalette:
		switch h.BitDepth {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("%w: %d for indexed color", ErrUnsupportedBitDepth, h.BitDepth)
		}
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedColorType, h.ColorType)
	}
	if h.CompressionMethod != 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedCompression, h.CompressionMethod)
	}
	if h.FilterMethod != 0 {
		return fmt.Errorf("%w: %d", ErrUnsupportedFilterMethod, h.FilterMethod)
	}
	if h.InterlaceMethod != 0 {
		return ErrInterlacingUnsupported
	}
	if h.Width == 0 || h.Height == 0 {
		return fmt.Errorf("pngcodec: zero image dimension %dx%d", h.Width, h.Height)
	}
	return nil
}

// encodeHeader builds the IHDR payload for an 8-bit image, mapping channel
// counts 1/2/3/4 to greyscale, greyscale+alpha, RGB and RGBA respectively.
func encodeHeader(width, height, channels int) ([]byte, error) {
	var colorType uint8
	switch channels {
	case 1:
		colorType = colorGreyscale
	case 2:
		colorType = colorGreyscaleAlpha
	case 3:
		colorType = colorRGB
	case 4:
		colorType = colorRGBA
	default:
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedColorType, channels)
	}
	b := make([]byte, headerSize)
	binary.BigEndian.PutUint32(b[0:4], uint32(width))
	binary.BigEndian.PutUint32(b[4:8], uint32(height))
	b[8] = 8
	b[9] = colorType
	// compression, filter and interlace methods are all 0
	return b, nil
}
