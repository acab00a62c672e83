// Package pngcodec converts between flat in-memory rasters and the PNG
// container format: chunk framing with CRC-32 validation, zlib-compressed
// scanlines, per-row predictive filter inversion and indexed-color (PLTE/
// tRNS) expansion.
//
// The decoder handles greyscale, greyscale+alpha, RGB and RGBA at 8 and 16
// bits per sample, and indexed color at 1/2/4/8 bits per index. The encoder
// writes 8-bit samples only, with filter type None on every row. Interlaced
// (Adam7) streams are rejected outright rather than decoded wrong.
package pngcodec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// signature is the fixed 8-byte prefix of every PNG stream.
const signature = "\x89PNG\r\n\x1a\n"

// Error kinds. Every error returned by this package matches exactly one of
// these with errors.Is; decode and encode never retry or return partial
// results.
var (
	ErrBadSignature            = errors.New("pngcodec: not a png stream")
	ErrUnexpectedEOF           = errors.New("pngcodec: unexpected end of stream")
	ErrCRCMismatch             = errors.New("pngcodec: chunk crc mismatch")
	ErrUnsupportedBitDepth     = errors.New("pngcodec: unsupported bit depth")
	ErrUnsupportedCompression  = errors.New("pngcodec: unsupported compression method")
	ErrUnsupportedFilterMethod = errors.New("pngcodec: unsupported filter method")
	ErrInterlacingUnsupported  = errors.New("pngcodec: interlaced images are not supported")
	ErrUnsupportedColorType    = errors.New("pngcodec: unsupported color type")
	ErrMissingPalette          = errors.New("pngcodec: missing PLTE chunk for indexed image")
	ErrSizeMismatch            = errors.New("pngcodec: pixel data size does not match header")
	ErrUnknownFilter           = errors.New("pngcodec: unknown scanline filter")
	ErrWriteFailure            = errors.New("pngcodec: write failure")
)

// Decode parses a complete PNG stream held in memory.
func Decode(data []byte) (*Raster, error) {
	return DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom reads one PNG stream from r and reconstructs the raster.
// Reads are sequential; r does not need to support seeking.
func DecodeFrom(r io.Reader) (*Raster, error) {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, fmt.Errorf("pngcodec: signature: %w", eofErr(err))
	}
	if string(sig[:]) != signature {
		return nil, ErrBadSignature
	}

	var (
		header   Header
		haveIHDR bool
		idat     []byte
		palette  []byte
		trns     []byte
	)
loop:
	for {
		chunk, err := ReadChunk(r)
		if err != nil {
			return nil, err
		}
		if !haveIHDR && chunk.Type != "IHDR" {
			return nil, fmt.Errorf("pngcodec: first chunk is %s, want IHDR", chunk.Type)
		}
		switch chunk.Type {
		case "IHDR":
			if haveIHDR {
				return nil, errors.New("pngcodec: duplicate IHDR chunk")
			}
			header, err = ParseHeader(chunk.Data)
			if err != nil {
				return nil, err
			}
			if err := header.validate(); err != nil {
				return nil, err
			}
			haveIHDR = true
		case "PLTE":
			palette = chunk.Data
		case "tRNS":
			trns = chunk.Data
		case "IDAT":
			idat = append(idat, chunk.Data...)
		case "IEND":
			break loop
		default:
			// ancillary chunk; crc already verified, semantics ignored
		}
	}

	rowBytes := header.rowBytes()
	height := int(header.Height)
	raw, err := inflateExact(idat, (rowBytes+1)*height)
	if err != nil {
		return nil, err
	}

	bpp := (header.channels()*int(header.BitDepth) + 7) / 8
	pix, err := reconstruct(raw, rowBytes, height, bpp)
	if err != nil {
		return nil, err
	}

	channels := header.channels()
	depth := int(header.BitDepth)
	if header.ColorType == colorPalette {
		pix, channels, err = expandPalette(pix, header, palette, trns)
		if err != nil {
			return nil, err
		}
		depth = 8
	}

	return &Raster{
		Width:    int(header.Width),
		Height:   height,
		Channels: channels,
		Depth:    depth,
		Pix:      pix,
	}, nil
}

// DecodeFile decodes the PNG file at path. Errors carry the filename.
func DecodeFile(path string) (*Raster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ras, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ras, nil
}

// Encode serializes an 8-bit raster as a PNG stream.
func Encode(ras *Raster) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, ras); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes ras to w as signature + IHDR + IDAT + IEND. The whole
// compressed payload goes into a single IDAT chunk.
func EncodeTo(w io.Writer, ras *Raster) error {
	if err := ras.validate(); err != nil {
		return err
	}
	if ras.Depth != 8 {
		return fmt.Errorf("%w: encoder writes 8-bit samples only, got %d", ErrUnsupportedBitDepth, ras.Depth)
	}
	ihdr, err := encodeHeader(ras.Width, ras.Height, ras.Channels)
	if err != nil {
		return err
	}
	compressed, err := deflate(filterRows(ras))
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, signature); err != nil {
		return fmt.Errorf("pngcodec: signature: %w: %v", ErrWriteFailure, err)
	}
	if err := writeChunk(w, "IHDR", ihdr); err != nil {
		return err
	}
	if err := writeChunk(w, "IDAT", compressed); err != nil {
		return err
	}
	return writeChunk(w, "IEND", nil)
}

// EncodeFile encodes ras into the file at path. Errors carry the filename.
func EncodeFile(path string, ras *Raster) error {
	enc, err := Encode(ras)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return os.WriteFile(path, enc, 0o644)
}
