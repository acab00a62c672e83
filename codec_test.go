package pngcodec

import (
	"bytes"
	stdzlib "compress/zlib"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRaster(w, h, channels int) *Raster {
	pix := make([]byte, w*h*channels)
	for i := range pix {
		pix[i] = byte(i*31 + 7)
	}
	return &Raster{Width: w, Height: h, Channels: channels, Depth: 8, Pix: pix}
}

// rawChunk frames a chunk with stdlib crc32 so fixtures are independent of
// the code under test.
func rawChunk(typ string, data []byte) []byte {
	buf := make([]byte, 8+len(data)+4)
	binary.BigEndian.PutUint32(buf[:4], uint32(len(data)))
	copy(buf[4:8], typ)
	copy(buf[8:], data)
	crc := crc32.NewIEEE()
	crc.Write(buf[4 : 8+len(data)])
	binary.BigEndian.PutUint32(buf[8+len(data):], crc.Sum32())
	return buf
}

func stdDeflate(t *testing.T, raw []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := stdzlib.NewWriter(&buf)
	_, err := zw.Write(raw)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func ihdrPayload(w, h uint32, depth, colorType byte) []byte {
	b := make([]byte, 13)
	binary.BigEndian.PutUint32(b[:4], w)
	binary.BigEndian.PutUint32(b[4:8], h)
	b[8] = depth
	b[9] = colorType
	return b
}

func buildPNG(chunks ...[]byte) []byte {
	out := []byte(signature)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func TestRoundTrip(t *testing.T) {
	for _, channels := range []int{1, 2, 3, 4} {
		t.Run(fmt.Sprintf("%dch", channels), func(t *testing.T) {
			src := makeRaster(13, 7, channels)

			enc, err := Encode(src)
			require.NoError(t, err)
			require.NotEmpty(t, enc)

			dec, err := Decode(enc)
			require.NoError(t, err)
			assert.Equal(t, src, dec)
		})
	}
}

func TestEncodeRejects16Bit(t *testing.T) {
	ras := &Raster{Width: 1, Height: 1, Channels: 1, Depth: 16, Pix: []byte{0, 0}}
	_, err := Encode(ras)
	require.ErrorIs(t, err, ErrUnsupportedBitDepth)
}

func TestEncodeRejectsShortBuffer(t *testing.T) {
	ras := &Raster{Width: 2, Height: 2, Channels: 3, Depth: 8, Pix: []byte{1, 2, 3}}
	_, err := Encode(ras)
	require.ErrorIs(t, err, ErrSizeMismatch)
}

func TestDecodeCanonicalRed(t *testing.T) {
	// minimal 1x1 RGB image, one None-filtered scanline of a red pixel
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(1, 1, 8, colorRGB)),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 0xFF, 0x00, 0x00})),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1, ras.Width)
	assert.Equal(t, 1, ras.Height)
	assert.Equal(t, 3, ras.Channels)
	assert.Equal(t, 8, ras.Depth)
	assert.Equal(t, []byte{0xFF, 0x00, 0x00}, ras.Pix)
}

func TestDecode16BitGrey(t *testing.T) {
	// 1x2: stream rows land in the raster bottom-up
	raw := []byte{
		0x00, 0x12, 0x34, // scanline 0 (top)
		0x00, 0xAB, 0xCD, // scanline 1 (bottom)
	}
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(1, 2, 16, colorGreyscale)),
		rawChunk("IDAT", stdDeflate(t, raw)),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 16, ras.Depth)
	assert.Equal(t, 1, ras.Channels)
	assert.Equal(t, []byte{0xAB, 0xCD, 0x12, 0x34}, ras.Pix)
}

func TestDecodeMultipleIDAT(t *testing.T) {
	raw := []byte{0x00, 1, 2, 0x00, 3, 4}
	compressed := stdDeflate(t, raw)
	split := len(compressed) / 2

	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(2, 2, 8, colorGreyscale)),
		rawChunk("IDAT", compressed[:split]),
		rawChunk("IDAT", compressed[split:]),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4, 1, 2}, ras.Pix)
}

func TestDecodePaletteWithTRNS(t *testing.T) {
	palette := []byte{
		10, 20, 30, // index 0
		200, 210, 220, // index 1
	}
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(8, 1, 1, colorPalette)),
		rawChunk("PLTE", palette),
		rawChunk("tRNS", []byte{128}),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 0xB2})),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4, ras.Channels)
	assert.Equal(t, 8, ras.Depth)
	// pixel 0 is index 1: beyond the tRNS table, so fully transparent
	assert.Equal(t, []byte{200, 210, 220, 0}, ras.Pix[0:4])
	// pixel 1 is index 0: alpha from tRNS
	assert.Equal(t, []byte{10, 20, 30, 128}, ras.Pix[4:8])
}

func TestDecodePaletteWithoutTRNS(t *testing.T) {
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(2, 1, 8, colorPalette)),
		rawChunk("PLTE", []byte{1, 2, 3, 4, 5, 6}),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 1, 0})),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 3, ras.Channels)
	assert.Equal(t, []byte{4, 5, 6, 1, 2, 3}, ras.Pix)
}

func TestDecodePaletteMissingPLTE(t *testing.T) {
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(2, 1, 8, colorPalette)),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 1, 0})),
		rawChunk("IEND", nil),
	)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrMissingPalette)
}

func TestDecodeBadSignature(t *testing.T) {
	_, err := Decode([]byte("definitely not a png"))
	require.ErrorIs(t, err, ErrBadSignature)
}

func TestDecodeTruncatedChunk(t *testing.T) {
	// valid signature, then a chunk whose declared length exceeds the
	// remaining bytes
	data := append([]byte(signature), 0, 0, 0, 13, 'I', 'H', 'D', 'R', 1, 2, 3)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrUnexpectedEOF)
}

func TestDecodeSizeMismatch(t *testing.T) {
	// 2x2 greyscale wants (2+1)*2 = 6 raw bytes
	for _, tc := range []struct {
		name string
		raw  []byte
	}{
		{name: "short", raw: []byte{0x00, 1, 2, 0x00}},
		{name: "long", raw: []byte{0x00, 1, 2, 0x00, 3, 4, 0x00, 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			data := buildPNG(
				rawChunk("IHDR", ihdrPayload(2, 2, 8, colorGreyscale)),
				rawChunk("IDAT", stdDeflate(t, tc.raw)),
				rawChunk("IEND", nil),
			)
			_, err := Decode(data)
			require.ErrorIs(t, err, ErrSizeMismatch)
		})
	}
}

func TestDecodeInterlacedRejected(t *testing.T) {
	ihdr := ihdrPayload(2, 2, 8, colorRGB)
	ihdr[12] = 1 // Adam7
	data := buildPNG(
		rawChunk("IHDR", ihdr),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00})),
		rawChunk("IEND", nil),
	)
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrInterlacingUnsupported)
}

func TestDecodeCorruptChunk(t *testing.T) {
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(1, 1, 8, colorGreyscale)),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 7})),
		rawChunk("IEND", nil),
	)
	data[len(signature)+8] ^= 0xFF // first IHDR payload byte
	_, err := Decode(data)
	require.ErrorIs(t, err, ErrCRCMismatch)
}

func TestDecodeRequiresLeadingIHDR(t *testing.T) {
	data := buildPNG(
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 7})),
		rawChunk("IEND", nil),
	)
	_, err := Decode(data)
	require.Error(t, err)
}

func TestDecodeSkipsAncillaryChunks(t *testing.T) {
	data := buildPNG(
		rawChunk("IHDR", ihdrPayload(1, 1, 8, colorGreyscale)),
		rawChunk("gAMA", []byte{0, 0, 0xB1, 0x8F}),
		rawChunk("tEXt", []byte("Comment\x00hello")),
		rawChunk("IDAT", stdDeflate(t, []byte{0x00, 42})),
		rawChunk("IEND", nil),
	)

	ras, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []byte{42}, ras.Pix)
}

// Our encoder's output must be readable by the stdlib decoder, and the
// stdlib encoder's output (with its adaptive filter choices) by our
// decoder. Raster rows are bottom-up, image.Image rows top-down.
func TestInteropWithStdlib(t *testing.T) {
	t.Run("stdlib_decodes_our_output", func(t *testing.T) {
		src := makeRaster(5, 4, 3)
		enc, err := Encode(src)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(enc))
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, 5, 4), img.Bounds())

		stride := src.Stride()
		for y := 0; y < 4; y++ {
			row := (src.Height - 1 - y) * stride
			for x := 0; x < 5; x++ {
				r, g, b, _ := img.At(x, y).RGBA()
				assert.Equal(t, src.Pix[row+x*3], uint8(r>>8), "red at %d,%d", x, y)
				assert.Equal(t, src.Pix[row+x*3+1], uint8(g>>8), "green at %d,%d", x, y)
				assert.Equal(t, src.Pix[row+x*3+2], uint8(b>>8), "blue at %d,%d", x, y)
			}
		}
	})

	t.Run("we_decode_stdlib_output", func(t *testing.T) {
		// non-opaque alpha keeps the stdlib encoder on color type 6
		img := image.NewNRGBA(image.Rect(0, 0, 17, 11))
		for y := 0; y < 11; y++ {
			for x := 0; x < 17; x++ {
				img.SetNRGBA(x, y, color.NRGBA{
					R: uint8(x * 15),
					G: uint8(y * 23),
					B: uint8((x + y) * 7),
					A: uint8(100 + x + y),
				})
			}
		}
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))

		ras, err := Decode(buf.Bytes())
		require.NoError(t, err)
		require.Equal(t, 17, ras.Width)
		require.Equal(t, 11, ras.Height)
		require.Equal(t, 4, ras.Channels)

		stride := ras.Stride()
		for y := 0; y < 11; y++ {
			row := (ras.Height - 1 - y) * stride
			for x := 0; x < 17; x++ {
				want := img.NRGBAAt(x, y)
				got := ras.Pix[row+x*4 : row+x*4+4]
				assert.Equal(t, []byte{want.R, want.G, want.B, want.A}, got, "pixel %d,%d", x, y)
			}
		}
	})
}

func TestDecodeFileAddsFilename(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(path, []byte("not a png at all"), 0o644))
	_, err := DecodeFile(path)
	require.ErrorIs(t, err, ErrBadSignature)
	assert.Contains(t, err.Error(), path)

	good := filepath.Join(dir, "good.png")
	src := makeRaster(3, 3, 4)
	require.NoError(t, EncodeFile(good, src))
	dec, err := DecodeFile(good)
	require.NoError(t, err)
	assert.Equal(t, src, dec)
}
