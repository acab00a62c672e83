package pngcodec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// inflateExact inflates the accumulated IDAT payload into a buffer of
// exactly size bytes. The stream must yield size bytes and then end; any
// other outcome means the compressed data disagrees with the header and the
// whole decode is abandoned.
func inflateExact(compressed []byte, size int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("pngcodec: inflate: %w", eofErr(err))
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, fmt.Errorf("pngcodec: inflate: %w: stream shorter than %d bytes", ErrSizeMismatch, size)
		}
		return nil, fmt.Errorf("pngcodec: inflate: %w", err)
	}

	var extra [1]byte
	n, err := zr.Read(extra[:])
	if n != 0 || err == nil {
		return nil, fmt.Errorf("pngcodec: inflate: %w: stream longer than %d bytes", ErrSizeMismatch, size)
	}
	if err != io.EOF {
		return nil, fmt.Errorf("pngcodec: inflate: %w", err)
	}
	return out, nil
}

// deflate compresses the filtered scanline buffer in one shot; the result
// becomes the payload of a single IDAT chunk.
func deflate(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, fmt.Errorf("pngcodec: deflate: %w", err)
	}
	if _, err := zw.Write(raw); err != nil {
		zw.Close()
		return nil, fmt.Errorf("pngcodec: deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pngcodec: deflate: %w", err)
	}
	return buf.Bytes(), nil
}
