package pngcodec

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Chunk is one length-prefixed, type-tagged, CRC-checked record of a PNG
// stream. The CRC covers the type tag and the data, not the length.
type Chunk struct {
	Length uint32
	Type   string // 4-byte tag, e.g. "IHDR"
	Data   []byte
	CRC    uint32
}

// ReadChunk reads the next [length][type][data][crc] record from r and
// verifies its checksum. A stream that ends inside any field yields
// ErrUnexpectedEOF; a checksum disagreement yields ErrCRCMismatch.
func ReadChunk(r io.Reader) (Chunk, error) {
	var head [8]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Chunk{}, fmt.Errorf("pngcodec: chunk header: %w", eofErr(err))
	}
	length := binary.BigEndian.Uint32(head[:4])
	typ := string(head[4:8])

	data := make([]byte, length)
	if _, err := io.ReadFull(r, data); err != nil {
		return Chunk{}, fmt.Errorf("pngcodec: chunk %s data: %w", typ, eofErr(err))
	}

	var foot [4]byte
	if _, err := io.ReadFull(r, foot[:]); err != nil {
		return Chunk{}, fmt.Errorf("pngcodec: chunk %s crc: %w", typ, eofErr(err))
	}
	want := binary.BigEndian.Uint32(foot[:])
	got := crc32Update(crc32Update(0, head[4:8]), data)
	if got != want {
		return Chunk{}, fmt.Errorf("pngcodec: chunk %s: %w: got %08x, want %08x", typ, ErrCRCMismatch, got, want)
	}

	return Chunk{Length: length, Type: typ, Data: data, CRC: want}, nil
}

// writeChunk frames data as a chunk of the given type and writes it to w,
// stamping a freshly computed CRC.
func writeChunk(w io.Writer, typ string, data []byte) error {
	var head [8]byte
	binary.BigEndian.PutUint32(head[:4], uint32(len(data)))
	copy(head[4:], typ)

	var foot [4]byte
	binary.BigEndian.PutUint32(foot[:], crc32Update(crc32Update(0, head[4:8]), data))

	if _, err := w.Write(head[:]); err != nil {
		return fmt.Errorf("pngcodec: chunk %s: %w: %v", typ, ErrWriteFailure, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("pngcodec: chunk %s: %w: %v", typ, ErrWriteFailure, err)
	}
	if _, err := w.Write(foot[:]); err != nil {
		return fmt.Errorf("pngcodec: chunk %s: %w: %v", typ, ErrWriteFailure, err)
	}
	return nil
}

// eofErr folds the two io end-of-stream errors into ErrUnexpectedEOF so
// callers can match truncation with errors.Is.
func eofErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return ErrUnexpectedEOF
	}
	return err
}
