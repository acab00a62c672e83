package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"pngcodec"
)

// The CLI's raw interchange format is binary PPM (P6) for color and PGM
// (P5) for greyscale. Neither carries alpha, so alpha channels are dropped
// on the way out. Raster rows are stored bottom-up while PPM is top-down;
// both directions flip rows.

// writePPM writes ras to path as P6 (color) or P5 (grey). 16-bit samples
// map onto maxval 65535 with big-endian pairs, which is what PPM specifies.
func writePPM(path string, ras *pngcodec.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	magic := "P6"
	outChannels := 3
	if ras.Channels <= 2 {
		magic = "P5"
		outChannels = 1
	}
	maxval := 255
	if ras.Depth == 16 {
		maxval = 65535
	}
	if _, err := fmt.Fprintf(w, "%s\n%d %d\n%d\n", magic, ras.Width, ras.Height, maxval); err != nil {
		return err
	}

	sampleBytes := ras.Depth / 8
	pixBytes := ras.Channels * sampleBytes
	stride := ras.Stride()
	for y := ras.Height - 1; y >= 0; y-- {
		row := ras.Pix[y*stride : (y+1)*stride]
		for x := 0; x < ras.Width; x++ {
			px := row[x*pixBytes : (x+1)*pixBytes]
			for c := 0; c < outChannels; c++ {
				if _, err := w.Write(px[c*sampleBytes : (c+1)*sampleBytes]); err != nil {
					return err
				}
			}
		}
	}
	return w.Flush()
}

// readPPM reads a binary P5/P6 file into an 8-bit raster.
func readPPM(path string) (*pngcodec.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := bufio.NewReader(f)

	magic, err := ppmToken(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	var channels int
	switch magic {
	case "P5":
		channels = 1
	case "P6":
		channels = 3
	default:
		return nil, fmt.Errorf("%s: unsupported format %q, want P5 or P6", path, magic)
	}

	var width, height, maxval int
	for _, dst := range []*int{&width, &height, &maxval} {
		tok, err := ppmToken(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if _, err := fmt.Sscanf(tok, "%d", dst); err != nil {
			return nil, fmt.Errorf("%s: bad header field %q", path, tok)
		}
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%s: invalid dimensions %dx%d", path, width, height)
	}
	if maxval != 255 {
		return nil, fmt.Errorf("%s: unsupported maxval %d, want 255", path, maxval)
	}

	stride := width * channels
	flat := make([]byte, stride*height)
	if _, err := io.ReadFull(r, flat); err != nil {
		return nil, fmt.Errorf("%s: truncated pixel data: %w", path, err)
	}

	// PPM rows are top-down; the raster wants them bottom-up.
	pix := make([]byte, len(flat))
	for y := 0; y < height; y++ {
		copy(pix[(height-1-y)*stride:(height-y)*stride], flat[y*stride:(y+1)*stride])
	}

	return &pngcodec.Raster{
		Width:    width,
		Height:   height,
		Channels: channels,
		Depth:    8,
		Pix:      pix,
	}, nil
}

// ppmToken returns the next whitespace-delimited header token, skipping
// '#' comments.
func ppmToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 && err == io.EOF {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case b == '#':
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
		case b == ' ' || b == '\t' || b == '\r' || b == '\n':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}
