package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pngcodec"
)

var log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

func main() {
	var verbose bool

	root := &cobra.Command{
		Use:           "pngcodec",
		Short:         "Convert between PNG files and raw PPM/PGM rasters",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(decodeCmd(), encodeCmd(), infoCmd())

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func decodeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "decode <input.png>",
		Short: "Decode a PNG file to a PPM (or PGM) raster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ras, err := pngcodec.DecodeFile(args[0])
			if err != nil {
				return err
			}
			log.Debug().
				Int("width", ras.Width).
				Int("height", ras.Height).
				Int("channels", ras.Channels).
				Int("depth", ras.Depth).
				Msg("decoded")
			if out == "" {
				out = replaceExt(args[0], ".ppm")
			}
			if err := writePPM(out, ras); err != nil {
				return err
			}
			log.Info().Str("path", out).Msg("wrote raster")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: input with .ppm extension)")
	return cmd
}

func encodeCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "encode <input.ppm>",
		Short: "Encode a PPM (or PGM) raster as a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ras, err := readPPM(args[0])
			if err != nil {
				return err
			}
			log.Debug().
				Int("width", ras.Width).
				Int("height", ras.Height).
				Int("channels", ras.Channels).
				Msg("read raster")
			if out == "" {
				out = replaceExt(args[0], ".png")
			}
			if err := pngcodec.EncodeFile(out, ras); err != nil {
				return err
			}
			log.Info().Str("path", out).Msg("wrote png")
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default: input with .png extension)")
	return cmd
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <input.png>",
		Short: "List the chunks of a PNG file, verifying each CRC",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var sig [8]byte
			if _, err := io.ReadFull(f, sig[:]); err != nil {
				return err
			}
			if string(sig[:]) != "\x89PNG\r\n\x1a\n" {
				return fmt.Errorf("%s: not a png file", args[0])
			}

			for {
				chunk, err := pngcodec.ReadChunk(f)
				if err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				fmt.Printf("%s  %7d bytes  crc %08x\n", chunk.Type, chunk.Length, chunk.CRC)
				if chunk.Type == "IHDR" {
					h, err := pngcodec.ParseHeader(chunk.Data)
					if err != nil {
						return fmt.Errorf("%s: %w", args[0], err)
					}
					fmt.Printf("      %dx%d, bit depth %d, color type %d, interlace %d\n",
						h.Width, h.Height, h.BitDepth, h.ColorType, h.InterlaceMethod)
				}
				if chunk.Type == "IEND" {
					return nil
				}
			}
		},
	}
}

func replaceExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
