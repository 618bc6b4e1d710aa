package ppm

import (
	"bufio"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// Compression is an optional stream compression wrapped around a PPM file.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZlib
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	}
	return fmt.Sprintf("Compression(%d)", int(c))
}

// CompressionForPath picks a compression from the file name suffix:
// .gz, .zz/.zlib and .zst. Anything else is uncompressed.
func CompressionForPath(path string) Compression {
	p := strings.ToLower(path)
	switch {
	case strings.HasSuffix(p, ".gz"):
		return CompressionGzip
	case strings.HasSuffix(p, ".zz"), strings.HasSuffix(p, ".zlib"):
		return CompressionZlib
	case strings.HasSuffix(p, ".zst"):
		return CompressionZstd
	}
	return CompressionNone
}

// sniffCompression inspects the first bytes of a stream without consuming them.
func sniffCompression(br *bufio.Reader) Compression {
	magic, _ := br.Peek(4)
	switch {
	case len(magic) >= 2 && magic[0] == 0x1f && magic[1] == 0x8b:
		return CompressionGzip
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		return CompressionZstd
	case len(magic) >= 2 && magic[0]&0x0f == 8 && (uint16(magic[0])<<8|uint16(magic[1]))%31 == 0:
		return CompressionZlib
	}
	return CompressionNone
}

// openDecompressed returns a buffered reader over the decompressed contents
// of r, the detected compression and a function releasing decoder state.
func openDecompressed(r io.Reader) (*bufio.Reader, Compression, func(), error) {
	br := bufio.NewReader(r)
	c := sniffCompression(br)
	switch c {
	case CompressionGzip:
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, c, nil, &FormatError{Field: "gzip", Err: err}
		}
		return bufio.NewReader(zr), c, func() { zr.Close() }, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(br)
		if err != nil {
			return nil, c, nil, &FormatError{Field: "zlib", Err: err}
		}
		return bufio.NewReader(zr), c, func() { zr.Close() }, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(br, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, c, nil, &FormatError{Field: "zstd", Err: err}
		}
		return bufio.NewReader(zr), c, zr.Close, nil
	}
	return br, CompressionNone, func() {}, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// compressingWriter wraps w with the requested compression. level 0 selects
// each codec's default.
func compressingWriter(w io.Writer, c Compression, level int) (io.WriteCloser, error) {
	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionGzip:
		if level == 0 {
			level = gzip.DefaultCompression
		}
		return gzip.NewWriterLevel(w, level)
	case CompressionZlib:
		if level == 0 {
			level = zlib.DefaultCompression
		}
		return zlib.NewWriterLevel(w, level)
	case CompressionZstd:
		opts := []zstd.EOption{zstd.WithEncoderConcurrency(runtime.NumCPU())}
		if level != 0 {
			opts = append(opts, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
		}
		return zstd.NewWriter(w, opts...)
	}
	return nil, fmt.Errorf("%w: %v", ErrUnsupportedCompression, c)
}
