package ppm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// EncodeOptions controls how an image is serialized.
type EncodeOptions struct {
	// Format is the output encoding. It is independent of the format the
	// image was decoded from; the zero value selects Binary.
	Format Format
	// Buffer selects Pixels or Output.
	Buffer Buffer
	// Compression optionally wraps the stream.
	Compression Compression
	// Level is the compression level; 0 selects the codec default.
	Level int
}

func (o EncodeOptions) format() (Format, error) {
	if o.Format == 0 {
		return Binary, nil
	}
	if !o.Format.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnknownFormat, int(o.Format))
	}
	return o.Format, nil
}

// Encode writes img to w. The header is four newline-terminated lines
// (P<code>, width, height, max color) followed by the selected buffer.
func Encode(w io.Writer, img *Image, opts EncodeOptions) error {
	format, err := opts.format()
	if err != nil {
		return err
	}
	pix, err := img.Buffer(opts.Buffer)
	if err != nil {
		return err
	}

	cw, err := compressingWriter(w, opts.Compression, opts.Level)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(cw)

	if _, err := fmt.Fprintf(bw, "P%d\n%d\n%d\n%d\n", int(format), img.Width, img.Height, img.MaxColor); err != nil {
		cw.Close()
		return &IOError{Op: "write", Err: err}
	}

	n, err := writePixels(bw, pix, format)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		cw.Close()
		return &IOError{Op: "write", Err: err}
	}
	if n != img.Size() {
		cw.Close()
		return &FormatError{Field: "pixels", Consumed: n, Expected: img.Size(), Err: ErrShortPixelData}
	}
	if err := cw.Close(); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// EncodeFile writes img to a new file at path.
func EncodeFile(path string, img *Image, opts EncodeOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return &IOError{Op: "create", Path: path, Err: err}
	}
	if err := Encode(f, img, opts); err != nil {
		f.Close()
		return withPath(err, path)
	}
	if err := f.Close(); err != nil {
		return &IOError{Op: "close", Path: path, Err: err}
	}
	return nil
}

// writePixels returns the number of samples written.
func writePixels(w *bufio.Writer, pix []byte, format Format) (int, error) {
	if format == Binary {
		return w.Write(pix)
	}

	// Each sample is followed by a single space; no line wrapping.
	var scratch [4]byte
	for i, v := range pix {
		b := strconv.AppendUint(scratch[:0], uint64(v), 10)
		b = append(b, ' ')
		if _, err := w.Write(b); err != nil {
			return i, err
		}
	}
	return len(pix), nil
}
