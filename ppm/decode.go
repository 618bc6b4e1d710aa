package ppm

import (
	"bufio"
	"errors"
	"image"
	"image/color"
	"io"
	"os"
	"strconv"
)

func init() {
	image.RegisterFormat("ppm", "P6", decodeImage, decodeImageConfig)
	image.RegisterFormat("ppm", "P3", decodeImage, decodeImageConfig)
}

func decodeImage(r io.Reader) (image.Image, error) {
	img, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return img, nil
}

func decodeImageConfig(r io.Reader) (image.Config, error) {
	h, _, err := DecodeHeader(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.RGBAModel, Width: h.Width, Height: h.Height}, nil
}

// Decode reads a PPM image from r. Gzip, zlib and zstd compressed streams are
// detected and decompressed transparently.
//
// The returned image is complete: if fewer samples than declared can be read,
// or a plain-text sample is malformed or above the max color, an error is
// returned and no image. Use Consumed to recover the partial sample count.
func Decode(r io.Reader) (*Image, error) {
	return decode(globalBufferPool, r)
}

// DecodeFile decodes a PPM file from the filesystem.
func DecodeFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()
	img, err := Decode(f)
	if err != nil {
		return nil, withPath(err, path)
	}
	return img, nil
}

// DecodeHeader reads only the header of a PPM stream and reports the
// compression wrapped around it.
func DecodeHeader(r io.Reader) (Header, Compression, error) {
	br, c, release, err := openDecompressed(r)
	if err != nil {
		return Header{}, c, err
	}
	defer release()
	h, err := ReadHeader(br)
	return h, c, err
}

func decode(pool *BufferPool, r io.Reader) (*Image, error) {
	br, _, release, err := openDecompressed(r)
	if err != nil {
		return nil, err
	}
	defer release()

	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	img, err := newImage(pool, h.Format, h.Width, h.Height, h.MaxColor)
	if err != nil {
		return nil, err
	}
	if err := readPixels(br, img); err != nil {
		img.Release()
		return nil, err
	}
	return img, nil
}

func readPixels(r *bufio.Reader, img *Image) error {
	if img.Format == Binary {
		return readBinaryPixels(r, img)
	}
	return readPlainPixels(r, img)
}

// readBinaryPixels reads the whole body in one transfer. Samples are not
// checked against MaxColor.
func readBinaryPixels(r io.Reader, img *Image) error {
	n, err := io.ReadFull(r, img.Pixels)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &FormatError{Field: "pixels", Consumed: n, Expected: img.Size(), Err: ErrShortPixelData}
	}
	return &IOError{Op: "read", Err: err}
}

// maxSampleToken bounds the length of a plain-text sample token.
const maxSampleToken = 16

// readPlainPixels reads Size() decimal samples one at a time, stopping at
// the first one that is malformed or above MaxColor.
func readPlainPixels(r *bufio.Reader, img *Image) error {
	size := img.Size()
	tok := make([]byte, 0, maxSampleToken)
	for i := 0; i < size; i++ {
		var err error
		tok, err = nextSample(r, tok[:0])
		if err != nil {
			if errors.Is(err, io.EOF) {
				return &FormatError{Field: "pixels", Consumed: i, Expected: size, Err: ErrShortPixelData}
			}
			if errors.Is(err, ErrInvalidPixel) {
				return &FormatError{Field: "pixels", Token: string(tok), Consumed: i, Expected: size, Err: ErrInvalidPixel}
			}
			return &IOError{Op: "read", Err: err}
		}
		v, err := strconv.Atoi(string(tok))
		if err != nil || v < 0 {
			return &FormatError{Field: "pixels", Token: string(tok), Consumed: i, Expected: size, Err: ErrInvalidPixel}
		}
		if v > img.MaxColor {
			return &OutOfRangeError{Index: i, Value: v, Max: img.MaxColor}
		}
		img.Pixels[i] = byte(v)
	}
	return nil
}

// nextSample appends the next whitespace delimited token to tok.
// io.EOF is returned only when no token bytes were read.
func nextSample(r *bufio.Reader, tok []byte) ([]byte, error) {
	for {
		c, err := r.ReadByte()
		if err != nil {
			if err == io.EOF && len(tok) > 0 {
				return tok, nil
			}
			return tok, err
		}
		if isSpace(c) {
			if len(tok) > 0 {
				return tok, nil
			}
			continue
		}
		if len(tok) == maxSampleToken {
			return tok, ErrInvalidPixel
		}
		tok = append(tok, c)
	}
}

// withPath annotates path-less I/O errors with the file they came from.
func withPath(err error, path string) error {
	var ioe *IOError
	if errors.As(err, &ioe) && ioe.Path == "" {
		ioe.Path = path
	}
	return err
}
