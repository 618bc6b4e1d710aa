// Package ppm reads and writes Netpbm PPM images in the binary (P6) and plain
// text (P3) encodings.
//
// Decoded images hold their samples in a single row-major, channel
// interleaved byte buffer (R,G,B,R,G,B,...). An optional second buffer of the
// same size, Output, lets two transforms run against the same source without
// overwriting each other's input.
//
// Samples are stored as bytes, so the max color must be between 1 and 255.
// Files declaring a larger max color (16-bit PPM, e.g. P3 with 1023) are
// rejected with ErrInvalidMaxColor rather than scaled.
//
// Example usage:
//
//	img, err := ppm.DecodeFile("in.ppm")
//	if err != nil {
//		return err
//	}
//	defer img.Release()
//	err = ppm.EncodeFile("out.ppm", img, ppm.EncodeOptions{Format: ppm.PlainText})
package ppm

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
)

// Channels is the number of samples per pixel.
const Channels = 3

// Format is the pixel encoding of a PPM stream. Its value is the numeric code
// written after "P" in the header.
type Format int

const (
	PlainText Format = 3 // P3, whitespace separated decimal samples
	Binary    Format = 6 // P6, raw bytes
)

// String returns the header tag of the format.
func (f Format) String() string {
	switch f {
	case PlainText, Binary:
		return fmt.Sprintf("P%d", int(f))
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Valid reports whether f is a known encoding.
func (f Format) Valid() bool {
	return f == PlainText || f == Binary
}

// ParseFormat accepts a header tag ("P6", "P3") or a format name
// ("PPM_BINARY", "PPM_PLAIN_TEXT"), case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToUpper(s) {
	case "P6", "PPM_BINARY", "BINARY":
		return Binary, nil
	case "P3", "PPM_PLAIN_TEXT", "PLAIN_TEXT", "PLAIN":
		return PlainText, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Buffer selects which of an Image's pixel buffers to serialize.
type Buffer int

const (
	PixelsBuffer Buffer = iota // Image.Pixels
	OutputBuffer               // Image.Output
)

func (b Buffer) String() string {
	switch b {
	case PixelsBuffer:
		return "pixels"
	case OutputBuffer:
		return "output"
	}
	return fmt.Sprintf("Buffer(%d)", int(b))
}

// Image is an in-memory RGB raster.
type Image struct {
	// Format is the encoding the image was decoded from.
	Format Format
	Width  int
	Height int
	// MaxColor is the declared maximum sample value. It is only enforced
	// when decoding plain text.
	MaxColor int
	// Pixels holds Size() bytes, row-major, RGB interleaved.
	Pixels []byte
	// Output is a second buffer of the same size, allocated on demand by
	// AllocOutput.
	Output []byte

	pool *BufferPool
}

// NewImage allocates a zeroed image with the given header fields.
func NewImage(format Format, width, height, maxColor int) (*Image, error) {
	return newImage(globalBufferPool, format, width, height, maxColor)
}

func newImage(pool *BufferPool, format Format, width, height, maxColor int) (*Image, error) {
	if !format.Valid() {
		return nil, &FormatError{Field: "tag", Token: format.String(), Err: ErrInvalidTag}
	}
	if !validDimensions(width, height) {
		return nil, &FormatError{Field: "dimensions", Token: fmt.Sprintf("%dx%d", width, height), Err: ErrInvalidDimension}
	}
	if maxColor <= 0 || maxColor > 255 {
		return nil, &FormatError{Field: "max color", Token: fmt.Sprint(maxColor), Err: ErrInvalidMaxColor}
	}
	img := &Image{
		Format:   format,
		Width:    width,
		Height:   height,
		MaxColor: maxColor,
		pool:     pool,
	}
	pix, err := pool.GetWithError(img.Size())
	if err != nil {
		return nil, err
	}
	img.Pixels = pix
	return img, nil
}

// validDimensions reports whether width*height*Channels is a positive int.
func validDimensions(width, height int) bool {
	return width > 0 && height > 0 && width <= math.MaxInt/Channels/height
}

// PixelCount returns Width*Height.
func (img *Image) PixelCount() int {
	return img.Width * img.Height
}

// Size returns the byte size of a pixel buffer, 3*Width*Height.
func (img *Image) Size() int {
	return img.PixelCount() * Channels
}

// AllocOutput allocates the Output buffer if it is not already present.
func (img *Image) AllocOutput() ([]byte, error) {
	if img.Output != nil {
		return img.Output, nil
	}
	pool := img.pool
	if pool == nil {
		pool = globalBufferPool
	}
	out, err := pool.GetWithError(img.Size())
	if err != nil {
		return nil, err
	}
	img.Output = out
	return out, nil
}

// Buffer returns the selected pixel buffer.
func (img *Image) Buffer(sel Buffer) ([]byte, error) {
	var buf []byte
	switch sel {
	case PixelsBuffer:
		buf = img.Pixels
	case OutputBuffer:
		if img.Output == nil {
			return nil, ErrNoOutputBuffer
		}
		buf = img.Output
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownBuffer, int(sel))
	}
	if len(buf) != img.Size() {
		return nil, ErrBufferSize
	}
	return buf, nil
}

// Release returns the image's buffers to their pool. The image must not be
// used afterwards.
func (img *Image) Release() {
	pool := img.pool
	if pool == nil {
		pool = globalBufferPool
	}
	if img.Pixels != nil {
		pool.Put(img.Pixels)
		img.Pixels = nil
	}
	if img.Output != nil {
		pool.Put(img.Output)
		img.Output = nil
	}
}

// PixOffset returns the index of the red sample of pixel (x, y).
func (img *Image) PixOffset(x, y int) int {
	return (y*img.Width + x) * Channels
}

// RGB returns the samples of pixel (x, y) from Pixels.
func (img *Image) RGB(x, y int) (r, g, b uint8) {
	i := img.PixOffset(x, y)
	return img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2]
}

// SetRGB sets pixel (x, y) in Pixels.
func (img *Image) SetRGB(x, y int, r, g, b uint8) {
	i := img.PixOffset(x, y)
	img.Pixels[i] = r
	img.Pixels[i+1] = g
	img.Pixels[i+2] = b
}

// Bounds returns the domain for which At can return non-zero color.
func (img *Image) Bounds() image.Rectangle {
	return image.Rect(0, 0, img.Width, img.Height)
}

// ColorModel returns the Image's color model.
func (img *Image) ColorModel() color.Model {
	return color.RGBAModel
}

// At returns the color of the pixel at (x, y), scaled from MaxColor to 255.
func (img *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(img.Bounds())) {
		return color.RGBA{}
	}
	r, g, b := img.RGB(x, y)
	return color.RGBA{
		R: scale(r, img.MaxColor),
		G: scale(g, img.MaxColor),
		B: scale(b, img.MaxColor),
		A: 0xff,
	}
}

func scale(v uint8, maxColor int) uint8 {
	if maxColor == 255 || maxColor <= 0 {
		return v
	}
	s := int(v) * 255 / maxColor
	if s > 255 {
		s = 255
	}
	return uint8(s)
}

// FromImage converts any image.Image into a binary PPM image with max color 255.
func FromImage(src image.Image) (*Image, error) {
	b := src.Bounds()
	img, err := NewImage(Binary, b.Dx(), b.Dy(), 255)
	if err != nil {
		return nil, err
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := color.RGBAModel.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			img.SetRGB(x, y, c.R, c.G, c.B)
		}
	}
	return img, nil
}
