package ppm

import (
	"errors"
	"fmt"
)

// Format errors
var (
	ErrInvalidTag             = errors.New("ppm: invalid tag")
	ErrInvalidDimension       = errors.New("ppm: width and height must be positive and small enough to address")
	ErrInvalidMaxColor        = errors.New("ppm: max color value must be in 1..255")
	ErrLineTooLong            = errors.New("ppm: header line exceeds maximum length")
	ErrTruncatedHeader        = errors.New("ppm: truncated header")
	ErrInvalidPixel           = errors.New("ppm: invalid pixel value")
	ErrShortPixelData         = errors.New("ppm: fewer pixel values than declared")
	ErrBufferSize             = errors.New("ppm: pixel buffer size does not match image dimensions")
	ErrNoOutputBuffer         = errors.New("ppm: output buffer not allocated")
	ErrUnknownFormat          = errors.New("ppm: unknown output format")
	ErrUnknownBuffer          = errors.New("ppm: unknown buffer selector")
	ErrUnsupportedCompression = errors.New("ppm: unsupported compression")
)

// IOError reports a failure to open, read, write or close a file or stream.
type IOError struct {
	Op   string // "open", "create", "read", "write", "close"
	Path string // may be empty for streams
	Err  error
}

func (e *IOError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("ppm: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("ppm: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// FormatError reports malformed header or pixel data.
//
// For pixel data failures Consumed holds the number of samples successfully
// stored before reading stopped and Expected the declared sample count.
type FormatError struct {
	Field    string // header field or "pixels"
	Token    string // offending token, if any
	Consumed int
	Expected int
	Err      error
}

func (e *FormatError) Error() string {
	switch {
	case e.Field == "pixels":
		if e.Token != "" {
			return fmt.Sprintf("%v: %q after %d of %d samples", e.Err, e.Token, e.Consumed, e.Expected)
		}
		return fmt.Sprintf("%v: read %d of %d samples", e.Err, e.Consumed, e.Expected)
	case e.Token != "":
		return fmt.Sprintf("%v: %s %q", e.Err, e.Field, e.Token)
	case e.Field != "":
		return fmt.Sprintf("%v: %s", e.Err, e.Field)
	}
	return e.Err.Error()
}

func (e *FormatError) Unwrap() error { return e.Err }

// OutOfRangeError reports a plain-text sample above the declared max color.
// Index is the number of samples consumed before the offending one.
type OutOfRangeError struct {
	Index int
	Value int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("ppm: sample %d value %d exceeds max color %d", e.Index, e.Value, e.Max)
}

// Consumed returns the number of samples stored before the error.
// It lets callers treat short reads and out-of-range values uniformly.
func Consumed(err error) (int, bool) {
	var fe *FormatError
	if errors.As(err, &fe) && fe.Field == "pixels" {
		return fe.Consumed, true
	}
	var oe *OutOfRangeError
	if errors.As(err, &oe) {
		return oe.Index, true
	}
	return 0, false
}
