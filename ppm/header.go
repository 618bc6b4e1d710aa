package ppm

import (
	"bufio"
	"errors"
	"io"
	"strconv"
)

// MaxLineLength is the longest header or comment line accepted, excluding
// the terminating newline.
const MaxLineLength = 100

// Header holds the fields that precede the pixel data.
type Header struct {
	Format   Format
	Width    int
	Height   int
	MaxColor int
}

// Size returns the number of samples the header declares.
func (h Header) Size() int {
	return h.Width * h.Height * Channels
}

type headerState int

const (
	stateTag headerState = iota
	stateWidth
	stateHeight
	stateMaxColor
	statePixels
)

var errUnexpectedToken = errors.New("ppm: unexpected header token")

// transition describes how a token is consumed in a given state.
type transition struct {
	field string
	apply func(h *Header, tok string) error
	next  headerState
}

var headerTransitions = [statePixels]transition{
	stateTag:      {"tag", applyTag, stateWidth},
	stateWidth:    {"width", applyPositive(func(h *Header) *int { return &h.Width }, ErrInvalidDimension), stateHeight},
	stateHeight:   {"height", applyHeight, stateMaxColor},
	stateMaxColor: {"max color", applyMaxColor, statePixels},
}

// step consumes one token. A token in the Pixels state is always illegal:
// pixel data is never read through the header scanner.
func (s headerState) step(h *Header, tok string) (headerState, error) {
	if s < stateTag || s >= statePixels {
		return s, &FormatError{Field: "header", Token: tok, Err: errUnexpectedToken}
	}
	t := headerTransitions[s]
	if err := t.apply(h, tok); err != nil {
		return s, &FormatError{Field: t.field, Token: tok, Err: err}
	}
	return t.next, nil
}

func applyTag(h *Header, tok string) error {
	switch tok {
	case "P6":
		h.Format = Binary
	case "P3":
		h.Format = PlainText
	default:
		return ErrInvalidTag
	}
	return nil
}

func applyPositive(field func(*Header) *int, fail error) func(*Header, string) error {
	return func(h *Header, tok string) error {
		v, err := strconv.Atoi(tok)
		if err != nil || v <= 0 {
			return fail
		}
		*field(h) = v
		return nil
	}
}

// applyHeight also rejects a width and height whose sample count overflows int.
func applyHeight(h *Header, tok string) error {
	v, err := strconv.Atoi(tok)
	if err != nil || !validDimensions(h.Width, v) {
		return ErrInvalidDimension
	}
	h.Height = v
	return nil
}

func applyMaxColor(h *Header, tok string) error {
	v, err := strconv.Atoi(tok)
	if err != nil || v <= 0 || v > 255 {
		return ErrInvalidMaxColor
	}
	h.MaxColor = v
	return nil
}

// headerScanner splits the header into whitespace separated tokens,
// skipping lines that start with '#'.
type headerScanner struct {
	r       *bufio.Reader
	lineLen int
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func (s *headerScanner) readByte() (byte, error) {
	c, err := s.r.ReadByte()
	if err != nil {
		return 0, err
	}
	if c == '\n' {
		s.lineLen = 0
		return c, nil
	}
	s.lineLen++
	if s.lineLen > MaxLineLength {
		return 0, ErrLineTooLong
	}
	return c, nil
}

func (s *headerScanner) skipLine() error {
	for {
		c, err := s.readByte()
		if err != nil {
			return err
		}
		if c == '\n' {
			return nil
		}
	}
}

// next returns the next token. The whitespace byte terminating the token is
// consumed, so after the last header token the reader is positioned at the
// first pixel byte.
func (s *headerScanner) next() (string, error) {
	var tok []byte
	for {
		lineStart := s.lineLen == 0
		c, err := s.readByte()
		if err != nil {
			if err == io.EOF {
				if len(tok) > 0 {
					return string(tok), nil
				}
				return "", ErrTruncatedHeader
			}
			return "", err
		}
		if lineStart && c == '#' && len(tok) == 0 {
			if err := s.skipLine(); err != nil {
				if err == io.EOF {
					return "", ErrTruncatedHeader
				}
				return "", err
			}
			continue
		}
		if isSpace(c) {
			if len(tok) > 0 {
				return string(tok), nil
			}
			continue
		}
		tok = append(tok, c)
	}
}

// ReadHeader parses the header from r, leaving r positioned at the first
// byte of pixel data.
func ReadHeader(r *bufio.Reader) (Header, error) {
	var h Header
	s := &headerScanner{r: r}
	state := stateTag
	for state != statePixels {
		tok, err := s.next()
		if err != nil {
			return Header{}, headerError(state, err)
		}
		if state, err = state.step(&h, tok); err != nil {
			return Header{}, err
		}
	}
	return h, nil
}

func headerError(state headerState, err error) error {
	field := "header"
	if state < statePixels {
		field = headerTransitions[state].field
	}
	switch {
	case errors.Is(err, ErrLineTooLong), errors.Is(err, ErrTruncatedHeader):
		return &FormatError{Field: field, Err: err}
	}
	return &IOError{Op: "read", Err: err}
}
