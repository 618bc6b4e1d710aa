package ppm

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"
)

func TestEncodeExactBytes(t *testing.T) {
	img, err := NewImage(PlainText, 2, 1, 200)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	copy(img.Pixels, []byte{1, 22, 133, 4, 0, 200})

	tests := []struct {
		format Format
		want   []byte
	}{
		{PlainText, []byte("P3\n2\n1\n200\n1 22 133 4 0 200 ")},
		{Binary, append([]byte("P6\n2\n1\n200\n"), 1, 22, 133, 4, 0, 200)},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := Encode(&buf, img, EncodeOptions{Format: tt.format}); err != nil {
			t.Fatalf("Encode(%v): %v", tt.format, err)
		}
		if !bytes.Equal(buf.Bytes(), tt.want) {
			t.Errorf("Encode(%v) = %q, want %q", tt.format, buf.Bytes(), tt.want)
		}
	}
}

// The output format does not follow the decoded tag.
func TestEncodeDefaultsToBinary(t *testing.T) {
	img, err := NewImage(PlainText, 1, 1, 255)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()

	var buf bytes.Buffer
	if err := Encode(&buf, img, EncodeOptions{}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("P6\n")) {
		t.Errorf("output starts with %q, want P6", buf.Bytes()[:3])
	}
}

func TestEncodeOutputBuffer(t *testing.T) {
	img := newTestImage(t, 3, 2)
	defer img.Release()

	var buf bytes.Buffer
	err := Encode(&buf, img, EncodeOptions{Format: Binary, Buffer: OutputBuffer})
	if !errors.Is(err, ErrNoOutputBuffer) {
		t.Fatalf("err = %v, want ErrNoOutputBuffer", err)
	}

	out, err := img.AllocOutput()
	if err != nil {
		t.Fatal(err)
	}
	for i := range out {
		out[i] = 0xaa
	}

	buf.Reset()
	if err := Encode(&buf, img, EncodeOptions{Format: Binary, Buffer: OutputBuffer}); err != nil {
		t.Fatal(err)
	}
	body := buf.Bytes()[len("P6\n3\n2\n255\n"):]
	if !bytes.Equal(body, out) {
		t.Error("encoded body is not the output buffer")
	}

	buf.Reset()
	if err := Encode(&buf, img, EncodeOptions{Format: Binary, Buffer: PixelsBuffer}); err != nil {
		t.Fatal(err)
	}
	body = buf.Bytes()[len("P6\n3\n2\n255\n"):]
	if !bytes.Equal(body, img.Pixels) {
		t.Error("encoded body is not the pixel buffer")
	}
}

func TestEncodeRejectsMismatchedBuffer(t *testing.T) {
	img := newTestImage(t, 2, 2)
	defer img.Release()
	img.Pixels = img.Pixels[:5]

	err := Encode(&bytes.Buffer{}, img, EncodeOptions{})
	if !errors.Is(err, ErrBufferSize) {
		t.Errorf("err = %v, want ErrBufferSize", err)
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	img := newTestImage(t, 1, 1)
	defer img.Release()

	err := Encode(&bytes.Buffer{}, img, EncodeOptions{Format: Format(5)})
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("err = %v, want ErrUnknownFormat", err)
	}
}

type failingWriter struct {
	limit int
	n     int
}

var errDiskFull = errors.New("disk full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.n+len(p) > w.limit {
		k := w.limit - w.n
		w.n = w.limit
		return k, errDiskFull
	}
	w.n += len(p)
	return len(p), nil
}

func TestEncodeWriteFailure(t *testing.T) {
	img := newTestImage(t, 64, 64)
	defer img.Release()

	for _, format := range []Format{Binary, PlainText} {
		err := Encode(&failingWriter{limit: 100}, img, EncodeOptions{Format: format})
		var ioe *IOError
		if !errors.As(err, &ioe) {
			t.Fatalf("%v: err = %v, want *IOError", format, err)
		}
		if !errors.Is(err, errDiskFull) {
			t.Errorf("%v: err does not wrap the writer error", format)
		}
	}
}

func TestEncodeFileCreateFailure(t *testing.T) {
	img := newTestImage(t, 1, 1)
	defer img.Release()

	path := filepath.Join(t.TempDir(), "missing", "out.ppm")
	err := EncodeFile(path, img, EncodeOptions{})
	var ioe *IOError
	if !errors.As(err, &ioe) {
		t.Fatalf("err = %v, want *IOError", err)
	}
	if ioe.Op != "create" || ioe.Path != path {
		t.Errorf("IOError = %+v", ioe)
	}
}

func TestEncodeFileRoundTrip(t *testing.T) {
	src := newTestImage(t, 5, 9)
	defer src.Release()

	path := filepath.Join(t.TempDir(), "out.ppm")
	if err := EncodeFile(path, src, EncodeOptions{Format: PlainText}); err != nil {
		t.Fatalf("EncodeFile: %v", err)
	}
	got, err := DecodeFile(path)
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	defer got.Release()
	if !bytes.Equal(got.Pixels, src.Pixels) {
		t.Error("pixels differ")
	}
}
