package ppm

import (
	"bytes"
	"testing"
)

// FuzzDecode checks that arbitrary input never panics and that any
// successfully decoded image is complete and survives a round trip.
func FuzzDecode(f *testing.F) {
	f.Add([]byte("P6\n2\n1\n255\n\x01\x02\x03\x04\x05\x06"))
	f.Add([]byte("P3\n# c\n2 1\n255\n1 2 3 4 5 6\n"))
	f.Add([]byte("P3 1 1 9 10 1 1"))
	f.Add([]byte("P6\n99999\n99999\n255\n"))
	f.Add([]byte("#" + string(bytes.Repeat([]byte("x"), 200))))
	f.Add([]byte{0x1f, 0x8b, 0x08, 0x00})
	f.Add([]byte{0x28, 0xb5, 0x2f, 0xfd})

	f.Fuzz(func(t *testing.T, data []byte) {
		pool := NewBufferPoolWithLimit(16 << 20)
		img, err := decode(pool, bytes.NewReader(data))
		if err != nil {
			return
		}
		defer img.Release()

		if len(img.Pixels) != img.Size() {
			t.Fatalf("len(Pixels) = %d, Size = %d", len(img.Pixels), img.Size())
		}

		var buf bytes.Buffer
		if err := Encode(&buf, img, EncodeOptions{Format: img.Format}); err != nil {
			t.Fatalf("Encode: %v", err)
		}
		again, err := decode(pool, &buf)
		if err != nil {
			t.Fatalf("re-decode: %v", err)
		}
		defer again.Release()
		if !bytes.Equal(again.Pixels, img.Pixels) {
			t.Fatal("round trip changed pixels")
		}
	})
}
