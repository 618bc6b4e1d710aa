package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrjoshuak/go-ppmmosaic/ppm"
)

func writeInput(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img, err := ppm.NewImage(ppm.Binary, w, h, 255)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	for i := range img.Pixels {
		img.Pixels[i] = byte(i * 13)
	}
	path := filepath.Join(dir, "in.ppm")
	if err := ppm.EncodeFile(path, img, ppm.EncodeOptions{}); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunModes(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 32, 16)

	var outputs [][]byte
	for _, mode := range []string{"CPU", "OPENMP", "ALL"} {
		t.Run(mode, func(t *testing.T) {
			out := filepath.Join(dir, mode+".ppm")
			var stdout, stderr bytes.Buffer
			code := run([]string{"8", mode, "-i", in, "-o", out, "-j", "3"}, &stdout, &stderr)
			if code != 0 {
				t.Fatalf("exit %d, stderr: %s", code, stderr.String())
			}
			if !strings.Contains(stdout.String(), "successfully created") {
				t.Errorf("stdout = %q", stdout.String())
			}
			img, err := ppm.DecodeFile(out)
			if err != nil {
				t.Fatal(err)
			}
			outputs = append(outputs, bytes.Clone(img.Pixels))
			img.Release()
		})
	}
	for i := 1; i < len(outputs); i++ {
		if !bytes.Equal(outputs[0], outputs[i]) {
			t.Errorf("output %d differs from CPU output", i)
		}
	}
}

func TestRunAllPrintsBothAverages(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 16, 16)

	var stdout, stderr bytes.Buffer
	if code := run([]string{"4", "ALL", "-i", in, "-o", filepath.Join(dir, "out.ppm")}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}
	for _, want := range []string{"CPU Average image colour", "OPENMP Average image colour", "Execution mode -> ALL"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout.String())
		}
	}
}

func TestRunPlainTextCompressed(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8, 8)
	out := filepath.Join(dir, "out.ppm.zst")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"2", "CPU", "-i", in, "-o", out, "-f", "PPM_PLAIN_TEXT"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}
	img, err := ppm.DecodeFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	if img.Format != ppm.PlainText {
		t.Errorf("Format = %v, want P3", img.Format)
	}
}

func TestRunFallbacks(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8, 8)
	out := filepath.Join(dir, "out.ppm")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"2", "GPU", "-i", in, "-o", out, "-f", "JPEG"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stderr.String(), "default one -> CPU") || !strings.Contains(stderr.String(), "default one -> PPM_BINARY") {
		t.Errorf("stderr = %q", stderr.String())
	}
	img, err := ppm.DecodeFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer img.Release()
	if img.Format != ppm.Binary {
		t.Errorf("Format = %v, want P6", img.Format)
	}
}

func TestRunErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, 8, 4)
	out := filepath.Join(dir, "out.ppm")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing", []string{"4", "CPU"}, "Missing program arguments"},
		{"zero", []string{"0", "CPU", "-i", in, "-o", out}, "greater than 0"},
		{"not a number", []string{"x", "CPU", "-i", in, "-o", out}, "greater than 0"},
		{"power of two", []string{"6", "CPU", "-i", in, "-o", out}, "power of 2"},
		{"no input", []string{"4", "CPU", "-o", out, "-j", "2"}, "Expected -i"},
		{"no output", []string{"4", "CPU", "-i", in, "-j", "2"}, "Expected -o"},
		{"tile too big", []string{"8", "CPU", "-i", in, "-o", out}, "greater than the height"},
		{"cuda", []string{"2", "CUDA", "-i", in, "-o", out}, "not implemented"},
		{"unreadable", []string{"2", "CPU", "-i", filepath.Join(dir, "nope.ppm"), "-o", out}, "Error:"},
		{"memory", []string{"2", "CPU", "-i", in, "-o", out, "-m", "10"}, "memory limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != 1 {
				t.Errorf("exit %d, want 1", code)
			}
			if !strings.Contains(stderr.String(), tt.want) {
				t.Errorf("stderr = %q, want %q", stderr.String(), tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(2345678901); got != "2 s and 345 ms" {
		t.Errorf("formatDuration = %q", got)
	}
}
