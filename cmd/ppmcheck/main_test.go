package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunExitCodes(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ppm", "P3\n1\n1\n255\n0 128 255\n")
	bad := writeFile(t, dir, "bad.ppm", "P3\n1\n1\n255\n0 128\n")
	missing := filepath.Join(dir, "missing.ppm")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"valid", []string{good}, 0},
		{"invalid", []string{good, bad}, 1},
		{"missing", []string{good, missing}, 2},
		{"missing and invalid", []string{bad, missing, "-j", "1"}, 2},
		{"no files", []string{"-q"}, 2},
		{"unknown option", []string{"-x", good}, 2},
		{"bad worker count", []string{"-j", "many", good}, 2},
		{"help", []string{"-h"}, 0},
		{"version", []string{"--version"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tt.args, &stdout, &stderr); code != tt.code {
				t.Errorf("exit %d, want %d\nstdout: %s\nstderr: %s", code, tt.code, stdout.String(), stderr.String())
			}
		})
	}
}

func TestRunOutput(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ppm", "P3\n1\n1\n255\n0 128 255\n")
	bad := writeFile(t, dir, "bad.ppm", "P3\n1\n1\n255\n0 128 300\n")

	var stdout, stderr bytes.Buffer
	run([]string{good, bad}, &stdout, &stderr)
	out := stdout.String()
	for _, want := range []string{good + ": OK", bad + ": INVALID", "[ERROR]", "Summary: 1 of 2 files valid"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q:\n%s", want, out)
		}
	}
}

func TestRunQuiet(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.ppm", "P6\n1\n1\n255\n\x00\x80\xff")
	bad := writeFile(t, dir, "bad.ppm", "P6\n0\n1\n255\n")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-q", good, bad}, &stdout, &stderr); code != 1 {
		t.Errorf("exit %d, want 1", code)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet mode wrote to stdout: %q", stdout.String())
	}
	if !strings.HasPrefix(stderr.String(), bad+": ") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestRunStrict(t *testing.T) {
	dir := t.TempDir()
	dim := writeFile(t, dir, "dim.ppm", "P3\n1\n1\n15\n1 2 3\n")

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-s", dim}, &stdout, &stderr); code != 0 {
		t.Errorf("exit %d, want 0", code)
	}
	if !strings.Contains(stdout.String(), "[WARNING] max color 15 is not 255") {
		t.Errorf("stdout = %q", stdout.String())
	}
}
