package mosaic

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mrjoshuak/go-ppmmosaic/ppm"
)

// Mode selects which transforms Run executes.
type Mode int

const (
	ModeCPU    Mode = iota // Sequential only
	ModeOpenMP             // Parallel only
	ModeCUDA               // recognised, not implemented
	ModeAll                // both, against the same source
)

// Mode errors
var (
	ErrUnknownMode     = errors.New("mosaic: unknown execution mode")
	ErrModeUnsupported = errors.New("mosaic: execution mode not supported")
	ErrResultMismatch  = errors.New("mosaic: sequential and parallel results differ")
)

func (m Mode) String() string {
	switch m {
	case ModeCPU:
		return "CPU"
	case ModeOpenMP:
		return "OPENMP"
	case ModeCUDA:
		return "CUDA"
	case ModeAll:
		return "ALL"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses CPU, OPENMP, CUDA or ALL, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(s) {
	case "CPU":
		return ModeCPU, nil
	case "OPENMP":
		return ModeOpenMP, nil
	case "CUDA":
		return ModeCUDA, nil
	case "ALL":
		return ModeAll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// Report is the outcome of Run.
type Report struct {
	Mode Mode
	// Sequential and Parallel are nil when the variant did not run.
	Sequential *Stats
	Parallel   *Stats
	// SequentialTime and ParallelTime are the wall-clock durations of each
	// variant.
	SequentialTime time.Duration
	ParallelTime   time.Duration
	// Buffer is the image buffer holding the result to encode.
	Buffer ppm.Buffer
}

// Run executes the transforms selected by mode.
//
// CPU and OPENMP transform img.Pixels in place. ALL allocates img.Output,
// runs Parallel from the untouched Pixels into Output, then Sequential in
// place, and fails with ErrResultMismatch unless both buffers agree. The
// result to encode is then Output.
func Run(img *ppm.Image, mode Mode, opts Options) (*Report, error) {
	if mode == ModeCUDA {
		return nil, fmt.Errorf("%w: %v", ErrModeUnsupported, mode)
	}
	if mode < ModeCPU || mode > ModeAll {
		return nil, fmt.Errorf("%w: %v", ErrUnknownMode, mode)
	}
	if _, err := NewGrid(img.Width, img.Height, opts.TileSize); err != nil {
		return nil, err
	}

	report := &Report{Mode: mode, Buffer: ppm.PixelsBuffer}

	runSequential := func() error {
		start := time.Now()
		stats, err := Sequential(img, img.Pixels, opts)
		report.SequentialTime = time.Since(start)
		if err != nil {
			return err
		}
		report.Sequential = &stats
		return nil
	}
	runParallel := func(dst []byte) error {
		start := time.Now()
		stats, err := Parallel(img, dst, opts)
		report.ParallelTime = time.Since(start)
		if err != nil {
			return err
		}
		report.Parallel = &stats
		return nil
	}

	switch mode {
	case ModeCPU:
		if err := runSequential(); err != nil {
			return nil, err
		}
	case ModeOpenMP:
		if err := runParallel(img.Pixels); err != nil {
			return nil, err
		}
	case ModeAll:
		out, err := img.AllocOutput()
		if err != nil {
			return nil, err
		}
		if err := runParallel(out); err != nil {
			return nil, err
		}
		if err := runSequential(); err != nil {
			return nil, err
		}
		if !bytes.Equal(img.Pixels, out) {
			return report, ErrResultMismatch
		}
		report.Buffer = ppm.OutputBuffer
	}
	return report, nil
}
