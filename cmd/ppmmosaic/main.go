// ppmmosaic pixelates a PPM image by replacing square cells with their
// average color.
//
// Usage:
//
//	ppmmosaic C M -i input_file -o output_file [options]
//
// Arguments:
//
//	C               mosaic cell size, a positive power of two
//	M               execution mode: CPU, OPENMP, CUDA or ALL
//	-i input_file   input image file
//	-o output_file  output image file; a .gz, .zz or .zst suffix compresses it
//
// Options:
//
//	-f format       PPM_BINARY (default) or PPM_PLAIN_TEXT
//	-j workers      worker goroutines for OPENMP and ALL (default: one per CPU)
//	-m bytes        pixel buffer memory limit (default: unlimited)
//	-version        show version information
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mrjoshuak/go-ppmmosaic/mosaic"
	"github.com/mrjoshuak/go-ppmmosaic/ppm"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type config struct {
	tileSize int
	mode     mosaic.Mode
	input    string
	output   string
	format   ppm.Format
	workers  int
	memLimit int64
}

func usage(w io.Writer) {
	fmt.Fprintf(w, `Usage: ppmmosaic C M -i input_file -o output_file [options]

where:
  C               Is the mosaic cell size which should be any positive
                  power of 2 number
  M               Is the mode with a value of either CPU, OPENMP, CUDA or
                  ALL. The mode specifies which version of the mosaic
                  implementation will be executed
  -i input_file   Specifies an input image file
  -o output_file  Specifies an output image file which will be used
                  to write the mosaic image. A .gz, .zz or .zst suffix
                  compresses the output

Options:
  -f ppm_format   PPM image output format either PPM_BINARY (default) or
                  PPM_PLAIN_TEXT
  -j workers      Number of worker goroutines (default: one per CPU)
  -m bytes        Pixel buffer memory limit in bytes (default: unlimited)
  -version        Show version information
`)
}

// parseArgs returns ok=false with exit status set when run should stop.
func parseArgs(args []string, stdout, stderr io.Writer) (cfg config, status int, ok bool) {
	if len(args) == 1 && (args[0] == "-version" || args[0] == "--version") {
		fmt.Fprintf(stdout, "ppmmosaic version %s\n", version)
		return cfg, 0, false
	}
	if len(args) == 1 && (args[0] == "-h" || args[0] == "-help" || args[0] == "--help") {
		usage(stdout)
		return cfg, 0, false
	}
	if len(args) < 6 {
		fmt.Fprintln(stderr, "Error: Missing program arguments. Correct usage is...")
		usage(stderr)
		return cfg, 1, false
	}

	size, err := strconv.Atoi(args[0])
	if err != nil || size <= 0 {
		fmt.Fprintln(stderr, "Error: Mosaic cell size argument 'C' must be greater than 0")
		return cfg, 1, false
	}
	if size&(size-1) != 0 {
		fmt.Fprintln(stderr, "Error: Block size has to be a power of 2")
		return cfg, 1, false
	}
	cfg.tileSize = size
	fmt.Fprintf(stdout, "Info: Block size -> %d\n", size)

	mode, err := mosaic.ParseMode(args[1])
	if err != nil {
		fmt.Fprintln(stderr, "Error: Not a recognized mode. Will use the default one -> CPU")
		mode = mosaic.ModeCPU
	}
	cfg.mode = mode
	fmt.Fprintf(stdout, "Info: Execution mode -> %v\n", mode)

	fs := flag.NewFlagSet("ppmmosaic", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { usage(stderr) }
	input := fs.String("i", "", "input image file")
	output := fs.String("o", "", "output image file")
	format := fs.String("f", "", "output format: PPM_BINARY or PPM_PLAIN_TEXT")
	workers := fs.Int("j", 0, "worker goroutines")
	memLimit := fs.Int64("m", 0, "pixel buffer memory limit in bytes")
	if err := fs.Parse(args[2:]); err != nil {
		return cfg, 1, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: Unexpected argument %q\n", fs.Arg(0))
		return cfg, 1, false
	}

	if *input == "" {
		fmt.Fprintln(stderr, "Error: Expected -i argument followed by input image file name")
		return cfg, 1, false
	}
	cfg.input = *input
	fmt.Fprintf(stdout, "Info: Input file -> %s\n", cfg.input)

	if *output == "" {
		fmt.Fprintln(stderr, "Error: Expected -o argument followed by output image file name")
		return cfg, 1, false
	}
	cfg.output = *output
	fmt.Fprintf(stdout, "Info: Output file -> %s\n", cfg.output)

	cfg.format = ppm.Binary
	if *format != "" {
		f, err := ppm.ParseFormat(*format)
		if err != nil {
			fmt.Fprintln(stderr, "Error: Not a recognized output format. Will use the default one -> PPM_BINARY")
		} else {
			cfg.format = f
		}
	}
	fmt.Fprintf(stdout, "Info: Output format -> %s\n", formatName(cfg.format))

	if *workers < 0 || *memLimit < 0 {
		fmt.Fprintln(stderr, "Error: -j and -m must not be negative")
		return cfg, 1, false
	}
	cfg.workers = *workers
	cfg.memLimit = *memLimit

	return cfg, 0, true
}

func formatName(f ppm.Format) string {
	if f == ppm.PlainText {
		return "PPM_PLAIN_TEXT"
	}
	return "PPM_BINARY"
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, status, ok := parseArgs(args, stdout, stderr)
	if !ok {
		return status
	}

	if cfg.memLimit > 0 {
		prev := ppm.SetGlobalMemoryLimit(cfg.memLimit)
		defer ppm.SetGlobalMemoryLimit(prev)
	}

	img, err := ppm.DecodeFile(cfg.input)
	if err != nil {
		reportDecodeError(stderr, err)
		return 1
	}
	defer img.Release()
	fmt.Fprintf(stdout, "Image width is %d and height is %d\n", img.Width, img.Height)

	report, err := mosaic.Run(img, cfg.mode, mosaic.Options{TileSize: cfg.tileSize, Workers: cfg.workers})
	if err != nil {
		switch {
		case errors.Is(err, mosaic.ErrModeUnsupported):
			fmt.Fprintf(stderr, "Error: %v is not implemented\n", cfg.mode)
		case errors.Is(err, mosaic.ErrTileSize):
			fmt.Fprintf(stderr, "Error: %v\n", err)
		default:
			printReport(stdout, report)
			fmt.Fprintf(stderr, "Error: %v\n", err)
		}
		return 1
	}
	printReport(stdout, report)

	opts := ppm.EncodeOptions{
		Format:      cfg.format,
		Buffer:      report.Buffer,
		Compression: ppm.CompressionForPath(cfg.output),
	}
	if err := ppm.EncodeFile(cfg.output, img, opts); err != nil {
		fmt.Fprintf(stderr, "Error: Could not write all the pixels: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "Info: Your %s file was successfully created\n", cfg.output)
	return 0
}

func reportDecodeError(w io.Writer, err error) {
	if n, ok := ppm.Consumed(err); ok {
		fmt.Fprintf(w, "Error: Could not read all the pixels (%d read): %v\n", n, err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

func printReport(w io.Writer, r *mosaic.Report) {
	if r == nil {
		return
	}
	if s := r.Sequential; s != nil {
		red, green, blue := s.Average.Truncated()
		fmt.Fprintf(w, "CPU Average image colour red = %d, green = %d, blue = %d\n", red, green, blue)
		fmt.Fprintf(w, "CPU mode execution time took %s\n", formatDuration(r.SequentialTime))
	}
	if s := r.Parallel; s != nil {
		red, green, blue := s.Average.Rounded()
		fmt.Fprintf(w, "OPENMP Average image colour red = %d, green = %d, blue = %d\n", red, green, blue)
		fmt.Fprintf(w, "OPENMP mode execution time took %s\n", formatDuration(r.ParallelTime))
	}
}

func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%d s and %d ms", int(d/time.Second), int((d%time.Second)/time.Millisecond))
}
