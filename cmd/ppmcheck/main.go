// ppmcheck validates PPM files.
//
// Usage:
//
//	ppmcheck [-q|--quiet] [-s|--strict] [-j N] <filename> [<filename> ...]
//
// Options:
//
//	-q, --quiet   Only output errors. Exit code indicates pass/fail.
//	-s, --strict  Also flag unusual max color values and unused range.
//	-j N          Validate N files at a time (default: one per CPU).
//	-h, --help    Show this help message.
//	--version     Show version information.
//
// Exit codes:
//
//	0: All files valid
//	1: One or more files invalid
//	2: Error (file not found, etc.)
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mrjoshuak/go-ppmmosaic/ppmutil"
)

const version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	quiet := false
	strict := false
	workers := 0
	files := []string{}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "-q", "--quiet":
			quiet = true
		case "-s", "--strict":
			strict = true
		case "-j":
			i++
			if i == len(args) {
				fmt.Fprintln(stderr, "Error: -j requires a value")
				return 2
			}
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 0 {
				fmt.Fprintf(stderr, "Error: invalid worker count: %s\n", args[i])
				return 2
			}
			workers = n
		case "-h", "--help":
			printUsage(stdout)
			return 0
		case "--version":
			fmt.Fprintf(stdout, "ppmcheck version %s\n", version)
			return 0
		default:
			if strings.HasPrefix(arg, "-") {
				fmt.Fprintf(stderr, "Unknown option: %s\n", arg)
				printUsage(stderr)
				return 2
			}
			files = append(files, arg)
		}
	}

	if len(files) == 0 {
		fmt.Fprintln(stderr, "Error: No input files specified")
		printUsage(stderr)
		return 2
	}

	results, _ := ppmutil.ValidateFiles(files, strict, workers)

	validCount := 0
	errorOccurred := false
	for _, result := range results {
		if result.Valid {
			validCount++
		}
		if result.Unreadable {
			errorOccurred = true
		}
		if !quiet {
			printResult(stdout, result)
			continue
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(stderr, "%s: %s\n", result.Path, msg)
		}
	}

	if len(files) > 1 && !quiet {
		fmt.Fprintf(stdout, "\nSummary: %d of %d files valid\n", validCount, len(files))
	}

	if errorOccurred {
		return 2
	}
	if validCount < len(files) {
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: ppmcheck [options] <filename> [<filename> ...]

Validate PPM (P3/P6) files, optionally gzip, zlib or zstd compressed.

Options:
  -q, --quiet    Only output errors. Exit code indicates pass/fail.
  -s, --strict   Also flag unusual max color values and unused range.
  -j N           Validate N files at a time (default: one per CPU).
  -h, --help     Show this help message.
  --version      Show version information.

Exit codes:
  0: All files valid
  1: One or more files invalid
  2: Error (file not found, permission denied, etc.)

Examples:
  ppmcheck image.ppm                  Validate a single file
  ppmcheck -q *.ppm                   Validate all PPM files silently
  ppmcheck -s image.ppm.gz            Validate with strict mode`)
}

func printResult(w io.Writer, result *ppmutil.ValidationResult) {
	if result.Valid {
		fmt.Fprintf(w, "%s: OK\n", result.Path)
	} else {
		fmt.Fprintf(w, "%s: INVALID\n", result.Path)
	}
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "  [ERROR] %s\n", msg)
	}
	for _, msg := range result.Warnings {
		fmt.Fprintf(w, "  [WARNING] %s\n", msg)
	}
}
