// Package ppmutil provides higher-level operations on PPM files.
//
// It offers file information, validation of one or many files, pixel
// comparison and format conversion built on the ppm package.
//
// Example usage:
//
//	info, _ := ppmutil.GetFileInfo("photo.ppm.gz")
//	fmt.Printf("Size: %dx%d, Format: %v\n", info.Width, info.Height, info.Format)
//
//	results, _ := ppmutil.ValidateFiles(paths, true, 0)
package ppmutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-ppmmosaic/internal/parallel"
	"github.com/mrjoshuak/go-ppmmosaic/ppm"
)

// ===========================================
// File Information
// ===========================================

// FileInfo provides a summary of a PPM file.
type FileInfo struct {
	Path        string
	Width       int
	Height      int
	Format      ppm.Format
	MaxColor    int
	Compression ppm.Compression
	FileSize    int64
}

// GetFileInfo returns summary information about a PPM file. Only the header
// is read.
func GetFileInfo(path string) (*FileInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, &ppm.IOError{Op: "stat", Path: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &ppm.IOError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	h, c, err := ppm.DecodeHeader(f)
	if err != nil {
		return nil, fmt.Errorf("ppmutil: %s: %w", path, err)
	}

	return &FileInfo{
		Path:        path,
		Width:       h.Width,
		Height:      h.Height,
		Format:      h.Format,
		MaxColor:    h.MaxColor,
		Compression: c,
		FileSize:    stat.Size(),
	}, nil
}

// ===========================================
// Validation
// ===========================================

// Dimensions above this produce a warning.
const largeDimension = 32768

// ValidationResult contains the results of file validation.
type ValidationResult struct {
	Path       string
	Valid      bool
	Unreadable bool // the file could not be opened or read
	Warnings   []string
	Errors     []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// ValidateFile decodes the file completely and reports what is wrong with it.
//
// Malformed content is reported in the result with a nil error. A non-nil
// error is returned only when the file could not be read at all; the result
// is still filled in.
//
// In strict mode a max color other than 255, binary samples above the max
// color, and images whose samples never reach the max color are flagged.
func ValidateFile(path string, strict bool) (*ValidationResult, error) {
	result := &ValidationResult{Path: path, Valid: true}

	img, err := ppm.DecodeFile(path)
	if err != nil {
		var ioErr *ppm.IOError
		if errors.As(err, &ioErr) {
			result.fail("cannot read file: %v", err)
			result.Unreadable = true
			return result, err
		}
		result.fail("%v", err)
		return result, nil
	}
	defer img.Release()

	if img.Width > largeDimension || img.Height > largeDimension {
		result.warn("very large image dimensions: %dx%d", img.Width, img.Height)
	}
	if !strict {
		return result, nil
	}

	if img.MaxColor != 255 {
		result.warn("max color %d is not 255", img.MaxColor)
	}

	peak, over := 0, 0
	for _, v := range img.Pixels {
		if int(v) > peak {
			peak = int(v)
		}
		if int(v) > img.MaxColor {
			over++
		}
	}
	if over > 0 {
		result.fail("%d samples exceed max color %d", over, img.MaxColor)
	} else if peak < img.MaxColor {
		result.warn("samples never reach max color %d (peak %d)", img.MaxColor, peak)
	}

	return result, nil
}

// ValidateFiles validates paths concurrently on a pool of workers; workers <= 0
// uses one per CPU. Results are returned in the order of paths. The returned
// error is the first read failure in path order, if any.
func ValidateFiles(paths []string, strict bool, workers int) ([]*ValidationResult, error) {
	results := make([]*ValidationResult, len(paths))
	errs := make([]error, len(paths))

	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()

	for i, path := range paths {
		pool.Submit(func() {
			results[i], errs[i] = ValidateFile(path, strict)
		})
	}
	pool.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ===========================================
// Comparison
// ===========================================

// CompareOptions configures file comparison behavior.
type CompareOptions struct {
	Tolerance      int  // Maximum allowed difference per sample
	IgnoreMetadata bool // If true, format and max color are not compared
}

var channelNames = [ppm.Channels]string{"red", "green", "blue"}

// CompareFiles checks if two PPM files have equivalent content.
// Returns true if files match within tolerance, along with any differences found.
func CompareFiles(path1, path2 string, opts CompareOptions) (bool, []string, error) {
	var diffs []string

	img1, err := ppm.DecodeFile(path1)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path1, err)
	}
	defer img1.Release()

	img2, err := ppm.DecodeFile(path2)
	if err != nil {
		return false, nil, fmt.Errorf("cannot open %s: %w", path2, err)
	}
	defer img2.Release()

	if img1.Width != img2.Width || img1.Height != img2.Height {
		diffs = append(diffs, fmt.Sprintf("dimensions differ: %dx%d vs %dx%d",
			img1.Width, img1.Height, img2.Width, img2.Height))
		return false, diffs, nil
	}

	if !opts.IgnoreMetadata {
		if img1.Format != img2.Format {
			diffs = append(diffs, fmt.Sprintf("format differs: %v vs %v", img1.Format, img2.Format))
		}
		if img1.MaxColor != img2.MaxColor {
			diffs = append(diffs, fmt.Sprintf("max color differs: %d vs %d", img1.MaxColor, img2.MaxColor))
		}
	}

	var diffCount, maxDiff [ppm.Channels]int
	for i := range img1.Pixels {
		diff := int(img1.Pixels[i]) - int(img2.Pixels[i])
		if diff < 0 {
			diff = -diff
		}
		if diff > opts.Tolerance {
			c := i % ppm.Channels
			diffCount[c]++
			maxDiff[c] = max(maxDiff[c], diff)
		}
	}
	for c, n := range diffCount {
		if n > 0 {
			diffs = append(diffs, fmt.Sprintf("channel %q: %d pixels differ (max diff: %d)",
				channelNames[c], n, maxDiff[c]))
		}
	}

	return len(diffs) == 0, diffs, nil
}

// ===========================================
// Conversion Utilities
// ===========================================

// ConvertFormat reads a PPM file and writes it with the encoding in opts.
// When opts.Compression is unset it is chosen from the output file name.
func ConvertFormat(input, output string, opts ppm.EncodeOptions) error {
	img, err := ppm.DecodeFile(input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	defer img.Release()

	if opts.Compression == ppm.CompressionNone {
		opts.Compression = ppm.CompressionForPath(output)
	}
	opts.Buffer = ppm.PixelsBuffer
	return ppm.EncodeFile(output, img, opts)
}
