// Package mosaic pixelates PPM images: every non-overlapping square tile is
// replaced by the integer mean of its pixels, channel by channel.
//
// Two implementations are provided. Sequential walks the tiles in row-major
// order on the calling goroutine; Parallel distributes tile rows across a
// fixed set of workers. Both produce identical pixels for the same input.
// Each call takes an explicit destination buffer, which may be the source
// image's own Pixels for an in-place transform.
package mosaic

import (
	"math"
	"sync/atomic"

	"github.com/mrjoshuak/go-ppmmosaic/internal/parallel"
	"github.com/mrjoshuak/go-ppmmosaic/ppm"
)

// Options configures a transform.
type Options struct {
	// TileSize is the nominal tile edge in pixels.
	TileSize int
	// Workers is the number of goroutines used by Parallel.
	// 0 means runtime.GOMAXPROCS(0).
	Workers int
}

func (o Options) parallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	cfg.NumWorkers = o.Workers
	return cfg
}

// Color is a per-channel average.
type Color struct {
	R, G, B float64
}

// Truncated returns the channels with the fractional part dropped.
func (c Color) Truncated() (r, g, b int) {
	return int(c.R), int(c.G), int(c.B)
}

// Rounded returns the channels rounded to the nearest integer.
func (c Color) Rounded() (r, g, b int) {
	return int(math.Round(c.R)), int(math.Round(c.G)), int(math.Round(c.B))
}

// Stats describes a completed transform.
type Stats struct {
	// Average is the whole-image mean color. Sequential computes the exact
	// mean of all samples; Parallel sums the tile averages weighted by tile
	// area, so the two can differ by less than one unit.
	Average Color
	Grid    Grid
	// PartialTiles counts tiles clipped by the right or bottom edge.
	PartialTiles int
	// Workers is the number of goroutines the tile rows were spread over.
	Workers int
}

// prepare validates buffers and the tile size before any pixel is touched.
func prepare(img *ppm.Image, dst []byte, tileSize int) (Grid, error) {
	if len(img.Pixels) != img.Size() {
		return Grid{}, ErrSourceSize
	}
	if len(dst) != img.Size() {
		return Grid{}, ErrDestinationSize
	}
	return NewGrid(img.Width, img.Height, tileSize)
}

// tileSums returns the channel sums over t.
func tileSums(src []byte, width int, t Tile) (r, g, b uint64) {
	for y := t.Y; y < t.Y+t.Height; y++ {
		row := src[(y*width+t.X)*ppm.Channels : (y*width+t.X+t.Width)*ppm.Channels]
		for i := 0; i < len(row); i += ppm.Channels {
			r += uint64(row[i])
			g += uint64(row[i+1])
			b += uint64(row[i+2])
		}
	}
	return r, g, b
}

// fillTile writes one color to every pixel of t.
func fillTile(dst []byte, width int, t Tile, r, g, b byte) {
	for y := t.Y; y < t.Y+t.Height; y++ {
		row := dst[(y*width+t.X)*ppm.Channels : (y*width+t.X+t.Width)*ppm.Channels]
		for i := 0; i < len(row); i += ppm.Channels {
			row[i] = r
			row[i+1] = g
			row[i+2] = b
		}
	}
}

// averageTile reads t from src, writes its mean to dst and returns the mean.
// The divisor is the clipped tile area.
func averageTile(src, dst []byte, width int, t Tile) (r, g, b byte) {
	sr, sg, sb := tileSums(src, width, t)
	area := uint64(t.Area())
	r, g, b = byte(sr/area), byte(sg/area), byte(sb/area)
	fillTile(dst, width, t, r, g, b)
	return r, g, b
}

// Sequential pixelates img.Pixels into dst on the calling goroutine.
// dst may be img.Pixels. On error no pixel is written.
func Sequential(img *ppm.Image, dst []byte, opts Options) (Stats, error) {
	grid, err := prepare(img, dst, opts.TileSize)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Workers: 1}
	var sumR, sumG, sumB uint64
	for row := 0; row < grid.Rows; row++ {
		for col := 0; col < grid.Cols; col++ {
			t := grid.Tile(row, col)
			if grid.Partial(t) {
				stats.PartialTiles++
			}
			r, g, b := tileSums(img.Pixels, img.Width, t)
			sumR += r
			sumG += g
			sumB += b
			area := uint64(t.Area())
			fillTile(dst, img.Width, t, byte(r/area), byte(g/area), byte(b/area))
		}
	}

	n := float64(img.PixelCount())
	stats.Grid = grid
	stats.Average = Color{R: float64(sumR) / n, G: float64(sumG) / n, B: float64(sumB) / n}
	return stats, nil
}

// Parallel pixelates img.Pixels into dst, assigning whole tile rows to
// workers. Tiles never overlap, so pixel writes need no locking; only the
// global average is shared. dst may be img.Pixels. On error no pixel is
// written.
func Parallel(img *ppm.Image, dst []byte, opts Options) (Stats, error) {
	grid, err := prepare(img, dst, opts.TileSize)
	if err != nil {
		return Stats{}, err
	}

	var acc colorAccumulator
	var partial atomic.Int64
	total := float64(img.PixelCount())
	cfg := opts.parallelConfig()

	parallel.For(cfg, grid.Rows, func(row int) {
		clipped := 0
		for col := 0; col < grid.Cols; col++ {
			t := grid.Tile(row, col)
			if grid.Partial(t) {
				clipped++
			}
			r, g, b := averageTile(img.Pixels, dst, img.Width, t)
			weight := float64(t.Area()) / total
			acc.add(float64(r)*weight, float64(g)*weight, float64(b)*weight)
		}
		if clipped > 0 {
			partial.Add(int64(clipped))
		}
	})

	return Stats{
		Average:      acc.load(),
		Grid:         grid,
		PartialTiles: int(partial.Load()),
		Workers:      cfg.Chunks(grid.Rows),
	}, nil
}
