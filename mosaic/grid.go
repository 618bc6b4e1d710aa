package mosaic

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrTileSize        = errors.New("mosaic: invalid tile size")
	ErrDestinationSize = errors.New("mosaic: destination buffer size does not match image")
	ErrSourceSize      = errors.New("mosaic: source buffer size does not match image")
)

// TileSizeError reports a tile size that is not positive or does not fit
// inside the image.
type TileSizeError struct {
	TileSize int
	Width    int
	Height   int
}

func (e *TileSizeError) Error() string {
	switch {
	case e.TileSize <= 0:
		return fmt.Sprintf("mosaic: tile size %d must be positive", e.TileSize)
	case e.TileSize > e.Width && e.TileSize > e.Height:
		return fmt.Sprintf("mosaic: tile size %d is greater than the width/height (%dx%d)", e.TileSize, e.Width, e.Height)
	case e.TileSize > e.Width:
		return fmt.Sprintf("mosaic: tile size %d is greater than the width %d", e.TileSize, e.Width)
	}
	return fmt.Sprintf("mosaic: tile size %d is greater than the height %d", e.TileSize, e.Height)
}

// Is makes errors.Is(err, ErrTileSize) match.
func (e *TileSizeError) Is(target error) bool {
	return target == ErrTileSize
}

// Tile is one cell of the grid. X, Y are the pixel coordinates of its top
// left corner; Width and Height are clipped to the image edges.
type Tile struct {
	Row, Col      int
	X, Y          int
	Width, Height int
}

// Area returns the number of pixels covered by the tile.
func (t Tile) Area() int {
	return t.Width * t.Height
}

// Grid partitions a Width x Height image into TileSize squares. The last
// column and row hold partial tiles when the dimensions are not multiples of
// TileSize.
type Grid struct {
	Width, Height int
	TileSize      int
	Cols, Rows    int
}

// NewGrid validates tileSize against the image dimensions.
func NewGrid(width, height, tileSize int) (Grid, error) {
	if tileSize <= 0 || tileSize > width || tileSize > height {
		return Grid{}, &TileSizeError{TileSize: tileSize, Width: width, Height: height}
	}
	return Grid{
		Width:    width,
		Height:   height,
		TileSize: tileSize,
		Cols:     (width + tileSize - 1) / tileSize,
		Rows:     (height + tileSize - 1) / tileSize,
	}, nil
}

// Len returns the number of tiles.
func (g Grid) Len() int {
	return g.Cols * g.Rows
}

// Tile returns the tile at (row, col).
func (g Grid) Tile(row, col int) Tile {
	t := Tile{
		Row:    row,
		Col:    col,
		X:      col * g.TileSize,
		Y:      row * g.TileSize,
		Width:  g.TileSize,
		Height: g.TileSize,
	}
	if t.X+t.Width > g.Width {
		t.Width = g.Width - t.X
	}
	if t.Y+t.Height > g.Height {
		t.Height = g.Height - t.Y
	}
	return t
}

// Partial reports whether t was clipped by the image edge.
func (g Grid) Partial(t Tile) bool {
	return t.Width < g.TileSize || t.Height < g.TileSize
}

// Tiles returns every tile in row-major order.
func (g Grid) Tiles() []Tile {
	tiles := make([]Tile, 0, g.Len())
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			tiles = append(tiles, g.Tile(row, col))
		}
	}
	return tiles
}
