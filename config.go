package flexhog

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when a strategy is constructed with
// an inconsistent grid configuration.
var ErrInvalidConfig = errors.New("invalid flexhog configuration")

// Config holds the grid parameters of a Strategy. Cell counts are per
// window, not pixels: the pixel size of a cell follows the window size.
type Config struct {
	NumCellsX      int
	NumCellsY      int
	CellsPerBlockX int
	CellsPerBlockY int
	BlockStepX     int
	BlockStepY     int
	Norm           Normalizer
}

// DefaultConfig returns the canonical pedestrian window layout:
// 8x16 cells, 2x2 cells per block, blocks shifted by one cell, L2 normalized.
func DefaultConfig() Config {
	return Config{
		NumCellsX:      8,
		NumCellsY:      16,
		CellsPerBlockX: 2,
		CellsPerBlockY: 2,
		BlockStepX:     1,
		BlockStepY:     1,
		Norm:           L2,
	}
}

// Validate checks that every grid parameter is positive and that a
// block fits inside the cell grid.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"NumCellsX", c.NumCellsX},
		{"NumCellsY", c.NumCellsY},
		{"CellsPerBlockX", c.CellsPerBlockX},
		{"CellsPerBlockY", c.CellsPerBlockY},
		{"BlockStepX", c.BlockStepX},
		{"BlockStepY", c.BlockStepY},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("%s must be positive, got %d: %w", p.name, p.value, ErrInvalidConfig)
		}
	}

	if c.CellsPerBlockX > c.NumCellsX {
		return fmt.Errorf("CellsPerBlockX (%d) exceeds NumCellsX (%d): %w",
			c.CellsPerBlockX, c.NumCellsX, ErrInvalidConfig)
	}
	if c.CellsPerBlockY > c.NumCellsY {
		return fmt.Errorf("CellsPerBlockY (%d) exceeds NumCellsY (%d): %w",
			c.CellsPerBlockY, c.NumCellsY, ErrInvalidConfig)
	}
	return nil
}
