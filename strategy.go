package flexhog

import (
	"image"
)

var _ SpatialBinner = (*Strategy)(nil)

// Strategy computes HOG descriptors with flexibly sized cells: the number
// of cells in a window is constant and their pixel size grows or shrinks
// with the window. Coupled with an integral histogram source this gives
// the descriptor of any rectangular window at a constant cost.
//
// A Strategy owns mutable buffers and is not safe for concurrent use.
// Use one instance per goroutine.
type Strategy struct {
	cfg Config

	numBlocksX int
	numBlocksY int

	cache *cache
}

// cache holds the buffers sized for a given bin count.
type cache struct {
	numBins     int
	cells       [][]Histogram
	blocks      [][]Histogram
	blockLength int
	blockArea   int
}

// New creates a strategy with square blocks of cellsPerBlock cells that
// overlap by cellsPerBlock-1 cells. Blocks are L2 normalized.
func New(numCellsX, numCellsY, cellsPerBlock int) (*Strategy, error) {
	return NewWithStep(numCellsX, numCellsY, cellsPerBlock, 1, L2)
}

// NewWithNorm creates a strategy with square overlapping blocks shifted
// by one cell and the given block normalization.
func NewWithNorm(numCellsX, numCellsY, cellsPerBlock int, norm Normalizer) (*Strategy, error) {
	return NewWithStep(numCellsX, numCellsY, cellsPerBlock, 1, norm)
}

// NewWithStep creates a strategy with square blocks shifted by blockStep
// cells in both directions.
func NewWithStep(numCellsX, numCellsY, cellsPerBlock, blockStep int, norm Normalizer) (*Strategy, error) {
	return NewFromConfig(Config{
		NumCellsX:      numCellsX,
		NumCellsY:      numCellsY,
		CellsPerBlockX: cellsPerBlock,
		CellsPerBlockY: cellsPerBlock,
		BlockStepX:     blockStep,
		BlockStepY:     blockStep,
		Norm:           norm,
	})
}

// NewFromConfig creates a strategy from an explicit configuration.
// A nil Norm defaults to L2.
func NewFromConfig(cfg Config) (*Strategy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Norm == nil {
		cfg.Norm = L2
	}

	return &Strategy{
		cfg:        cfg,
		numBlocksX: (cfg.NumCellsX - cfg.CellsPerBlockX) / cfg.BlockStepX,
		numBlocksY: (cfg.NumCellsY - cfg.CellsPerBlockY) / cfg.BlockStepY,
	}, nil
}

// Config returns the configuration the strategy was built with.
func (s *Strategy) Config() Config {
	return s.cfg
}

// NumBlocks returns the block grid dimensions.
func (s *Strategy) NumBlocks() (x, y int) {
	return s.numBlocksX, s.numBlocksY
}

// BlockLength returns the length of a block vector for the given bin count.
func (s *Strategy) BlockLength(numBins int) int {
	return numBins * s.cfg.CellsPerBlockX * s.cfg.CellsPerBlockY
}

// DescriptorLength returns the length of the descriptor for the given bin count.
func (s *Strategy) DescriptorLength(numBins int) int {
	return s.numBlocksX * s.numBlocksY * s.BlockLength(numBins)
}

// Extract computes the descriptor of region using the histograms provided
// by src. If out has the expected length it is filled and returned,
// otherwise a new histogram is allocated.
func (s *Strategy) Extract(src HistogramSource, region image.Rectangle, out Histogram) Histogram {
	s.ensureCache(src.NumBins())

	s.computeCells(src, region)
	s.computeBlocks()

	c := s.cache
	size := s.numBlocksX * s.numBlocksY * c.blockLength
	if len(out) != size {
		out = make(Histogram, size)
	}

	for j, k := 0, 0; j < s.numBlocksY; j++ {
		for i := 0; i < s.numBlocksX; i, k = i+1, k+1 {
			block := c.blocks[j][i]
			s.cfg.Norm.Normalize(block, c.blockArea)

			copy(out[k*c.blockLength:(k+1)*c.blockLength], block)
		}
	}
	return out
}

// ensureCache (re)allocates the cell and block buffers when the bin count
// differs from the one they were sized for.
func (s *Strategy) ensureCache(numBins int) {
	if s.cache != nil && s.cache.numBins == numBins {
		return
	}
	cfg := s.cfg

	c := &cache{
		numBins:     numBins,
		cells:       make([][]Histogram, cfg.NumCellsY),
		blocks:      make([][]Histogram, s.numBlocksY),
		blockLength: s.BlockLength(numBins),
		blockArea:   cfg.CellsPerBlockX * cfg.CellsPerBlockY,
	}
	for j := range c.cells {
		c.cells[j] = make([]Histogram, cfg.NumCellsX)
		for i := range c.cells[j] {
			c.cells[j][i] = make(Histogram, numBins)
		}
	}
	for j := range c.blocks {
		c.blocks[j] = make([]Histogram, s.numBlocksX)
		for i := range c.blocks[j] {
			c.blocks[j][i] = make(Histogram, c.blockLength)
		}
	}

	Logger().Debug("flexhog: cache allocated",
		"bins", numBins,
		"cells", cfg.NumCellsX*cfg.NumCellsY,
		"blocks", s.numBlocksX*s.numBlocksY,
		"blockLength", c.blockLength,
	)
	s.cache = c
}

// computeCells fills every cell histogram of the window and L2 normalizes it.
// Cell origins are stepped additively; the truncated cell size means the
// cells may not cover the right and bottom edges of the window.
func (s *Strategy) computeCells(src HistogramSource, region image.Rectangle) {
	cellWidth := region.Dx() / s.cfg.NumCellsX
	cellHeight := region.Dy() / s.cfg.NumCellsY

	for j, y := 0, region.Min.Y; j < s.cfg.NumCellsY; j, y = j+1, y+cellHeight {
		for i, x := 0, region.Min.X; i < s.cfg.NumCellsX; i, x = i+1, x+cellWidth {
			cell := s.cache.cells[j][i]
			src.ComputeHistogram(x, y, cellWidth, cellHeight, cell)
			cell.NormalizeL2()
		}
	}
}

// computeBlocks concatenates the cell histograms of each block.
func (s *Strategy) computeBlocks() {
	cfg := s.cfg
	cells := s.cache.cells

	for y := 0; y < s.numBlocksY; y++ {
		for x := 0; x < s.numBlocksX; x++ {
			block := s.cache.blocks[y][x]

			k := 0
			for j := 0; j < cfg.CellsPerBlockY; j++ {
				for i := 0; i < cfg.CellsPerBlockX; i++ {
					cell := cells[y*cfg.BlockStepY+j][x*cfg.BlockStepX+i]
					k += copy(block[k:], cell)
				}
			}
		}
	}
}
