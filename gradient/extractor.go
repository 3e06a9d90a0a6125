// Package gradient computes gradient orientation histograms over arbitrary
// rectangles of an image using one integral image per orientation bin.
package gradient

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/esimov/flexhog"
	"github.com/esimov/flexhog/utils"
)

var (
	// ErrInvalidBins is returned when fewer than one orientation bin is requested.
	ErrInvalidBins = errors.New("number of orientation bins must be positive")
	// ErrEmptyImage is returned for images without pixels.
	ErrEmptyImage = errors.New("image has no pixels")
)

var _ flexhog.HistogramSource = (*Extractor)(nil)

// Options configures an Extractor.
type Options struct {
	// NumBins is the number of orientation bins.
	NumBins int
	// Signed spreads the bins over [0, 2π) instead of [0, π).
	Signed bool
	// BlurSigma smooths the image before the gradients are computed. Zero disables it.
	BlurSigma float64
}

// Extractor answers orientation histogram queries for any rectangle of an
// image in constant time per bin. Coordinates are relative to the top-left
// corner of the image bounds.
type Extractor struct {
	width   int
	height  int
	numBins int

	// integrals[b] holds the (width+1)x(height+1) integral image of the
	// gradient magnitudes falling in bin b.
	integrals [][]float64
}

// NewExtractor computes the gradients of img and builds the integral histograms.
func NewExtractor(img image.Image, opts Options) (*Extractor, error) {
	if opts.NumBins < 1 {
		return nil, fmt.Errorf("gradient: %w, got %d", ErrInvalidBins, opts.NumBins)
	}
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("gradient: %w", ErrEmptyImage)
	}

	gray, width, height := grayscale(img, opts.BlurSigma)
	gx, gy := sobel(gray, width, height)

	e := &Extractor{
		width:     width,
		height:    height,
		numBins:   opts.NumBins,
		integrals: make([][]float64, opts.NumBins),
	}
	stride := width + 1
	for b := range e.integrals {
		e.integrals[b] = make([]float64, stride*(height+1))
	}

	span := math.Pi
	if opts.Signed {
		span = 2 * math.Pi
	}

	rowSums := make([]float64, opts.NumBins)
	for y := 0; y < height; y++ {
		for b := range rowSums {
			rowSums[b] = 0
		}
		for x := 0; x < width; x++ {
			i := y*width + x
			mag := math.Hypot(gx[i], gy[i])
			if mag > 0 {
				rowSums[orientationBin(gx[i], gy[i], span, opts.NumBins)] += mag
			}

			off := (y+1)*stride + x + 1
			for b, sum := range rowSums {
				e.integrals[b][off] = e.integrals[b][off-stride] + sum
			}
		}
	}

	flexhog.Logger().Debug("gradient: integral histograms built",
		"width", width,
		"height", height,
		"bins", opts.NumBins,
		"signed", opts.Signed,
	)
	return e, nil
}

// orientationBin maps a gradient to its orientation bin. Unsigned
// orientations fold opposite directions onto each other.
func orientationBin(dx, dy, span float64, numBins int) int {
	theta := math.Atan2(dy, dx)
	if theta < 0 {
		theta += span
	}
	if theta >= span {
		theta -= span
	}

	bin := int(theta / span * float64(numBins))
	if bin >= numBins {
		bin = numBins - 1
	}
	return bin
}

// NumBins returns the number of orientation bins.
func (e *Extractor) NumBins() int {
	return e.numBins
}

// Bounds returns the rectangle covered by the extractor.
func (e *Extractor) Bounds() image.Rectangle {
	return image.Rect(0, 0, e.width, e.height)
}

// ComputeHistogram writes the sum of the gradient magnitudes of every bin
// over the given rectangle into dst. The rectangle is clipped to the image.
// It panics if dst does not have NumBins elements.
func (e *Extractor) ComputeHistogram(x, y, width, height int, dst []float64) {
	if len(dst) != e.numBins {
		panic(fmt.Sprintf("gradient: histogram of length %d, want %d", len(dst), e.numBins))
	}

	x0, y0 := clamp(x, 0, e.width), clamp(y, 0, e.height)
	x1, y1 := clamp(x+width, 0, e.width), clamp(y+height, 0, e.height)

	if x1 <= x0 || y1 <= y0 {
		for b := range dst {
			dst[b] = 0
		}
		return
	}

	stride := e.width + 1
	for b, in := range e.integrals {
		v := in[y1*stride+x1] - in[y0*stride+x1] - in[y1*stride+x0] + in[y0*stride+x0]
		// Cancellation between large prefix sums can leave a tiny negative
		// remainder where the magnitudes sum to zero.
		if v < 0 {
			v = 0
		}
		dst[b] = v
	}
}

func clamp(v, lo, hi int) int {
	return utils.Max(lo, utils.Min(v, hi))
}
