package flexhog

import (
	"gonum.org/v1/gonum/floats"
)

// Histogram is a flat vector of bin values. It is used for cell
// histograms, block histograms and the final descriptor.
type Histogram []float64

// Norm returns the Euclidean norm of the histogram.
func (h Histogram) Norm() float64 {
	if len(h) == 0 {
		return 0
	}
	return floats.Norm(h, 2)
}

// NormalizeL2 scales the histogram in place to unit Euclidean length.
// A histogram with zero norm is left untouched.
func (h Histogram) NormalizeL2() {
	if n := h.Norm(); n != 0 {
		floats.Scale(1/n, h)
	}
}

// NormalizeL1 scales the histogram in place so that the absolute
// values of its bins sum up to one. A zero histogram is left untouched.
func (h Histogram) NormalizeL1() {
	if len(h) == 0 {
		return
	}
	if n := floats.Norm(h, 1); n != 0 {
		floats.Scale(1/n, h)
	}
}
