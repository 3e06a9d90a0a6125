package flexhog

import "image"

// HistogramSource computes orientation histograms over arbitrary pixel
// rectangles of a single image, typically backed by integral histograms.
type HistogramSource interface {
	// NumBins returns the number of orientation bins per histogram.
	NumBins() int

	// ComputeHistogram accumulates the histogram of the given rectangle
	// into dst, overwriting its contents. len(dst) must equal NumBins().
	ComputeHistogram(x, y, width, height int, dst []float64)
}

// SpatialBinner turns the histograms of a window into a fixed length
// feature vector. The output buffer is reused when it has the right length.
type SpatialBinner interface {
	Extract(src HistogramSource, region image.Rectangle, out Histogram) Histogram
}
