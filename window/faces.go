package window

import (
	"errors"
	"fmt"
	"image"

	"github.com/esimov/flexhog"
	"github.com/esimov/flexhog/utils"
	pigo "github.com/esimov/pigo/core"
)

// ErrInvalidCascade is returned for a cascade file too short to be unpacked.
var ErrInvalidCascade = errors.New("invalid face cascade")

// FaceFinder detects faces and returns their bounding squares, so the
// descriptor can be computed for each detected face.
type FaceFinder struct {
	MinSize     int
	ShiftFactor float64
	ScaleFactor float64
	IoU         float64
	// Threshold is the minimum detection score a face must reach.
	Threshold float32
	Angle     float64

	classifier *pigo.Pigo
}

// NewFaceFinder unpacks the pigo cascade file.
func NewFaceFinder(cascade []byte) (*FaceFinder, error) {
	// The header holds the tree depth and the number of trees.
	if len(cascade) < 16 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidCascade, len(cascade))
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("error unpacking the cascade file: %w", err)
	}

	return &FaceFinder{
		MinSize:     20,
		ShiftFactor: 0.1,
		ScaleFactor: 1.1,
		IoU:         0.2,
		Threshold:   5.0,
		classifier:  classifier,
	}, nil
}

// Find returns the face regions of img, relative to the top-left corner of its bounds.
func (f *FaceFinder) Find(img image.Image) []image.Rectangle {
	dx, dy := img.Bounds().Dx(), img.Bounds().Dy()

	params := pigo.CascadeParams{
		MinSize:     f.MinSize,
		MaxSize:     utils.Max(dx, dy),
		ShiftFactor: f.ShiftFactor,
		ScaleFactor: f.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: pigo.RgbToGrayscale(img),
			Rows:   dy,
			Cols:   dx,
			Dim:    dx,
		},
	}
	dets := f.classifier.RunCascade(params, f.Angle)
	dets = f.classifier.ClusterDetections(dets, f.IoU)

	regions := detectionsToRegions(dets, f.Threshold, image.Rect(0, 0, dx, dy))
	flexhog.Logger().Debug("window: faces detected", "candidates", len(dets), "faces", len(regions))

	return regions
}

// detectionsToRegions converts the detections scoring above threshold
// to squares centered on the detection and clipped to bounds.
func detectionsToRegions(dets []pigo.Detection, threshold float32, bounds image.Rectangle) []image.Rectangle {
	var regions []image.Rectangle
	for _, d := range dets {
		if d.Q <= threshold {
			continue
		}
		half := d.Scale / 2
		r := image.Rect(d.Col-half, d.Row-half, d.Col-half+d.Scale, d.Row-half+d.Scale).Intersect(bounds)
		if !r.Empty() {
			regions = append(regions, r)
		}
	}
	return regions
}
