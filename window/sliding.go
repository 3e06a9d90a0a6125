// Package window generates the candidate regions a descriptor is computed for.
package window

import (
	"image"
	"math"
)

// Sliding returns every window of the given size that fits inside bounds,
// moving by stride pixels. Windows are listed row by row.
func Sliding(bounds image.Rectangle, size, stride image.Point) []image.Rectangle {
	if size.X <= 0 || size.Y <= 0 || stride.X <= 0 || stride.Y <= 0 {
		return nil
	}
	if size.X > bounds.Dx() || size.Y > bounds.Dy() {
		return nil
	}

	var windows []image.Rectangle
	for y := bounds.Min.Y; y+size.Y <= bounds.Max.Y; y += stride.Y {
		for x := bounds.Min.X; x+size.X <= bounds.Max.X; x += stride.X {
			windows = append(windows, image.Rectangle{
				Min: image.Pt(x, y),
				Max: image.Pt(x+size.X, y+size.Y),
			})
		}
	}
	return windows
}

// MultiScale slides windows at increasing scales. The window size and the
// stride are multiplied by scaleFactor at every level until maxScale is
// exceeded or the window no longer fits. Since flexhog cells follow the
// window size, the image itself is never resampled.
func MultiScale(bounds image.Rectangle, size, stride image.Point, scaleFactor, maxScale float64) []image.Rectangle {
	if scaleFactor <= 1 {
		return Sliding(bounds, size, stride)
	}

	var windows []image.Rectangle
	for scale := 1.0; scale <= maxScale; scale *= scaleFactor {
		s := scalePoint(size, scale)
		if s.X > bounds.Dx() || s.Y > bounds.Dy() {
			break
		}
		windows = append(windows, Sliding(bounds, s, scalePoint(stride, scale))...)
	}
	return windows
}

func scalePoint(p image.Point, scale float64) image.Point {
	return image.Pt(
		int(math.Round(float64(p.X)*scale)),
		int(math.Round(float64(p.Y)*scale)),
	)
}
