package gradient

import (
	"image"

	"github.com/disintegration/imaging"
)

// grayscale converts the image to grayscale and returns the luminance of
// every pixel in row-major order. The image is blurred first when sigma is positive.
func grayscale(src image.Image, sigma float64) (pix []float64, width, height int) {
	img := imaging.Grayscale(src)
	if sigma > 0 {
		img = imaging.Blur(img, sigma)
	}
	width, height = img.Bounds().Dx(), img.Bounds().Dy()
	pix = make([]float64, width*height)

	for y := 0; y < height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < width; x++ {
			// R, G and B are equal in a grayscale image.
			pix[y*width+x] = float64(row[x*4])
		}
	}
	return pix, width, height
}
