package gradient

type kernel [3][3]float64

var (
	kernelX = kernel{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	kernelY = kernel{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}
)

// sobel convolves the grayscale pixels with the Sobel kernels and returns
// the horizontal and vertical derivatives. Border pixels are replicated.
// See https://en.wikipedia.org/wiki/Sobel_operator
func sobel(gray []float64, width, height int) (gx, gy []float64) {
	gx = make([]float64, len(gray))
	gy = make([]float64, len(gray))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var sumX, sumY float64
			for ky := 0; ky < 3; ky++ {
				py := clamp(y+ky-1, 0, height-1)
				for kx := 0; kx < 3; kx++ {
					px := clamp(x+kx-1, 0, width-1)
					v := gray[py*width+px]

					sumX += v * kernelX[ky][kx]
					sumY += v * kernelY[ky][kx]
				}
			}
			gx[y*width+x] = sumX
			gy[y*width+x] = sumY
		}
	}
	return gx, gy
}
