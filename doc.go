/*
Package flexhog computes Histogram of Oriented Gradients descriptors for arbitrary rectangular windows.

Unlike the classic HOG layout, where cells have a fixed pixel size, the cells of a flexhog window
grow or shrink with the window so that their number stays constant. Every window, whatever its size,
therefore produces a descriptor of the same length. Paired with a histogram source backed by integral
images (see the gradient sub-package) the descriptor of any window is obtained without resampling the image.

The package provides a command line interface as well. To check the supported flags type:

	$ flexhog --help

A simple example of using the API:

	package main

	import (
		"fmt"
		"image"

		"github.com/esimov/flexhog"
		"github.com/esimov/flexhog/gradient"
	)

	func main() {
		s, err := flexhog.New(8, 16, 2)
		if err != nil {
			panic(err)
		}
		src, err := gradient.NewExtractor(img, gradient.Options{NumBins: 9})
		if err != nil {
			panic(err)
		}

		desc := s.Extract(src, image.Rect(0, 0, 64, 128), nil)
		fmt.Println(len(desc))
	}
*/
package flexhog
