package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"log/slog"
	"os"
	"runtime"

	"github.com/esimov/flexhog"
	"github.com/esimov/flexhog/utils"
)

const HelpBanner = `
┌─┐┬  ┌─┐─┐ ┬┬ ┬┌─┐┌─┐
├┤ │  ├┤ ┌┴┬┘├─┤│ ││ ┬
└  ┴─┘└─┘┴ └─┴ ┴└─┘└─┘

Flexible HOG descriptors for arbitrary image windows.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source image, directory or URL")
	destination = flag.String("out", pipeName, "Destination CSV file or directory")
	cellsX      = flag.Int("cx", 8, "Number of cells per window horizontally")
	cellsY      = flag.Int("cy", 16, "Number of cells per window vertically")
	blockSize   = flag.Int("block", 2, "Number of cells per block")
	blockStep   = flag.Int("step", 1, "Block step in cells")
	normName    = flag.String("norm", "L2", "Block normalization (L1, L1Sqrt, L2, L2Hys)")
	numBins     = flag.Int("bins", 9, "Number of orientation bins")
	signed      = flag.Bool("signed", false, "Use signed gradient orientations")
	blurSigma   = flag.Float64("blur", 0, "Gaussian blur sigma applied before computing the gradients")
	newWidth    = flag.Int("width", 0, "Resize the image to the given width before extraction")
	mode        = flag.String("mode", wholeMode, "Window mode (whole, sliding, faces)")
	winWidth    = flag.Int("ww", 64, "Sliding window width")
	winHeight   = flag.Int("wh", 128, "Sliding window height")
	stride      = flag.Int("stride", 32, "Sliding window stride")
	scaleFactor = flag.Float64("scale", 1, "Sliding window scale factor, 1 disables multi scale windows")
	maxScale    = flag.Float64("maxscale", 1, "Maximum sliding window scale")
	cascade     = flag.String("cc", "", "Face cascade classifier, required by the faces mode")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		flexhog.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	norm, err := flexhog.ParseBlockNormalization(*normName)
	if err != nil {
		log.Fatalf(utils.DecorateText("Invalid normalization: %v", utils.ErrorMessage), err)
	}

	proc := &Processor{
		Config: flexhog.Config{
			NumCellsX:      *cellsX,
			NumCellsY:      *cellsY,
			CellsPerBlockX: *blockSize,
			CellsPerBlockY: *blockSize,
			BlockStepX:     *blockStep,
			BlockStepY:     *blockStep,
			Norm:           norm,
		},
		NumBins:     *numBins,
		Signed:      *signed,
		BlurSigma:   *blurSigma,
		NewWidth:    *newWidth,
		Mode:        *mode,
		WindowSize:  image.Pt(*winWidth, *winHeight),
		Stride:      *stride,
		ScaleFactor: *scaleFactor,
		MaxScale:    *maxScale,
		FaceAngle:   *faceAngle,
	}

	if *mode == facesMode {
		if len(*cascade) == 0 {
			log.Fatal(utils.DecorateText("Please specify a face classifier in case you are using the faces mode!", utils.ErrorMessage))
		}
		cf, err := os.ReadFile(*cascade)
		if err != nil {
			log.Fatalf(utils.DecorateText("Could not read the cascade file: %v", utils.ErrorMessage), err)
		}
		proc.Cascade = cf
	}

	if err := proc.Init(); err != nil {
		flag.Usage()
		log.Fatalf(utils.DecorateText("\nInvalid options: %v", utils.ErrorMessage), err)
	}

	proc.Execute(&Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Workers:  *workers,
	})
}
