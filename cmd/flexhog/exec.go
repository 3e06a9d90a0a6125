package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/disintegration/imaging"
	"github.com/esimov/flexhog"
	"github.com/esimov/flexhog/gradient"
	"github.com/esimov/flexhog/utils"
	"github.com/esimov/flexhog/window"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	"golang.org/x/term"
)

// Window modes.
const (
	wholeMode   = "whole"
	slidingMode = "sliding"
	facesMode   = "faces"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

// validExtensions lists the supported image files.
var validExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".gif", ".webp"}

// Processor holds the descriptor and window options.
type Processor struct {
	Config      flexhog.Config
	NumBins     int
	Signed      bool
	BlurSigma   float64
	NewWidth    int
	Mode        string
	WindowSize  image.Point
	Stride      int
	ScaleFactor float64
	MaxScale    float64
	Cascade     []byte
	FaceAngle   float64

	faces *window.FaceFinder
}

// Ops holds the source and destination of an execution.
type Ops struct {
	Src, Dst, PipeName string
	Workers            int
}

// result holds the relevant information about the processed image.
type result struct {
	path string
	err  error
}

// Init validates the options and loads the face classifier when needed.
func (p *Processor) Init() error {
	if err := p.Config.Validate(); err != nil {
		return err
	}
	if p.NumBins < 1 {
		return fmt.Errorf("%w, got %d", gradient.ErrInvalidBins, p.NumBins)
	}

	switch p.Mode {
	case wholeMode:
	case slidingMode:
		if p.WindowSize.X <= 0 || p.WindowSize.Y <= 0 || p.Stride <= 0 {
			return errors.New("window size and stride must be positive")
		}
	case facesMode:
		ff, err := window.NewFaceFinder(p.Cascade)
		if err != nil {
			return err
		}
		ff.Angle = p.FaceAngle
		p.faces = ff
	default:
		return fmt.Errorf("unknown window mode: %q", p.Mode)
	}
	return nil
}

// newStrategy returns a strategy owned by a single worker.
func (p *Processor) newStrategy() (*flexhog.Strategy, error) {
	return flexhog.NewFromConfig(p.Config)
}

// regions returns the windows to describe.
func (p *Processor) regions(img image.Image, bounds image.Rectangle) []image.Rectangle {
	switch p.Mode {
	case slidingMode:
		return window.MultiScale(bounds, p.WindowSize, image.Pt(p.Stride, p.Stride), p.ScaleFactor, p.MaxScale)
	case facesMode:
		return p.faces.Find(img)
	default:
		return []image.Rectangle{bounds}
	}
}

// describe computes the descriptor of every region of img and hands it to fn.
// The descriptor buffer is reused between the calls of fn.
func (p *Processor) describe(img image.Image, s *flexhog.Strategy, fn func(image.Rectangle, flexhog.Histogram) error) error {
	if p.NewWidth > 0 {
		img = imaging.Resize(img, p.NewWidth, 0, imaging.Lanczos)
	} else {
		img = imaging.Clone(img)
	}

	e, err := gradient.NewExtractor(img, gradient.Options{
		NumBins:   p.NumBins,
		Signed:    p.Signed,
		BlurSigma: p.BlurSigma,
	})
	if err != nil {
		return err
	}

	var desc flexhog.Histogram
	for _, r := range p.regions(img, e.Bounds()) {
		desc = s.Extract(e, r, desc)
		if err := fn(r, desc); err != nil {
			return err
		}
	}
	return nil
}

// Process decodes the image from r and writes one CSV record per region into w:
// the region origin and size followed by the descriptor values.
func (p *Processor) Process(r io.Reader, w io.Writer, s *flexhog.Strategy) error {
	src, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	var record []string

	err = p.describe(src, s, func(r image.Rectangle, desc flexhog.Histogram) error {
		record = append(record[:0],
			strconv.Itoa(r.Min.X),
			strconv.Itoa(r.Min.Y),
			strconv.Itoa(r.Dx()),
			strconv.Itoa(r.Dy()),
		)
		for _, v := range desc {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		return cw.Write(record)
	})
	if err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// Execute runs the extraction over a single image or over every image of a directory.
func (p *Processor) Execute(op *Ops) {
	var (
		fs      os.FileInfo
		imgFile *os.File
		err     error
	)

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(op.Src) {
		imgFile, err = utils.DownloadImage(op.Src)
		if imgFile != nil {
			defer os.Remove(imgFile.Name())
			defer imgFile.Close()
		}
		if err != nil {
			log.Fatalf(
				utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
				utils.DecorateText(err.Error(), utils.DefaultMessage),
			)
		}
		fs, err = imgFile.Stat()
		op.Src = imgFile.Name()
	} else if op.Src == op.PipeName {
		fs, err = os.Stdin.Stat()
	} else {
		fs, err = os.Stat(op.Src)
	}
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to load the source image: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	now := time.Now()

	switch mode := fs.Mode(); {
	case mode.IsDir():
		var wg sync.WaitGroup
		// Read destination file or directory.
		if _, err := os.Stat(op.Dst); err != nil {
			if err = os.MkdirAll(op.Dst, 0755); err != nil {
				log.Fatalf(
					utils.DecorateText("Unable to get dir stats: %v\n", utils.ErrorMessage),
					utils.DecorateText(err.Error(), utils.DefaultMessage),
				)
			}
		}

		// Limit the concurrently running workers to maxWorkers.
		if op.Workers <= 0 || op.Workers > maxWorkers {
			op.Workers = runtime.NumCPU()
		}

		// Process recursively the image files from the specified directory concurrently.
		ch := make(chan result)
		done := make(chan interface{})
		defer close(done)

		paths, errc := walkDir(done, op.Src, validExtensions)

		wg.Add(op.Workers)
		for i := 0; i < op.Workers; i++ {
			go func() {
				defer wg.Done()
				op.consumer(p, ch, done, paths)
			}()
		}

		// Close the channel after the values are consumed.
		go func() {
			defer close(ch)
			wg.Wait()
		}()

		for res := range ch {
			if res.err != nil {
				err = res.err
			}
			op.printOpStatus(res.path, res.err)
		}

		if werr := <-errc; werr != nil {
			fmt.Fprint(os.Stderr, utils.DecorateText(werr.Error(), utils.ErrorMessage))
		}

	case mode.IsRegular() || mode&os.ModeNamedPipe != 0: // check for regular files or pipe names
		if ext := filepath.Ext(op.Dst); ext != ".csv" && op.Dst != op.PipeName {
			log.Fatal(utils.DecorateText(fmt.Sprintf("%v file type not supported", ext), utils.ErrorMessage))
		}

		err = op.processSingle(p)
		op.printOpStatus(op.Dst, err)
	}
	if err == nil {
		fmt.Fprintf(os.Stderr, "\nExecution time: %s\n", utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
	}
}

// processSingle describes a single image, showing a progress indicator on terminals.
func (op *Ops) processSingle(p *Processor) error {
	s, err := p.newStrategy()
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return op.process(p, s, op.Src, op.Dst)
	}

	spinner := utils.NewSpinner(fmt.Sprintf("%s %s",
		utils.DecorateText("⚡ FLEXHOG", utils.StatusMessage),
		utils.DecorateText("⇢ computing descriptors...", utils.DefaultMessage),
	), time.Millisecond*80, true)

	// Capture CTRL-C signal and restores back the cursor visibility.
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalChan)
	go func() {
		if _, ok := <-signalChan; ok {
			spinner.RestoreCursor()
			os.Exit(1)
		}
	}()

	spinner.Start()
	err = op.process(p, s, op.Src, op.Dst)
	if err != nil {
		spinner.StopMsg = fmt.Sprintf("%s %s\n",
			utils.DecorateText("⚡ FLEXHOG", utils.StatusMessage),
			utils.DecorateText("descriptor extraction failed ✘", utils.ErrorMessage),
		)
	} else {
		spinner.StopMsg = fmt.Sprintf("%s %s\n",
			utils.DecorateText("⚡ FLEXHOG", utils.StatusMessage),
			utils.DecorateText("descriptors computed successfully ✔", utils.SuccessMessage),
		)
	}
	spinner.Stop()

	return err
}

// consumer reads the path names from the paths channel and describes each image.
// Every consumer owns its strategy, since a strategy cannot be shared between goroutines.
func (op *Ops) consumer(
	p *Processor,
	res chan<- result,
	done <-chan interface{},
	paths <-chan string,
) {
	s, serr := p.newStrategy()

	for src := range paths {
		err := serr
		if err == nil {
			dst := filepath.Join(op.Dst, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+".csv")
			err = op.process(p, s, src, dst)
		}

		select {
		case <-done:
			return
		case res <- result{
			path: src,
			err:  err,
		}:
		}
	}
}

// process opens the source and destination and runs the processor over them.
func (op *Ops) process(p *Processor, s *flexhog.Strategy, in, out string) error {
	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}

	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			if err := f.Close(); err != nil {
				log.Printf("could not close the opened file: %v", err)
			}
		}
	}()

	dstFile, isFile := dst.(*os.File)
	if err = p.Process(src, dst, s); err != nil {
		if isFile && dstFile != os.Stdout {
			dstFile.Close()
			// remove the incomplete file in case of an error
			os.Remove(dstFile.Name())
		}
		return err
	}
	if isFile && dstFile != os.Stdout {
		return dstFile.Close()
	}
	return nil
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

// printOpStatus displays the relevant information about the extraction.
func (op *Ops) printOpStatus(fname string, err error) {
	if err != nil {
		log.Fatalf(
			utils.DecorateText("\nError computing the descriptors of %s: %s", utils.ErrorMessage),
			filepath.Base(fname),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
	}
	if fname != op.PipeName {
		fmt.Fprintf(os.Stderr, "\nThe descriptors of %s have been saved %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

// walkDir starts a new goroutine to walk the specified directory tree
// in recursive manner and sends the path of each regular file to a new channel.
// It finishes in case the done channel is getting closed.
func walkDir(
	done <-chan interface{},
	src string,
	srcExts []string,
) (<-chan string, <-chan error) {
	pathChan := make(chan string)
	errChan := make(chan error, 1)

	go func() {
		// Close the paths channel after Walk returns.
		defer close(pathChan)

		errChan <- filepath.Walk(src, func(path string, f os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !f.Mode().IsRegular() {
				return nil
			}

			if isValidExtension(strings.ToLower(filepath.Ext(f.Name())), srcExts) {
				select {
				case <-done:
					return errors.New("directory walk cancelled")
				case pathChan <- path:
				}
			}
			return nil
		})
	}()
	return pathChan, errChan
}

// isValidExtension checks for the supported extensions.
func isValidExtension(ext string, extensions []string) bool {
	for _, ex := range extensions {
		if ex == ext {
			return true
		}
	}
	return false
}
