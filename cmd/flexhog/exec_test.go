package main

import (
	"bytes"
	"encoding/csv"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/esimov/flexhog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	imgWidth  = 96
	imgHeight = 160
)

func newProcessor(mode string) *Processor {
	return &Processor{
		Config:      flexhog.DefaultConfig(),
		NumBins:     9,
		Mode:        mode,
		WindowSize:  image.Pt(48, 96),
		Stride:      24,
		ScaleFactor: 1,
		MaxScale:    1,
	}
}

func sampleImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, imgWidth, imgHeight))
	for y := 0; y < imgHeight; y++ {
		for x := 0; x < imgWidth; x++ {
			v := uint8((x*7 + y*3) % 256)
			if (x/16+y/16)%2 == 0 {
				v = 255 - v
			}
			img.Set(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func encodeSample(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage()))
	return buf.Bytes()
}

func readRecords(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestProcessor_Init(t *testing.T) {
	assert.NoError(t, newProcessor(wholeMode).Init())
	assert.NoError(t, newProcessor(slidingMode).Init())

	p := newProcessor("pyramid")
	assert.Error(t, p.Init())

	p = newProcessor(wholeMode)
	p.NumBins = 0
	assert.Error(t, p.Init())

	p = newProcessor(wholeMode)
	p.Config.BlockStepX = 0
	assert.ErrorIs(t, p.Init(), flexhog.ErrInvalidConfig)

	p = newProcessor(slidingMode)
	p.Stride = 0
	assert.Error(t, p.Init())

	p = newProcessor(facesMode)
	assert.Error(t, p.Init())
}

func TestProcessor_ProcessWholeImage(t *testing.T) {
	p := newProcessor(wholeMode)
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(encodeSample(t)), &out, s))

	records := readRecords(t, out.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, []string{"0", "0", strconv.Itoa(imgWidth), strconv.Itoa(imgHeight)}, records[0][:4])
	assert.Len(t, records[0], 4+s.DescriptorLength(9))

	for _, f := range records[0][4:] {
		v, err := strconv.ParseFloat(f, 64)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0+1e-9)
	}
}

func TestProcessor_ProcessL1Sqrt(t *testing.T) {
	p := newProcessor(wholeMode)
	p.Config.Norm = flexhog.L1Sqrt
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(encodeSample(t)), &out, s))

	records := readRecords(t, out.Bytes())
	require.Len(t, records, 1)
	for _, f := range records[0][4:] {
		v, err := strconv.ParseFloat(f, 64)
		require.NoError(t, err)
		assert.False(t, math.IsNaN(v))
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestProcessor_ProcessSlidingWindows(t *testing.T) {
	p := newProcessor(slidingMode)
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(encodeSample(t)), &out, s))

	// 48x96 windows with a 24px stride: 3 columns and 3 rows.
	records := readRecords(t, out.Bytes())
	require.Len(t, records, 9)
	assert.Equal(t, []string{"24", "24", "48", "96"}, records[4][:4])
	for _, rec := range records {
		assert.Len(t, rec, 4+s.DescriptorLength(9))
	}
}

func TestProcessor_Resize(t *testing.T) {
	p := newProcessor(wholeMode)
	p.NewWidth = imgWidth / 2
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, p.Process(bytes.NewReader(encodeSample(t)), &out, s))

	records := readRecords(t, out.Bytes())
	require.Len(t, records, 1)
	assert.Equal(t, []string{"0", "0", strconv.Itoa(imgWidth / 2), strconv.Itoa(imgHeight / 2)}, records[0][:4])
}

func TestProcessor_DescribeIsDeterministic(t *testing.T) {
	p := newProcessor(wholeMode)
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var got []flexhog.Histogram
	err = p.describe(sampleImage(), s, func(_ image.Rectangle, desc flexhog.Histogram) error {
		got = append(got, append(flexhog.Histogram(nil), desc...))
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)

	var again []flexhog.Histogram
	err = p.describe(sampleImage(), s, func(_ image.Rectangle, desc flexhog.Histogram) error {
		again = append(again, append(flexhog.Histogram(nil), desc...))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestProcessor_InvalidImage(t *testing.T) {
	p := newProcessor(wholeMode)
	require.NoError(t, p.Init())
	s, err := p.newStrategy()
	require.NoError(t, err)

	var out bytes.Buffer
	assert.Error(t, p.Process(bytes.NewReader([]byte("not an image")), &out, s))
}

func TestOps_ProcessDirectory(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "nested"), 0755))

	data := encodeSample(t)
	for _, name := range []string{"a.png", "nested/b.PNG", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(src, name), data, 0644))
	}

	p := newProcessor(wholeMode)
	require.NoError(t, p.Init())
	p.Execute(&Ops{Src: src, Dst: dst, PipeName: pipeName, Workers: 2})

	entries, err := os.ReadDir(dst)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.csv", "b.csv"}, names)

	out, err := os.ReadFile(filepath.Join(dst, "a.csv"))
	require.NoError(t, err)
	assert.Len(t, readRecords(t, out), 1)
}

func TestOps_ConsumerKeepsGoingAfterFailure(t *testing.T) {
	src := t.TempDir()
	bad := filepath.Join(src, "bad.png")
	good := filepath.Join(src, "good.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))
	require.NoError(t, os.WriteFile(good, encodeSample(t), 0644))

	p := newProcessor(wholeMode)
	require.NoError(t, p.Init())
	op := &Ops{Dst: t.TempDir(), PipeName: pipeName}

	paths := make(chan string, 2)
	paths <- bad
	paths <- good
	close(paths)

	res := make(chan result, 2)
	done := make(chan interface{})
	defer close(done)
	op.consumer(p, res, done, paths)
	close(res)

	var got []result
	for r := range res {
		got = append(got, r)
	}
	require.Len(t, got, 2)
	assert.Equal(t, bad, got[0].path)
	assert.Error(t, got[0].err)
	assert.Equal(t, good, got[1].path)
	assert.NoError(t, got[1].err)
	assert.FileExists(t, filepath.Join(op.Dst, "good.csv"))
}

func TestWalkDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.jpg", "b.webp", "c.go", "d.bmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	done := make(chan interface{})
	defer close(done)

	paths, errc := walkDir(done, dir, validExtensions)
	var got []string
	for p := range paths {
		got = append(got, filepath.Base(p))
	}
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"a.jpg", "b.webp", "d.bmp"}, got)
}

func TestIsValidExtension(t *testing.T) {
	assert.True(t, isValidExtension(".png", validExtensions))
	assert.False(t, isValidExtension(".tiff", validExtensions))
}
