package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"

	xdraw "golang.org/x/image/draw"

	"github.com/cwbudde/algo-kspace/kspace/transform"
)

// DefaultMaxDim is the largest edge handed to the transform engine when
// the caller does not constrain it.
const DefaultMaxDim = 256

var (
	// ErrNilImage is returned when the input image is nil.
	ErrNilImage = errors.New("imaging: nil image")
	// ErrEmptyImage is returned when the input image has no pixels.
	ErrEmptyImage = errors.New("imaging: empty image")
)

// Decode reads a PNG, JPEG or GIF image.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	return img, nil
}

// Open loads an image from disk.
func Open(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imaging: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Grid converts img into a grid of intensities in [0, 255], downscaling
// first with a Catmull-Rom kernel so neither dimension exceeds maxDim.
// Images that already fit keep their size; maxDim values of zero or
// less fall back to DefaultMaxDim. Luma follows the BT.601 weights of
// the standard library's grayscale model.
func Grid(img image.Image, maxDim int) (*transform.SampleGrid, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDim
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, ErrEmptyImage
	}

	w, h := fitWithin(bounds.Dx(), bounds.Dy(), maxDim)
	gray := image.NewGray(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(gray, gray.Bounds(), img, bounds, xdraw.Src, nil)

	data := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for x := 0; x < w; x++ {
			data[y*w+x] = float64(row[x])
		}
	}
	return transform.SampleGridFromData(h, w, data)
}

// fitWithin shrinks (w, h) proportionally so both fit in maxDim,
// keeping at least one pixel per axis.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		h = h * maxDim / w
		w = maxDim
	} else {
		w = w * maxDim / h
		h = maxDim
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// EncodePNG writes img as a PNG, favoring encode speed over size.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("imaging: encode png: %w", err)
	}
	return nil
}

// WritePNG saves img to path as a PNG.
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("imaging: %w", err)
	}
	if err := EncodePNG(f, img); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("imaging: %w", err)
	}
	return nil
}
