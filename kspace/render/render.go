package render

import (
	"errors"
	"image"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-kspace/internal/bufpool"
	"github.com/cwbudde/algo-kspace/kspace/core"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

// Errors returned by the render entry points.
var (
	ErrNilInput       = errors.New("render: nil input")
	ErrLengthMismatch = errors.New("render: buffer length mismatch")
)

var scratchPool = bufpool.New()

// Spectrum renders the log-magnitude view of a frequency spectrum as an
// 8-bit grayscale image. Each coefficient maps to ln(1+|c|); the result is
// rescaled so the global minimum lands at 0 and the maximum at 255. The
// spectrum is never modified.
func Spectrum(spec *transform.Spectrum) (*image.Gray, error) {
	if spec == nil {
		return nil, ErrNilInput
	}

	rows, cols := spec.Rows(), spec.Cols()

	scratch := scratchPool.Get(rows * cols)
	defer scratchPool.Put(scratch)

	mag := scratch.Data()
	logMagnitude(mag, spec)

	img := image.NewGray(image.Rect(0, 0, cols, rows))
	if err := NormalizeTo(img.Pix, mag); err != nil {
		return nil, err
	}

	return img, nil
}

// Samples renders a reconstructed sample grid as an 8-bit grayscale image
// using the plain linear rescale — no log compression, since sample values
// are already in image space.
func Samples(grid *transform.SampleGrid) (*image.Gray, error) {
	if grid == nil {
		return nil, ErrNilInput
	}

	img := image.NewGray(image.Rect(0, 0, grid.Cols(), grid.Rows()))
	if err := NormalizeTo(img.Pix, grid.Data()); err != nil {
		return nil, err
	}

	return img, nil
}

// NormalizeTo writes the linear rescale of values into dst:
// (v − min) / (max − min) × 255, clamped and rounded. When max == min the
// scale factor is 1, so a flat input produces all zeros. dst and values
// must have equal length.
func NormalizeTo(dst []uint8, values []float64) error {
	if len(dst) != len(values) {
		return ErrLengthMismatch
	}
	if len(values) == 0 {
		return nil
	}

	min, max := core.MinMax(values)
	scale := 1.0
	if max > min {
		scale = 255 / (max - min)
	}

	for i, v := range values {
		dst[i] = uint8(core.Clamp(math.Round((v-min)*scale), 0, 255))
	}

	return nil
}

// logMagnitude fills dst with ln(1+|c|) per coefficient. The magnitude
// pass runs on the parallel planes directly, which is the vectorized
// fast path.
func logMagnitude(dst []float64, spec *transform.Spectrum) {
	vecmath.Magnitude(dst, spec.Real(), spec.Imag())
	for i, v := range dst {
		dst[i] = math.Log1p(v)
	}
}
