package render

import (
	"image"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/cwbudde/algo-kspace/kspace/core"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

// heatStops is the palette for false-color spectrum rendering, blended in
// Lab space from cold (low magnitude) to hot (high magnitude).
var heatStops = []colorful.Color{
	{R: 0.05, G: 0.03, B: 0.25}, // deep blue
	{R: 0.00, G: 0.45, B: 0.75}, // azure
	{R: 0.10, G: 0.80, B: 0.50}, // green
	{R: 0.95, G: 0.85, B: 0.10}, // yellow
	{R: 1.00, G: 0.95, B: 0.90}, // near white
}

// SpectrumHeat renders the log-magnitude view through a perceptual
// false-color palette. Grayscale rendering compresses mid-range detail on
// spectra with a dominant DC coefficient; the palette keeps that detail
// visible. Normalization is identical to Spectrum.
func SpectrumHeat(spec *transform.Spectrum) (*image.RGBA, error) {
	if spec == nil {
		return nil, ErrNilInput
	}

	rows, cols := spec.Rows(), spec.Cols()

	scratch := scratchPool.Get(rows * cols)
	defer scratchPool.Put(scratch)

	mag := scratch.Data()
	logMagnitude(mag, spec)

	min, max := core.MinMax(mag)
	scale := 1.0
	if max > min {
		scale = 1 / (max - min)
	}

	img := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for i, v := range mag {
		img.SetRGBA(i%cols, i/cols, heatColor((v-min)*scale))
	}

	return img, nil
}

// heatColor maps t ∈ [0, 1] onto the palette with piecewise Lab blending.
func heatColor(t float64) color.RGBA {
	t = core.Clamp(t, 0, 1)

	segments := len(heatStops) - 1
	pos := t * float64(segments)
	idx := int(pos)
	if idx >= segments {
		idx = segments - 1
	}

	c := heatStops[idx].BlendLab(heatStops[idx+1], pos-float64(idx)).Clamped()
	r, g, b := c.RGB255()

	return color.RGBA{R: r, G: g, B: b, A: 255}
}
