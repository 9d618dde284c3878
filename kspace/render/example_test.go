package render_test

import (
	"fmt"

	"github.com/cwbudde/algo-kspace/kspace/render"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

func ExampleSamples() {
	grid, _ := transform.SampleGridFromData(2, 2, []float64{0, 255, 255, 0})

	img, _ := render.Samples(grid)

	fmt.Println(img.Pix)

	// Output:
	// [0 255 255 0]
}

func ExampleSpectrum() {
	// Constant image: one bright pixel at the centered DC coefficient.
	grid, _ := transform.SampleGridFromData(4, 4, []float64{
		100, 100, 100, 100,
		100, 100, 100, 100,
		100, 100, 100, 100,
		100, 100, 100, 100,
	})
	spec, _ := transform.Forward(grid)

	img, _ := render.Spectrum(spec)

	fmt.Println(img.GrayAt(2, 2).Y, img.GrayAt(0, 0).Y)

	// Output:
	// 255 0
}
