// Package transform implements the centered 2D discrete Fourier transform
// pair used for k-space inspection of grayscale images, together with the
// circular frequency mask applied on the inverse path.
//
// The forward transform multiplies each input sample (x, y) by (−1)^(x+y)
// — the checkerboard phase flip — so the zero-frequency (DC) coefficient
// lands at the grid center without a quadrant-swap pass. The inverse
// transform undoes the flip after transforming and returns the real part.
// Row and column passes are separable 1D transforms: rows then columns on
// the forward side, columns then rows on the inverse side.
//
// # Usage
//
// One-shot analysis of an image grid:
//
//	grid, err := transform.SampleGridFromData(rows, cols, samples)
//	spec, err := transform.Forward(grid)
//
// Full reconstruction, then a low-frequency-only reconstruction:
//
//	full, err := transform.Inverse(spec, nil)
//	lowpass, err := transform.Inverse(spec, &transform.Mask{CX: cols / 2, CY: rows / 2, Radius: 12})
//
// The mask keeps every coefficient with (x−CX)² + (y−CY)² ≤ Radius²
// (inclusive) and zeroes the rest on a working copy; the cached Spectrum is
// never mutated, so one Spectrum can serve any number of masked inversions.
//
// # Transform lengths
//
// The 1D kernel is implemented here rather than imported: an iterative
// radix-2 Cooley-Tukey pass for power-of-two lengths and Bluestein's
// chirp-z algorithm for all other lengths, so any rows × cols ≥ 1×1 input
// is valid. Forward transforms are unnormalized and the inverse applies
// 1/N per axis, making Inverse(Forward(g), nil) an identity up to
// floating-point rounding. Per-length twiddle and chirp tables are cached
// process-wide; an interactive session reuses the same two lengths for
// every mask update.
package transform
