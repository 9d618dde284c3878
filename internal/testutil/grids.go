package testutil

import "math/rand"

// ConstantPlane returns a rows × cols row-major plane filled with value.
func ConstantPlane(rows, cols int, value float64) []float64 {
	out := make([]float64, rows*cols)
	for i := range out {
		out[i] = value
	}
	return out
}

// GradientPlane returns a rows × cols plane ramping from 0 at the top-left
// corner to 255 at the bottom-right, deterministic for identical sizes.
func GradientPlane(rows, cols int) []float64 {
	out := make([]float64, rows*cols)
	span := float64(rows + cols - 2)
	if span == 0 {
		return out
	}
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			out[y*cols+x] = 255 * float64(x+y) / span
		}
	}
	return out
}

// ImpulsePlane returns a zero plane with a single amp-valued sample at
// (x, y). Out-of-range positions leave the plane all zero.
func ImpulsePlane(rows, cols, x, y int, amp float64) []float64 {
	out := make([]float64, rows*cols)
	if x >= 0 && x < cols && y >= 0 && y < rows {
		out[y*cols+x] = amp
	}
	return out
}

// NoisePlane returns a rows × cols plane of uniform values in [0, 255)
// generated from a fixed seed for reproducibility.
func NoisePlane(seed int64, rows, cols int) []float64 {
	out := make([]float64, rows*cols)
	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = rng.Float64() * 255
	}
	return out
}
