package transform

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/cwbudde/algo-kspace/internal/testutil"
)

func gridFromPlane(t *testing.T, rows, cols int, plane []float64) *SampleGrid {
	t.Helper()
	g, err := SampleGridFromData(rows, cols, plane)
	if err != nil {
		t.Fatalf("SampleGridFromData(%d, %d): %v", rows, cols, err)
	}
	return g
}

func TestForwardRejectsInvalidInput(t *testing.T) {
	if _, err := Forward(nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("Forward(nil) err = %v, want ErrInvalidDimensions", err)
	}
}

func TestInverseRejectsInvalidInput(t *testing.T) {
	if _, err := Inverse(nil, nil); !errors.Is(err, ErrInvalidDimensions) {
		t.Fatalf("Inverse(nil) err = %v, want ErrInvalidDimensions", err)
	}

	spec, err := NewSpectrum(4, 4)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	if _, err := Inverse(spec, &Mask{CX: 2, CY: 2, Radius: 0}); !errors.Is(err, ErrInvalidMask) {
		t.Fatalf("Inverse with zero radius err = %v, want ErrInvalidMask", err)
	}
}

func TestRoundTrip(t *testing.T) {
	sizes := []int{1, 2, 17, 64, 100}

	for _, rows := range sizes {
		for _, cols := range sizes {
			t.Run(fmt.Sprintf("%dx%d", rows, cols), func(t *testing.T) {
				plane := testutil.NoisePlane(int64(rows*1000+cols), rows, cols)
				grid := gridFromPlane(t, rows, cols, plane)

				spec, err := Forward(grid)
				if err != nil {
					t.Fatalf("Forward: %v", err)
				}

				back, err := Inverse(spec, nil)
				if err != nil {
					t.Fatalf("Inverse: %v", err)
				}

				diff, err := testutil.MaxAbsDiff(back.Data(), plane)
				if err != nil {
					t.Fatalf("MaxAbsDiff: %v", err)
				}
				if diff > 1e-8 {
					t.Fatalf("round-trip max abs error = %v, want < 1e-8", diff)
				}
			})
		}
	}
}

func TestRoundTripGradient(t *testing.T) {
	const rows, cols = 33, 48

	plane := testutil.GradientPlane(rows, cols)
	grid := gridFromPlane(t, rows, cols, plane)

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	back, err := Inverse(spec, nil)
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	diff, err := testutil.MaxAbsDiff(back.Data(), plane)
	if err != nil {
		t.Fatalf("MaxAbsDiff: %v", err)
	}
	if diff > 1e-8 {
		t.Fatalf("round-trip max abs error = %v, want < 1e-8", diff)
	}
}

// A constant grid concentrates all spectral energy in the DC coefficient,
// which the checkerboard centering places at (cols/2, rows/2).
func TestForwardConstantGridConcentratesDC(t *testing.T) {
	const rows, cols = 4, 4

	grid := gridFromPlane(t, rows, cols, testutil.ConstantPlane(rows, cols, 100))

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	dcX, dcY := cols/2, rows/2
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			mag := cmplxAbs(spec.At(x, y))
			if x == dcX && y == dcY {
				if math.Abs(mag-100*rows*cols) > 1e-9 {
					t.Fatalf("DC magnitude = %v, want %v", mag, 100*rows*cols)
				}
				continue
			}
			if mag > 1e-9 {
				t.Fatalf("coefficient (%d,%d) magnitude = %v, want ~0", x, y, mag)
			}
		}
	}
}

func TestInverseFullMaskMatchesUnmaskedExactly(t *testing.T) {
	const rows, cols = 32, 24

	grid := gridFromPlane(t, rows, cols, testutil.NoisePlane(7, rows, cols))

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	full := Mask{CX: cols / 2, CY: rows / 2, Radius: rows + cols}
	if !full.Covers(rows, cols) {
		t.Fatalf("mask %+v should cover the whole spectrum", full)
	}

	masked, err := Inverse(spec, &full)
	if err != nil {
		t.Fatalf("Inverse(masked): %v", err)
	}
	unmasked, err := Inverse(spec, nil)
	if err != nil {
		t.Fatalf("Inverse(nil): %v", err)
	}

	for i := range masked.Data() {
		if masked.Data()[i] != unmasked.Data()[i] {
			t.Fatalf("sample %d: masked %v != unmasked %v", i, masked.Data()[i], unmasked.Data()[i])
		}
	}
}

// A radius-1 mask at the spectrum center keeps only the DC coefficient and
// its four nearest neighbours, so the reconstruction collapses to a
// near-constant image around the input mean.
func TestInverseDegenerateMask(t *testing.T) {
	const rows, cols = 16, 16

	plane := testutil.NoisePlane(11, rows, cols)
	grid := gridFromPlane(t, rows, cols, plane)

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	recon, err := Inverse(spec, &Mask{CX: cols / 2, CY: rows / 2, Radius: 1})
	if err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	origMin, origMax := minMax(plane)
	reconMin, reconMax := minMax(recon.Data())

	origSpread := origMax - origMin
	reconSpread := reconMax - reconMin
	if reconSpread > origSpread/3 {
		t.Fatalf("reconstruction spread %v, want < %v (input spread %v)", reconSpread, origSpread/3, origSpread)
	}

	// The DC coefficient survives the mask, so the mean is preserved.
	if d := math.Abs(mean(recon.Data()) - mean(plane)); d > 1e-9 {
		t.Fatalf("mean drifted by %v", d)
	}
}

func TestInverseIsIdempotent(t *testing.T) {
	const rows, cols = 17, 23

	grid := gridFromPlane(t, rows, cols, testutil.NoisePlane(3, rows, cols))

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	mask := Mask{CX: cols / 2, CY: rows / 2, Radius: 5}

	first, err := Inverse(spec, &mask)
	if err != nil {
		t.Fatalf("first Inverse: %v", err)
	}
	second, err := Inverse(spec, &mask)
	if err != nil {
		t.Fatalf("second Inverse: %v", err)
	}

	for i := range first.Data() {
		if first.Data()[i] != second.Data()[i] {
			t.Fatalf("sample %d differs between identical requests", i)
		}
	}
}

func TestInverseDoesNotMutateSpectrum(t *testing.T) {
	const rows, cols = 8, 8

	grid := gridFromPlane(t, rows, cols, testutil.GradientPlane(rows, cols))

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	snapshot := spec.Clone()

	if _, err := Inverse(spec, &Mask{CX: 4, CY: 4, Radius: 2}); err != nil {
		t.Fatalf("Inverse: %v", err)
	}

	for i := range spec.Real() {
		if spec.Real()[i] != snapshot.Real()[i] || spec.Imag()[i] != snapshot.Imag()[i] {
			t.Fatalf("spectrum mutated at offset %d", i)
		}
	}
}

func TestMaskedReconDiffersFromFull(t *testing.T) {
	const rows, cols = 32, 32

	grid := gridFromPlane(t, rows, cols, testutil.NoisePlane(13, rows, cols))

	spec, err := Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	lowpass, err := Inverse(spec, &Mask{CX: 16, CY: 16, Radius: 2})
	if err != nil {
		t.Fatalf("Inverse(masked): %v", err)
	}
	full, err := Inverse(spec, nil)
	if err != nil {
		t.Fatalf("Inverse(nil): %v", err)
	}

	diff, err := testutil.MaxAbsDiff(lowpass.Data(), full.Data())
	if err != nil {
		t.Fatalf("MaxAbsDiff: %v", err)
	}
	if diff < 1 {
		t.Fatalf("masked reconstruction unexpectedly close to full (max diff %v)", diff)
	}
}

func minMax(values []float64) (float64, float64) {
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
