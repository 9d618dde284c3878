package quality

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-kspace/internal/testutil"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

func gridFromPlane(t *testing.T, rows, cols int, plane []float64) *transform.SampleGrid {
	t.Helper()
	grid, err := transform.SampleGridFromData(rows, cols, plane)
	if err != nil {
		t.Fatalf("SampleGridFromData(%d, %d): %v", rows, cols, err)
	}
	return grid
}

func TestCompareIdenticalGrids(t *testing.T) {
	grid := gridFromPlane(t, 16, 16, testutil.NoisePlane(5, 16, 16))
	m, err := Compare(grid, grid.Clone())
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if m.RMSE != 0 {
		t.Errorf("RMSE = %g, want 0", m.RMSE)
	}
	if !math.IsInf(m.PSNR, 1) {
		t.Errorf("PSNR = %g, want +Inf", m.PSNR)
	}
	if math.Abs(m.Correlation-1) > 1e-9 {
		t.Errorf("Correlation = %g, want 1", m.Correlation)
	}
}

func TestCompareKnownOffset(t *testing.T) {
	ref := gridFromPlane(t, 1, 4, []float64{0, 2, 4, 6})
	got := gridFromPlane(t, 1, 4, []float64{3, 5, 7, 9})

	m, err := Compare(ref, got)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if math.Abs(m.RMSE-3) > 1e-12 {
		t.Errorf("RMSE = %g, want 3", m.RMSE)
	}
	if want := 20 * math.Log10(255.0/3); math.Abs(m.PSNR-want) > 1e-9 {
		t.Errorf("PSNR = %g, want %g", m.PSNR, want)
	}
	if math.Abs(m.Correlation-1) > 1e-9 {
		t.Errorf("Correlation = %g, want 1 for a pure offset", m.Correlation)
	}
}

func TestCompareAnticorrelated(t *testing.T) {
	ref := gridFromPlane(t, 1, 4, []float64{0, 1, 2, 3})
	got := gridFromPlane(t, 1, 4, []float64{3, 2, 1, 0})

	m, err := Compare(ref, got)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if math.Abs(m.Correlation+1) > 1e-9 {
		t.Errorf("Correlation = %g, want -1", m.Correlation)
	}
}

func TestCompareRejectsBadInput(t *testing.T) {
	grid := gridFromPlane(t, 2, 2, []float64{1, 2, 3, 4})
	other := gridFromPlane(t, 2, 3, []float64{1, 2, 3, 4, 5, 6})

	if _, err := Compare(nil, grid); !errors.Is(err, ErrNilInput) {
		t.Fatalf("nil ref: got %v, want ErrNilInput", err)
	}
	if _, err := Compare(grid, nil); !errors.Is(err, ErrNilInput) {
		t.Fatalf("nil got: got %v, want ErrNilInput", err)
	}
	if _, err := Compare(grid, other); !errors.Is(err, ErrShapeMismatch) {
		t.Fatalf("shape mismatch: got %v, want ErrShapeMismatch", err)
	}
}

func TestRetainedEnergyFullMask(t *testing.T) {
	grid := gridFromPlane(t, 16, 16, testutil.NoisePlane(9, 16, 16))
	spec, err := transform.Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	mask := transform.Mask{CX: 8, CY: 8, Radius: 64}
	if !mask.Covers(16, 16) {
		t.Fatal("test mask does not cover the spectrum")
	}

	got, err := RetainedEnergy(spec, mask)
	if err != nil {
		t.Fatalf("RetainedEnergy: %v", err)
	}
	if got != 1 {
		t.Fatalf("covering mask retains %g, want exactly 1", got)
	}
}

// A constant grid concentrates all power in the centered DC cell, so
// even the smallest mask around the center keeps everything.
func TestRetainedEnergyConstantGrid(t *testing.T) {
	grid := gridFromPlane(t, 4, 4, testutil.ConstantPlane(4, 4, 100))
	spec, err := transform.Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	got, err := RetainedEnergy(spec, transform.Mask{CX: 2, CY: 2, Radius: 1})
	if err != nil {
		t.Fatalf("RetainedEnergy: %v", err)
	}
	if got != 1 {
		t.Fatalf("DC-only mask retains %g, want exactly 1", got)
	}
}

func TestRetainedEnergyGrowsWithRadius(t *testing.T) {
	grid := gridFromPlane(t, 16, 16, testutil.NoisePlane(21, 16, 16))
	spec, err := transform.Forward(grid)
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}

	prev := -1.0
	for _, radius := range []int{1, 2, 4, 8, 32} {
		got, err := RetainedEnergy(spec, transform.Mask{CX: 8, CY: 8, Radius: radius})
		if err != nil {
			t.Fatalf("RetainedEnergy(r=%d): %v", radius, err)
		}
		if got < prev {
			t.Fatalf("retained energy dropped from %g to %g at radius %d", prev, got, radius)
		}
		if got < 0 || got > 1 {
			t.Fatalf("retained energy %g outside [0, 1] at radius %d", got, radius)
		}
		prev = got
	}
	if prev != 1 {
		t.Fatalf("radius 32 retains %g, want 1", prev)
	}
}

func TestRetainedEnergyRejectsBadInput(t *testing.T) {
	if _, err := RetainedEnergy(nil, transform.Mask{CX: 0, CY: 0, Radius: 1}); !errors.Is(err, ErrNilInput) {
		t.Fatalf("nil spectrum: got %v, want ErrNilInput", err)
	}
	spec, err := transform.NewSpectrum(4, 4)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	if _, err := RetainedEnergy(spec, transform.Mask{CX: 2, CY: 2, Radius: 0}); !errors.Is(err, transform.ErrInvalidMask) {
		t.Fatalf("invalid mask: got %v, want ErrInvalidMask", err)
	}
}
