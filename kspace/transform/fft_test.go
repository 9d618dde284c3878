package transform

import (
	"fmt"
	"math"
	"testing"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-kspace/internal/testutil"
)

// dftDirect is the O(N²) reference used to validate both transform paths.
func dftDirect(src []complex128, inverse bool) []complex128 {
	n := len(src)
	out := make([]complex128, n)

	sign := -2 * math.Pi
	if inverse {
		sign = 2 * math.Pi
	}

	for k := 0; k < n; k++ {
		var sum complex128
		for j := 0; j < n; j++ {
			ang := sign * float64(k*j) / float64(n)
			sum += src[j] * complex(math.Cos(ang), math.Sin(ang))
		}
		if inverse {
			sum /= complex(float64(n), 0)
		}
		out[k] = sum
	}

	return out
}

func complexLine(seed int64, n int) []complex128 {
	re := testutil.NoisePlane(seed, 1, n)
	im := testutil.NoisePlane(seed+1, 1, n)
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(re[i], im[i])
	}
	return out
}

func requireComplexNear(t *testing.T, got, want []complex128, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if d := cmplxAbs(got[i] - want[i]); d > eps {
			t.Fatalf("index %d: got %v, want %v (|diff| %v > eps %v)", i, got[i], want[i], d, eps)
		}
	}
}

func cmplxAbs(c complex128) float64 {
	return math.Hypot(real(c), imag(c))
}

func TestPlanForwardMatchesDirect(t *testing.T) {
	sizes := []int{1, 2, 3, 4, 5, 8, 16, 17, 32, 64, 100, 128}

	for _, n := range sizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			src := complexLine(int64(n), n)
			want := dftDirect(src, false)

			got := make([]complex128, n)
			copy(got, src)
			getPlan(n).forward(got)

			requireComplexNear(t, got, want, 1e-6)
		})
	}
}

func TestPlanInverseMatchesDirect(t *testing.T) {
	sizes := []int{1, 2, 7, 16, 17, 100}

	for _, n := range sizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			src := complexLine(int64(n)+100, n)
			want := dftDirect(src, true)

			got := make([]complex128, n)
			copy(got, src)
			getPlan(n).inverse(got)

			requireComplexNear(t, got, want, 1e-6)
		})
	}
}

func TestPlanRoundTrip(t *testing.T) {
	sizes := []int{1, 2, 17, 64, 100}

	for _, n := range sizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			src := complexLine(int64(n)+200, n)

			work := make([]complex128, n)
			copy(work, src)

			p := getPlan(n)
			p.forward(work)
			p.inverse(work)

			requireComplexNear(t, work, src, 1e-8)
		})
	}
}

// The owned kernel must agree with the external FFT library on the
// power-of-two path (the library serves as an independent oracle; it is
// not part of the shipping transform).
func TestPlanMatchesOracle(t *testing.T) {
	sizes := []int{1, 2, 4, 8, 16, 32, 64, 128, 256}

	for _, n := range sizes {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			oracle, err := algofft.NewPlan64(n)
			if err != nil {
				t.Fatalf("NewPlan64(%d): %v", n, err)
			}

			src := complexLine(int64(n)+300, n)

			want := make([]complex128, n)
			if err := oracle.Forward(want, src); err != nil {
				t.Fatalf("oracle forward: %v", err)
			}

			got := make([]complex128, n)
			copy(got, src)
			getPlan(n).forward(got)

			requireComplexNear(t, got, want, 1e-6)

			if err := oracle.Inverse(want, want); err != nil {
				t.Fatalf("oracle inverse: %v", err)
			}
			getPlan(n).inverse(got)

			requireComplexNear(t, got, want, 1e-8)
		})
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{33, 64},
		{199, 256},
	}

	for _, tt := range tests {
		if got := nextPow2(tt.in); got != tt.want {
			t.Fatalf("nextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBitReversalPermutes(t *testing.T) {
	rev := bitReversal(8)
	want := []int{0, 4, 2, 6, 1, 5, 3, 7}
	for i := range want {
		if rev[i] != want[i] {
			t.Fatalf("rev[%d] = %d, want %d", i, rev[i], want[i])
		}
	}
}
