package quality

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-vecmath"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-kspace/kspace/transform"
)

var (
	// ErrNilInput is returned when a grid or spectrum is nil.
	ErrNilInput = errors.New("quality: nil input")
	// ErrShapeMismatch is returned when the grids differ in size.
	ErrShapeMismatch = errors.New("quality: grids must share dimensions")
)

// Metrics summarizes how closely a reconstruction matches its
// reference.
type Metrics struct {
	// RMSE is the root mean square error in intensity units.
	RMSE float64
	// PSNR is the peak signal-to-noise ratio in dB against the 8-bit
	// intensity range. +Inf for identical inputs.
	PSNR float64
	// Correlation is the Pearson correlation coefficient. NaN when
	// either input is constant.
	Correlation float64
}

// Compare measures got against the reference ref, sample by sample.
func Compare(ref, got *transform.SampleGrid) (Metrics, error) {
	if ref == nil || got == nil {
		return Metrics{}, ErrNilInput
	}
	if ref.Rows() != got.Rows() || ref.Cols() != got.Cols() {
		return Metrics{}, ErrShapeMismatch
	}

	a, b := ref.Data(), got.Data()
	var mse float64
	for i := range a {
		d := a[i] - b[i]
		mse += d * d
	}
	mse /= float64(len(a))

	m := Metrics{
		RMSE:        math.Sqrt(mse),
		Correlation: stat.Correlation(a, b, nil),
	}
	if m.RMSE == 0 {
		m.PSNR = math.Inf(1)
	} else {
		m.PSNR = 20 * math.Log10(255/m.RMSE)
	}
	return m, nil
}

// RetainedEnergy returns the fraction of total spectral power the mask
// keeps, in [0, 1]. An all-zero spectrum counts as fully retained.
func RetainedEnergy(spec *transform.Spectrum, mask transform.Mask) (float64, error) {
	if spec == nil {
		return 0, ErrNilInput
	}
	if err := mask.Validate(); err != nil {
		return 0, err
	}

	rows, cols := spec.Rows(), spec.Cols()
	power := make([]float64, rows*cols)
	vecmath.Power(power, spec.Real(), spec.Imag())

	var total, kept float64
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			p := power[y*cols+x]
			total += p
			if mask.Contains(x, y) {
				kept += p
			}
		}
	}
	if total == 0 {
		return 1, nil
	}
	return kept / total, nil
}
