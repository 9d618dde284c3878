package transform

// Spectrum holds rows × cols complex frequency coefficients as two parallel
// real and imaginary planes, each row-major with coefficient (x, y) at
// offset y*cols+x. Dimensions always equal those of the originating
// SampleGrid. A Spectrum is produced once per input image and treated as
// read-only afterwards; the inverse path works on internal copies.
type Spectrum struct {
	rows int
	cols int
	re   []float64
	im   []float64
}

// NewSpectrum returns a zero-filled rows × cols spectrum.
func NewSpectrum(rows, cols int) (*Spectrum, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	n := rows * cols

	return &Spectrum{
		rows: rows,
		cols: cols,
		re:   make([]float64, n),
		im:   make([]float64, n),
	}, nil
}

// SpectrumFromPlanes wraps existing real and imaginary planes (row-major,
// each of length rows*cols) without copying. The caller must not modify the
// planes afterwards.
func SpectrumFromPlanes(rows, cols int, re, im []float64) (*Spectrum, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(re) != rows*cols || len(im) != rows*cols {
		return nil, ErrPlaneSize
	}

	return &Spectrum{rows: rows, cols: cols, re: re, im: im}, nil
}

// Rows returns the spectrum height.
func (s *Spectrum) Rows() int {
	return s.rows
}

// Cols returns the spectrum width.
func (s *Spectrum) Cols() int {
	return s.cols
}

// Real returns the real plane. Treat as read-only.
func (s *Spectrum) Real() []float64 {
	return s.re
}

// Imag returns the imaginary plane. Treat as read-only.
func (s *Spectrum) Imag() []float64 {
	return s.im
}

// At returns the coefficient at (x, y). Bounds are the caller's
// responsibility.
func (s *Spectrum) At(x, y int) complex128 {
	i := y*s.cols + x
	return complex(s.re[i], s.im[i])
}

// Clone returns a deep copy of the spectrum.
func (s *Spectrum) Clone() *Spectrum {
	re := make([]float64, len(s.re))
	im := make([]float64, len(s.im))
	copy(re, s.re)
	copy(im, s.im)

	return &Spectrum{rows: s.rows, cols: s.cols, re: re, im: im}
}
