package transform

// SampleGrid holds rows × cols real-valued intensities in row-major order:
// sample (x, y) lives at offset y*cols+x. Values are conventionally in the
// 0–255 range of an 8-bit grayscale source, but any finite float64 works.
type SampleGrid struct {
	rows int
	cols int
	data []float64
}

// NewSampleGrid returns a zero-filled rows × cols grid.
func NewSampleGrid(rows, cols int) (*SampleGrid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &SampleGrid{
		rows: rows,
		cols: cols,
		data: make([]float64, rows*cols),
	}, nil
}

// SampleGridFromData wraps data (row-major, length rows*cols) without
// copying. The caller must not modify data afterwards.
func SampleGridFromData(rows, cols int, data []float64) (*SampleGrid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	if len(data) != rows*cols {
		return nil, ErrPlaneSize
	}

	return &SampleGrid{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the grid height.
func (g *SampleGrid) Rows() int {
	return g.rows
}

// Cols returns the grid width.
func (g *SampleGrid) Cols() int {
	return g.cols
}

// At returns the sample at (x, y). Bounds are the caller's responsibility.
func (g *SampleGrid) At(x, y int) float64 {
	return g.data[y*g.cols+x]
}

// Set writes the sample at (x, y). Bounds are the caller's responsibility.
func (g *SampleGrid) Set(x, y int, v float64) {
	g.data[y*g.cols+x] = v
}

// Data returns the underlying row-major slice.
func (g *SampleGrid) Data() []float64 {
	return g.data
}

// Clone returns a deep copy of the grid.
func (g *SampleGrid) Clone() *SampleGrid {
	data := make([]float64, len(g.data))
	copy(data, g.data)

	return &SampleGrid{rows: g.rows, cols: g.cols, data: data}
}
