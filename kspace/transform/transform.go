package transform

import (
	"sync"

	"github.com/cwbudde/algo-kspace/internal/bufpool"
)

// linePool recycles the complex row/column scratch used by the separable
// passes; one line of max(rows, cols) coefficients per transform call.
var linePool = sync.Pool{
	New: func() any {
		buf := make([]complex128, 0, 512)
		return &buf
	},
}

// planePool recycles the float64 working planes used by the masked
// inverse path.
var planePool = bufpool.New()

func borrowLine(n int) (*[]complex128, []complex128) {
	bufPtr := linePool.Get().(*[]complex128)
	buf := *bufPtr
	if cap(buf) < n {
		buf = make([]complex128, n)
	}
	buf = buf[:n]
	*bufPtr = buf

	return bufPtr, buf
}

// Forward computes the centered 2D discrete Fourier transform of grid.
// Each sample (x, y) is multiplied by (−1)^(x+y) first — the checkerboard
// phase flip — which shifts the zero frequency to the grid center without
// a separate quadrant swap. The 1D transform runs along each row, then
// along each column of the result.
func Forward(grid *SampleGrid) (*Spectrum, error) {
	if grid == nil || grid.rows <= 0 || grid.cols <= 0 {
		return nil, ErrInvalidDimensions
	}

	rows, cols := grid.rows, grid.cols
	n := rows * cols
	spec := &Spectrum{
		rows: rows,
		cols: cols,
		re:   make([]float64, n),
		im:   make([]float64, n),
	}

	rowPlan := getPlan(cols)
	colPlan := getPlan(rows)

	linePtr, line := borrowLine(max(rows, cols))
	defer linePool.Put(linePtr)

	row := line[:cols]
	for y := 0; y < rows; y++ {
		base := y * cols
		for x := 0; x < cols; x++ {
			v := grid.data[base+x]
			if (x+y)&1 == 1 {
				v = -v
			}
			row[x] = complex(v, 0)
		}
		rowPlan.forward(row)
		for x := 0; x < cols; x++ {
			spec.re[base+x] = real(row[x])
			spec.im[base+x] = imag(row[x])
		}
	}

	col := line[:rows]
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			i := y*cols + x
			col[y] = complex(spec.re[i], spec.im[i])
		}
		colPlan.forward(col)
		for y := 0; y < rows; y++ {
			i := y*cols + x
			spec.re[i] = real(col[y])
			spec.im[i] = imag(col[y])
		}
	}

	return spec, nil
}

// Inverse computes the inverse of the centered 2D transform. When mask is
// non-nil, every coefficient outside the mask circle is zeroed on a working
// copy before transforming; spec itself is never modified. Columns are
// transformed first, then rows, mirroring Forward, and the checkerboard
// flip is undone on the real part of the output.
func Inverse(spec *Spectrum, mask *Mask) (*SampleGrid, error) {
	if spec == nil || spec.rows <= 0 || spec.cols <= 0 {
		return nil, ErrInvalidDimensions
	}
	if mask != nil {
		if err := mask.Validate(); err != nil {
			return nil, err
		}
	}

	rows, cols := spec.rows, spec.cols
	n := rows * cols

	workRe := planePool.Get(n)
	defer planePool.Put(workRe)
	workIm := planePool.Get(n)
	defer planePool.Put(workIm)

	re, im := workRe.Data(), workIm.Data()
	if mask == nil {
		copy(re, spec.re)
		copy(im, spec.im)
	} else {
		for y := 0; y < rows; y++ {
			base := y * cols
			for x := 0; x < cols; x++ {
				if mask.Contains(x, y) {
					re[base+x] = spec.re[base+x]
					im[base+x] = spec.im[base+x]
				}
			}
		}
	}

	colPlan := getPlan(rows)
	rowPlan := getPlan(cols)

	linePtr, line := borrowLine(max(rows, cols))
	defer linePool.Put(linePtr)

	col := line[:rows]
	for x := 0; x < cols; x++ {
		for y := 0; y < rows; y++ {
			i := y*cols + x
			col[y] = complex(re[i], im[i])
		}
		colPlan.inverse(col)
		for y := 0; y < rows; y++ {
			i := y*cols + x
			re[i] = real(col[y])
			im[i] = imag(col[y])
		}
	}

	grid := &SampleGrid{
		rows: rows,
		cols: cols,
		data: make([]float64, n),
	}

	row := line[:cols]
	for y := 0; y < rows; y++ {
		base := y * cols
		for x := 0; x < cols; x++ {
			row[x] = complex(re[base+x], im[base+x])
		}
		rowPlan.inverse(row)
		for x := 0; x < cols; x++ {
			v := real(row[x])
			if (x+y)&1 == 1 {
				v = -v
			}
			grid.data[base+x] = v
		}
	}

	return grid, nil
}
