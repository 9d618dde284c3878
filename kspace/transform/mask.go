package transform

// Mask selects the circular spectrum region centered at (CX, CY) with the
// given radius, all in natural (spectrum) pixel coordinates. The circle is
// inclusive: a coefficient at (x, y) is kept when
// (x−CX)² + (y−CY)² ≤ Radius². The center may lie outside the spectrum;
// only the intersection with valid indices matters.
//
// Masks cross goroutine boundaries by value; there is no shared mutable
// mask state.
type Mask struct {
	CX     int
	CY     int
	Radius int
}

// Contains reports whether coefficient (x, y) falls inside the mask circle.
func (m Mask) Contains(x, y int) bool {
	dx := x - m.CX
	dy := y - m.CY

	return dx*dx+dy*dy <= m.Radius*m.Radius
}

// Validate checks the mask against the minimum radius requirement.
func (m Mask) Validate() error {
	if m.Radius < 1 {
		return ErrInvalidMask
	}

	return nil
}

// Covers reports whether the mask includes every coefficient of a
// rows × cols spectrum, in which case masking is a no-op.
func (m Mask) Covers(rows, cols int) bool {
	corners := [4][2]int{
		{0, 0},
		{cols - 1, 0},
		{0, rows - 1},
		{cols - 1, rows - 1},
	}
	for _, c := range corners {
		if !m.Contains(c[0], c[1]) {
			return false
		}
	}

	return true
}
