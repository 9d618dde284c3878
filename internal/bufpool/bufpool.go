// Package bufpool provides sync.Pool-backed reuse of spectrum-sized
// float64 planes. The transform and render hot paths need short-lived
// working copies of full coefficient planes; pooling them keeps steady
// interactive use allocation-free.
package bufpool

import "sync"

// Plane is a reusable float64 scratch plane.
type Plane struct {
	data []float64
}

// Data returns the underlying slice.
func (pl *Plane) Data() []float64 {
	return pl.data
}

// Len returns the current plane length.
func (pl *Plane) Len() int {
	return len(pl.data)
}

// Zero sets every element to 0.
func (pl *Plane) Zero() {
	for i := range pl.data {
		pl.data[i] = 0
	}
}

func (pl *Plane) resize(n int) {
	if n < 0 {
		n = 0
	}
	if cap(pl.data) < n {
		pl.data = make([]float64, n)
		return
	}
	pl.data = pl.data[:n]
}

// Pool provides sync.Pool-based Plane reuse.
type Pool struct {
	pool sync.Pool
}

// New returns a Pool ready for use.
func New() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any {
				return &Plane{}
			},
		},
	}
}

// Get returns a Plane with the requested length. The plane is zeroed.
// Callers must return it via Put when done.
func (p *Pool) Get(length int) *Plane {
	pl := p.pool.Get().(*Plane)
	pl.resize(length)
	pl.Zero()
	return pl
}

// Put returns a Plane to the pool for reuse.
// The caller must not use the plane after calling Put.
func (p *Pool) Put(pl *Plane) {
	if pl == nil {
		return
	}
	p.pool.Put(pl)
}
