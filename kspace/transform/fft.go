package transform

import (
	"math"
	"math/cmplx"
	"sync"
)

// plan holds the precomputed tables for a fixed-length 1D discrete Fourier
// transform. Power-of-two lengths run an iterative radix-2 Cooley-Tukey
// pass; every other length runs Bluestein's chirp-z algorithm, which
// reduces an arbitrary-length DFT to a power-of-two circular convolution.
// Forward transforms are unnormalized; the inverse scales by 1/n.
type plan struct {
	n int

	// radix-2 tables, nil on Bluestein plans (sub carries them)
	twiddle []complex128 // exp(-2πi·j/n) for j < n/2
	rev     []int        // bit-reversal permutation

	// Bluestein tables, nil for power-of-two lengths
	m     int          // convolution length, power of two ≥ 2n−1
	chirp []complex128 // exp(-iπ·j²/n) for j < n
	bfft  []complex128 // forward transform of the padded chirp kernel
	sub   *plan        // radix-2 plan of length m
}

// plans are cached per length for the lifetime of the process; an
// interactive session hits the same two lengths on every request.
var planCache sync.Map // int → *plan

func getPlan(n int) *plan {
	if v, ok := planCache.Load(n); ok {
		return v.(*plan)
	}

	v, _ := planCache.LoadOrStore(n, newPlan(n))

	return v.(*plan)
}

func newPlan(n int) *plan {
	p := &plan{n: n}
	if isPow2(n) {
		p.twiddle = forwardTwiddles(n)
		p.rev = bitReversal(n)
		return p
	}

	p.m = nextPow2(2*n - 1)
	p.chirp = chirpTable(n)
	p.sub = &plan{
		n:       p.m,
		twiddle: forwardTwiddles(p.m),
		rev:     bitReversal(p.m),
	}
	p.bfft = bluesteinKernel(p.chirp, n, p.m, p.sub)

	return p
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

func forwardTwiddles(n int) []complex128 {
	if n < 2 {
		return nil
	}

	w := make([]complex128, n/2)
	for j := range w {
		ang := -2 * math.Pi * float64(j) / float64(n)
		w[j] = complex(math.Cos(ang), math.Sin(ang))
	}

	return w
}

func bitReversal(n int) []int {
	rev := make([]int, n)
	for i := 1; i < n; i++ {
		rev[i] = rev[i>>1] >> 1
		if i&1 == 1 {
			rev[i] |= n >> 1
		}
	}

	return rev
}

// chirpTable returns exp(-iπ·j²/n). The j² argument is reduced modulo 2n
// before the trig evaluation to keep angles small and accurate for large j.
func chirpTable(n int) []complex128 {
	c := make([]complex128, n)
	for j := 0; j < n; j++ {
		t := (j * j) % (2 * n)
		ang := -math.Pi * float64(t) / float64(n)
		c[j] = complex(math.Cos(ang), math.Sin(ang))
	}

	return c
}

// bluesteinKernel builds the length-m forward transform of the chirp
// convolution kernel b, where b[j] = conj(chirp[j]) for |j| < n with
// negative indices wrapped to the tail of the buffer.
func bluesteinKernel(chirp []complex128, n, m int, sub *plan) []complex128 {
	b := make([]complex128, m)
	b[0] = cmplx.Conj(chirp[0])
	for j := 1; j < n; j++ {
		v := cmplx.Conj(chirp[j])
		b[j] = v
		b[m-j] = v
	}
	sub.radix2(b)

	return b
}

// forward computes the in-place unnormalized DFT of a, len(a) == p.n.
func (p *plan) forward(a []complex128) {
	if p.sub != nil {
		p.bluestein(a)
		return
	}
	p.radix2(a)
}

// inverse computes the in-place inverse DFT of a with 1/n scaling, using
// the conjugation identity idft(x) = conj(dft(conj(x)))/n.
func (p *plan) inverse(a []complex128) {
	for j := range a {
		a[j] = cmplx.Conj(a[j])
	}
	p.forward(a)

	scale := 1 / float64(p.n)
	for j := range a {
		a[j] = complex(real(a[j])*scale, -imag(a[j])*scale)
	}
}

func (p *plan) radix2(a []complex128) {
	n := p.n
	if n < 2 {
		return
	}

	for i, j := range p.rev {
		if i < j {
			a[i], a[j] = a[j], a[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		step := n / size
		for start := 0; start < n; start += size {
			k := 0
			for off := start; off < start+half; off++ {
				t := p.twiddle[k] * a[off+half]
				a[off+half] = a[off] - t
				a[off] += t
				k += step
			}
		}
	}
}

var convPool = sync.Pool{
	New: func() any {
		buf := make([]complex128, 0, 1024)
		return &buf
	},
}

func (p *plan) bluestein(a []complex128) {
	bufPtr := convPool.Get().(*[]complex128)
	buf := *bufPtr
	if cap(buf) < p.m {
		buf = make([]complex128, p.m)
	}
	buf = buf[:p.m]

	n, m := p.n, p.m
	for j := 0; j < n; j++ {
		buf[j] = a[j] * p.chirp[j]
	}
	for j := n; j < m; j++ {
		buf[j] = 0
	}

	// circular convolution with the chirp kernel via the length-m pair
	p.sub.radix2(buf)
	for j := range buf {
		buf[j] *= p.bfft[j]
	}
	for j := range buf {
		buf[j] = cmplx.Conj(buf[j])
	}
	p.sub.radix2(buf)

	scale := 1 / float64(m)
	for k := 0; k < n; k++ {
		conv := complex(real(buf[k])*scale, -imag(buf[k])*scale)
		a[k] = conv * p.chirp[k]
	}

	*bufPtr = buf
	convPool.Put(bufPtr)
}
