package recon

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-kspace/kspace/render"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

var (
	// ErrNilSpectrum is returned by Load when the spectrum is nil.
	ErrNilSpectrum = errors.New("recon: nil spectrum")
	// ErrNoSpectrumLoaded is returned for reconstructions requested
	// before any spectrum has been loaded.
	ErrNoSpectrumLoaded = errors.New("recon: no spectrum loaded")
	// ErrServiceClosed is returned for requests made after the worker
	// has exited. The session cannot be resumed.
	ErrServiceClosed = errors.New("recon: service closed")
	// ErrQueueFull is returned when the request queue cannot accept
	// another request without blocking.
	ErrQueueFull = errors.New("recon: request queue full")
)

// Kind identifies the request a Result answers.
type Kind string

const (
	KindLoad        Kind = "load"
	KindReconstruct Kind = "reconstruct"
)

// Result is the asynchronous reply to a Load or Reconstruct call. Image
// holds the reconstructed samples rendered as 8-bit grayscale. Mask
// echoes the request parameters for KindReconstruct replies. Seq is the
// sequence number handed out by the originating call.
type Result struct {
	Seq   uint64
	Kind  Kind
	Mask  transform.Mask
	Image *image.Gray
	Err   error
}

// Stats is a point-in-time snapshot of the service counters.
type Stats struct {
	Loads           uint64
	Reconstructions uint64
	Superseded      uint64
	Failures        uint64
	RepliesDropped  uint64
}

// Config defines service queue and logging settings.
type Config struct {
	QueueSize int
	Logger    *slog.Logger
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults for interactive use.
func DefaultConfig() Config {
	return Config{
		QueueSize: 32,
		Logger:    slog.Default(),
	}
}

// WithQueueSize sets the capacity of the request and reply queues.
func WithQueueSize(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.QueueSize = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *Config) {
		if logger != nil {
			cfg.Logger = logger
		}
	}
}

func applyOptions(opts ...Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// Service caches one spectrum at a time and serves masked
// reconstructions of it from a dedicated worker goroutine, keeping the
// numeric work off the caller's thread. Requests are processed in
// arrival order; queued reconstructions that have already been
// outdated by a newer one are folded away without a reply.
type Service struct {
	log      *slog.Logger
	requests chan request
	results  chan Result
	seq      atomic.Uint64
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu     sync.Mutex
	closed bool

	// spectrum is owned by the worker goroutine; nothing else touches it.
	spectrum *transform.Spectrum

	statLoads      atomic.Uint64
	statRecons     atomic.Uint64
	statSuperseded atomic.Uint64
	statFailures   atomic.Uint64
	statDropped    atomic.Uint64
}

type request struct {
	seq  uint64
	kind Kind
	spec *transform.Spectrum
	mask transform.Mask
}

// New starts a reconstruction service. The worker exits when ctx is
// cancelled or Stop is called; either way Results is closed afterwards.
func New(ctx context.Context, opts ...Option) *Service {
	cfg := applyOptions(opts...)
	s := &Service{
		log:      cfg.Logger,
		requests: make(chan request, cfg.QueueSize),
		results:  make(chan Result, cfg.QueueSize),
	}
	s.wg.Add(1)
	go s.worker(ctx)
	return s
}

// Load replaces the cached spectrum. Ownership of spec transfers to the
// service; the caller must not modify it afterwards. The reply carries
// the full, unmasked reconstruction of the new spectrum.
func (s *Service) Load(spec *transform.Spectrum) (uint64, error) {
	if spec == nil {
		return 0, ErrNilSpectrum
	}
	return s.enqueue(request{kind: KindLoad, spec: spec})
}

// Reconstruct queues a masked reconstruction of the cached spectrum.
// The mask is captured by value. The returned sequence number
// correlates the call with its asynchronous Result.
func (s *Service) Reconstruct(mask transform.Mask) (uint64, error) {
	if err := mask.Validate(); err != nil {
		return 0, err
	}
	return s.enqueue(request{kind: KindReconstruct, mask: mask})
}

// Results returns the reply channel. It is closed once the worker has
// exited; a closed channel ends the session.
func (s *Service) Results() <-chan Result {
	return s.results
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() Stats {
	return Stats{
		Loads:           s.statLoads.Load(),
		Reconstructions: s.statRecons.Load(),
		Superseded:      s.statSuperseded.Load(),
		Failures:        s.statFailures.Load(),
		RepliesDropped:  s.statDropped.Load(),
	}
}

// Stop closes the request queue, waits for the worker to drain it and
// then releases the reply channel. Safe to call more than once.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.requests)
		s.wg.Wait()
	})
}

// enqueue assigns the sequence number under the lock so sequence order
// always matches arrival order on the request queue.
func (s *Service) enqueue(req request) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrServiceClosed
	}
	req.seq = s.seq.Add(1)
	select {
	case s.requests <- req:
		return req.seq, nil
	default:
		return 0, ErrQueueFull
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.results)
	defer func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			s.log.Debug("reconstruction worker cancelled")
			return
		case req, ok := <-s.requests:
			if !ok {
				return
			}
			s.run(req)
		}
	}
}

// run executes req, first folding away reconstructions that a newer
// request queued behind them has already outdated. Loads act as
// barriers and always execute.
func (s *Service) run(req request) {
	for req.kind == KindReconstruct {
		next, ok := s.tryNext()
		if !ok {
			break
		}
		if next.kind == KindReconstruct {
			s.statSuperseded.Add(1)
			s.log.Debug("reconstruction superseded", "stale", req.seq, "fresh", next.seq)
			req = next
			continue
		}
		s.handle(req)
		req = next
	}
	s.handle(req)
}

// tryNext receives a queued request without blocking.
func (s *Service) tryNext() (request, bool) {
	select {
	case req, ok := <-s.requests:
		return req, ok
	default:
		return request{}, false
	}
}

func (s *Service) handle(req request) {
	start := time.Now()
	res := Result{Seq: req.seq, Kind: req.kind}
	switch req.kind {
	case KindLoad:
		s.spectrum = req.spec
		res.Image, res.Err = reconstruct(req.spec, nil)
		s.statLoads.Add(1)
	case KindReconstruct:
		res.Mask = req.mask
		if s.spectrum == nil {
			res.Err = ErrNoSpectrumLoaded
		} else {
			res.Image, res.Err = reconstruct(s.spectrum, &req.mask)
		}
		s.statRecons.Add(1)
	}
	if res.Err != nil {
		s.statFailures.Add(1)
		s.log.Warn("request failed", "kind", req.kind, "seq", req.seq, "err", res.Err)
	} else {
		s.log.Debug("request served", "kind", req.kind, "seq", req.seq, "elapsed", time.Since(start))
	}
	s.emit(res)
}

// reconstruct runs the masked inverse transform and renders the result.
func reconstruct(spec *transform.Spectrum, mask *transform.Mask) (*image.Gray, error) {
	grid, err := transform.Inverse(spec, mask)
	if err != nil {
		return nil, fmt.Errorf("recon: inverse transform: %w", err)
	}
	img, err := render.Samples(grid)
	if err != nil {
		return nil, fmt.Errorf("recon: render samples: %w", err)
	}
	return img, nil
}

// emit delivers res without ever blocking the worker. When the consumer
// lags the oldest queued reply is discarded so the freshest one always
// gets through.
func (s *Service) emit(res Result) {
	for {
		select {
		case s.results <- res:
			return
		default:
		}
		select {
		case old := <-s.results:
			s.statDropped.Add(1)
			s.log.Warn("reply dropped, consumer lagging", "seq", old.Seq, "kind", old.Kind)
		default:
		}
	}
}
