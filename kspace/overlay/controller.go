package overlay

import (
	"errors"
	"math"
	"sync"
	"time"

	"github.com/cwbudde/algo-kspace/kspace/core"
	"github.com/cwbudde/algo-kspace/kspace/transform"
)

// ErrInvalidBounds is returned when natural or display dimensions are
// not positive.
var ErrInvalidBounds = errors.New("overlay: natural and display dimensions must be positive")

// State is the current gesture of the controller.
type State int

const (
	StateIdle State = iota
	StateDraggingCenter
	StateResizingRadius
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDraggingCenter:
		return "dragging-center"
	case StateResizingRadius:
		return "resizing-radius"
	default:
		return "unknown"
	}
}

// Config defines gesture and debounce settings for a Controller.
type Config struct {
	// Debounce is how long a drag must quiesce before a commit fires.
	Debounce time.Duration
	// HitRadius is the pick distance around the resize handle, in
	// display pixels.
	HitRadius float64
	// MinRadius is the smallest allowed circle radius, in display
	// pixels.
	MinRadius float64
	// CommitFunc receives the natural-coordinate mask of every
	// debounced or final commit.
	CommitFunc func(transform.Mask)
	// SettledFunc fires once per completed gesture, after the final
	// commit.
	SettledFunc func(transform.Mask)
	// PreviewFunc receives the display-space radius continuously while
	// resizing.
	PreviewFunc func(float64)
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns sensible defaults for pointer interaction.
func DefaultConfig() Config {
	return Config{
		Debounce:  150 * time.Millisecond,
		HitRadius: 10,
		MinRadius: 5,
	}
}

// WithDebounce sets the commit debounce interval.
func WithDebounce(d time.Duration) Option {
	return func(cfg *Config) {
		if d > 0 {
			cfg.Debounce = d
		}
	}
}

// WithHitRadius sets the resize-handle pick distance in display pixels.
func WithHitRadius(r float64) Option {
	return func(cfg *Config) {
		if r > 0 {
			cfg.HitRadius = r
		}
	}
}

// WithMinRadius sets the smallest allowed circle radius in display
// pixels.
func WithMinRadius(r float64) Option {
	return func(cfg *Config) {
		if r > 0 {
			cfg.MinRadius = r
		}
	}
}

// WithCommitFunc sets the commit callback.
func WithCommitFunc(fn func(transform.Mask)) Option {
	return func(cfg *Config) {
		cfg.CommitFunc = fn
	}
}

// WithSettledFunc sets the gesture-settled callback.
func WithSettledFunc(fn func(transform.Mask)) Option {
	return func(cfg *Config) {
		cfg.SettledFunc = fn
	}
}

// WithPreviewFunc sets the live radius preview callback.
func WithPreviewFunc(fn func(float64)) Option {
	return func(cfg *Config) {
		cfg.PreviewFunc = fn
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

// Controller turns pointer gestures over a displayed spectrum into
// natural-coordinate mask commits. The circle lives in display space;
// the natural mask is derived on demand. One gesture is active at a
// time, so a center drag and a radius resize can never overlap.
//
// The controller itself never blocks: pointer handlers update local
// state and re-arm a debounce timer, and callbacks run outside the
// internal lock on the caller's goroutine (or the timer's).
type Controller struct {
	mu sync.Mutex

	naturalW, naturalH int
	displayW, displayH float64

	// current circle, display space
	cx, cy, radius float64

	state   State
	enabled bool

	debounce  time.Duration
	hitRadius float64
	minRadius float64

	timer *time.Timer
	gen   uint64

	commitFn  func(transform.Mask)
	settledFn func(transform.Mask)
	previewFn func(float64)
}

// NewController creates a controller for a spectrum of
// naturalW x naturalH pixels shown at displayW x displayH. The circle
// starts centered with a radius of a quarter of the smaller display
// dimension.
func NewController(naturalW, naturalH, displayW, displayH int, opts ...Option) (*Controller, error) {
	if naturalW <= 0 || naturalH <= 0 || displayW <= 0 || displayH <= 0 {
		return nil, ErrInvalidBounds
	}
	cfg := applyOptions(opts...)
	c := &Controller{
		naturalW:  naturalW,
		naturalH:  naturalH,
		displayW:  float64(displayW),
		displayH:  float64(displayH),
		enabled:   true,
		debounce:  cfg.Debounce,
		hitRadius: cfg.HitRadius,
		minRadius: cfg.MinRadius,
		commitFn:  cfg.CommitFunc,
		settledFn: cfg.SettledFunc,
		previewFn: cfg.PreviewFunc,
	}
	c.cx = c.displayW / 2
	c.cy = c.displayH / 2
	c.radius = math.Max(math.Min(c.displayW, c.displayH)/4, c.minRadius)
	return c, nil
}

// PointerDown starts a gesture at display coordinates (x, y). A press
// on the resize handle starts a resize; a press elsewhere inside the
// circle grabs the center and moves it there immediately, without
// requesting a reconstruction yet. Presses outside the circle, while
// disabled or during another gesture are ignored.
func (c *Controller) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled || c.state != StateIdle {
		return
	}
	hx, hy := c.handleLocked()
	switch {
	case math.Hypot(x-hx, y-hy) <= c.hitRadius:
		c.state = StateResizingRadius
	case math.Hypot(x-c.cx, y-c.cy) <= c.radius:
		c.state = StateDraggingCenter
		c.cx, c.cy = c.clampCenterLocked(x, y)
	}
}

// PointerMove updates the active gesture with a new display position
// and re-arms the debounced commit. Moves while idle or disabled are
// ignored.
func (c *Controller) PointerMove(x, y float64) {
	c.mu.Lock()
	if !c.enabled || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	var preview func(float64)
	var radius float64
	switch c.state {
	case StateDraggingCenter:
		c.cx, c.cy = c.clampCenterLocked(x, y)
	case StateResizingRadius:
		c.radius = c.clampRadiusLocked(math.Hypot(x-c.cx, y-c.cy))
		preview = c.previewFn
		radius = c.radius
	}
	c.scheduleCommitLocked()
	c.mu.Unlock()
	if preview != nil {
		preview(radius)
	}
}

// PointerUp ends the active gesture: any pending debounce timer is
// cancelled and one final commit with the latest mask fires
// immediately, so the displayed circle and the last requested
// reconstruction always agree once the gesture ends.
func (c *Controller) PointerUp() {
	c.finishGesture()
}

// PointerCancel ends the active gesture the same way PointerUp does.
func (c *Controller) PointerCancel() {
	c.finishGesture()
}

func (c *Controller) finishGesture() {
	c.mu.Lock()
	if !c.enabled || c.state == StateIdle {
		c.mu.Unlock()
		return
	}
	c.state = StateIdle
	c.invalidateTimerLocked()
	mask := c.naturalMaskLocked()
	commit := c.commitFn
	settled := c.settledFn
	c.mu.Unlock()
	if commit != nil {
		commit(mask)
	}
	if settled != nil {
		settled(mask)
	}
}

// SetEnabled shows or hides the overlay for input purposes. Disabling
// mid-gesture drops the gesture and any pending commit without firing
// callbacks.
func (c *Controller) SetEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled == enabled {
		return
	}
	c.enabled = enabled
	if !enabled {
		c.state = StateIdle
		c.invalidateTimerLocked()
	}
}

// SetDisplaySize rescales the circle to a new display size, keeping its
// relative position. The natural mask is unchanged when the aspect
// ratio is preserved.
func (c *Controller) SetDisplaySize(width, height int) error {
	if width <= 0 || height <= 0 {
		return ErrInvalidBounds
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	sx := float64(width) / c.displayW
	sy := float64(height) / c.displayH
	c.displayW = float64(width)
	c.displayH = float64(height)
	c.cx *= sx
	c.cy *= sy
	c.radius = c.clampRadiusLocked(c.radius * math.Min(sx, sy))
	c.cx, c.cy = c.clampCenterLocked(c.cx, c.cy)
	return nil
}

// State returns the current gesture state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Enabled reports whether the controller accepts pointer input.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

// Mask returns the current circle in natural spectrum coordinates,
// rounded to the nearest pixel.
func (c *Controller) Mask() transform.Mask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.naturalMaskLocked()
}

// Display returns the current circle in display coordinates.
func (c *Controller) Display() (cx, cy, radius float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cx, c.cy, c.radius
}

// Handle returns the display position of the resize handle, which sits
// on the circle at 45 degrees below-right of the center.
func (c *Controller) Handle() (x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handleLocked()
}

func (c *Controller) handleLocked() (x, y float64) {
	return c.cx + c.radius/math.Sqrt2, c.cy + c.radius/math.Sqrt2
}

// scheduleCommitLocked re-arms the debounce timer with the current
// mask. Only the last timer armed during a burst survives; earlier ones
// are invalidated by the generation counter even if they already fired.
func (c *Controller) scheduleCommitLocked() {
	c.gen++
	gen := c.gen
	mask := c.naturalMaskLocked()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		commit := c.commitFn
		c.mu.Unlock()
		if commit != nil {
			commit(mask)
		}
	})
}

func (c *Controller) invalidateTimerLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// clampCenterLocked keeps the circle inside the display bounds. When
// the circle is wider or taller than the image the center falls back to
// the midpoint of that axis.
func (c *Controller) clampCenterLocked(x, y float64) (float64, float64) {
	return clampAxis(x, c.radius, c.displayW), clampAxis(y, c.radius, c.displayH)
}

func clampAxis(v, radius, size float64) float64 {
	if 2*radius >= size {
		return size / 2
	}
	return core.Clamp(v, radius, size-radius)
}

// clampRadiusLocked bounds the radius between the minimum radius and
// the distance from the center to the nearest display edge. The upper
// bound moves with the center, so the same drag can allow different
// radii at different positions.
func (c *Controller) clampRadiusLocked(r float64) float64 {
	limit := math.Min(
		math.Min(c.cx, c.displayW-c.cx),
		math.Min(c.cy, c.displayH-c.cy),
	)
	if limit < c.minRadius {
		limit = c.minRadius
	}
	return core.Clamp(r, c.minRadius, limit)
}

// naturalMaskLocked maps the display circle to natural coordinates.
// The radius maps through the horizontal scale factor; hosts keep the
// aspect ratio, so both factors agree.
func (c *Controller) naturalMaskLocked() transform.Mask {
	sx := float64(c.naturalW) / c.displayW
	sy := float64(c.naturalH) / c.displayH
	radius := int(math.Round(c.radius * sx))
	if radius < 1 {
		radius = 1
	}
	return transform.Mask{
		CX:     int(math.Round(c.cx * sx)),
		CY:     int(math.Round(c.cy * sy)),
		Radius: radius,
	}
}
