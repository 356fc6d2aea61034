package smoke

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// State is the lifecycle state of an Effect's frame loop.
type State int

const (
	Idle State = iota
	Scheduled
	Running
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Scheduled:
		return "scheduled"
	case Running:
		return "running"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrMounted is returned when Mount is called on an effect that is already
// mounted or has been unmounted.
var ErrMounted = errors.New("smoke: effect already mounted")

// FrameStats describes one produced frame.
type FrameStats struct {
	Frame   uint64
	Time    float64 // seconds since the first frame
	Width   int
	Height  int
	Resized bool
	Resize  time.Duration
	Draw    time.Duration
}

// Option configures an Effect.
type Option func(*Effect)

// WithOpacity sets the composition opacity, clamped to [0, 1].
func WithOpacity(o float64) Option {
	return func(e *Effect) {
		e.opacity = Clamp(o, 0, 1)
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Effect) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithFrameObserver registers a callback invoked after every drawn frame.
func WithFrameObserver(fn func(FrameStats)) Option {
	return func(e *Effect) {
		e.observer = fn
	}
}

// Effect runs a Backend once per display refresh for as long as it is
// mounted. Mount moves it Idle -> Scheduled, each refresh Scheduled ->
// Running -> Scheduled, and Unmount moves any state to Cancelled and
// releases the pending frame request.
type Effect struct {
	mu       sync.Mutex
	backend  Backend
	opacity  float64
	logger   *slog.Logger
	observer func(FrameStats)

	state    State
	sched    Scheduler
	surface  Surface
	handle   FrameHandle
	degraded bool
	ready    bool // backend initialized

	started bool
	origin  time.Duration
	last    time.Duration
	width   int
	height  int
	frames  uint64
	draws   uint64
}

// NewEffect creates an unmounted effect drawing through b.
func NewEffect(b Backend, opts ...Option) *Effect {
	e := &Effect{
		backend: b,
		opacity: 0.5,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mount acquires the backend and schedules the first frame. When the
// rendering capability is unavailable the effect logs the cause and stays
// idle: no frames are requested and nothing is drawn.
func (e *Effect) Mount(s Surface, sched Scheduler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle || e.sched != nil {
		return ErrMounted
	}
	e.sched = sched
	e.surface = s

	if e.backend == nil {
		e.degrade(ErrCapabilityUnavailable)
		return nil
	}
	if err := e.backend.Init(); err != nil {
		if !IsDegraded(err) {
			err = fmt.Errorf("%w: %v", ErrCapabilityUnavailable, err)
		}
		e.degrade(err)
		return nil
	}
	e.ready = true

	e.state = Scheduled
	e.handle = sched.RequestFrame(e.frame)
	return nil
}

// Unmount stops the loop. The pending frame request is cancelled and the
// backend released; it is safe to call more than once.
func (e *Effect) Unmount() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Cancelled {
		return
	}
	if e.handle != 0 && e.sched != nil {
		e.sched.CancelFrame(e.handle)
		e.handle = 0
	}
	if e.ready {
		e.backend.Release()
		e.ready = false
	}
	e.state = Cancelled
}

// State returns the current lifecycle state.
func (e *Effect) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Degraded reports whether the effect has fallen back to rendering nothing.
func (e *Effect) Degraded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.degraded
}

// Draws returns the number of backend draw calls issued.
func (e *Effect) Draws() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draws
}

// Opacity returns the composition opacity.
func (e *Effect) Opacity() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opacity
}

// SetOpacity changes the composition opacity for subsequent frames.
func (e *Effect) SetOpacity(o float64) {
	e.mu.Lock()
	e.opacity = Clamp(o, 0, 1)
	e.mu.Unlock()
}

// frame is the self-rescheduling refresh callback. Plume time counts from
// the first frame and never runs backwards: a clock reading earlier than the
// previous one repeats the previous instant.
func (e *Effect) frame(now time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Scheduled {
		return
	}
	e.state = Running
	e.handle = 0

	if !e.started {
		e.started = true
		e.origin, e.last = now, now
	}
	if now < e.last {
		now = e.last
	}
	e.last = now

	e.draw(now - e.origin)
	if e.state != Running {
		return
	}
	e.state = Scheduled
	e.handle = e.sched.RequestFrame(e.frame)
}

// DrawAt draws one frame at plume time t outside the refresh loop, for hosts
// that render explicit instants. The loop's own clock and pending request are
// left as they are. It does nothing unless the effect is mounted and healthy.
func (e *Effect) DrawAt(t time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Scheduled || !e.ready {
		return
	}
	e.state = Running
	e.draw(max(t, 0))
	if e.state == Running {
		e.state = Scheduled
	}
}

// draw resizes and draws at plume time t. A degrading failure leaves the
// effect Idle. Caller holds e.mu.
func (e *Effect) draw(t time.Duration) {
	stats := FrameStats{Frame: e.frames}
	e.frames++

	// Pick up surface resizes before evaluating
	resizeStart := time.Now()
	w, h := e.surface.Size()
	if w != e.width || h != e.height {
		e.width, e.height = w, h
		if w > 0 && h > 0 {
			e.backend.Resize(w, h)
			stats.Resized = true
		}
	}
	stats.Resize = time.Since(resizeStart)

	if w <= 0 || h <= 0 {
		return
	}
	u := Uniforms{
		Width:   w,
		Height:  h,
		Time:    t.Seconds(),
		Opacity: e.opacity,
	}
	drawStart := time.Now()
	err := e.backend.Draw(u)
	stats.Draw = time.Since(drawStart)
	e.draws++

	if err != nil {
		if IsDegraded(err) {
			e.backend.Release()
			e.ready = false
			e.degrade(err)
			return
		}
		e.logger.Error("smoke frame failed", "frame", stats.Frame, "error", err)
	}

	stats.Time = u.Time
	stats.Width, stats.Height = w, h
	if e.observer != nil {
		e.observer(stats)
	}
}

// degrade switches to no-op rendering. Caller holds e.mu.
func (e *Effect) degrade(err error) {
	e.degraded = true
	e.state = Idle
	e.handle = 0
	e.logger.Warn("smoke effect disabled", "error", err)
}
