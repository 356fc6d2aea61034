package smoke

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// FrameFunc is invoked once for a requested frame with the host's
// monotonic clock reading.
type FrameFunc func(now time.Duration)

// FrameHandle identifies a pending frame request. Zero is never issued.
type FrameHandle uint64

// Scheduler is the display-refresh primitive: each request fires at most
// once, on the next refresh.
type Scheduler interface {
	RequestFrame(fn FrameFunc) FrameHandle
	CancelFrame(h FrameHandle)
}

// ManualScheduler queues frame requests until the host calls Pump, once per
// display refresh. Callbacks requested during a Pump run on the next one.
type ManualScheduler struct {
	mu       sync.Mutex
	next     FrameHandle
	pending  map[FrameHandle]FrameFunc
	requests uint64
	cancels  uint64
}

// NewManualScheduler creates an empty scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{pending: make(map[FrameHandle]FrameFunc)}
}

// RequestFrame implements Scheduler.
func (s *ManualScheduler) RequestFrame(fn FrameFunc) FrameHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.requests++
	s.pending[s.next] = fn
	return s.next
}

// CancelFrame implements Scheduler. Cancelling an unknown or already fired
// handle is a no-op.
func (s *ManualScheduler) CancelFrame(h FrameHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[h]; ok {
		delete(s.pending, h)
		s.cancels++
	}
}

// Pump fires every pending callback in request order and returns how many ran.
func (s *ManualScheduler) Pump(now time.Duration) int {
	s.mu.Lock()
	if len(s.pending) == 0 {
		s.mu.Unlock()
		return 0
	}
	handles := make([]FrameHandle, 0, len(s.pending))
	for h := range s.pending {
		handles = append(handles, h)
	}
	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	s.mu.Unlock()

	// Callbacks may request or cancel frames, so each handle is claimed
	// under the lock and invoked without it. A handle cancelled by an
	// earlier callback in this pump never fires.
	fired := 0
	for _, h := range handles {
		s.mu.Lock()
		fn, ok := s.pending[h]
		delete(s.pending, h)
		s.mu.Unlock()
		if !ok {
			continue
		}
		fn(now)
		fired++
	}
	return fired
}

// Pending returns the number of queued requests.
func (s *ManualScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Requests returns the total number of RequestFrame calls.
func (s *ManualScheduler) Requests() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

// Cancels returns how many pending requests were cancelled.
func (s *ManualScheduler) Cancels() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancels
}

// TickerScheduler pumps a ManualScheduler from a goroutine at a fixed
// refresh interval. It is the refresh source for hosts without a display.
type TickerScheduler struct {
	*ManualScheduler

	interval time.Duration
	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewTickerScheduler creates a scheduler refreshing every interval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickerScheduler{
		ManualScheduler: NewManualScheduler(),
		interval:        interval,
	}
}

// Start begins refreshing until ctx is done or Stop is called.
func (s *TickerScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return errors.New("smoke: ticker scheduler already started")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	return nil
}

func (s *TickerScheduler) run(ctx context.Context, done chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer close(done)

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Pump(time.Since(start))
		}
	}
}

// Stop halts refreshing and waits for the refresh goroutine to exit.
func (s *TickerScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
