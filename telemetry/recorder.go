package telemetry

import (
	"log/slog"
	"sync"
)

// Recorder feeds frames into a collector, appends them to CSV output and
// periodically logs and stores a window summary. It is safe for concurrent
// use.
type Recorder struct {
	mu         sync.Mutex
	collector  *FrameCollector
	out        *OutputManager
	logger     *slog.Logger
	logEvery   int
	flushEvery int
	failed     bool
}

// NewRecorder creates a recorder. out may be nil to disable CSV output;
// logEvery and flushEvery of zero disable periodic logging and summaries.
func NewRecorder(window int, out *OutputManager, logger *slog.Logger, logEvery, flushEvery int) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		collector:  NewFrameCollector(window),
		out:        out,
		logger:     logger,
		logEvery:   logEvery,
		flushEvery: flushEvery,
	}
}

// Observe records one frame.
func (r *Recorder) Observe(s FrameSample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.collector.Record(s)
	n := r.collector.Frames()

	if err := r.out.WriteFrame(s); err != nil {
		r.fail(err)
	}
	if r.flushEvery > 0 && n%uint64(r.flushEvery) == 0 {
		if err := r.out.WriteSummary(r.collector.Stats(), n); err != nil {
			r.fail(err)
		}
	}
	if r.logEvery > 0 && n%uint64(r.logEvery) == 0 {
		r.logger.Info("frames", "stats", r.collector.Stats())
	}
}

// fail logs the first output error only. Caller holds r.mu.
func (r *Recorder) fail(err error) {
	if r.failed {
		return
	}
	r.failed = true
	r.logger.Error("telemetry output failed", "dir", r.out.Dir(), "error", err)
}

// Stats returns the statistics of the current window.
func (r *Recorder) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collector.Stats()
}

// Frames returns the number of frames observed.
func (r *Recorder) Frames() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.collector.Frames()
}
