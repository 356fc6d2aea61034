// Package telemetry collects frame timings and writes them as logs and CSV.
package telemetry

import (
	"log/slog"
	"time"
)

// Phase names of one rendered frame.
const (
	PhaseResize   = "resize"
	PhaseEvaluate = "evaluate"
	PhasePresent  = "present"
)

// Phases lists the frame phases in execution order.
var Phases = []string{PhaseResize, PhaseEvaluate, PhasePresent}

// FrameSample holds timing data for a single frame.
type FrameSample struct {
	Frame  uint64
	Time   float64 // effect time in seconds
	Width  int
	Height int
	Total  time.Duration
	Phases map[string]time.Duration
}

// FrameCollector tracks frame timings over a rolling window.
type FrameCollector struct {
	windowSize  int
	samples     []FrameSample
	writeIndex  int
	sampleCount int
	frames      uint64

	current    FrameSample
	frameStart time.Time
	phaseStart time.Time
	lastPhase  string

	// Wall-clock spacing between frames
	lastFrameTime time.Time
	frameInterval time.Duration
}

// NewFrameCollector creates a collector averaging over windowSize frames.
func NewFrameCollector(windowSize int) *FrameCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &FrameCollector{
		windowSize: windowSize,
		samples:    make([]FrameSample, windowSize),
	}
}

// StartFrame begins timing a frame.
func (c *FrameCollector) StartFrame() {
	c.frameStart = time.Now()
	c.current = FrameSample{Phases: make(map[string]time.Duration, len(Phases))}
	c.lastPhase = ""
}

// StartPhase begins timing a phase, ending the previous one.
func (c *FrameCollector) StartPhase(phase string) {
	now := time.Now()
	if c.lastPhase != "" {
		c.current.Phases[c.lastPhase] += now.Sub(c.phaseStart)
	}
	c.phaseStart = now
	c.lastPhase = phase
}

// EndFrame finishes the current frame and records it.
func (c *FrameCollector) EndFrame() {
	now := time.Now()
	if c.lastPhase != "" {
		c.current.Phases[c.lastPhase] += now.Sub(c.phaseStart)
	}
	c.current.Total = now.Sub(c.frameStart)
	c.Record(c.current)
}

// Record adds a frame measured elsewhere. A zero Total is filled with the
// sum of the phases.
func (c *FrameCollector) Record(s FrameSample) {
	if s.Total == 0 {
		for _, d := range s.Phases {
			s.Total += d
		}
	}

	now := time.Now()
	if !c.lastFrameTime.IsZero() {
		c.frameInterval = now.Sub(c.lastFrameTime)
	}
	c.lastFrameTime = now

	c.samples[c.writeIndex] = s
	c.writeIndex = (c.writeIndex + 1) % c.windowSize
	if c.sampleCount < c.windowSize {
		c.sampleCount++
	}
	c.frames++
}

// Frames returns the number of frames recorded since creation.
func (c *FrameCollector) Frames() uint64 { return c.frames }

// Samples returns the frames currently in the window, oldest first.
func (c *FrameCollector) Samples() []FrameSample {
	out := make([]FrameSample, 0, c.sampleCount)
	start := 0
	if c.sampleCount == c.windowSize {
		start = c.writeIndex
	}
	for i := 0; i < c.sampleCount; i++ {
		out = append(out, c.samples[(start+i)%c.windowSize])
	}
	return out
}

// FrameStats holds aggregated frame statistics.
type FrameStats struct {
	Frames int

	Total Summary // frame time in milliseconds

	// Phase breakdown
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	// Throughput the renderer could sustain, and the observed rate
	FramesPerSecond float64
	FPS             float64
}

// Stats computes aggregated statistics over the current window.
func (c *FrameCollector) Stats() FrameStats {
	var fps float64
	if c.frameInterval > 0 {
		fps = float64(time.Second) / float64(c.frameInterval)
	}

	out := FrameStats{
		Frames:   c.sampleCount,
		PhaseAvg: make(map[string]time.Duration),
		PhasePct: make(map[string]float64),
		FPS:      fps,
	}
	if c.sampleCount == 0 {
		return out
	}

	totals := make([]float64, 0, c.sampleCount)
	phaseSum := make(map[string]time.Duration)
	var totalSum time.Duration
	for _, s := range c.Samples() {
		totals = append(totals, ms(s.Total))
		totalSum += s.Total
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}
	out.Total = Summarize(totals)

	avg := totalSum / time.Duration(c.sampleCount)
	for phase, sum := range phaseSum {
		out.PhaseAvg[phase] = sum / time.Duration(c.sampleCount)
		if avg > 0 {
			out.PhasePct[phase] = float64(out.PhaseAvg[phase]) / float64(avg) * 100
		}
	}
	if avg > 0 {
		out.FramesPerSecond = float64(time.Second) / float64(avg)
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// LogValue implements slog.LogValuer for structured logging.
func (s FrameStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("frames", s.Frames),
		slog.Float64("mean_ms", s.Total.Mean),
		slog.Float64("p90_ms", s.Total.P90),
		slog.Float64("max_ms", s.Total.Max),
		slog.Float64("frames_per_sec", s.FramesPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range Phases {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// FrameCSV is a flat per-frame record for frames.csv.
type FrameCSV struct {
	Frame      uint64  `csv:"frame"`
	Time       float64 `csv:"time_s"`
	Width      int     `csv:"width"`
	Height     int     `csv:"height"`
	TotalUS    int64   `csv:"total_us"`
	ResizeUS   int64   `csv:"resize_us"`
	EvaluateUS int64   `csv:"evaluate_us"`
	PresentUS  int64   `csv:"present_us"`
}

// ToCSV flattens a frame sample.
func (s FrameSample) ToCSV() FrameCSV {
	return FrameCSV{
		Frame:      s.Frame,
		Time:       s.Time,
		Width:      s.Width,
		Height:     s.Height,
		TotalUS:    s.Total.Microseconds(),
		ResizeUS:   s.Phases[PhaseResize].Microseconds(),
		EvaluateUS: s.Phases[PhaseEvaluate].Microseconds(),
		PresentUS:  s.Phases[PhasePresent].Microseconds(),
	}
}
