package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/showfx/config"
)

// SummaryCSV is one window summary row for summary.csv.
type SummaryCSV struct {
	WindowEnd uint64  `csv:"window_end"`
	Frames    int     `csv:"frames"`
	MeanMS    float64 `csv:"mean_ms"`
	StdMS     float64 `csv:"std_ms"`
	P50MS     float64 `csv:"p50_ms"`
	P90MS     float64 `csv:"p90_ms"`
	P99MS     float64 `csv:"p99_ms"`
	MaxMS     float64 `csv:"max_ms"`
	FPS       float64 `csv:"fps"`

	ResizePct   float64 `csv:"resize_pct"`
	EvaluatePct float64 `csv:"evaluate_pct"`
	PresentPct  float64 `csv:"present_pct"`
}

// ToCSV flattens window statistics.
func (s FrameStats) ToCSV(windowEnd uint64) SummaryCSV {
	return SummaryCSV{
		WindowEnd:   windowEnd,
		Frames:      s.Frames,
		MeanMS:      s.Total.Mean,
		StdMS:       s.Total.Std,
		P50MS:       s.Total.P50,
		P90MS:       s.Total.P90,
		P99MS:       s.Total.P99,
		MaxMS:       s.Total.Max,
		FPS:         s.FPS,
		ResizePct:   s.PhasePct[PhaseResize],
		EvaluatePct: s.PhasePct[PhaseEvaluate],
		PresentPct:  s.PhasePct[PhasePresent],
	}
}

// OutputManager writes frame telemetry as CSV.
type OutputManager struct {
	dir         string
	framesFile  *os.File
	summaryFile *os.File

	// Track if headers have been written
	framesHeaderWritten  bool
	summaryHeaderWritten bool
}

// NewOutputManager creates the output directory and files.
// Returns nil if dir is empty (output disabled); all methods accept a nil receiver.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "frames.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating frames.csv: %w", err)
	}
	om.framesFile = f

	f, err = os.Create(filepath.Join(dir, "summary.csv"))
	if err != nil {
		om.framesFile.Close()
		return nil, fmt.Errorf("creating summary.csv: %w", err)
	}
	om.summaryFile = f

	return om, nil
}

// WriteConfig saves the configuration in effect as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFrame appends one frame record to frames.csv.
func (om *OutputManager) WriteFrame(s FrameSample) error {
	if om == nil {
		return nil
	}
	if err := writeRows(om.framesFile, []FrameCSV{s.ToCSV()}, &om.framesHeaderWritten); err != nil {
		return fmt.Errorf("writing frame: %w", err)
	}
	return nil
}

// WriteSummary appends a window summary to summary.csv.
func (om *OutputManager) WriteSummary(s FrameStats, windowEnd uint64) error {
	if om == nil {
		return nil
	}
	if err := writeRows(om.summaryFile, []SummaryCSV{s.ToCSV(windowEnd)}, &om.summaryHeaderWritten); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// writeRows writes the header with the first batch only.
func writeRows[T any](f *os.File, rows []T, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(rows, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(rows, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.framesFile, om.summaryFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
