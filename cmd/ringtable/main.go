// Ring keyframe table - dumps every tile's path around the ring as CSV.
//
// Usage: go run ./cmd/ringtable [-config showfx.yaml] [-o keyframes.csv]
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/showfx/config"
	"github.com/pthm-cable/showfx/perimeter"
	"github.com/pthm-cable/showfx/stage"
)

// KeyframeRow is one waypoint of one tile.
type KeyframeRow struct {
	Tile    int     `csv:"tile"`
	Frame   int     `csv:"frame"`
	Percent float64 `csv:"percent"` // keyframe offset within the revolution
	CellX   int     `csv:"cell_x"`
	CellY   int     `csv:"cell_y"`
	Left    string  `csv:"left"` // CSS position of the tile
	Top     string  `csv:"top"`
	Delay   float64 `csv:"delay_s"`
}

func main() {
	configPath := flag.String("config", "", "Path to config file (uses embedded defaults if empty)")
	out := flag.String("o", "", "Output file (stdout if empty)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("loading config", "error", err)
		os.Exit(1)
	}
	s, err := stage.FromConfig(cfg)
	if err != nil {
		logger.Error("building ring", "error", err)
		os.Exit(1)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			logger.Error("creating output", "error", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	rows := Rows(s.Choreographer())
	if err := gocsv.Marshal(rows, w); err != nil {
		logger.Error("writing table", "error", err)
		os.Exit(1)
	}
	if *out != "" {
		logger.Info("keyframe table written", "path", *out, "rows", len(rows))
	}
}

// Rows lists the keyframes of every tile in tile order.
func Rows(c *perimeter.Choreographer) []KeyframeRow {
	var rows []KeyframeRow
	for i := 0; i < c.Tiles(); i++ {
		for k, kf := range c.Keyframes(i) {
			rows = append(rows, KeyframeRow{
				Tile:    i,
				Frame:   k,
				Percent: kf.At * 100,
				CellX:   kf.Cell.X,
				CellY:   kf.Cell.Y,
				Left:    percent(kf.Pos.X),
				Top:     percent(kf.Pos.Y),
				Delay:   c.Delay(i) * c.Period().Seconds(),
			})
		}
	}
	return rows
}

func percent(f float64) string {
	return fmt.Sprintf("%.4f%%", f*100)
}
