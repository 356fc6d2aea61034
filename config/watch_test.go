package config

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestWatcher_Reload(t *testing.T) {
	defer goleak.VerifyNone(t)

	path := filepath.Join(t.TempDir(), "showfx.yaml")
	if err := os.WriteFile(path, []byte("ring:\n  tiles: 5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got := make(chan *Config, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWatcher(path, func(c *Config) { got <- c }, logger)
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(20 * time.Millisecond)

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	// Invalid edit is rejected
	if err := os.WriteFile(path, []byte("ring:\n  tiles: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return w.Errors() > 0 })

	if err := os.WriteFile(path, []byte("ring:\n  tiles: 8\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-got:
		if cfg.Derived.Tiles != 8 {
			t.Errorf("reloaded tiles = %d, want 8", cfg.Derived.Tiles)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload within 5s")
	}
	if w.Reloads() < 1 {
		t.Error("expected a counted reload")
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "showfx.yaml")
	if err := os.WriteFile(path, []byte(""), 0644); err != nil {
		t.Fatal(err)
	}

	calls := make(chan struct{}, 1)
	w, err := NewWatcher(path, func(*Config) { calls <- struct{}{} }, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	w.SetDebounce(10 * time.Millisecond)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-calls:
		t.Error("sibling file triggered a reload")
	case <-time.After(300 * time.Millisecond):
	}
	w.Stop()
	w.Stop()
}

func TestNewWatcher_EmptyPath(t *testing.T) {
	if _, err := NewWatcher("", nil, nil); err == nil {
		t.Error("expected error for empty path")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met within 5s")
}
