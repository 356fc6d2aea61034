// Package web serves rendered hero frames and the ring state over HTTP.
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pthm-cable/showfx/smoke"
	"github.com/pthm-cable/showfx/stage"
)

// maxSeconds is the largest instant a time.Duration can hold.
var maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// FrameSource renders hero frames. offscreen.Compositor implements it.
type FrameSource interface {
	WritePNG(w io.Writer, t time.Duration) error
	Snapshot() stage.Snapshot
}

// Server exposes a FrameSource at /frame.png, /api/ring and /health. Run
// keeps a cached frame fresh; without it frames are rendered per request.
type Server struct {
	addr     string
	source   FrameSource
	interval time.Duration
	logger   *slog.Logger

	readTimeout, writeTimeout time.Duration

	mu       sync.RWMutex
	frame    []byte
	frameAt  time.Duration
	frames   uint64
	server   *http.Server
	listener net.Listener
}

// Option configures a Server.
type Option func(*Server)

// WithInterval sets the refresh interval of Run.
func WithInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithTimeouts sets the HTTP read and write timeouts.
func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout, s.writeTimeout = read, write
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a server for source listening on addr.
func NewServer(addr string, source FrameSource, opts ...Option) *Server {
	s := &Server{
		addr:         addr,
		source:       source,
		interval:     time.Second / 10,
		logger:       slog.Default(),
		readTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the HTTP handler for embedding in existing servers.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/frame.png", s.handleFrame)
	mux.HandleFunc("/api/ring", s.handleRing)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

// Run renders a frame every interval into the cache until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	sched := smoke.NewTickerScheduler(s.interval)
	var refresh smoke.FrameFunc
	refresh = func(now time.Duration) {
		if err := s.render(now); err != nil {
			s.logger.Warn("frame render failed", "error", err)
		}
		sched.RequestFrame(refresh)
	}
	sched.RequestFrame(refresh)

	if err := sched.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	sched.Stop()
	return nil
}

func (s *Server) render(t time.Duration) error {
	var buf bytes.Buffer
	if err := s.source.WritePNG(&buf, t); err != nil {
		return err
	}
	s.mu.Lock()
	s.frame = buf.Bytes()
	s.frameAt = t
	s.frames++
	s.mu.Unlock()
	return nil
}

// Frames returns how many frames Run has cached.
func (s *Server) Frames() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames
}

// Start listens on the configured address and serves until ctx is done,
// then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.addr, err)
	}

	srv := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}
	s.mu.Lock()
	s.server, s.listener = srv, ln
	s.mu.Unlock()
	s.logger.Info("serving frames", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}

// Shutdown stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Addr returns the listening address once Start is serving.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// handleFrame serves the cached frame. ?t=<seconds> renders that instant
// instead.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	if v := r.URL.Query().Get("t"); v != "" {
		sec, err := strconv.ParseFloat(v, 64)
		// the negated range check also rejects NaN
		if err != nil || !(sec >= 0 && sec <= maxSeconds) {
			http.Error(w, "t must be a number of seconds in [0, 9.2e9]", http.StatusBadRequest)
			return
		}
		s.writeRendered(w, time.Duration(sec*float64(time.Second)))
		return
	}

	s.mu.RLock()
	frame, at := s.frame, s.frameAt
	s.mu.RUnlock()
	if frame == nil {
		s.writeRendered(w, 0)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Time", strconv.FormatFloat(at.Seconds(), 'f', 3, 64))
	_, _ = w.Write(frame)
}

func (s *Server) writeRendered(w http.ResponseWriter, t time.Duration) {
	var buf bytes.Buffer
	if err := s.source.WritePNG(&buf, t); err != nil {
		s.logger.Error("frame render failed", "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Frame-Time", strconv.FormatFloat(t.Seconds(), 'f', 3, 64))
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleRing(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(s.source.Snapshot()); err != nil {
		s.logger.Warn("encoding ring state", "error", err)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	refresh := s.interval.Milliseconds()
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
    <title>showfx</title>
    <style>
        body { font-family: system-ui; background: #fff; color: #333; margin: 0; display: grid; place-items: center; min-height: 100vh; }
        img { max-width: 100vw; max-height: 100vh; }
    </style>
</head>
<body>
    <img id="frame" src="/frame.png" alt="hero frame">
    <script>
        setInterval(function () {
            document.getElementById("frame").src = "/frame.png?" + Date.now();
        }, %d);
    </script>
</body>
</html>`, refresh)
}
