package smoke

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

// fakeBackend records every call it receives.
type fakeBackend struct {
	initErr error
	drawErr error

	inits    int
	resizes  [][2]int
	draws    []Uniforms
	releases int
}

func (b *fakeBackend) Init() error {
	b.inits++
	return b.initErr
}

func (b *fakeBackend) Resize(w, h int) {
	b.resizes = append(b.resizes, [2]int{w, h})
}

func (b *fakeBackend) Draw(u Uniforms) error {
	b.draws = append(b.draws, u)
	return b.drawErr
}

func (b *fakeBackend) Release() { b.releases++ }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEffect_Lifecycle(t *testing.T) {
	b := &fakeBackend{}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	surf := &FixedSurface{W: 320, H: 180}

	if e.State() != Idle {
		t.Fatalf("initial state = %v, want idle", e.State())
	}
	if err := e.Mount(surf, s); err != nil {
		t.Fatal(err)
	}
	if e.State() != Scheduled || s.Pending() != 1 {
		t.Fatalf("after mount: state=%v pending=%d", e.State(), s.Pending())
	}

	for i := 0; i < 3; i++ {
		s.Pump(time.Duration(i) * 16 * time.Millisecond)
		if e.State() != Scheduled {
			t.Fatalf("frame %d: state = %v, want scheduled", i, e.State())
		}
		if s.Pending() != 1 {
			t.Fatalf("frame %d: pending = %d, want exactly one request", i, s.Pending())
		}
	}
	if len(b.draws) != 3 || e.Draws() != 3 {
		t.Errorf("draws = %d/%d, want 3", len(b.draws), e.Draws())
	}

	e.Unmount()
	if e.State() != Cancelled {
		t.Errorf("state = %v, want cancelled", e.State())
	}
	if s.Pending() != 0 || s.Cancels() != 1 {
		t.Errorf("pending=%d cancels=%d, want 0/1", s.Pending(), s.Cancels())
	}
	if b.releases != 1 {
		t.Errorf("releases = %d, want 1", b.releases)
	}

	// No further frames after unmount
	requests := s.Requests()
	s.Pump(time.Second)
	if len(b.draws) != 3 || s.Requests() != requests {
		t.Error("effect kept running after unmount")
	}

	e.Unmount()
	if b.releases != 1 {
		t.Error("second unmount released again")
	}
}

func TestEffect_MountTwice(t *testing.T) {
	e := NewEffect(&fakeBackend{}, WithLogger(quietLogger()))
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 1, H: 1}, s); err != nil {
		t.Fatal(err)
	}
	if err := e.Mount(&FixedSurface{W: 1, H: 1}, s); !errors.Is(err, ErrMounted) {
		t.Errorf("err = %v, want ErrMounted", err)
	}
	e.Unmount()
	if err := e.Mount(&FixedSurface{W: 1, H: 1}, s); !errors.Is(err, ErrMounted) {
		t.Errorf("remount after unmount: err = %v, want ErrMounted", err)
	}
}

func TestEffect_UnmountBeforeFirstFrame(t *testing.T) {
	b := &fakeBackend{}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 10, H: 10}, s); err != nil {
		t.Fatal(err)
	}
	e.Unmount()

	s.Pump(0)
	if len(b.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(b.draws))
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
}

func TestEffect_DegradesOnInit(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
	}{
		{"capability", &fakeBackend{initErr: ErrCapabilityUnavailable}},
		{"compile", &fakeBackend{initErr: ErrCompileFailure}},
		{"other", &fakeBackend{initErr: errors.New("no context")}},
		{"nil backend", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEffect(tt.backend, WithLogger(quietLogger()))
			s := NewManualScheduler()

			if err := e.Mount(&FixedSurface{W: 100, H: 100}, s); err != nil {
				t.Fatalf("Mount should not fail, got %v", err)
			}
			if !e.Degraded() {
				t.Error("expected degraded effect")
			}
			if e.State() != Idle {
				t.Errorf("state = %v, want idle", e.State())
			}
			if s.Requests() != 0 {
				t.Errorf("requests = %d, want 0", s.Requests())
			}

			s.Pump(time.Second)
			if e.Draws() != 0 {
				t.Errorf("draws = %d, want 0", e.Draws())
			}

			e.Unmount()
			if e.State() != Cancelled {
				t.Errorf("state = %v, want cancelled", e.State())
			}
			if fb, ok := tt.backend.(*fakeBackend); ok && fb.releases != 0 {
				t.Error("backend that failed Init must not be released")
			}
		})
	}
}

func TestEffect_DegradesOnDrawFailure(t *testing.T) {
	b := &fakeBackend{drawErr: ErrCompileFailure}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 8, H: 8}, s); err != nil {
		t.Fatal(err)
	}

	s.Pump(0)
	if !e.Degraded() {
		t.Fatal("expected degraded after compile failure")
	}
	if s.Pending() != 0 {
		t.Errorf("pending = %d, want 0", s.Pending())
	}
	if b.releases != 1 {
		t.Errorf("releases = %d, want 1", b.releases)
	}

	e.Unmount()
	if b.releases != 1 {
		t.Error("unmount released a degraded backend again")
	}
}

func TestEffect_TransientDrawErrorKeepsRunning(t *testing.T) {
	b := &fakeBackend{drawErr: errors.New("upload failed")}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 8, H: 8}, s); err != nil {
		t.Fatal(err)
	}
	s.Pump(0)
	s.Pump(time.Millisecond)

	if e.Degraded() {
		t.Error("plain draw errors should not degrade")
	}
	if len(b.draws) != 2 {
		t.Errorf("draws = %d, want 2", len(b.draws))
	}
	e.Unmount()
}

func TestEffect_Resize(t *testing.T) {
	b := &fakeBackend{}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	surf := &FixedSurface{W: 200, H: 100}
	if err := e.Mount(surf, s); err != nil {
		t.Fatal(err)
	}

	s.Pump(0)
	s.Pump(time.Millisecond)
	surf.W, surf.H = 300, 300
	s.Pump(2 * time.Millisecond)

	want := [][2]int{{200, 100}, {300, 300}}
	if len(b.resizes) != len(want) {
		t.Fatalf("resizes = %v, want %v", b.resizes, want)
	}
	for i := range want {
		if b.resizes[i] != want[i] {
			t.Errorf("resize %d = %v, want %v", i, b.resizes[i], want[i])
		}
	}

	last := b.draws[len(b.draws)-1]
	if last.Width != 300 || last.Height != 300 {
		t.Errorf("last draw size = %dx%d, want 300x300", last.Width, last.Height)
	}
	e.Unmount()
}

func TestEffect_ZeroAreaSkipsDraw(t *testing.T) {
	b := &fakeBackend{}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()
	surf := &FixedSurface{}
	if err := e.Mount(surf, s); err != nil {
		t.Fatal(err)
	}

	s.Pump(0)
	s.Pump(time.Millisecond)
	if len(b.draws) != 0 {
		t.Errorf("draws on zero-area surface = %d", len(b.draws))
	}
	if e.State() != Scheduled {
		t.Errorf("state = %v, want scheduled", e.State())
	}

	surf.W, surf.H = 4, 4
	s.Pump(2 * time.Millisecond)
	if len(b.draws) != 1 {
		t.Errorf("draws = %d, want 1 after surface gained area", len(b.draws))
	}
	e.Unmount()
}

func TestEffect_ElapsedTimeAndOpacity(t *testing.T) {
	b := &fakeBackend{}
	var stats []FrameStats
	e := NewEffect(b,
		WithLogger(quietLogger()),
		WithOpacity(0.7),
		WithFrameObserver(func(fs FrameStats) { stats = append(stats, fs) }),
	)
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 16, H: 9}, s); err != nil {
		t.Fatal(err)
	}

	s.Pump(500 * time.Millisecond)
	s.Pump(1500 * time.Millisecond)
	e.SetOpacity(2)
	s.Pump(2500 * time.Millisecond)
	e.Unmount()

	wantTime := []float64{0, 1, 2}
	wantOpacity := []float64{0.7, 0.7, 1}
	for i, u := range b.draws {
		if u.Time != wantTime[i] {
			t.Errorf("draw %d time = %g, want %g", i, u.Time, wantTime[i])
		}
		if u.Opacity != wantOpacity[i] {
			t.Errorf("draw %d opacity = %g, want %g", i, u.Opacity, wantOpacity[i])
		}
	}

	if len(stats) != 3 {
		t.Fatalf("observer calls = %d, want 3", len(stats))
	}
	if !stats[0].Resized || stats[1].Resized {
		t.Error("only the first frame should report a resize")
	}
	if stats[2].Frame != 2 || stats[2].Time != 2 {
		t.Errorf("stats[2] = %+v", stats[2])
	}
}

func TestEffect_TimeNeverRunsBackwards(t *testing.T) {
	var times []float64
	e := NewEffect(&fakeBackend{},
		WithLogger(quietLogger()),
		WithFrameObserver(func(fs FrameStats) { times = append(times, fs.Time) }),
	)
	s := NewManualScheduler()
	if err := e.Mount(&FixedSurface{W: 8, H: 8}, s); err != nil {
		t.Fatal(err)
	}
	defer e.Unmount()

	for _, now := range []time.Duration{10 * time.Second, 0, 9 * time.Second, 12 * time.Second, 11 * time.Second} {
		s.Pump(now)
	}

	want := []float64{0, 0, 0, 2, 2}
	if len(times) != len(want) {
		t.Fatalf("frames = %d, want %d", len(times), len(want))
	}
	for i := range want {
		if times[i] != want[i] {
			t.Errorf("frame %d time = %g, want %g", i, times[i], want[i])
		}
	}
}

func TestEffect_DrawAt(t *testing.T) {
	b := &fakeBackend{}
	e := NewEffect(b, WithLogger(quietLogger()))
	s := NewManualScheduler()

	e.DrawAt(time.Second)
	if len(b.draws) != 0 {
		t.Fatal("drew before mount")
	}

	if err := e.Mount(&FixedSurface{W: 8, H: 8}, s); err != nil {
		t.Fatal(err)
	}
	for _, at := range []time.Duration{10 * time.Second, 0, 30 * time.Second, -time.Second} {
		e.DrawAt(at)
	}
	want := []float64{10, 0, 30, 0}
	for i, u := range b.draws {
		if u.Time != want[i] {
			t.Errorf("draw %d time = %g, want %g", i, u.Time, want[i])
		}
	}
	if e.State() != Scheduled || s.Pending() != 1 {
		t.Errorf("state=%v pending=%d, want scheduled with one request", e.State(), s.Pending())
	}

	// The refresh loop keeps its own origin
	s.Pump(5 * time.Second)
	if got := b.draws[len(b.draws)-1].Time; got != 0 {
		t.Errorf("first loop frame time = %g, want 0", got)
	}

	e.Unmount()
	e.DrawAt(time.Second)
	if len(b.draws) != 5 {
		t.Errorf("draws = %d, want 5", len(b.draws))
	}
}

func TestEffect_DefaultOpacity(t *testing.T) {
	e := NewEffect(&fakeBackend{})
	if e.Opacity() != 0.5 {
		t.Errorf("default opacity = %g, want 0.5", e.Opacity())
	}
	if got := NewEffect(nil, WithOpacity(-1)).Opacity(); got != 0 {
		t.Errorf("clamped opacity = %g, want 0", got)
	}
}

func TestState_String(t *testing.T) {
	for s, want := range map[State]string{
		Idle: "idle", Scheduled: "scheduled", Running: "running", Cancelled: "cancelled",
	} {
		if s.String() != want {
			t.Errorf("%d.String() = %q, want %q", s, s.String(), want)
		}
	}
}
