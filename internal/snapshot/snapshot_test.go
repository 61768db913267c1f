package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"gocv.io/x/gocv"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type memRecorder struct {
	snaps []*store.Snapshot
	err   error
}

func (r *memRecorder) Create(s *store.Snapshot) error {
	if r.err != nil {
		return r.err
	}
	r.snaps = append(r.snaps, s)
	return nil
}

func okState(h detector.Handedness, o gesture.Orientation) arbiter.State {
	label := gesture.Label{Kind: gesture.OK}
	return arbiter.State{
		GestureText: string(h) + " (" + o.String() + "): OK",
		Winner:      label,
		Hands: []arbiter.HandResult{{
			Handedness:  h,
			Orientation: o.String(),
			Label:       label,
			Text:        label.String(),
			Priority:    label.Priority(),
		}},
	}
}

func TestParseTrigger(t *testing.T) {
	tests := []struct {
		in      string
		want    Trigger
		wantErr bool
	}{
		{"Right/Palm", Trigger{detector.Right, gesture.Palm}, false},
		{"left/back", Trigger{detector.Left, gesture.Back}, false},
		{" Left / Palm ", Trigger{detector.Left, gesture.Palm}, false},
		{"Right", Trigger{}, true},
		{"Middle/Palm", Trigger{}, true},
		{"Right/Side", Trigger{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrigger(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTrigger(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseTrigger(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if s := DefaultTrigger().String(); s != "Right/Palm" {
		t.Errorf("DefaultTrigger() = %s, want Right/Palm", s)
	}
}

func TestTrigger_Matches(t *testing.T) {
	trig := DefaultTrigger()

	tests := []struct {
		name  string
		state arbiter.State
		want  bool
	}{
		{"right palm ok", okState(detector.Right, gesture.Palm), true},
		{"right back ok", okState(detector.Right, gesture.Back), false},
		{"left palm ok", okState(detector.Left, gesture.Palm), false},
		{"no hands", arbiter.Initial(), false},
		{"right palm peace", func() arbiter.State {
			s := okState(detector.Right, gesture.Palm)
			s.Hands[0].Label = gesture.Label{Kind: gesture.PeaceSign}
			return s
		}(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := trig.Matches(tt.state); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrigger_MatchesResolvedHand(t *testing.T) {
	// Mirroring the OK preset turns the back of a right hand into its palm.
	hand := detector.OKLandmarks()
	for i := range hand.Points {
		hand.Points[i].X = 1 - hand.Points[i].X
	}
	s := arbiter.Resolve(1, detector.Result{Hands: []detector.HandLandmarks{hand}})

	if !DefaultTrigger().Matches(s) {
		t.Errorf("mirrored OK hand should match Right/Palm, got %q", s.GestureText)
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.FixedZone("X", 3600))
	got := Filename(ts, "0b7c1f2e-8d3a-4c55-9f0e-123456789abc")

	if got != "snapshot_20240309T130507Z_0b7c1f2e.jpg" {
		t.Errorf("Filename() = %q", got)
	}
	if short := Filename(ts, "ab"); !strings.HasSuffix(short, "_ab.jpg") {
		t.Errorf("Filename() with short id = %q", short)
	}
}

func TestNewWriter_RequiresDir(t *testing.T) {
	if _, err := NewWriter(Config{}, nil, nil); err == nil {
		t.Error("NewWriter() without a directory should fail")
	}
}

func TestWriter_ConsiderThrottles(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()

	w, err := NewWriter(cfg, nil, clock)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	s := okState(detector.Right, gesture.Palm)
	steps := []struct {
		advance time.Duration
		want    bool
	}{
		{0, true},
		{time.Second, false},
		{1900 * time.Millisecond, false},
		{200 * time.Millisecond, true},
	}
	fired := 0
	for i, st := range steps {
		clock.Advance(st.advance)
		got := w.Consider(s)
		if got != st.want {
			t.Errorf("step %d: Consider() = %v, want %v", i, got, st.want)
		}
		if got {
			fired++
		}
	}
	if fired != 2 {
		t.Errorf("fired %d times, want 2", fired)
	}
}

func TestWriter_ConsiderIgnoresOtherStates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	w, err := NewWriter(cfg, nil, &fakeClock{})
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	if w.Consider(okState(detector.Left, gesture.Back)) {
		t.Error("a non-matching hand must not fire")
	}
	errState := okState(detector.Right, gesture.Palm)
	errState.CameraError = true
	if w.Consider(errState) {
		t.Error("a camera error state must not fire")
	}
	// Neither attempt consumed the cooldown.
	if !w.Consider(okState(detector.Right, gesture.Palm)) {
		t.Error("first matching state should fire")
	}
}

func TestWriter_Capture(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	dir := t.TempDir()
	rec := &memRecorder{}
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}

	cfg := DefaultConfig()
	cfg.Dir = dir
	w, err := NewWriter(cfg, rec, clock)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}
	w.newID = func() string { return "deadbeef-0000" }

	frame := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 48, 64, gocv.MatTypeCV8UC3)
	defer frame.Close()

	snap, err := w.Capture(frame, okState(detector.Right, gesture.Palm))
	if err != nil {
		t.Fatalf("Capture() error = %v", err)
	}

	want := filepath.Join(dir, "snapshot_20240101T120000Z_deadbeef.jpg")
	if snap.Path != want {
		t.Errorf("Path = %q, want %q", snap.Path, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("snapshot file not written: %v", err)
	}
	if len(rec.snaps) != 1 || rec.snaps[0].Trigger != "Right/Palm" {
		t.Errorf("recorded %+v, want one Right/Palm row", rec.snaps)
	}

	img := gocv.IMRead(want, gocv.IMReadColor)
	defer img.Close()
	if img.Cols() != 64 || img.Rows() != 48 {
		t.Errorf("written image is %dx%d, want 64x48", img.Cols(), img.Rows())
	}
}

func TestWriter_CaptureRecorderError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	errDB := errors.New("db down")
	cfg := DefaultConfig()
	cfg.Dir = t.TempDir()
	w, err := NewWriter(cfg, &memRecorder{err: errDB}, nil)
	if err != nil {
		t.Fatalf("NewWriter() error = %v", err)
	}

	frame := gocv.NewMatWithSize(8, 8, gocv.MatTypeCV8UC3)
	defer frame.Close()

	snap, err := w.Capture(frame, arbiter.Initial())
	if !errors.Is(err, errDB) {
		t.Errorf("Capture() error = %v, want wrapped errDB", err)
	}
	if snap == nil {
		t.Error("Capture() should still return the written snapshot")
	}
}
