package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/asset"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/paint"
	"github.com/ayusman/mudra/internal/snapshot"
	"github.com/ayusman/mudra/internal/store"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type recordingRunner struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingRunner) Execute(ctx context.Context, h *hook.Hook, req hook.Request) (*hook.Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, req.Event)
	return &hook.Response{Success: true}, nil
}

func (r *recordingRunner) seen(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func fastRetry() capture.RetryConfig {
	return capture.RetryConfig{Attempts: 3, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
}

func testConfig() Config {
	return Config{
		Retry:         fastRetry(),
		Rate:          capture.RateConfig{IdleFPS: 60, ActiveFPS: 60},
		Paint:         true,
		PaintConfig:   paint.DefaultConfig(),
		StreamQuality: 70,
		Actions:       true,
	}
}

func newMockCamera(t *testing.T) *capture.MockCamera {
	t.Helper()
	img := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { img.Close() })
	return capture.NewMockCamera([]*gocv.Mat{&img}, true)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// start runs a in the background and returns a stop function that cancels
// it and reports Run's error.
func start(t *testing.T, a *App) func() error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
			return nil
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestApp_PublishesStateAndStreams(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	cam := newMockCamera(t)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.PeaceLandmarks()})

	a, err := New(testConfig(), WithCamera(cam), WithDetector(det))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	states, cancel := a.State().Subscribe()
	defer cancel()

	stop := start(t, a)
	waitFor(t, "peace state", func() bool { return a.State().Current().ImageKey == asset.Paz })
	waitFor(t, "annotated frame", func() bool { _, ok := a.Annotated().Latest(); return ok })
	waitFor(t, "painted frame", func() bool { _, ok := a.Painted().Latest(); return ok })

	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if cam.IsOpen() {
		t.Error("camera should be closed after Run returns")
	}

	// Frames are published in order.
	var last uint64
	for {
		select {
		case s := <-states:
			if s.Frame < last {
				t.Fatalf("frame %d published after %d", s.Frame, last)
			}
			last = s.Frame
			continue
		default:
		}
		break
	}

	got := a.State().Current()
	if got.GestureText != "Right (Back): Peace" {
		t.Errorf("GestureText = %q", got.GestureText)
	}
}

func TestApp_CameraUnavailable(t *testing.T) {
	cam := capture.NewMockCamera(nil, true)
	cam.FailOpens(10, errors.New("device busy"))
	cfg := testConfig()
	cfg.Paint = false

	a, err := New(cfg, WithCamera(cam), WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	err = a.Run(context.Background())
	if !errors.Is(err, ErrCameraUnavailable) {
		t.Fatalf("Run() = %v, want ErrCameraUnavailable", err)
	}
	if cam.Opens() != 3 {
		t.Errorf("Opens() = %d, want 3 attempts", cam.Opens())
	}
}

func TestApp_CancelDuringStartup(t *testing.T) {
	cam := capture.NewMockCamera(nil, true)
	cam.FailOpens(100, errors.New("device busy"))
	cfg := testConfig()
	cfg.Paint = false
	cfg.Retry = capture.RetryConfig{Attempts: 100, InitialInterval: time.Second, MaxInterval: time.Second}

	a, err := New(cfg, WithCamera(cam), WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Errorf("Run() after cancel = %v, want nil", err)
	}
}

func TestApp_ReadFailurePublishesCameraError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	cam := newMockCamera(t)
	cam.FailReads(2, capture.ErrReadFailed)
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{detector.FistLandmarks()})

	a, err := New(testConfig(), WithCamera(cam), WithDetector(det))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	states, cancel := a.State().Subscribe()
	defer cancel()
	stop := start(t, a)
	defer stop()

	sawError := false
	deadline := time.After(5 * time.Second)
	for {
		select {
		case s := <-states:
			if s.CameraError {
				sawError = true
				if s.GestureText != arbiter.TextCameraError || s.ImageKey != asset.Neutro {
					t.Errorf("camera error state = %+v", s)
				}
			}
			if sawError && s.ImageKey == asset.Lua {
				if det.Calls() == 0 {
					t.Error("detector never called")
				}
				return
			}
		case <-deadline:
			t.Fatalf("did not see error then recovery (sawError=%v)", sawError)
		}
	}
}

func TestApp_DetectorErrorDegradesToIdle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	cam := newMockCamera(t)
	det := detector.NewMockDetector()
	det.SetError(errors.New("service crashed"))

	a, err := New(testConfig(), WithCamera(cam), WithDetector(det))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	stop := start(t, a)
	waitFor(t, "idle state", func() bool { return a.State().Current().Frame > 0 })
	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	s := a.State().Current()
	if s.GestureText != arbiter.TextNoHand || s.CameraError {
		t.Errorf("state = %+v, want idle", s)
	}
}

func TestApp_SnapshotAndHooks(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	st := newTestStore(t)
	hookDir := t.TempDir()
	for name, manifest := range map[string]string{
		"ok":      `{"name":"ok","executable":"ok.sh","gestures":["ok"]}`,
		"archive": `{"name":"archive","executable":"archive.sh","gestures":["snapshot"]}`,
	} {
		dir := filepath.Join(hookDir, name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, hook.ManifestFile), []byte(manifest), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	// The mirrored OK preset is a right palm, the default trigger.
	hand := detector.OKLandmarks()
	for i := range hand.Points {
		hand.Points[i].X = 1 - hand.Points[i].X
	}
	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{hand})

	snapDir := t.TempDir()
	cfg := testConfig()
	cfg.Store = st
	cfg.Snapshot = snapshot.Config{Dir: snapDir, Cooldown: 3 * time.Second, Trigger: snapshot.DefaultTrigger()}
	cfg.HookDir = hookDir
	cfg.HookCooldown = time.Second

	runner := &recordingRunner{}
	clock := fixedClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	a, err := New(cfg, WithCamera(newMockCamera(t)), WithDetector(det), WithClock(clock), WithHookRunner(runner))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	stop := start(t, a)
	waitFor(t, "snapshot event", func() bool { return runner.seen(hook.EventSnapshot) })
	waitFor(t, "several frames", func() bool { return a.State().Current().Frame > 10 })
	if err := stop(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !runner.seen(hook.EventOK) {
		t.Error("ok hook never ran")
	}
	// The clock never advances, so the cooldown allows exactly one snapshot.
	n, err := st.Snapshots().Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 1 {
		t.Errorf("snapshots recorded = %d, want 1", n)
	}
	files, _ := filepath.Glob(filepath.Join(snapDir, "snapshot_*.jpg"))
	if len(files) != 1 {
		t.Errorf("snapshot files = %v, want 1", files)
	}
}

func TestApp_SetEnabledPersists(t *testing.T) {
	st := newTestStore(t)
	cfg := testConfig()
	cfg.Paint = false
	cfg.Store = st

	a, err := New(cfg, WithCamera(capture.NewMockCamera(nil, true)), WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !a.Enabled() {
		t.Fatal("actions should start enabled")
	}
	if err := a.SetEnabled(false); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}
	a.Close()

	b, err := New(cfg, WithCamera(capture.NewMockCamera(nil, true)), WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer b.Close()
	if b.Enabled() {
		t.Error("saved setting should override the configured default")
	}
	if b.Painted() != nil {
		t.Error("Painted() should be nil with painting disabled")
	}
}

func TestApp_RunTwice(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	a, err := New(testConfig(), WithCamera(newMockCamera(t)), WithDetector(detector.NewMockDetector()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	stop := start(t, a)
	waitFor(t, "first frame", func() bool { return a.State().Current().Frame > 0 })
	if err := a.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Run() = %v, want ErrAlreadyRunning", err)
	}
	stop()
}

// pointing returns a right hand with only the index finger raised, its tip
// at the normalized position (x, y).
func pointing(x, y float64) detector.HandLandmarks {
	h := detector.FistLandmarks()
	h.Points[detector.IndexPIP] = detector.Point3D{X: x, Y: y + 0.06}
	h.Points[detector.IndexDIP] = detector.Point3D{X: x, Y: y + 0.03}
	h.Points[detector.IndexTip] = detector.Point3D{X: x, Y: y}
	return h
}

func TestApp_CameraErrorInterruptsStroke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV")
	}

	cam := newMockCamera(t)
	det := detector.NewMockDetector()
	cfg := testConfig()
	a, err := New(cfg, WithCamera(cam), WithDetector(det))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	rate := capture.NewAdaptiveRate(cam, cfg.Rate)
	defer rate.Close()
	ctx := context.Background()

	frame := func(seq uint64) captured {
		return captured{seq: seq, img: gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)}
	}
	run := func(f captured) {
		defer f.img.Close()
		a.process(ctx, f, rate)
	}

	det.SetHands([]detector.HandLandmarks{pointing(0.2, 0.5)})
	run(frame(1))
	if _, active := a.session.Cursor(); !active {
		t.Fatal("stroke should have started before the outage")
	}

	for seq := uint64(2); seq <= 4; seq++ {
		run(captured{seq: seq, img: capture.Placeholder(640, 480, capture.PlaceholderText), err: capture.ErrReadFailed})
	}
	if _, active := a.session.Cursor(); active {
		t.Error("cursor still active after camera error frames")
	}

	det.SetHands([]detector.HandLandmarks{pointing(0.8, 0.9)})
	run(frame(5))

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(a.session.Canvas(), &gray, gocv.ColorBGRToGray)
	if n := gocv.CountNonZero(gray); n != 0 {
		t.Errorf("canvas has %d painted pixels, want none across the outage", n)
	}
	if p, active := a.session.Cursor(); !active || p.X != 512 {
		t.Errorf("Cursor() = %v, %v; want a new stroke at x=512", p, active)
	}
}
