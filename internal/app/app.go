// Package app wires capture, classification, arbitration, painting and the
// side-effecting actions into the per-frame pipeline.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/hook"
	"github.com/ayusman/mudra/internal/paint"
	"github.com/ayusman/mudra/internal/snapshot"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/telemetry"
	"github.com/ayusman/mudra/internal/throttle"
)

// ErrCameraUnavailable is returned by Run when the camera cannot be opened
// within the startup retry budget.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Config holds configuration options for the application.
type Config struct {
	Camera   capture.Config
	Retry    capture.RetryConfig
	Rate     capture.RateConfig
	Detector detector.Config

	// Paint enables the painting session and its stream.
	Paint       bool
	PaintConfig paint.Config

	// StreamQuality is the JPEG quality of both output streams.
	StreamQuality int

	// Snapshot.Dir empty disables snapshots.
	Snapshot snapshot.Config

	// HookDir empty disables hooks.
	HookDir      string
	HookTimeout  time.Duration
	HookCooldown time.Duration

	// Actions is the initial state of the snapshot/hook toggle when the
	// store holds no saved value.
	Actions bool

	Store *store.Store
}

// Option customises an App at construction.
type Option func(*App)

// WithCamera replaces the capture device.
func WithCamera(cam capture.Camera) Option {
	return func(a *App) { a.camera = cam }
}

// WithDetector replaces the landmark detector.
func WithDetector(d detector.Detector) Option {
	return func(a *App) { a.detector = d }
}

// WithClock sets the clock used by snapshot and hook throttles.
func WithClock(c throttle.Clock) Option {
	return func(a *App) { a.clock = c }
}

// WithHookRunner replaces the hook executor.
func WithHookRunner(r hook.Runner) Option {
	return func(a *App) { a.runner = r }
}

// App is the main application that runs the frame pipeline and owns its
// outputs.
type App struct {
	config   Config
	camera   capture.Camera
	detector detector.Detector
	clock    throttle.Clock
	runner   hook.Runner

	state     *arbiter.Publisher
	annotated *frame.Buffer
	painted   *frame.Buffer
	session   *paint.Session
	snapshots *snapshot.Writer
	hooks     *hook.Dispatcher
	tracer    *telemetry.FrameTracer

	actions atomic.Bool
	running atomic.Bool
	// pending tracks snapshot writes still in flight.
	pending sync.WaitGroup
}

// New creates a new App. Without WithDetector it tries the MediaPipe
// service and falls back to an empty mock detector.
func New(config Config, opts ...Option) (*App, error) {
	a := &App{
		config:    config,
		state:     arbiter.NewPublisher(),
		annotated: frame.NewBuffer(),
		painted:   frame.NewBuffer(),
		tracer:    telemetry.NewFrameTracer(nil),
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.camera == nil {
		a.camera = capture.NewCamera(config.Camera)
	}
	if a.detector == nil {
		if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
			a.detector = mp
			slog.Info("using MediaPipe landmark detection")
		} else {
			slog.Warn("MediaPipe not available, using mock detector", "err", err)
			a.detector = detector.NewMockDetector()
		}
	}
	if a.clock == nil {
		a.clock = throttle.SystemClock
	}

	if config.Paint {
		a.session = paint.NewSession(config.PaintConfig)
	}

	if config.Snapshot.Dir != "" {
		var rec snapshot.Recorder
		if config.Store != nil {
			rec = config.Store.Snapshots()
		}
		w, err := snapshot.NewWriter(config.Snapshot, rec, a.clock)
		if err != nil {
			a.closeOutputs()
			return nil, fmt.Errorf("snapshot writer: %w", err)
		}
		a.snapshots = w
	}

	if config.HookDir != "" {
		mgr := hook.NewManager(config.HookDir)
		if err := mgr.Discover(); err != nil {
			slog.Warn("hook discovery failed", "dir", config.HookDir, "err", err)
		}
		if a.runner == nil {
			a.runner = hook.NewExecutor(config.HookTimeout)
		}
		a.hooks = hook.NewDispatcher(mgr, a.runner, config.HookCooldown, a.clock)
		slog.Info("hooks loaded", "count", len(mgr.List()))
	}

	enabled := config.Actions
	if config.Store != nil {
		enabled = config.Store.Settings().Bool(store.SettingActionsEnabled, enabled)
	}
	a.applyEnabled(enabled)

	return a, nil
}

// State returns the publisher of the interaction state.
func (a *App) State() *arbiter.Publisher {
	return a.state
}

// Annotated returns the buffer of skeleton-annotated frames.
func (a *App) Annotated() *frame.Buffer {
	return a.annotated
}

// Painted returns the buffer of painted frames, or nil when painting is off.
func (a *App) Painted() *frame.Buffer {
	if a.session == nil {
		return nil
	}
	return a.painted
}

// Camera returns the capture device.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the landmark detector.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// Enabled reports whether snapshots and hooks are active.
func (a *App) Enabled() bool {
	return a.actions.Load()
}

// SetEnabled turns snapshots and hooks on or off and persists the choice.
func (a *App) SetEnabled(on bool) error {
	a.applyEnabled(on)
	slog.Info("actions toggled", "enabled", on)
	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingActionsEnabled, on); err != nil {
			return fmt.Errorf("save actions setting: %w", err)
		}
	}
	return nil
}

func (a *App) applyEnabled(on bool) {
	a.actions.Store(on)
	if a.hooks != nil {
		a.hooks.SetEnabled(on)
	}
}

// Close releases the detector and painting canvas. Run must have returned.
func (a *App) Close() error {
	a.closeOutputs()
	if err := a.detector.Close(); err != nil {
		return fmt.Errorf("close detector: %w", err)
	}
	return nil
}

func (a *App) closeOutputs() {
	if a.hooks != nil {
		a.hooks.Close()
	}
	if a.session != nil {
		a.session.Close()
	}
}
