// Package snapshot writes a still image of the camera frame when the
// configured OK hand is shown, at most once per cooldown.
package snapshot

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/throttle"
	"github.com/google/uuid"
	"gocv.io/x/gocv"
)

// ErrWriteFailed is returned when OpenCV cannot write the image file.
var ErrWriteFailed = errors.New("failed to write snapshot image")

// Trigger selects which OK hand fires a snapshot.
type Trigger struct {
	Handedness  detector.Handedness
	Orientation gesture.Orientation
}

// DefaultTrigger is a right hand showing its palm.
func DefaultTrigger() Trigger {
	return Trigger{Handedness: detector.Right, Orientation: gesture.Palm}
}

func (t Trigger) String() string {
	return fmt.Sprintf("%s/%s", t.Handedness, t.Orientation)
}

// ParseTrigger parses "<Left|Right>/<Palm|Back>", case-insensitively.
func ParseTrigger(s string) (Trigger, error) {
	hand, side, ok := strings.Cut(s, "/")
	if !ok {
		return Trigger{}, fmt.Errorf("invalid trigger %q: want Hand/Side", s)
	}

	var t Trigger
	switch strings.ToLower(strings.TrimSpace(hand)) {
	case "left":
		t.Handedness = detector.Left
	case "right":
		t.Handedness = detector.Right
	default:
		return Trigger{}, fmt.Errorf("invalid trigger hand %q", hand)
	}
	switch strings.ToLower(strings.TrimSpace(side)) {
	case "palm":
		t.Orientation = gesture.Palm
	case "back":
		t.Orientation = gesture.Back
	default:
		return Trigger{}, fmt.Errorf("invalid trigger side %q", side)
	}
	return t, nil
}

// Matches reports whether any hand in s is an OK sign with the trigger's
// handedness and orientation.
func (t Trigger) Matches(s arbiter.State) bool {
	for _, h := range s.Hands {
		if h.Label.Kind == gesture.OK && h.Handedness == t.Handedness && h.Orientation == t.Orientation.String() {
			return true
		}
	}
	return false
}

// Recorder stores ledger rows. *store.SnapshotRepository implements it.
type Recorder interface {
	Create(*store.Snapshot) error
}

// Config holds snapshot settings.
type Config struct {
	Dir      string
	Cooldown time.Duration
	Trigger  Trigger
	// Quality is the JPEG quality, 1-100; 0 keeps the OpenCV default.
	Quality int
}

// DefaultConfig returns a 3 second cooldown on the default trigger.
func DefaultConfig() Config {
	return Config{
		Dir:      "snapshots",
		Cooldown: throttle.DefaultCooldown,
		Trigger:  DefaultTrigger(),
		Quality:  90,
	}
}

// Writer decides when to take a snapshot and writes it.
type Writer struct {
	cfg      Config
	gate     *throttle.Gate
	recorder Recorder
	clock    throttle.Clock
	newID    func() string
}

// NewWriter creates the output directory and returns a Writer. recorder may
// be nil to skip the ledger; clock may be nil for the system clock.
func NewWriter(cfg Config, recorder Recorder, clock throttle.Clock) (*Writer, error) {
	if cfg.Dir == "" {
		return nil, errors.New("snapshot directory is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	if clock == nil {
		clock = throttle.SystemClock
	}

	return &Writer{
		cfg:      cfg,
		gate:     throttle.New(cfg.Cooldown, clock),
		recorder: recorder,
		clock:    clock,
		newID:    uuid.NewString,
	}, nil
}

// Consider reports whether s should produce a snapshot now. A true result
// consumes the cooldown, so callers must follow it with Capture.
func (w *Writer) Consider(s arbiter.State) bool {
	if s.CameraError || !w.cfg.Trigger.Matches(s) {
		return false
	}
	return w.gate.Allow()
}

// Capture writes frame to disk and records it in the ledger. The frame is
// only read.
func (w *Writer) Capture(frame gocv.Mat, s arbiter.State) (*store.Snapshot, error) {
	id := w.newID()
	now := w.clock.Now().UTC()
	path := filepath.Join(w.cfg.Dir, Filename(now, id))

	var ok bool
	if w.cfg.Quality > 0 {
		ok = gocv.IMWriteWithParams(path, frame, []int{gocv.IMWriteJpegQuality, w.cfg.Quality})
	} else {
		ok = gocv.IMWrite(path, frame)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrWriteFailed, path)
	}

	snap := &store.Snapshot{
		ID:          id,
		Path:        path,
		Trigger:     w.cfg.Trigger.String(),
		GestureText: s.GestureText,
		Expression:  s.Expression.String(),
		CreatedAt:   now,
	}
	if w.recorder != nil {
		if err := w.recorder.Create(snap); err != nil {
			return snap, fmt.Errorf("record snapshot: %w", err)
		}
	}
	return snap, nil
}

// Config returns the writer's configuration.
func (w *Writer) Config() Config {
	return w.cfg
}

// Filename is the image name for a snapshot taken at t: a UTC timestamp and
// the first eight characters of id.
func Filename(t time.Time, id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("snapshot_%s_%s.jpg", t.UTC().Format("20060102T150405Z"), short)
}
