package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// GaussianBlurSize is the blur kernel applied before differencing.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change that counts as motion.
	DiffThreshold = 25
)

// MotionDetector measures how much of the frame changed since the previous
// call. The threshold is a percentage of pixels: 1.0 means 1% must change.
type MotionDetector struct {
	mu          sync.Mutex
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
}

// NewMotionDetector creates a MotionDetector with the given threshold.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and reports whether motion
// exceeded the threshold along with the changed percentage. The first frame
// only sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized || blurred.Rows() != m.prevGray.Rows() || blurred.Cols() != m.prevGray.Cols() {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(thresh)) / float64(thresh.Rows()*thresh.Cols()) * 100.0
	blurred.CopyTo(&m.prevGray)

	return changed > m.threshold, changed
}

// Reset drops the baseline so the next frame starts a new comparison.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release()
}

func (m *MotionDetector) release() {
	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// SetThreshold sets the motion threshold. Values <= 0 are ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.threshold = threshold
}

// RateConfig controls adaptive capture rate.
type RateConfig struct {
	IdleFPS   int
	ActiveFPS int
	// IdleAfter is the number of consecutive still frames before dropping
	// to IdleFPS.
	IdleAfter int
	// Threshold is the motion percentage passed to the MotionDetector.
	Threshold float64
}

// DefaultRateConfig returns 5 fps idle, 15 fps active.
func DefaultRateConfig() RateConfig {
	return RateConfig{IdleFPS: 5, ActiveFPS: 15, IdleAfter: 30, Threshold: 1.0}
}

// AdaptiveRate lowers the camera frame rate while nothing moves and raises
// it as soon as motion returns. Every captured frame is still classified;
// only the capture rate changes.
type AdaptiveRate struct {
	cfg    RateConfig
	cam    Camera
	motion *MotionDetector
	still  int
}

// NewAdaptiveRate creates an AdaptiveRate driving cam. The camera starts at
// the active rate.
func NewAdaptiveRate(cam Camera, cfg RateConfig) *AdaptiveRate {
	def := DefaultRateConfig()
	if cfg.IdleFPS <= 0 {
		cfg.IdleFPS = def.IdleFPS
	}
	if cfg.ActiveFPS <= 0 {
		cfg.ActiveFPS = def.ActiveFPS
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = def.IdleAfter
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = def.Threshold
	}
	cam.SetFPS(cfg.ActiveFPS)
	return &AdaptiveRate{cfg: cfg, cam: cam, motion: NewMotionDetector(cfg.Threshold)}
}

// Observe feeds one frame and adjusts the camera rate. It returns the rate
// now in effect.
func (a *AdaptiveRate) Observe(frame *gocv.Mat) int {
	moving, _ := a.motion.Detect(frame)
	if moving {
		a.still = 0
		if a.cam.FPS() != a.cfg.ActiveFPS {
			a.cam.SetFPS(a.cfg.ActiveFPS)
		}
		return a.cfg.ActiveFPS
	}

	a.still++
	if a.still >= a.cfg.IdleAfter && a.cam.FPS() != a.cfg.IdleFPS {
		a.cam.SetFPS(a.cfg.IdleFPS)
	}
	return a.cam.FPS()
}

// Close releases the motion detector.
func (a *AdaptiveRate) Close() {
	a.motion.Close()
}
