package capture

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"gocv.io/x/gocv"
)

// PlaceholderText is drawn on frames substituted for an unreadable camera.
const PlaceholderText = "CAMERA NOT FOUND"

// RetryConfig bounds camera open and reconnect attempts.
type RetryConfig struct {
	// Attempts is the number of opens tried at startup before giving up.
	Attempts        int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryConfig returns 5 attempts starting at 500ms, capped at 5s.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Attempts:        5,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

func (rc RetryConfig) backOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = rc.InitialInterval
	b.MaxInterval = rc.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// OpenWithRetry opens cam, retrying with exponential backoff up to
// rc.Attempts times. It returns the last open error once attempts are
// exhausted or ctx's error if ctx ends first.
func OpenWithRetry(ctx context.Context, cam Camera, rc RetryConfig) error {
	attempts := rc.Attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.WithContext(backoff.WithMaxRetries(rc.backOff(), uint64(attempts-1)), ctx)
	err := backoff.RetryNotify(cam.Open, b, func(err error, next time.Duration) {
		slog.Warn("camera open failed, retrying", "err", err, "next", next)
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("open camera after %d attempts: %w", attempts, err)
	}
	return nil
}

// Reconnector reopens a camera after read failures, waiting an increasing
// interval between attempts. It is used by a single capture loop.
type Reconnector struct {
	cam Camera
	b   *backoff.ExponentialBackOff
}

// NewReconnector creates a Reconnector for cam.
func NewReconnector(cam Camera, rc RetryConfig) *Reconnector {
	return &Reconnector{cam: cam, b: rc.backOff()}
}

// Reconnect waits the next backoff interval, then closes and reopens the
// camera. It returns ctx's error if ctx ends while waiting.
func (r *Reconnector) Reconnect(ctx context.Context) error {
	wait := r.b.NextBackOff()
	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
	}

	if err := r.cam.Close(); err != nil {
		slog.Debug("close camera before reopen", "err", err)
	}
	if err := r.cam.Open(); err != nil {
		return fmt.Errorf("reopen camera: %w", err)
	}
	return nil
}

// Reset restarts the backoff after a successful read.
func (r *Reconnector) Reset() {
	r.b.Reset()
}

// Placeholder returns a dark frame of the given size with msg centred in red.
// The caller must close it.
func Placeholder(width, height int, msg string) gocv.Mat {
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(20, 20, 20, 0), height, width, gocv.MatTypeCV8UC3)

	const scale, thickness = 1.0, 2
	size := gocv.GetTextSize(msg, gocv.FontHersheySimplex, scale, thickness)
	org := image.Pt((width-size.X)/2, (height+size.Y)/2)
	gocv.PutText(&img, msg, org, gocv.FontHersheySimplex, scale, color.RGBA{255, 0, 0, 255}, thickness)

	return img
}
