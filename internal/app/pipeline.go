package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/frame"
	"github.com/ayusman/mudra/internal/overlay"
)

// ErrAlreadyRunning is returned when Run is called on a running App.
var ErrAlreadyRunning = errors.New("pipeline already running")

// captured is one frame handed from the capture stage to the classifier.
// err is set when the camera could not be read and img is a placeholder.
type captured struct {
	seq uint64
	img gocv.Mat
	err error
}

// Run opens the camera and processes frames until ctx is cancelled. The
// camera is released before Run returns. Only a camera that cannot be
// opened within the retry budget is an error.
//
// Pipeline:
// 1. A capture goroutine reads frames, paced to the camera rate, and hands
//    them over a channel of capacity one, so frames stay in order
// 2. On a read failure it sends a placeholder frame and reconnects with
//    backoff
// 3. The consumer classifies each frame and publishes the state
// 4. It renders the annotated and painted streams
// 5. It drives snapshots and hooks when actions are enabled
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	if err := capture.OpenWithRetry(ctx, a.camera, a.config.Retry); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			slog.Warn("close camera", "err", err)
		}
	}()

	rate := capture.NewAdaptiveRate(a.camera, a.config.Rate)
	defer rate.Close()

	slog.Info("detection pipeline started", "fps", a.camera.FPS())

	frames := make(chan captured, 1)
	go a.captureLoop(ctx, frames)

	for f := range frames {
		a.process(ctx, f, rate)
		f.img.Close()
	}

	a.pending.Wait()
	if a.hooks != nil {
		a.hooks.Wait()
	}
	slog.Info("detection pipeline stopped")
	return nil
}

// captureLoop reads frames until ctx ends, then closes out.
func (a *App) captureLoop(ctx context.Context, out chan<- captured) {
	defer close(out)

	reconnect := capture.NewReconnector(a.camera, a.config.Retry)
	var (
		seq  uint64
		next time.Time
	)

	for {
		if !sleepUntil(ctx, next) {
			return
		}
		if fps := a.camera.FPS(); fps > 0 {
			next = time.Now().Add(time.Second / time.Duration(fps))
		}

		seq++
		img, err := a.camera.ReadFrame()
		if err != nil {
			slog.Warn("camera read failed", "frame", seq, "err", err)
			ph := capture.Placeholder(a.config.Camera.Width, a.config.Camera.Height, capture.PlaceholderText)
			if !send(ctx, out, captured{seq: seq, img: ph, err: err}) {
				return
			}
			if err := reconnect.Reconnect(ctx); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("camera reconnect failed", "err", err)
			}
			continue
		}
		reconnect.Reset()

		if !send(ctx, out, captured{seq: seq, img: *img}) {
			return
		}
	}
}

// send hands f to the consumer. It reports false, releasing f, if ctx ends
// first.
func send(ctx context.Context, out chan<- captured, f captured) bool {
	select {
	case out <- f:
		return true
	case <-ctx.Done():
		f.img.Close()
		return false
	}
}

// sleepUntil waits for t or ctx, reporting whether ctx is still live.
func sleepUntil(ctx context.Context, t time.Time) bool {
	d := time.Until(t)
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// process runs one frame through classification and every output. It
// never fails; per-frame errors are logged and degrade to idle results.
func (a *App) process(ctx context.Context, f captured, rate *capture.AdaptiveRate) {
	_, span := a.tracer.Start(ctx, f.seq)

	var (
		state  arbiter.State
		result detector.Result
		err    = f.err
	)
	if f.err != nil {
		state = arbiter.CameraErrorState(f.seq)
	} else {
		rate.Observe(&f.img)
		result, err = a.detector.Detect(&f.img)
		if err != nil {
			slog.Warn("landmark detection failed", "frame", f.seq, "err", err)
			result = detector.Result{}
		}
		state = arbiter.Resolve(f.seq, result)
	}

	a.state.Publish(state)
	a.tracer.End(span, state, err)

	a.renderAnnotated(f, result.Hands, state)
	if a.session != nil {
		a.renderPainted(f, result.Hands)
	}

	if a.hooks != nil {
		a.hooks.Observe(state)
	}
	if a.snapshots != nil && a.Enabled() && a.snapshots.Consider(state) {
		a.takeSnapshot(f.img, state)
	}
}

func (a *App) renderAnnotated(f captured, hands []detector.HandLandmarks, state arbiter.State) {
	out := f.img.Clone()
	defer out.Close()

	overlay.Annotate(&out, hands, state)
	a.store(a.annotated, f.seq, out)
}

// renderPainted steps the painting session with the first detected hand
// and composites the canvas over the frame. A camera-error frame counts as
// no hand, so a stroke never bridges an outage.
func (a *App) renderPainted(f captured, hands []detector.HandLandmarks) {
	var primary *detector.HandLandmarks
	if f.err == nil && len(hands) > 0 {
		primary = &hands[0]
	}
	action := a.session.Step(primary)
	slog.Debug("paint step", "frame", f.seq, "action", action)

	src := f.img
	cfg := a.session.Config()
	if src.Cols() != cfg.Width || src.Rows() != cfg.Height {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(f.img, &resized, image.Pt(cfg.Width, cfg.Height), 0, 0, gocv.InterpolationLinear)
		src = resized
	}

	out := gocv.NewMat()
	defer out.Close()
	if err := a.session.Render(src, &out); err != nil {
		slog.Warn("paint render failed", "frame", f.seq, "err", err)
		return
	}
	a.store(a.painted, f.seq, out)
}

func (a *App) store(buf *frame.Buffer, seq uint64, img gocv.Mat) {
	data, err := frame.Encode(img, a.config.StreamQuality)
	if err != nil {
		slog.Warn("stream encode failed", "frame", seq, "err", err)
		return
	}
	buf.Store(seq, data)
}

// takeSnapshot writes a copy of img in the background and announces it to
// hooks.
func (a *App) takeSnapshot(img gocv.Mat, state arbiter.State) {
	clone := img.Clone()
	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer clone.Close()

		snap, err := a.snapshots.Capture(clone, state)
		if err != nil {
			slog.Error("snapshot failed", "frame", state.Frame, "err", err)
			if snap == nil {
				return
			}
		}
		slog.Info("snapshot saved", "path", snap.Path, "frame", state.Frame)
		if a.hooks != nil {
			a.hooks.Snapshot(snap, state)
		}
	}()
}
