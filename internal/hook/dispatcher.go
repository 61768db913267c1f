package hook

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/arbiter"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/throttle"
)

// StrongPriority is the lowest winning priority that dispatches an event.
const StrongPriority = 3

// EventFor returns the event name for a gesture label, or "" if the label
// does not dispatch.
func EventFor(l gesture.Label) string {
	if l.Priority() < StrongPriority {
		return ""
	}
	switch l.Kind {
	case gesture.OK:
		return EventOK
	case gesture.Like:
		return EventLike
	case gesture.PeaceSign:
		return EventPeace
	}
	return ""
}

// Runner executes one hook. *Executor implements it.
type Runner interface {
	Execute(ctx context.Context, h *Hook, req Request) (*Response, error)
}

// Dispatcher turns published states into hook runs. A gesture event fires
// when a strong gesture newly wins arbitration; holding it does not repeat
// the event. Each hook is additionally rate limited by its own gate.
type Dispatcher struct {
	manager  *Manager
	runner   Runner
	cooldown time.Duration
	clock    throttle.Clock

	enabled atomic.Bool

	mu    sync.Mutex
	last  gesture.Kind
	gates map[string]*throttle.Gate

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher creates an enabled Dispatcher. clock may be nil.
func NewDispatcher(manager *Manager, runner Runner, cooldown time.Duration, clock throttle.Clock) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		manager:  manager,
		runner:   runner,
		cooldown: cooldown,
		clock:    clock,
		last:     gesture.None,
		gates:    make(map[string]*throttle.Gate),
		ctx:      ctx,
		cancel:   cancel,
	}
	d.enabled.Store(true)
	return d
}

// SetEnabled turns dispatching on or off.
func (d *Dispatcher) SetEnabled(on bool) {
	d.enabled.Store(on)
}

// Enabled reports whether dispatching is on.
func (d *Dispatcher) Enabled() bool {
	return d.enabled.Load()
}

// Observe inspects a newly published state and dispatches the winner's
// event if it changed. It returns the number of hooks started.
func (d *Dispatcher) Observe(s arbiter.State) int {
	d.mu.Lock()
	prev := d.last
	d.last = s.Winner.Kind
	d.mu.Unlock()

	if s.Winner.Kind == prev {
		return 0
	}
	event := EventFor(s.Winner)
	if event == "" {
		return 0
	}

	req := Request{
		Event:       event,
		Gesture:     s.WinnerText,
		Expression:  s.Expression.String(),
		GestureText: s.GestureText,
		ImageKey:    string(s.ImageKey),
		Frame:       s.Frame,
	}
	if h, ok := s.Primary(); ok {
		req.Handedness = string(h.Handedness)
		req.Orientation = h.Orientation
	}
	return d.dispatch(req)
}

// Snapshot dispatches the snapshot event for a written snapshot.
func (d *Dispatcher) Snapshot(snap *store.Snapshot, s arbiter.State) int {
	return d.dispatch(Request{
		Event:       EventSnapshot,
		Gesture:     s.WinnerText,
		Expression:  s.Expression.String(),
		GestureText: s.GestureText,
		ImageKey:    string(s.ImageKey),
		Frame:       s.Frame,
		Snapshot:    snap.Path,
	})
}

func (d *Dispatcher) dispatch(req Request) int {
	if !d.Enabled() || d.ctx.Err() != nil {
		return 0
	}

	started := 0
	for _, h := range d.manager.ForEvent(req.Event) {
		if !d.gate(h).Allow() {
			slog.Debug("hook throttled", "hook", h.Manifest.Name, "event", req.Event)
			continue
		}

		started++
		d.wg.Add(1)
		go func(h *Hook) {
			defer d.wg.Done()
			d.run(h, req)
		}(h)
	}
	return started
}

func (d *Dispatcher) run(h *Hook, req Request) {
	start := time.Now()
	resp, err := d.runner.Execute(d.ctx, h, req)
	log := slog.With("hook", h.Manifest.Name, "event", req.Event, "elapsed", time.Since(start))

	switch {
	case err != nil:
		log.Warn("hook failed", "err", err)
	case !resp.Success:
		log.Warn("hook reported failure", "error", resp.Error)
	default:
		log.Info("hook ran")
	}
}

func (d *Dispatcher) gate(h *Hook) *throttle.Gate {
	d.mu.Lock()
	defer d.mu.Unlock()

	g, ok := d.gates[h.Manifest.Name]
	if !ok {
		cooldown := d.cooldown
		if h.Manifest.CooldownMs > 0 {
			cooldown = time.Duration(h.Manifest.CooldownMs) * time.Millisecond
		}
		g = throttle.New(cooldown, d.clock)
		d.gates[h.Manifest.Name] = g
	}
	return g
}

// Wait blocks until every started hook has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close cancels running hooks and waits for them to exit.
func (d *Dispatcher) Close() {
	d.cancel()
	d.wg.Wait()
}
