package arbiter

import (
	"sync"
	"sync/atomic"
	"time"
)

// Publisher holds the current interaction state. There is one writer (the
// frame pipeline) and any number of readers. States are published by
// swapping a pointer, so readers never observe a partially written state.
type Publisher struct {
	current atomic.Pointer[State]
	now     func() time.Time

	mu   sync.Mutex
	subs map[chan State]struct{}
}

// NewPublisher creates a Publisher holding the Initial state.
func NewPublisher() *Publisher {
	p := &Publisher{
		now:  time.Now,
		subs: make(map[chan State]struct{}),
	}
	initial := Initial()
	initial.UpdatedAt = p.now()
	p.current.Store(&initial)
	return p
}

// Current returns the latest published state. Each caller gets its own
// copy of Hands.
func (p *Publisher) Current() State {
	return p.current.Load().clone()
}

// Publish replaces the current state with s. A state from an older frame
// than the one already published is discarded and Publish returns false.
func (p *Publisher) Publish(s State) bool {
	for {
		cur := p.current.Load()
		if s.Frame < cur.Frame {
			return false
		}

		next := s.clone()
		next.Version = cur.Version + 1
		next.UpdatedAt = p.now()

		if p.current.CompareAndSwap(cur, &next) {
			p.notify(next)
			return true
		}
	}
}

// Subscribe returns a channel receiving each newly published state and a
// function that ends the subscription. Slow subscribers miss intermediate
// states rather than blocking the pipeline.
func (p *Publisher) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	p.mu.Lock()
	p.subs[ch] = struct{}{}
	p.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, ch)
			p.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (p *Publisher) notify(s State) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for ch := range p.subs {
		s := s.clone()
		select {
		case ch <- s:
		default:
			// Replace the stale pending state with the newest one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}
