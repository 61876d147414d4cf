// Package tracking simulates an ambulance driving toward the pickup point.
//
// Progress is a pure function of elapsed ticks (AtTick); Simulator owns the
// live ticker and can be torn down at any point.
package tracking

import (
	"math"
	"sync"
	"time"

	"github.com/wolfman30/ambu-dispatch/internal/clock"
)

// MaxProgress is the progress value at which the vehicle has arrived.
const MaxProgress = 100.0

// Params controls the simulated drive.
type Params struct {
	// Step is the progress added per tick.
	Step float64
	// Interval is the tick period.
	Interval time.Duration
	// ETAWindow is the ETA shown before the vehicle moves.
	ETAWindow time.Duration
}

// DefaultParams moves 0.5% every 200ms with a 15 minute ETA window.
func DefaultParams() Params {
	return Params{Step: 0.5, Interval: 200 * time.Millisecond, ETAWindow: 15 * time.Minute}
}

// WithDefaults replaces non-positive fields with DefaultParams values.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Step <= 0 {
		p.Step = d.Step
	}
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.ETAWindow <= 0 {
		p.ETAWindow = d.ETAWindow
	}
	return p
}

// Frame is the simulator state after a number of ticks.
type Frame struct {
	Tick       int     `json:"tick"`
	Progress   float64 `json:"progress"`
	ETAMinutes int     `json:"etaMinutes"`
	Arrived    bool    `json:"arrived"`
}

// ETAMinutes derives the displayed minutes remaining from progress:
// ceil(W - W*progress/100), never below zero.
func ETAMinutes(progress float64, p Params) int {
	w := p.WithDefaults().ETAWindow.Minutes()
	eta := math.Ceil(w - w*progress/MaxProgress)
	if eta < 0 {
		return 0
	}
	return int(eta)
}

// AtTick returns the frame after n ticks. The ETA is computed from the
// progress of the same tick.
func AtTick(n int, p Params) Frame {
	p = p.WithDefaults()
	if n < 0 {
		n = 0
	}
	progress := math.Min(float64(n)*p.Step, MaxProgress)
	return Frame{
		Tick:       n,
		Progress:   progress,
		ETAMinutes: ETAMinutes(progress, p),
		Arrived:    progress >= MaxProgress,
	}
}

// Initial is the frame shown before the first tick.
func Initial(p Params) Frame { return AtTick(0, p) }

// Next advances f by one tick. An arrived frame does not move.
func Next(f Frame, p Params) Frame {
	if f.Arrived {
		return f
	}
	return AtTick(f.Tick+1, p)
}

// TicksToArrival is the number of ticks needed to reach MaxProgress.
func TicksToArrival(p Params) int {
	p = p.WithDefaults()
	return int(math.Ceil(MaxProgress / p.Step))
}

// Simulator drives frames off a ticker until arrival or Stop.
type Simulator struct {
	clock    clock.Clock
	params   Params
	onFrame  func(Frame)
	onArrive func()

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	cancel   chan struct{}
	done     chan struct{}
}

// New creates a simulator. onFrame receives every frame including the
// arrival frame; onArrive is called once, after the arrival frame.
// Callbacks run on the simulator goroutine and must not call Stop.
func New(c clock.Clock, p Params, onFrame func(Frame), onArrive func()) *Simulator {
	if c == nil {
		c = clock.Real()
	}
	return &Simulator{
		clock:    c,
		params:   p.WithDefaults(),
		onFrame:  onFrame,
		onArrive: onArrive,
		cancel:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Params returns the effective parameters.
func (s *Simulator) Params() Params { return s.params }

// Start begins ticking. Calling Start twice, or after Stop, does nothing.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	select {
	case <-s.cancel:
		close(s.done)
		return
	default:
	}
	ticker := s.clock.NewTicker(s.params.Interval)
	go s.run(ticker)
}

// Stop cancels the simulation and waits for the goroutine to exit. No
// callback runs after Stop returns. Stop is idempotent.
func (s *Simulator) Stop() {
	s.stopOnce.Do(func() { close(s.cancel) })
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.done
	}
}

// Done is closed when the simulation has arrived or been stopped.
func (s *Simulator) Done() <-chan struct{} { return s.done }

func (s *Simulator) run(ticker clock.Ticker) {
	defer close(s.done)
	defer ticker.Stop()

	frame := Initial(s.params)
	for {
		select {
		case <-s.cancel:
			return
		case <-ticker.C():
		}
		// A Stop racing with the tick wins.
		select {
		case <-s.cancel:
			return
		default:
		}

		frame = Next(frame, s.params)
		if s.onFrame != nil {
			s.onFrame(frame)
		}
		if frame.Arrived {
			if s.onArrive != nil {
				s.onArrive()
			}
			return
		}
	}
}
