package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests.
type Fake struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*fakeTimer
	tickers []*fakeTicker
}

// NewFake returns a Fake positioned at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// AfterFunc schedules fn to run during a later Advance.
func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTimer{clock: f, at: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	return t
}

// NewTicker returns a ticker fed by Advance.
func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{
		clock: f,
		every: d,
		next:  f.now.Add(d),
		ch:    make(chan time.Time),
		done:  make(chan struct{}),
	}
	f.tickers = append(f.tickers, t)
	return t
}

// Tickers reports the number of running tickers.
func (f *Fake) Tickers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tickers)
}

// PendingTimers reports the number of timers that have neither fired nor
// been stopped.
func (f *Fake) PendingTimers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

// Advance moves time forward by d. Due timer callbacks run on the calling
// goroutine; due ticks are handed to ticker receivers one at a time, so each
// send blocks until the previous tick has been picked up.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		at, fire, ok := f.nextEvent(target)
		if !ok {
			break
		}
		fire(at)
	}

	f.mu.Lock()
	f.now = target
	f.mu.Unlock()
}

// nextEvent pops the earliest due timer or tick at or before target.
func (f *Fake) nextEvent(target time.Time) (time.Time, func(time.Time), bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sort.SliceStable(f.timers, func(i, j int) bool { return f.timers[i].at.Before(f.timers[j].at) })
	var (
		bestAt     time.Time
		bestTimer  *fakeTimer
		bestTicker *fakeTicker
	)
	if len(f.timers) > 0 && !f.timers[0].at.After(target) {
		bestAt, bestTimer = f.timers[0].at, f.timers[0]
	}
	for _, t := range f.tickers {
		if t.next.After(target) {
			continue
		}
		if bestTimer == nil && bestTicker == nil || t.next.Before(bestAt) {
			bestAt, bestTimer, bestTicker = t.next, nil, t
		}
	}

	switch {
	case bestTimer != nil:
		f.timers = f.timers[1:]
		f.now = bestAt
		return bestAt, func(time.Time) { bestTimer.fn() }, true
	case bestTicker != nil:
		bestTicker.next = bestTicker.next.Add(bestTicker.every)
		f.now = bestAt
		tk := bestTicker
		return bestAt, func(at time.Time) {
			select {
			case tk.ch <- at:
			case <-tk.done:
			}
		}, true
	}
	return time.Time{}, nil, false
}

type fakeTimer struct {
	clock *Fake
	at    time.Time
	fn    func()
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	for i, pending := range t.clock.timers {
		if pending == t {
			t.clock.timers = append(t.clock.timers[:i], t.clock.timers[i+1:]...)
			return true
		}
	}
	return false
}

type fakeTicker struct {
	clock *Fake
	every time.Duration
	next  time.Time
	ch    chan time.Time
	done  chan struct{}
	once  sync.Once
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.once.Do(func() {
		close(t.done)
		t.clock.mu.Lock()
		defer t.clock.mu.Unlock()
		for i, running := range t.clock.tickers {
			if running == t {
				t.clock.tickers = append(t.clock.tickers[:i], t.clock.tickers[i+1:]...)
				break
			}
		}
	})
}
