package session

import (
	"sync"
	"time"
)

// Clock creates tickers. Production code uses SystemClock; tests drive a ManualClock.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// Ticker is the subset of time.Ticker the session needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// SystemClock is backed by time.NewTicker.
type SystemClock struct{}

func (SystemClock) NewTicker(d time.Duration) Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct {
	t *time.Ticker
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

// repeater runs onTick on every tick of a ticker until stopped.
// start is idempotent and stop is safe when idle. stop never waits for the
// goroutine, so it may be called while holding the lock onTick acquires;
// a tick racing with stop must be ignored by the callback.
type repeater struct {
	clock    Clock
	interval time.Duration

	mu   sync.Mutex
	quit chan struct{}
}

func newRepeater(clock Clock, interval time.Duration) *repeater {
	if clock == nil {
		clock = SystemClock{}
	}
	return &repeater{clock: clock, interval: interval}
}

func (r *repeater) start(onTick func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quit != nil {
		return false
	}
	quit := make(chan struct{})
	r.quit = quit
	ticker := r.clock.NewTicker(r.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C():
				onTick()
			}
		}
	}()
	return true
}

func (r *repeater) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.quit != nil {
		close(r.quit)
		r.quit = nil
	}
}

func (r *repeater) running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quit != nil
}

// ManualClock hands out tickers that only fire when Tick is called.
// It is meant for tests and simulations.
type ManualClock struct {
	mu      sync.Mutex
	tickers map[*manualTicker]struct{}
}

func NewManualClock() *ManualClock {
	return &ManualClock{tickers: make(map[*manualTicker]struct{})}
}

func (c *ManualClock) NewTicker(time.Duration) Ticker {
	t := &manualTicker{
		clock: c,
		c:     make(chan time.Time),
		done:  make(chan struct{}),
	}
	c.mu.Lock()
	c.tickers[t] = struct{}{}
	c.mu.Unlock()
	return t
}

// Tick delivers one tick to every live ticker. It blocks until each ticker
// has received the tick or has been stopped.
func (c *ManualClock) Tick() {
	c.mu.Lock()
	live := make([]*manualTicker, 0, len(c.tickers))
	for t := range c.tickers {
		live = append(live, t)
	}
	c.mu.Unlock()

	now := time.Now()
	for _, t := range live {
		select {
		case t.c <- now:
		case <-t.done:
		}
	}
}

// Active reports how many tickers have not been stopped yet.
func (c *ManualClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tickers)
}

type manualTicker struct {
	clock *ManualClock
	c     chan time.Time
	done  chan struct{}
	once  sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		close(t.done)
		t.clock.mu.Lock()
		delete(t.clock.tickers, t)
		t.clock.mu.Unlock()
	})
}
