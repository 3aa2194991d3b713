package session

import "time"

// CountdownStart is the number of seconds shown before a quiz begins.
const CountdownStart = 3

// TimerSource counts the remaining quiz time down once per second.
// Its counter is guarded by the owning Session's lock.
type TimerSource struct {
	rep       *repeater
	remaining int
}

func newTimerSource(clock Clock) *TimerSource {
	return &TimerSource{rep: newRepeater(clock, time.Second)}
}

// start begins ticking with the given budget. A second call while running is a no-op.
func (t *TimerSource) start(seconds int, onTick func()) bool {
	if t.rep.running() {
		return false
	}
	if seconds < 0 {
		seconds = 0
	}
	t.remaining = seconds
	return t.rep.start(onTick)
}

func (t *TimerSource) stop() { t.rep.stop() }

// tick decrements the counter, saturating at zero. It reports whether the value changed.
func (t *TimerSource) tick() bool {
	if t.remaining <= 0 {
		t.remaining = 0
		return false
	}
	t.remaining--
	return true
}

// Remaining returns the seconds left.
func (t *TimerSource) Remaining() int { return t.remaining }

// Running reports whether ticks are being delivered.
func (t *TimerSource) Running() bool { return t.rep.running() }

// CountdownGate holds a session in the countdown phase for CountdownStart seconds.
// Its counter is guarded by the owning Session's lock.
type CountdownGate struct {
	rep     *repeater
	seconds int
}

func newCountdownGate(clock Clock) *CountdownGate {
	return &CountdownGate{rep: newRepeater(clock, time.Second), seconds: CountdownStart}
}

func (g *CountdownGate) start(onTick func()) bool {
	return g.rep.start(onTick)
}

// tick decrements the counter and reports expiry. The gate stops itself on expiry.
func (g *CountdownGate) tick() bool {
	if g.seconds > 0 {
		g.seconds--
	}
	if g.seconds == 0 {
		g.rep.stop()
		return true
	}
	return false
}

// stop cancels the countdown and rewinds it to CountdownStart.
func (g *CountdownGate) stop() {
	g.rep.stop()
	g.seconds = CountdownStart
}

// Seconds returns the seconds left before the quiz starts.
func (g *CountdownGate) Seconds() int { return g.seconds }

// Running reports whether the countdown is active.
func (g *CountdownGate) Running() bool { return g.rep.running() }
