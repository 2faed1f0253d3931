// Package host models the single-threaded, event-driven document
// environment the quote pipeline runs inside: a cooperative task loop
// with timer deferrals, event dispatch with a capture phase, mutation
// observation and location polling.
package host

import "time"

// Loop is a cooperative scheduler. All work runs on the goroutine that
// drives the loop, one task at a time, so shared state needs no
// locking. Timers are deferrals, not blocking waits: they fire when the
// loop's clock passes their deadline.
type Loop struct {
	queue  []func()
	timers []loopTimer
	now    time.Duration
	seq    int
}

type loopTimer struct {
	at  time.Duration
	seq int // preserves posting order among equal deadlines
	fn  func()
}

// NewLoop returns an empty loop with its clock at zero.
func NewLoop() *Loop {
	return &Loop{}
}

// Now returns the loop's current clock reading.
func (l *Loop) Now() time.Duration { return l.now }

// Post queues fn to run on the next flush.
func (l *Loop) Post(fn func()) {
	l.queue = append(l.queue, fn)
}

// After schedules fn to run once the clock has advanced by d. A zero or
// negative d behaves like Post.
func (l *Loop) After(d time.Duration, fn func()) {
	if d <= 0 {
		l.Post(fn)
		return
	}
	l.seq++
	l.timers = append(l.timers, loopTimer{at: l.now + d, seq: l.seq, fn: fn})
}

// Flush runs queued tasks, including tasks they post, until the queue
// is empty. Timers do not fire.
func (l *Loop) Flush() {
	for len(l.queue) > 0 {
		fn := l.queue[0]
		l.queue = l.queue[1:]
		fn()
	}
}

// Advance moves the clock forward by d, firing due timers in deadline
// order and flushing between each.
func (l *Loop) Advance(d time.Duration) {
	l.Flush()
	deadline := l.now + d
	for {
		t, ok := l.nextTimer(deadline)
		if !ok {
			break
		}
		l.now = t.at
		t.fn()
		l.Flush()
	}
	l.now = deadline
}

// Settle flushes, then keeps jumping the clock to the earliest pending
// timer until no work remains.
func (l *Loop) Settle() {
	l.Flush()
	for {
		t, ok := l.nextTimer(1<<62 - 1)
		if !ok {
			return
		}
		l.now = t.at
		t.fn()
		l.Flush()
	}
}

// nextTimer pops the earliest timer at or before deadline.
func (l *Loop) nextTimer(deadline time.Duration) (loopTimer, bool) {
	best := -1
	for i, t := range l.timers {
		if t.at > deadline {
			continue
		}
		if best == -1 || t.at < l.timers[best].at ||
			(t.at == l.timers[best].at && t.seq < l.timers[best].seq) {
			best = i
		}
	}
	if best == -1 {
		return loopTimer{}, false
	}
	t := l.timers[best]
	l.timers = append(l.timers[:best], l.timers[best+1:]...)
	return t, true
}
