package service

import (
	"sync"
	"time"
)

// fakeTimer and fakeScheduler let tests fire delayed callbacks by hand.
type fakeTimer struct {
	mu      sync.Mutex
	fn      func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (that *fakeTimer) Stop() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.stopped || that.fired {
		return false
	}
	that.stopped = true
	return true
}

func (that *fakeTimer) fire() bool {
	that.mu.Lock()
	if that.stopped || that.fired {
		that.mu.Unlock()
		return false
	}
	that.fired = true
	fn := that.fn
	that.mu.Unlock()

	fn()
	return true
}

type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{}
}

func (that *fakeScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	that.mu.Lock()
	defer that.mu.Unlock()

	timer := &fakeTimer{fn: fn, delay: d}
	that.timers = append(that.timers, timer)
	return timer
}

// fireNext runs the oldest pending timer, skipping stopped ones. It reports
// whether any callback ran.
func (that *fakeScheduler) fireNext() bool {
	for {
		that.mu.Lock()
		if len(that.timers) == 0 {
			that.mu.Unlock()
			return false
		}
		timer := that.timers[0]
		that.timers = that.timers[1:]
		that.mu.Unlock()

		if timer.fire() {
			return true
		}
	}
}

// fireAll drains every pending timer, including ones armed by fired
// callbacks.
func (that *fakeScheduler) fireAll() int {
	count := 0
	for that.fireNext() {
		count++
	}
	return count
}

func (that *fakeScheduler) pending() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	count := 0
	for _, timer := range that.timers {
		timer.mu.Lock()
		if !timer.stopped && !timer.fired {
			count++
		}
		timer.mu.Unlock()
	}
	return count
}

// lastDelay returns the delay of the most recently armed timer.
func (that *fakeScheduler) lastDelay() time.Duration {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.timers) == 0 {
		return 0
	}
	return that.timers[len(that.timers)-1].delay
}
