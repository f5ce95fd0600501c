package service

import "time"

// TimerHandle is a cancellable pending callback. Stop reports whether the
// callback was prevented from running.
type TimerHandle interface {
	Stop() bool
}

// Scheduler owns delayed callbacks so that every pending timer can be
// cancelled when the state it would mutate is superseded. Tests swap in a
// manual implementation to fire timers deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) TimerHandle
}

type realScheduler struct{}

func NewScheduler() Scheduler {
	return &realScheduler{}
}

func (that *realScheduler) AfterFunc(d time.Duration, fn func()) TimerHandle {
	return time.AfterFunc(d, fn)
}
