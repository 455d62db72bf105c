package sync

import "time"

// Timer is a cancellable pending call.
type Timer interface {
	Stop() bool
}

// Clock abstracts time for the engine's delayed one-shot steps so the load
// ordering can be tested without real sleeps.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// RealClock returns a Clock backed by the time package.
func RealClock() Clock {
	return realClock{}
}
