package requester

import "time"

// Clock supplies the current time and deadline timers. Tests swap in a
// manual clock to drive timeout races without sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call
type Timer interface {
	Stop() bool
}

// SystemClock is the Clock backed by package time
type SystemClock struct{}

// NewSystemClock returns the wall clock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}

func (SystemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
