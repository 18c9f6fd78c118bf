package sdk

import "time"

// FrameDelay approximates one paint frame; queued passes run after it.
const FrameDelay = 16 * time.Millisecond

// Scheduler runs fn at a later cooperative opportunity. Implementations
// must not run fn synchronously inside Schedule.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) {
	f(fn)
}

// DelayScheduler runs each scheduled func on its own timer after delay.
func DelayScheduler(delay time.Duration) Scheduler {
	return SchedulerFunc(func(fn func()) {
		time.AfterFunc(delay, fn)
	})
}

// FrameScheduler is DelayScheduler(FrameDelay).
func FrameScheduler() Scheduler {
	return DelayScheduler(FrameDelay)
}
