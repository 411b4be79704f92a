package scheduler

import "errors"

var (
	// ErrSchedulerNotRunning is returned by SubmitJob before Start or after Stop
	ErrSchedulerNotRunning = errors.New("scheduler: not running")

	// ErrJobQueueFull is returned when a sweep job cannot be queued without blocking
	ErrJobQueueFull = errors.New("scheduler: job queue is full")

	// ErrInvalidConfig is returned for non-positive workers, queue size, timeout or interval
	ErrInvalidConfig = errors.New("scheduler: invalid configuration")
)
