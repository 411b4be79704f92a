package shipping

import (
	"context"
	"errors"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// abandonedCall marks a carrier call whose caller went away before an answer
// arrived. It says nothing about the carrier, so it must never close a
// circuit that is half-open and never count toward tripping a closed one.
type abandonedCall struct {
	err   error
	trial bool
}

func (a *abandonedCall) Error() string { return a.err.Error() }
func (a *abandonedCall) Unwrap() error { return a.err }

// newCircuitBreaker opens after threshold consecutive transient failures and
// lets a single trial call through once cooldown has passed
func newCircuitBreaker(name string, threshold int, opts ResilienceOptions, logger *zap.Logger) *gobreaker.CircuitBreaker {
	if threshold <= 0 {
		threshold = 1
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(threshold)
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("shipping provider circuit changed state",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// breakerSuccess decides how a call outcome counts against the carrier.
// A rejected request still proves the carrier is reachable.
func breakerSuccess(err error) bool {
	var abandoned *abandonedCall
	if errors.As(err, &abandoned) {
		return !abandoned.trial
	}
	return err == nil || !isTransient(err)
}

// markAbandoned wraps a caller cancellation so breakerSuccess can tell it
// apart from a carrier failure
func markAbandoned(err error, trial bool) error {
	if err != nil && errors.Is(err, context.Canceled) {
		return &abandonedCall{err: err, trial: trial}
	}
	return err
}

// unwrapAbandoned strips the marker before the error leaves the decorator
func unwrapAbandoned(err error) error {
	var abandoned *abandonedCall
	if errors.As(err, &abandoned) {
		return abandoned.err
	}
	return err
}

// breakerRejected reports whether gobreaker refused the call outright
func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
