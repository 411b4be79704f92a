package shipping

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/telemetry"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ResilienceOptions tunes the ResilientProvider decorator
type ResilienceOptions struct {
	CallTimeout      time.Duration
	MaxRetries       int
	RetryInitial     time.Duration
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// ResilientProvider wraps a carrier with a per-call timeout, retries for
// idempotent reads and a circuit breaker. CreateShipment is never retried
// because a lost response could otherwise create two shipments.
// Every failure is returned as SHIPPING_PROVIDER_ERROR.
type ResilientProvider struct {
	inner   integration.ShippingProvider
	opts    ResilienceOptions
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewResilientProvider decorates inner
func NewResilientProvider(inner integration.ShippingProvider, opts ResilienceOptions, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.RetryInitial <= 0 {
		opts.RetryInitial = 100 * time.Millisecond
	}
	logger = logger.With(zap.String("provider", inner.Code()))

	return &ResilientProvider{
		inner:   inner,
		opts:    opts,
		breaker: newCircuitBreaker("shipping."+inner.Code(), opts.BreakerThreshold, opts, logger),
		logger:  logger,
	}
}

// Code returns the code of the wrapped carrier
func (p *ResilientProvider) Code() string {
	return p.inner.Code()
}

// Breaker exposes the circuit breaker state for health reporting
func (p *ResilientProvider) Breaker() *gobreaker.CircuitBreaker {
	return p.breaker
}

// GetRates asks the carrier for rates, retrying transient failures
func (p *ResilientProvider) GetRates(ctx context.Context, origin, destination integration.Address, pkg integration.Package) ([]integration.Rate, error) {
	var rates []integration.Rate
	err := p.call(ctx, "get rates", true, func(ctx context.Context) error {
		var err error
		rates, err = p.inner.GetRates(ctx, origin, destination, pkg)
		return err
	})
	return rates, err
}

// CreateShipment creates the shipment with a single attempt
func (p *ResilientProvider) CreateShipment(ctx context.Context, req integration.ShipmentRequest) (*integration.Shipment, error) {
	var shipment *integration.Shipment
	err := p.call(ctx, "create shipment", false, func(ctx context.Context) error {
		var err error
		shipment, err = p.inner.CreateShipment(ctx, req)
		return err
	})
	return shipment, err
}

// TrackShipment asks the carrier for the shipment status, retrying transient failures
func (p *ResilientProvider) TrackShipment(ctx context.Context, trackingNumber string) (integration.TrackingStatus, error) {
	status := integration.TrackingStatusUnknown
	err := p.call(ctx, "track shipment", true, func(ctx context.Context) error {
		var err error
		status, err = p.inner.TrackShipment(ctx, trackingNumber)
		return err
	})
	return status, err
}

func (p *ResilientProvider) call(ctx context.Context, operation string, retry bool, fn func(ctx context.Context) error) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "shipping."+strings.ReplaceAll(operation, " ", "_"),
		attribute.String("shipping.provider", p.inner.Code()),
	)
	defer func() { telemetry.EndSpan(span, err) }()

	// anything but closed means this call may be the half-open trial
	trial := p.breaker.State() != gobreaker.StateClosed

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, markAbandoned(p.attempt(ctx, operation, retry, fn), trial)
	})
	if breakerRejected(err) {
		return p.wrap(operation, integration.ErrProviderUnavailable)
	}
	err = unwrapAbandoned(err)
	if err != nil {
		return p.wrap(operation, err)
	}
	return nil
}

// attempt runs fn under the call timeout, retrying transient failures when retry is set
func (p *ResilientProvider) attempt(ctx context.Context, operation string, retry bool, fn func(ctx context.Context) error) error {
	once := func() error {
		callCtx := ctx
		if p.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, p.opts.CallTimeout)
			defer cancel()
		}
		err := fn(callCtx)
		if err != nil && !isTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var err error
	if retry && p.opts.MaxRetries > 0 {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = p.opts.RetryInitial
		b.MaxElapsedTime = 0
		policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(p.opts.MaxRetries)), ctx)
		err = backoff.RetryNotify(once, policy, func(err error, wait time.Duration) {
			p.logger.Warn("shipping provider call failed, retrying",
				zap.String("operation", operation),
				zap.Duration("backoff", wait),
				zap.Error(err),
			)
		})
	} else {
		err = once()
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Err
	}
	return err
}

func (p *ResilientProvider) wrap(operation string, err error) error {
	if shared.ErrorCode(err) == shared.CodeShippingProviderError {
		return err
	}
	return shared.WrapDomainError(
		shared.CodeShippingProviderError,
		fmt.Sprintf("Shipping provider %s failed to %s: %v", p.inner.Code(), operation, err),
		err,
	)
}

// isTransient reports whether retrying the call could succeed
func isTransient(err error) bool {
	switch {
	case errors.Is(err, integration.ErrShipmentNotFound),
		errors.Is(err, integration.ErrInvalidPackage),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}

var _ integration.ShippingProvider = (*ResilientProvider)(nil)
