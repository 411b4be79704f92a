package shipping

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/config"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// flakyProvider fails the first failures calls of every operation
type flakyProvider struct {
	failures int32
	err      error
	calls    atomic.Int32
	delay    time.Duration
}

func (p *flakyProvider) Code() string { return "flaky" }

func (p *flakyProvider) fail(ctx context.Context) error {
	n := p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if n <= p.failures {
		return p.err
	}
	return nil
}

func (p *flakyProvider) GetRates(ctx context.Context, _, _ integration.Address, _ integration.Package) ([]integration.Rate, error) {
	if err := p.fail(ctx); err != nil {
		return nil, err
	}
	return []integration.Rate{{Provider: "flaky", Service: "express", Cost: decimal.NewFromInt(9), ETADays: 1}}, nil
}

func (p *flakyProvider) CreateShipment(ctx context.Context, _ integration.ShipmentRequest) (*integration.Shipment, error) {
	if err := p.fail(ctx); err != nil {
		return nil, err
	}
	return &integration.Shipment{Provider: "flaky", TrackingNumber: "FLK-1"}, nil
}

func (p *flakyProvider) TrackShipment(ctx context.Context, _ string) (integration.TrackingStatus, error) {
	if err := p.fail(ctx); err != nil {
		return integration.TrackingStatusUnknown, err
	}
	return integration.TrackingStatusInTransit, nil
}

func fastOptions() ResilienceOptions {
	return ResilienceOptions{
		CallTimeout:      time.Second,
		MaxRetries:       2,
		RetryInitial:     time.Millisecond,
		BreakerThreshold: 3,
		BreakerCooldown:  time.Hour,
	}
}

var testPackage = integration.Package{WeightKg: decimal.NewFromInt(2)}

func TestManualProvider(t *testing.T) {
	ctx := context.Background()
	p := NewManualProvider(decimal.RequireFromString("4.50"), 2)

	t.Run("flat rate", func(t *testing.T) {
		rates, err := p.GetRates(ctx, integration.Address{City: "A"}, integration.Address{City: "B"}, testPackage)
		require.NoError(t, err)
		require.Len(t, rates, 1)
		assert.True(t, rates[0].Cost.Equal(decimal.RequireFromString("4.50")))
		assert.Equal(t, 2, rates[0].ETADays)
	})

	t.Run("rejects weightless package", func(t *testing.T) {
		_, err := p.GetRates(ctx, integration.Address{}, integration.Address{}, integration.Package{})
		assert.ErrorIs(t, err, integration.ErrInvalidPackage)
	})

	t.Run("shipment lifecycle", func(t *testing.T) {
		tenantID := uuid.New()
		shipment, err := p.CreateShipment(ctx, integration.ShipmentRequest{TenantID: tenantID, OrderID: uuid.New()})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(shipment.TrackingNumber, "MAN-"))
		assert.Len(t, shipment.TrackingNumber, 12)

		status, err := p.TrackShipment(ctx, shipment.TrackingNumber)
		require.NoError(t, err)
		assert.Equal(t, integration.TrackingStatusPending, status)

		require.NoError(t, p.SetStatus(tenantID, shipment.TrackingNumber, integration.TrackingStatusDelivered))
		status, err = p.TrackShipment(ctx, shipment.TrackingNumber)
		require.NoError(t, err)
		assert.Equal(t, integration.TrackingStatusDelivered, status)
	})

	t.Run("shipments belong to their tenant", func(t *testing.T) {
		owner, other := uuid.New(), uuid.New()
		shipment, err := p.CreateShipment(ctx, integration.ShipmentRequest{TenantID: owner, OrderID: uuid.New()})
		require.NoError(t, err)

		err = p.SetStatus(other, shipment.TrackingNumber, integration.TrackingStatusDelivered)
		assert.ErrorIs(t, err, integration.ErrShipmentNotFound)

		otherCtx, _ := logger.WithTenantID(ctx, zap.NewNop(), other)
		_, err = p.TrackShipment(otherCtx, shipment.TrackingNumber)
		assert.ErrorIs(t, err, integration.ErrShipmentNotFound)

		ownerCtx, _ := logger.WithTenantID(ctx, zap.NewNop(), owner)
		status, err := p.TrackShipment(ownerCtx, shipment.TrackingNumber)
		require.NoError(t, err)
		assert.Equal(t, integration.TrackingStatusPending, status, "foreign update must not land")

		assert.ErrorIs(t, p.SetStatus(uuid.Nil, shipment.TrackingNumber, integration.TrackingStatusDelivered), shared.ErrTenantRequired)
	})

	t.Run("requires a tenant", func(t *testing.T) {
		_, err := p.CreateShipment(ctx, integration.ShipmentRequest{OrderID: uuid.New()})
		assert.Error(t, err)
	})

	t.Run("unknown tracking number", func(t *testing.T) {
		_, err := p.TrackShipment(ctx, "MAN-NOPE")
		assert.ErrorIs(t, err, integration.ErrShipmentNotFound)
		assert.ErrorIs(t, p.SetStatus(uuid.New(), "MAN-NOPE", integration.TrackingStatusDelivered), integration.ErrShipmentNotFound)
	})
}

func TestResilientProvider_RetriesReads(t *testing.T) {
	inner := &flakyProvider{failures: 2, err: errors.New("connection reset")}
	p := NewResilientProvider(inner, fastOptions(), zap.NewNop())

	rates, err := p.GetRates(context.Background(), integration.Address{}, integration.Address{}, testPackage)

	require.NoError(t, err)
	assert.Len(t, rates, 1)
	assert.Equal(t, int32(3), inner.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, p.Breaker().State())
}

func TestResilientProvider_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: errors.New("502 bad gateway")}
	p := NewResilientProvider(inner, fastOptions(), zap.NewNop())

	_, err := p.TrackShipment(context.Background(), "FLK-1")

	require.Error(t, err)
	assert.Equal(t, shared.CodeShippingProviderError, shared.ErrorCode(err))
	assert.Equal(t, int32(3), inner.calls.Load())
}

func TestResilientProvider_DoesNotRetryCreate(t *testing.T) {
	inner := &flakyProvider{failures: 1, err: errors.New("timeout from carrier")}
	p := NewResilientProvider(inner, fastOptions(), zap.NewNop())

	_, err := p.CreateShipment(context.Background(), integration.ShipmentRequest{OrderID: uuid.New()})

	require.Error(t, err)
	assert.Equal(t, shared.CodeShippingProviderError, shared.ErrorCode(err))
	assert.Equal(t, int32(1), inner.calls.Load())
}

func TestResilientProvider_PermanentErrorsAreNotRetried(t *testing.T) {
	inner := &flakyProvider{failures: 10, err: integration.ErrShipmentNotFound}
	p := NewResilientProvider(inner, fastOptions(), zap.NewNop())

	_, err := p.TrackShipment(context.Background(), "FLK-404")

	assert.ErrorIs(t, err, integration.ErrShipmentNotFound)
	assert.Equal(t, int32(1), inner.calls.Load())
	assert.Equal(t, gobreaker.StateClosed, p.Breaker().State())
}

func TestResilientProvider_Timeout(t *testing.T) {
	inner := &flakyProvider{delay: time.Second}
	opts := fastOptions()
	opts.CallTimeout = 10 * time.Millisecond
	opts.MaxRetries = 0
	p := NewResilientProvider(inner, opts, zap.NewNop())

	_, err := p.CreateShipment(context.Background(), integration.ShipmentRequest{OrderID: uuid.New()})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, shared.CodeShippingProviderError, shared.ErrorCode(err))
}

func TestResilientProvider_OpensCircuit(t *testing.T) {
	inner := &flakyProvider{failures: 100, err: errors.New("carrier down")}
	opts := fastOptions()
	opts.MaxRetries = 0
	p := NewResilientProvider(inner, opts, zap.NewNop())
	ctx := context.Background()

	for i := 0; i < opts.BreakerThreshold; i++ {
		_, err := p.CreateShipment(ctx, integration.ShipmentRequest{OrderID: uuid.New()})
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, p.Breaker().State())

	_, err := p.CreateShipment(ctx, integration.ShipmentRequest{OrderID: uuid.New()})
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)
	assert.Equal(t, shared.CodeShippingProviderError, shared.ErrorCode(err))
	assert.Equal(t, int32(opts.BreakerThreshold), inner.calls.Load())
}

// scriptedProvider answers TrackShipment with whatever error is currently set
type scriptedProvider struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *scriptedProvider) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *scriptedProvider) Code() string { return "scripted" }

func (p *scriptedProvider) GetRates(context.Context, integration.Address, integration.Address, integration.Package) ([]integration.Rate, error) {
	return nil, nil
}

func (p *scriptedProvider) CreateShipment(context.Context, integration.ShipmentRequest) (*integration.Shipment, error) {
	return nil, nil
}

func (p *scriptedProvider) TrackShipment(context.Context, string) (integration.TrackingStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return integration.TrackingStatusUnknown, p.err
	}
	return integration.TrackingStatusInTransit, nil
}

func breakerOptions() ResilienceOptions {
	opts := fastOptions()
	opts.MaxRetries = 0
	opts.BreakerThreshold = 1
	opts.BreakerCooldown = 20 * time.Millisecond
	return opts
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	inner := &scriptedProvider{err: errors.New("carrier down")}
	p := NewResilientProvider(inner, breakerOptions(), zap.NewNop())
	ctx := context.Background()

	_, err := p.TrackShipment(ctx, "T-1")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, p.Breaker().State())

	_, err = p.TrackShipment(ctx, "T-1")
	assert.ErrorIs(t, err, integration.ErrProviderUnavailable)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, gobreaker.StateHalfOpen, p.Breaker().State())

	_, err = p.TrackShipment(ctx, "T-1")
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, p.Breaker().State(), "failed trial re-opens")

	time.Sleep(30 * time.Millisecond)
	inner.set(nil)
	status, err := p.TrackShipment(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, integration.TrackingStatusInTransit, status)
	assert.Equal(t, gobreaker.StateClosed, p.Breaker().State())
	assert.Equal(t, 3, inner.calls)
}

func TestCircuitBreaker_CancelledTrialKeepsCircuitOpen(t *testing.T) {
	inner := &scriptedProvider{err: errors.New("carrier down")}
	p := NewResilientProvider(inner, breakerOptions(), zap.NewNop())

	_, err := p.TrackShipment(context.Background(), "T-1")
	require.Error(t, err)
	require.Equal(t, gobreaker.StateOpen, p.Breaker().State())

	time.Sleep(30 * time.Millisecond)
	inner.set(context.Canceled)
	_, err = p.TrackShipment(context.Background(), "T-1")

	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, integration.ErrProviderUnavailable)
	assert.Equal(t, gobreaker.StateOpen, p.Breaker().State())
}

func TestCircuitBreaker_CancelledCallsDoNotTrip(t *testing.T) {
	inner := &scriptedProvider{err: context.Canceled}
	opts := breakerOptions()
	opts.BreakerThreshold = 2
	p := NewResilientProvider(inner, opts, zap.NewNop())

	for i := 0; i < 5; i++ {
		_, err := p.TrackShipment(context.Background(), "T-1")
		require.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, p.Breaker().State())
}

func TestFactory(t *testing.T) {
	f := NewFactory()
	f.Register(NewManualProvider(decimal.NewFromInt(5), 3))

	p, err := f.Get(" MANUAL ")
	require.NoError(t, err)
	assert.Equal(t, ManualProviderCode, p.Code())

	_, err = f.Get("dhl")
	assert.Equal(t, shared.CodeShippingProviderError, shared.ErrorCode(err))
	assert.ErrorIs(t, err, integration.ErrProviderNotRegistered)

	assert.Equal(t, []string{"manual"}, f.Codes())
}

func TestNewFromConfig(t *testing.T) {
	t.Run("manual carrier wrapped", func(t *testing.T) {
		providers, err := NewFromConfig(config.ShippingConfig{
			Providers:      []string{"manual"},
			ManualFlatRate: "7.25",
			ManualETADays:  1,
		}, zap.NewNop())
		require.NoError(t, err)
		require.NotNil(t, providers.Manual)

		p, err := providers.Factory.Get("manual")
		require.NoError(t, err)
		_, ok := p.(*ResilientProvider)
		assert.True(t, ok)
	})

	t.Run("unknown carrier", func(t *testing.T) {
		_, err := NewFromConfig(config.ShippingConfig{Providers: []string{"pigeon"}}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("bad flat rate", func(t *testing.T) {
		_, err := NewFromConfig(config.ShippingConfig{Providers: []string{"manual"}, ManualFlatRate: "cheap"}, zap.NewNop())
		assert.Error(t, err)
	})
}
