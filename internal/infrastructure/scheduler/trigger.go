package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants a sweep should cover
type TenantProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// IntervalTrigger submits one job per active tenant every Interval
type IntervalTrigger struct {
	interval       time.Duration
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRunAt time.Time
}

// NewIntervalTrigger creates a new interval trigger
func NewIntervalTrigger(
	interval time.Duration,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *IntervalTrigger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntervalTrigger{
		interval:       interval,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start starts the ticker loop
func (t *IntervalTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}
	if t.interval <= 0 {
		return ErrInvalidConfig
	}
	t.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	t.logger.Info("Integrity sweep trigger started", zap.Duration("interval", t.interval))
	return nil
}

// Stop stops the ticker loop
func (t *IntervalTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.cancel()
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Integrity sweep trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastRunAt returns when the last sweep was dispatched; zero before the first
func (t *IntervalTrigger) LastRunAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRunAt
}

func (t *IntervalTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := t.RunNow(ctx); err != nil {
				t.logger.Error("Failed to dispatch integrity sweep", zap.Error(err))
			}
		}
	}
}

// RunNow dispatches one sweep job per active tenant and returns how many were
// queued. Tenants whose job cannot be queued are logged and skipped.
func (t *IntervalTrigger) RunNow(ctx context.Context) (int, error) {
	tenantIDs, err := t.tenantProvider.ActiveTenantIDs(ctx)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, tenantID := range tenantIDs {
		if err := t.scheduler.ScheduleTenant(tenantID); err != nil {
			t.logger.Warn("Failed to schedule integrity sweep for tenant",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		queued++
	}

	t.mu.Lock()
	t.lastRunAt = time.Now()
	t.mu.Unlock()

	t.logger.Info("Integrity sweep dispatched",
		zap.Int("tenant_count", len(tenantIDs)),
		zap.Int("queued", queued),
	)
	return queued, nil
}
