package inventory

import "context"

// MetricsRecorder receives stock ledger measurements
type MetricsRecorder interface {
	RecordStockAdjustment(ctx context.Context, source string, delta int64)
	RecordIntegrityCheck(ctx context.Context, consistent bool)
	RecordReconciliation(ctx context.Context, drift int64)
}

type nopMetrics struct{}

func (nopMetrics) RecordStockAdjustment(context.Context, string, int64) {}
func (nopMetrics) RecordIntegrityCheck(context.Context, bool) {}
func (nopMetrics) RecordReconciliation(context.Context, int64) {}
