package trade

import "context"

// MetricsRecorder receives order lifecycle measurements
type MetricsRecorder interface {
	RecordTransition(ctx context.Context, from, to string, outcome string)
	RecordShippingCall(ctx context.Context, provider, operation string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordTransition(context.Context, string, string, string) {}
func (nopMetrics) RecordShippingCall(context.Context, string, string, error) {}
