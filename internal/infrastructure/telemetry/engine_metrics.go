package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EngineMetrics records order lifecycle and stock ledger measurements.
// Every measurement goes to the Prometheus registry scraped on /metrics and
// to the OTel meter exported over OTLP.
type EngineMetrics struct {
	transitions         *prometheus.CounterVec
	shippingCalls       *prometheus.CounterVec
	stockAdjustments    *prometheus.CounterVec
	stockUnits          *prometheus.CounterVec
	integrityChecks     *prometheus.CounterVec
	integrityViolations prometheus.Counter
	reconciledDrift     prometheus.Counter

	otelTransitions   metric.Int64Counter
	otelShippingCalls metric.Int64Counter
	otelAdjustments   metric.Int64Counter
	otelViolations    metric.Int64Counter
}

// NewEngineMetrics registers the collectors on reg and creates the OTel
// instruments on meter
func NewEngineMetrics(reg prometheus.Registerer, meter metric.Meter) (*EngineMetrics, error) {
	factory := promauto.With(reg)
	m := &EngineMetrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_order_transitions_total",
			Help: "Order status transition attempts by outcome",
		}, []string{"from", "to", "outcome"}),
		shippingCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_shipping_calls_total",
			Help: "Shipping provider calls by result",
		}, []string{"provider", "operation", "result"}),
		stockAdjustments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_stock_adjustments_total",
			Help: "Committed stock ledger entries",
		}, []string{"source"}),
		stockUnits: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_stock_adjusted_units_total",
			Help: "Units moved through the stock ledger",
		}, []string{"source", "direction"}),
		integrityChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "salesflow_stock_integrity_checks_total",
			Help: "Stock ledger integrity verifications by result",
		}, []string{"result"}),
		integrityViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "stock_integrity_violations_total",
			Help: "Products whose stock projection disagrees with the ledger",
		}),
		reconciledDrift: factory.NewCounter(prometheus.CounterOpts{
			Name: "salesflow_stock_reconciled_drift_units_total",
			Help: "Absolute units corrected by reconciliation",
		}),
	}

	var err error
	if m.otelTransitions, err = meter.Int64Counter("salesflow.order.transitions",
		metric.WithDescription("Order status transition attempts")); err != nil {
		return nil, fmt.Errorf("create transitions counter: %w", err)
	}
	if m.otelShippingCalls, err = meter.Int64Counter("salesflow.shipping.calls",
		metric.WithDescription("Shipping provider calls")); err != nil {
		return nil, fmt.Errorf("create shipping counter: %w", err)
	}
	if m.otelAdjustments, err = meter.Int64Counter("salesflow.stock.adjustments",
		metric.WithDescription("Committed stock ledger entries")); err != nil {
		return nil, fmt.Errorf("create adjustments counter: %w", err)
	}
	if m.otelViolations, err = meter.Int64Counter("salesflow.stock.integrity_violations",
		metric.WithDescription("Stock ledger integrity violations")); err != nil {
		return nil, fmt.Errorf("create violations counter: %w", err)
	}
	return m, nil
}

// RecordTransition counts a transition attempt
func (m *EngineMetrics) RecordTransition(ctx context.Context, from, to, outcome string) {
	m.transitions.WithLabelValues(from, to, outcome).Inc()
	m.otelTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
		attribute.String("outcome", outcome),
	))
}

// RecordShippingCall counts a carrier call
func (m *EngineMetrics) RecordShippingCall(ctx context.Context, provider, operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.shippingCalls.WithLabelValues(provider, operation, result).Inc()
	m.otelShippingCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("operation", operation),
		attribute.String("result", result),
	))
}

// RecordStockAdjustment counts a ledger entry and the units it moved
func (m *EngineMetrics) RecordStockAdjustment(ctx context.Context, source string, delta int64) {
	m.stockAdjustments.WithLabelValues(source).Inc()
	direction, units := "in", delta
	if delta < 0 {
		direction, units = "out", -delta
	}
	m.stockUnits.WithLabelValues(source, direction).Add(float64(units))
	m.otelAdjustments.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}

// RecordIntegrityCheck counts a verification and, when it failed, a violation
func (m *EngineMetrics) RecordIntegrityCheck(ctx context.Context, consistent bool) {
	if consistent {
		m.integrityChecks.WithLabelValues("consistent").Inc()
		return
	}
	m.integrityChecks.WithLabelValues("violation").Inc()
	m.integrityViolations.Inc()
	m.otelViolations.Add(ctx, 1)
}

// RecordReconciliation adds the corrected drift
func (m *EngineMetrics) RecordReconciliation(_ context.Context, drift int64) {
	if drift < 0 {
		drift = -drift
	}
	m.reconciledDrift.Add(float64(drift))
}
