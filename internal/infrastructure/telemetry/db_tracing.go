package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig controls gorm instrumentation
type DBTracingConfig struct {
	Enabled bool
	// SlowQueryThreshold marks spans of queries taking longer as slow
	SlowQueryThreshold time.Duration
	// IncludeVariables puts bound query values in spans; never enable in production
	IncludeVariables bool
	// TracerProvider defaults to the global provider
	TracerProvider trace.TracerProvider
}

type queryStartKey struct{}

// RegisterDBTracing installs otelgorm on db together with callbacks that
// annotate each span, before otelgorm ends it, with rows affected, errors
// and slow query markers
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName("salesflow")}
	if !cfg.IncludeVariables {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	annotate := annotateSpan(cfg.SlowQueryThreshold)
	cb := db.Callback()

	if err := cb.Create().Before("gorm:create").Register("salesflow:trace_start_create", markStart); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("salesflow:trace_start_query", markStart); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("salesflow:trace_start_update", markStart); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("salesflow:trace_start_delete", markStart); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("salesflow:trace_start_row", markStart); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("salesflow:trace_start_raw", markStart); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Before("otel:after:create").Register("salesflow:trace_annotate_create", annotate); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Before("otel:after:select").Register("salesflow:trace_annotate_query", annotate); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Before("otel:after:update").Register("salesflow:trace_annotate_update", annotate); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("salesflow:trace_annotate_delete", annotate); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Before("otel:after:row").Register("salesflow:trace_annotate_row", annotate); err != nil {
		return err
	}
	if err := cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("salesflow:trace_annotate_raw", annotate); err != nil {
		return err
	}

	logger.Info("database tracing enabled",
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
		zap.Bool("include_variables", cfg.IncludeVariables),
	)
	return nil
}

func markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func annotateSpan(threshold time.Duration) func(*gorm.DB) {
	return func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			return
		}
		span := trace.SpanFromContext(ctx)
		if !span.IsRecording() {
			return
		}

		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
		if db.Statement.Table != "" {
			span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
		}
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Error, db.Error.Error())
			span.RecordError(db.Error)
		}
		if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok {
			if elapsed := time.Since(start); elapsed > threshold {
				span.SetAttributes(
					attribute.Bool("db.slow_query", true),
					attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
				)
			}
		}
	}
}
