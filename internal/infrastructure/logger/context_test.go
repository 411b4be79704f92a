package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func bufferLogger() (*zap.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, zapcore.AddSync(&buf), zapcore.DebugLevel)
	return zap.New(core), &buf
}

func TestFromContext(t *testing.T) {
	t.Run("returns attached logger", func(t *testing.T) {
		base, _ := bufferLogger()
		ctx := WithContext(context.Background(), base)
		assert.Same(t, base, FromContext(ctx))
	})

	t.Run("returns no-op logger when absent", func(t *testing.T) {
		assert.NotNil(t, FromContext(context.Background()))
	})

	t.Run("ignores values of the wrong type", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), LoggerKey, "not a logger")
		assert.NotNil(t, FromContext(ctx))
	})
}

func TestContextChaining(t *testing.T) {
	base, buf := bufferLogger()
	tenantID := uuid.New()
	userID := uuid.New()

	ctx := context.Background()
	ctx, l := WithRequestID(ctx, base, "req-1")
	ctx, l = WithTenantID(ctx, l, tenantID)
	ctx, l = WithUserID(ctx, l, userID)

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, tenantID, GetTenantID(ctx))
	assert.Equal(t, userID, GetUserID(ctx))
	assert.Same(t, l, FromContext(ctx))

	l.Info("chained")
	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-1"`)
	assert.Contains(t, out, `"tenant_id":"`+tenantID.String()+`"`)
	assert.Contains(t, out, `"user_id":"`+userID.String()+`"`)
}

func TestGetters_Absent(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Equal(t, uuid.Nil, GetTenantID(ctx))
	assert.Equal(t, uuid.Nil, GetUserID(ctx))
	assert.Empty(t, GetTraceID(ctx))
}

func TestWithTraceContext(t *testing.T) {
	t.Run("no span returns the same logger", func(t *testing.T) {
		base := zap.NewNop()
		assert.Same(t, base, WithTraceContext(context.Background(), base))
	})

	t.Run("valid span adds trace and span ids", func(t *testing.T) {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()
		ctx, span := tp.Tracer("test").Start(context.Background(), "op")
		defer span.End()

		base, buf := bufferLogger()
		WithTraceContext(ctx, base).Info("traced")

		assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))
		assert.Contains(t, buf.String(), `"trace_id":"`+span.SpanContext().TraceID().String()+`"`)
		assert.Contains(t, buf.String(), `"span_id":"`+span.SpanContext().SpanID().String()+`"`)
	})
}

func TestContextLogger(t *testing.T) {
	t.Run("enriches entries with context fields", func(t *testing.T) {
		base, buf := bufferLogger()
		tenantID := uuid.New()

		ctx := context.WithValue(context.Background(), RequestIDKey, "req-aaa")
		ctx = context.WithValue(ctx, TenantIDKey, tenantID)

		WithLogger(ctx, base).Info("test", zap.String("order_id", "o-1"))

		out := buf.String()
		assert.Contains(t, out, `"request_id":"req-aaa"`)
		assert.Contains(t, out, `"tenant_id":"`+tenantID.String()+`"`)
		assert.Contains(t, out, `"order_id":"o-1"`)
		assert.NotContains(t, out, `"user_id"`)
	})

	t.Run("L uses the context logger", func(t *testing.T) {
		base, buf := bufferLogger()
		ctx := WithContext(context.Background(), base)

		L(ctx).With(zap.String("component", "ledger")).Warn("drift")

		out := buf.String()
		assert.Contains(t, out, `"component":"ledger"`)
		assert.Contains(t, out, `"level":"warn"`)
	})

	t.Run("all levels write", func(t *testing.T) {
		base, buf := bufferLogger()
		cl := WithLogger(context.Background(), base)
		cl.Debug("d")
		cl.Info("i")
		cl.Warn("w")
		cl.Error("e")
		for _, lvl := range []string{"debug", "info", "warn", "error"} {
			assert.Contains(t, buf.String(), `"level":"`+lvl+`"`)
		}
	})

	t.Run("nil logger does not panic", func(t *testing.T) {
		cl := &ContextLogger{ctx: context.Background()}
		assert.NotPanics(t, func() { cl.Info("test") })
		require.NotNil(t, cl.Zap())
	})
}
