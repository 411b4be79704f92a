package logger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func query(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogMode(t *testing.T) {
	gl := NewGormLogger(zap.NewNop(), gormlogger.Info, WithSlowThreshold(time.Second))
	changed, ok := gl.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
	assert.Equal(t, time.Second, changed.slowThreshold)
}

func TestGormLogger_Messages(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn)

	gl.Info(context.Background(), "suppressed %s", "info")
	gl.Warn(context.Background(), "warning %d", 42)
	gl.Error(context.Background(), "failure")

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "warning 42", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[1].Level)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		slow    time.Duration
		begin   time.Time
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{
			name:    "generic error",
			level:   gormlogger.Error,
			err:     errors.New("connection reset"),
			wantMsg: "SQL Error",
			wantLvl: zapcore.ErrorLevel,
		},
		{
			name:    "lock timeout is a conflict",
			level:   gormlogger.Warn,
			err:     fmt.Errorf("select: %w", &pgconn.PgError{Code: "55P03"}),
			wantMsg: "SQL conflict",
			wantLvl: zapcore.WarnLevel,
		},
		{
			name:    "duplicate key is a conflict",
			level:   gormlogger.Warn,
			err:     gorm.ErrDuplicatedKey,
			wantMsg: "SQL conflict",
			wantLvl: zapcore.WarnLevel,
		},
		{
			name:    "slow query",
			level:   gormlogger.Warn,
			slow:    time.Nanosecond,
			begin:   time.Now().Add(-time.Second),
			wantMsg: "SLOW SQL >= 1ns",
			wantLvl: zapcore.WarnLevel,
		},
		{
			name:    "normal query at info",
			level:   gormlogger.Info,
			wantMsg: "SQL Query",
			wantLvl: zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			opts := []GormLoggerOption{}
			if tt.slow > 0 {
				opts = append(opts, WithSlowThreshold(tt.slow))
			}
			gl := NewGormLogger(zap.New(core), tt.level, opts...)
			begin := tt.begin
			if begin.IsZero() {
				begin = time.Now()
			}

			gl.Trace(context.Background(), begin, query("SELECT * FROM orders", 1), tt.err)

			logs := recorded.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.wantMsg, logs[0].Message)
			assert.Equal(t, tt.wantLvl, logs[0].Level)
		})
	}
}

func TestGormLogger_Trace_Suppressed(t *testing.T) {
	t.Run("record not found", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Info)
		gl.Trace(context.Background(), time.Now(), query("SELECT 1", 0), gorm.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("silent level", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		gl := NewGormLogger(zap.New(core), gormlogger.Silent)
		gl.Trace(context.Background(), time.Now(), query("SELECT 1", 0), errors.New("boom"))
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_Trace_ContextFields(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Info)
	tenantID := uuid.New()

	ctx := context.WithValue(context.Background(), RequestIDKey, "test-req-id")
	ctx = context.WithValue(ctx, TenantIDKey, tenantID)
	gl.Trace(ctx, time.Now(), query("SELECT * FROM products", 5), nil)

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "test-req-id", fields["request_id"])
	assert.Equal(t, tenantID.String(), fields["tenant_id"])
	assert.Equal(t, int64(5), fields["rows"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
