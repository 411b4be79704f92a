package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/salesflow/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("salesflow", "1.0.0")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
	assert.Empty(t, h.checks)
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("no checks", func(t *testing.T) {
		h := NewSystemHandler("salesflow", "1.0.0")
		r := gin.New()
		r.GET("/health", h.Health)

		w := testutil.PerformRequest(t, r, http.MethodGet, "/health", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		got := testutil.DataAs[HealthResponse](t, w)
		assert.Equal(t, "ok", got.Status)
		assert.Equal(t, "salesflow", got.Name)
		assert.NotEmpty(t, got.GoVersion)
		assert.Nil(t, got.Checks)
	})

	t.Run("all checks pass", func(t *testing.T) {
		h := NewSystemHandler("salesflow", "1.0.0")
		h.AddCheck("database", func(context.Context) error { return nil })
		h.AddCheck("cache", func(context.Context) error { return nil })
		r := gin.New()
		r.GET("/health", h.Health)

		w := testutil.PerformRequest(t, r, http.MethodGet, "/health", nil, nil)

		require.Equal(t, http.StatusOK, w.Code)
		got := testutil.DataAs[HealthResponse](t, w)
		assert.Equal(t, map[string]string{"database": "ok", "cache": "ok"}, got.Checks)
	})

	t.Run("failing check degrades", func(t *testing.T) {
		h := NewSystemHandler("salesflow", "1.0.0")
		h.AddCheck("database", func(context.Context) error { return nil })
		h.AddCheck("cache", func(context.Context) error { return errors.New("dial tcp: connection refused") })
		r := gin.New()
		r.GET("/health", h.Health)

		w := testutil.PerformRequest(t, r, http.MethodGet, "/health", nil, nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, false, testutil.JSONResponse(t, w)["success"])
		got := testutil.DataAs[HealthResponse](t, w)
		assert.Equal(t, "degraded", got.Status)
		assert.Equal(t, "ok", got.Checks["database"])
		assert.Contains(t, got.Checks["cache"], "connection refused")
	})

	t.Run("checks see a deadline", func(t *testing.T) {
		h := NewSystemHandler("salesflow", "1.0.0")
		var hasDeadline bool
		h.AddCheck("database", func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		})
		r := gin.New()
		r.GET("/health", h.Health)

		testutil.PerformRequest(t, r, http.MethodGet, "/health", nil, nil)

		assert.True(t, hasDeadline)
	})
}
