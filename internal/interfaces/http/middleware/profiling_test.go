package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfiling_LabelsRequest(t *testing.T) {
	tenantID := uuid.New()
	labels := map[string]string{}

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(TenantIDKey, tenantID)
		c.Next()
	})
	router.Use(Profiling(true))
	router.GET("/orders/:id", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(key, value string) bool {
			labels[key] = value
			return true
		})
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]string{
		"method":    http.MethodGet,
		"route":     "/orders/:id",
		"tenant_id": tenantID.String(),
	}, labels)
}

func TestProfiling_Disabled(t *testing.T) {
	var labelled bool

	router := gin.New()
	router.Use(Profiling(false))
	router.GET("/test", func(c *gin.Context) {
		pprof.ForLabels(c.Request.Context(), func(string, string) bool {
			labelled = true
			return false
		})
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, labelled)
}
