package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/salesflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tenantCase struct {
	name       string
	header     string
	validator  TenantValidator
	wantStatus int
	wantCode   string
}

func TestTenantMiddleware(t *testing.T) {
	jwtService := newTestJWTService(time.Minute)
	tenantID, userID := uuid.New(), uuid.New()
	token, _, err := jwtService.IssueToken(tenantID, userID, "")
	require.NoError(t, err)

	active := TenantValidatorFunc(func(context.Context, uuid.UUID) error { return nil })

	tests := []tenantCase{
		{name: "claims only", validator: active, wantStatus: http.StatusOK},
		{name: "matching header", header: tenantID.String(), validator: active, wantStatus: http.StatusOK},
		{name: "mismatched header", header: uuid.NewString(), validator: active,
			wantStatus: http.StatusForbidden, wantCode: dto.ErrCodeForbidden},
		{name: "malformed header", header: "acme", validator: active,
			wantStatus: http.StatusBadRequest, wantCode: shared.CodeValidationFailed},
		{name: "inactive tenant",
			validator:  TenantValidatorFunc(func(context.Context, uuid.UUID) error { return shared.ErrTenantInactive }),
			wantStatus: http.StatusForbidden, wantCode: shared.CodeTenantInactive},
		{name: "unknown tenant",
			validator:  TenantValidatorFunc(func(context.Context, uuid.UUID) error { return shared.ErrNotFound }),
			wantStatus: http.StatusForbidden, wantCode: dto.ErrCodeForbidden},
		{name: "lookup failure",
			validator:  TenantValidatorFunc(func(context.Context, uuid.UUID) error { return errors.New("db down") }),
			wantStatus: http.StatusInternalServerError, wantCode: dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuthMiddleware(jwtService), TenantMiddleware(tt.validator))
			router.GET("/test", func(c *gin.Context) {
				assert.Equal(t, tenantID, GetTenantID(c))
				assert.Equal(t, tenantID, logger.GetTenantID(c.Request.Context()))
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeEnvelope(t, rec).Error.Code)
			}
		})
	}
}

func TestTenantMiddleware_WithoutJWT(t *testing.T) {
	router := gin.New()
	router.Use(TenantMiddleware(nil))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(TenantHeaderKey, uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, shared.CodeTenantRequired, decodeEnvelope(t, rec).Error.Code)
}
