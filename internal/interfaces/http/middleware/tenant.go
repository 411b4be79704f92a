package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/infrastructure/logger"
	"github.com/salesflow/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Tenant context keys
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
)

// TenantValidator checks that a tenant exists and may operate.
// It returns NOT_FOUND for an unknown tenant and TENANT_INACTIVE for a blocked one.
type TenantValidator interface {
	ValidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

// TenantValidatorFunc adapts a function to TenantValidator
type TenantValidatorFunc func(ctx context.Context, tenantID uuid.UUID) error

// ValidateTenant calls f
func (f TenantValidatorFunc) ValidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	return f(ctx, tenantID)
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Validator checks the tenant exists and is active; nil skips the check
	Validator TenantValidator
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig(validator TenantValidator) TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/metrics"},
		Validator: validator,
	}
}

// TenantMiddleware resolves the request tenant from the JWT claims.
// It must run after the JWT middleware. An X-Tenant-ID header is accepted
// only when it names the same tenant as the token.
func TenantMiddleware(validator TenantValidator) gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig(validator))
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		log := cfg.Logger
		if log == nil {
			log = logger.FromContext(c.Request.Context())
		}

		tenantID := GetJWTTenantID(c)
		if tenantID == uuid.Nil {
			respondTenantError(c, shared.CodeTenantRequired, "Tenant identification required")
			return
		}

		if header := strings.TrimSpace(c.GetHeader(TenantHeaderKey)); header != "" {
			headerID, err := uuid.Parse(header)
			if err != nil {
				respondTenantError(c, shared.CodeValidationFailed, "Invalid tenant ID format")
				return
			}
			if headerID != tenantID {
				log.Warn("Tenant header does not match token",
					zap.String("tenant_id", tenantID.String()),
					zap.String("header_tenant_id", headerID.String()),
				)
				respondTenantError(c, dto.ErrCodeForbidden, "Tenant header does not match token")
				return
			}
		}

		if cfg.Validator != nil {
			if err := cfg.Validator.ValidateTenant(c.Request.Context(), tenantID); err != nil {
				log.Warn("Tenant validation failed",
					zap.String("tenant_id", tenantID.String()),
					zap.Error(err),
				)
				switch {
				case errors.Is(err, shared.ErrTenantInactive):
					respondTenantError(c, shared.CodeTenantInactive, "Tenant is not active")
				case errors.Is(err, shared.ErrNotFound):
					respondTenantError(c, dto.ErrCodeForbidden, "Unknown tenant")
				default:
					respondTenantError(c, dto.ErrCodeInternal, "An unexpected error occurred")
				}
				return
			}
		}

		c.Set(TenantIDKey, tenantID)

		ctx := c.Request.Context()
		ctx, _ = logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

func respondTenantError(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, getRequestIDFromContext(c)))
}

// GetTenantID retrieves the resolved tenant from gin.Context
func GetTenantID(c *gin.Context) uuid.UUID {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(uuid.UUID); ok {
			return tid
		}
	}
	return uuid.Nil
}

// TenantRequired aborts with TENANT_REQUIRED when no tenant was resolved
func TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetTenantID(c) == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				dto.NewErrorResponseWithRequestID(shared.CodeTenantRequired, "Tenant identification required", getRequestIDFromContext(c)))
			return
		}
		c.Next()
	}
}
