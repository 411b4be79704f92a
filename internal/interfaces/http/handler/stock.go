package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinventory "github.com/salesflow/backend/internal/application/inventory"
	"github.com/salesflow/backend/internal/domain/inventory"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/interfaces/http/dto"
	"github.com/salesflow/backend/internal/interfaces/http/middleware"
)

// StockLedgerService is the product and stock ledger use-case surface
type StockLedgerService interface {
	CreateProduct(ctx context.Context, tenantID, actorID uuid.UUID, req appinventory.CreateProductRequest) (*appinventory.ProductResponse, error)
	GetProduct(ctx context.Context, tenantID, productID uuid.UUID) (*appinventory.ProductResponse, error)
	AdjustStock(ctx context.Context, tenantID, productID uuid.UUID, delta int64, reason string, actorID uuid.UUID) (*appinventory.AdjustStockResponse, error)
	History(ctx context.Context, tenantID, productID uuid.UUID, filter appinventory.HistoryFilter) (*shared.Paginated[appinventory.StockAdjustmentResponse], error)
	VerifyIntegrity(ctx context.Context, tenantID, productID uuid.UUID) (*inventory.IntegrityReport, error)
	VerifyTenant(ctx context.Context, tenantID uuid.UUID) (*appinventory.TenantIntegrityResponse, error)
	Reconcile(ctx context.Context, tenantID, productID, actorID uuid.UUID) (*appinventory.ReconcileResponse, error)
}

// StockHandler handles product and stock ledger endpoints
type StockHandler struct {
	BaseHandler
	service StockLedgerService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service StockLedgerService) *StockHandler {
	return &StockHandler{service: service}
}

// CreateProduct godoc
// @ID           createProduct
// @Summary      Create a product
// @Description  Creates a product with its opening stock. The opening stock is not a ledger entry.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        request body appinventory.CreateProductRequest true "Product"
// @Success      201 {object} APIResponse[appinventory.ProductResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products [post]
func (h *StockHandler) CreateProduct(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req appinventory.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}

	product, err := h.service.CreateProduct(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// GetProduct godoc
// @ID           getProduct
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} APIResponse[appinventory.ProductResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id} [get]
func (h *StockHandler) GetProduct(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	product, err := h.service.GetProduct(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// AdjustStock godoc
// @ID           adjustStock
// @Summary      Adjust product stock
// @Description  Records a signed ledger entry and moves the stock projection with it.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        request body appinventory.AdjustStockRequest true "Adjustment"
// @Success      201 {object} APIResponse[appinventory.AdjustStockResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/stock-adjustments [post]
func (h *StockHandler) AdjustStock(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinventory.AdjustStockRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.AdjustStock(c.Request.Context(), tenantID, productID, req.Delta, req.Reason, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// History godoc
// @ID           listStockAdjustments
// @Summary      List the stock ledger of a product
// @Description  Entries in chronological order.
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Success      200 {object} APIResponse[[]appinventory.StockAdjustmentResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/stock-adjustments [get]
func (h *StockHandler) History(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var filter appinventory.HistoryFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.History(c.Request.Context(), tenantID, productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// VerifyIntegrity godoc
// @ID           verifyProductIntegrity
// @Summary      Verify a product's stock against its ledger
// @Description  A mismatch answers 500 INTEGRITY_VIOLATION with the report as data. Nothing is corrected.
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} APIResponse[inventory.IntegrityReport]
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/integrity [get]
func (h *StockHandler) VerifyIntegrity(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	report, err := h.service.VerifyIntegrity(c.Request.Context(), tenantID, productID)
	if err != nil {
		h.integrityError(c, report, report != nil, err)
		return
	}
	h.Success(c, report)
}

// VerifyTenant godoc
// @ID           verifyTenantIntegrity
// @Summary      Verify every product of the tenant
// @Tags         stock
// @Produce      json
// @Success      200 {object} APIResponse[appinventory.TenantIntegrityResponse]
// @Failure      500 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /inventory/integrity [get]
func (h *StockHandler) VerifyTenant(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	result, err := h.service.VerifyTenant(c.Request.Context(), tenantID)
	if err != nil {
		h.integrityError(c, result, result != nil, err)
		return
	}
	h.Success(c, result)
}

// Reconcile godoc
// @ID           reconcileProductStock
// @Summary      Rewrite the stock projection from the ledger
// @Tags         stock
// @Produce      json
// @Param        id path string true "Product ID"
// @Success      200 {object} APIResponse[appinventory.ReconcileResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /products/{id}/reconcile [post]
func (h *StockHandler) Reconcile(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	productID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), tenantID, productID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// integrityError answers an integrity violation with the error envelope and
// the report that proves it; any other error goes through HandleError.
func (h *StockHandler) integrityError(c *gin.Context, report any, hasReport bool, err error) {
	var domainErr *shared.DomainError
	if !hasReport || !errors.As(err, &domainErr) || domainErr.Code != shared.CodeIntegrityViolation {
		h.HandleError(c, err)
		return
	}
	_ = c.Error(err)
	c.Set(middleware.ErrorCodeKey, domainErr.Code)
	resp := dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, getRequestID(c))
	resp.Data = report
	c.JSON(dto.GetHTTPStatus(domainErr.Code), resp)
}
