package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptrade "github.com/salesflow/backend/internal/application/trade"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/salesflow/backend/internal/interfaces/http/dto"
)

// OrderLifecycleService is the order use-case surface
type OrderLifecycleService interface {
	CreateOrder(ctx context.Context, tenantID, actorID uuid.UUID, req apptrade.CreateOrderRequest) (*apptrade.OrderResponse, error)
	GetOrder(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.OrderResponse, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter apptrade.OrderListFilter) (*shared.Paginated[apptrade.OrderResponse], error)
	Transition(ctx context.Context, tenantID, orderID uuid.UUID, status trade.OrderStatus, actorID uuid.UUID) (*apptrade.OrderResponse, error)
	ReturnOrder(ctx context.Context, tenantID, orderID, actorID uuid.UUID) (*apptrade.OrderResponse, error)
	BulkTransition(ctx context.Context, tenantID uuid.UUID, req apptrade.BulkTransitionRequest, actorID uuid.UUID) (*apptrade.BulkTransitionResponse, error)
	ShipOrder(ctx context.Context, tenantID, orderID uuid.UUID, req apptrade.ShipOrderRequest, actorID uuid.UUID) (*apptrade.ShipOrderResponse, error)
	MarkInvoicePrinted(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.OrderResponse, error)
	RefreshTracking(ctx context.Context, tenantID, orderID uuid.UUID) (*apptrade.TrackingIngestResponse, error)
	IngestTracking(ctx context.Context, tenantID uuid.UUID, providerCode string, req apptrade.TrackingWebhookRequest) (*apptrade.TrackingIngestResponse, error)
	GetRates(ctx context.Context, req apptrade.RatesRequest) ([]integration.Rate, error)
}

// OrderHandler handles order lifecycle endpoints
type OrderHandler struct {
	BaseHandler
	service         OrderLifecycleService
	defaultShipMode apptrade.ShipmentMode
}

// NewOrderHandler creates a new OrderHandler. defaultShipMode applies when a
// ship request names no mode; an empty value means required.
func NewOrderHandler(service OrderLifecycleService, defaultShipMode string) *OrderHandler {
	mode := apptrade.ShipmentMode(defaultShipMode)
	if mode != apptrade.ShipmentBestEffort {
		mode = apptrade.ShipmentRequired
	}
	return &OrderHandler{service: service, defaultShipMode: mode}
}

// Create godoc
// @ID           createOrder
// @Summary      Record a sale
// @Description  Creates a PENDING order. The total is fixed at creation; stock does not move.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body apptrade.CreateOrderRequest true "Order"
// @Success      201 {object} APIResponse[apptrade.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [post]
func (h *OrderHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req apptrade.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// List godoc
// @ID           listOrders
// @Summary      List orders
// @Tags         orders
// @Produce      json
// @Param        status query string false "Order status"
// @Param        product_id query string false "Product ID"
// @Param        page query int false "Page number"
// @Param        page_size query int false "Page size"
// @Param        order_by query string false "created_at, updated_at or status"
// @Param        order_dir query string false "asc or desc"
// @Success      200 {object} APIResponse[[]apptrade.OrderResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	var filter apptrade.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.service.ListOrders(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Get godoc
// @ID           getOrder
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[apptrade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.GetOrder(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Transition godoc
// @ID           transitionOrder
// @Summary      Change an order's status
// @Description  Rejected transitions answer 422 INVALID_TRANSITION and change nothing.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body apptrade.TransitionRequest true "Target status"
// @Success      200 {object} APIResponse[apptrade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/status [patch]
func (h *OrderHandler) Transition(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptrade.TransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	status, err := trade.ParseOrderStatus(req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	order, err := h.service.Transition(c.Request.Context(), tenantID, orderID, status, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Return godoc
// @ID           returnOrder
// @Summary      Return a delivered order
// @Description  Moves DELIVERED to RETURNED and credits the order quantity back to stock in the same transaction.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[apptrade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/return [post]
func (h *OrderHandler) Return(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.ReturnOrder(c.Request.Context(), tenantID, orderID, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// BulkTransition godoc
// @ID           bulkTransitionOrders
// @Summary      Change the status of several orders
// @Description  All or nothing: the first rejected order rolls back the whole batch.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        request body apptrade.BulkTransitionRequest true "Orders and target status"
// @Success      200 {object} APIResponse[apptrade.BulkTransitionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/bulk-status [post]
func (h *OrderHandler) BulkTransition(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	var req apptrade.BulkTransitionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.BulkTransition(c.Request.Context(), tenantID, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Ship godoc
// @ID           shipOrder
// @Summary      Ship a confirmed order
// @Description  In required mode the carrier must accept the shipment before the order becomes SHIPPED.
// @Description  In best_effort mode the order becomes SHIPPED first and a dispatch failure is reported in shipment_error.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id path string true "Order ID"
// @Param        request body apptrade.ShipOrderRequest false "Carrier and mode"
// @Success      200 {object} APIResponse[apptrade.ShipOrderResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/ship [post]
func (h *OrderHandler) Ship(c *gin.Context) {
	tenantID, userID, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req apptrade.ShipOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}
	if req.Mode == "" {
		req.Mode = h.defaultShipMode
	}

	result, err := h.service.ShipOrder(c.Request.Context(), tenantID, orderID, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// MarkInvoicePrinted godoc
// @ID           markOrderInvoicePrinted
// @Summary      Flag the order's invoice as printed
// @Description  Idempotent; independent of the order status.
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[apptrade.OrderResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/invoice-printed [post]
func (h *OrderHandler) MarkInvoicePrinted(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.service.MarkInvoicePrinted(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// RefreshTracking godoc
// @ID           refreshOrderTracking
// @Summary      Poll the carrier for the order's tracking status
// @Tags         orders
// @Produce      json
// @Param        id path string true "Order ID"
// @Success      200 {object} APIResponse[apptrade.TrackingIngestResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/tracking/refresh [post]
func (h *OrderHandler) RefreshTracking(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	orderID, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	result, err := h.service.RefreshTracking(c.Request.Context(), tenantID, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
