package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptrade "github.com/salesflow/backend/internal/application/trade"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/shared"
	"github.com/salesflow/backend/internal/interfaces/http/dto"
)

// SignatureHeader carries the hex HMAC-SHA256 of a webhook body, optionally prefixed "sha256="
const SignatureHeader = "X-Signature"

// ManualCarrier is the operator-driven carrier whose shipments are moved by hand
type ManualCarrier interface {
	SetStatus(tenantID uuid.UUID, trackingNumber string, status integration.TrackingStatus) error
}

// ShippingHandler handles carrier-facing endpoints
type ShippingHandler struct {
	BaseHandler
	service       OrderLifecycleService
	webhookSecret []byte
	manual        ManualCarrier
}

// NewShippingHandler creates a new ShippingHandler. An empty webhookSecret
// disables signature checks; manual may be nil when the dev routes are off.
func NewShippingHandler(service OrderLifecycleService, webhookSecret string, manual ManualCarrier) *ShippingHandler {
	h := &ShippingHandler{service: service, manual: manual}
	if webhookSecret != "" {
		h.webhookSecret = []byte(webhookSecret)
	}
	return h
}

// GetRates godoc
// @ID           getShippingRates
// @Summary      Quote delivery options
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        request body apptrade.RatesRequest true "Rate query"
// @Success      200 {object} APIResponse[[]integration.Rate]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /shipping/rates [post]
func (h *ShippingHandler) GetRates(c *gin.Context) {
	if _, _, ok := h.identity(c); !ok {
		return
	}
	var req apptrade.RatesRequest
	if !h.bindJSON(c, &req) {
		return
	}

	rates, err := h.service.GetRates(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// TrackingWebhook godoc
// @ID           ingestTrackingUpdate
// @Summary      Receive a carrier tracking update
// @Description  Applies DELIVERED when the carrier reports delivery. Redeliveries with the same event_id are acknowledged without effect.
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        provider path string true "Provider code"
// @Param        request body apptrade.TrackingWebhookRequest true "Tracking update"
// @Success      200 {object} APIResponse[apptrade.TrackingIngestResponse]
// @Failure      401 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /webhooks/tracking/{provider} [post]
func (h *ShippingHandler) TrackingWebhook(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.validationFailed(c, err)
		return
	}
	if !h.verifySignature(body, c.GetHeader(SignatureHeader)) {
		h.ErrorWithCode(c, dto.ErrCodeInvalidSignature, "Webhook signature does not match")
		return
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var req apptrade.TrackingWebhookRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.service.IngestTracking(c.Request.Context(), tenantID, c.Param("provider"), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

func (h *ShippingHandler) verifySignature(body []byte, header string) bool {
	if h.webhookSecret == nil {
		return true
	}
	got, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), "sha256="))
	if err != nil || len(got) == 0 {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// ManualStatusRequest moves a manual-carrier shipment
type ManualStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_transit delivered returned exception"`
}

// SetManualStatus godoc
// @ID           setManualShipmentStatus
// @Summary      Move a manual-carrier shipment (non-production only)
// @Tags         shipping
// @Accept       json
// @Produce      json
// @Param        tracking path string true "Tracking number"
// @Param        request body ManualStatusRequest true "New status"
// @Success      200 {object} SuccessResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /dev/shipping/manual/{tracking}/status [post]
func (h *ShippingHandler) SetManualStatus(c *gin.Context) {
	tenantID, _, ok := h.identity(c)
	if !ok {
		return
	}
	if h.manual == nil {
		h.ErrorWithCode(c, shared.CodeNotFound, "Manual carrier is not available")
		return
	}
	var req ManualStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.manual.SetStatus(tenantID, c.Param("tracking"), integration.TrackingStatus(req.Status))
	if errors.Is(err, integration.ErrShipmentNotFound) {
		h.ErrorWithCode(c, shared.CodeNotFound, "Shipment not found")
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
