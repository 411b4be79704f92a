package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/salesflow/backend/internal/domain/integration"
	"github.com/salesflow/backend/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest represents a request to record a sale
type CreateOrderRequest struct {
	ProductID       uuid.UUID  `json:"product_id" binding:"required"`
	LeadID          *uuid.UUID `json:"lead_id"`
	Quantity        int64      `json:"quantity" binding:"required,min=1"`
	CustomerName    string     `json:"customer_name" binding:"required,max=200"`
	CustomerPhone   string     `json:"customer_phone" binding:"required,max=50"`
	CustomerAddress string     `json:"customer_address" binding:"max=500"`
	CustomerCity    string     `json:"customer_city" binding:"max=100"`
}

// TransitionRequest represents a status change request
type TransitionRequest struct {
	Status string `json:"status" binding:"required,order_status"`
}

// BulkTransitionRequest moves several orders to one status, all or nothing
type BulkTransitionRequest struct {
	OrderIDs []uuid.UUID `json:"order_ids" binding:"required,min=1"`
	Status   string      `json:"status" binding:"required,order_status"`
}

// ShipmentMode controls how a shipment creation relates to the SHIPPED transition
type ShipmentMode string

const (
	// ShipmentRequired makes the transition conditional on the carrier accepting the shipment
	ShipmentRequired ShipmentMode = "required"
	// ShipmentBestEffort commits the transition first and dispatches afterwards
	ShipmentBestEffort ShipmentMode = "best_effort"
)

// ShipOrderRequest represents a request to ship an order
type ShipOrderRequest struct {
	Provider string       `json:"provider" binding:"max=50"`
	Mode     ShipmentMode `json:"mode" binding:"omitempty,oneof=required best_effort"`
}

// TrackingWebhookRequest is the carrier-neutral tracking callback body
type TrackingWebhookRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=100"`
	EventID        string `json:"event_id" binding:"max=200"`
}

// RatesRequest asks a carrier for delivery options
type RatesRequest struct {
	Provider    string              `json:"provider" binding:"required"`
	Origin      integration.Address `json:"origin"`
	Destination integration.Address `json:"destination"`
	Package     integration.Package `json:"package"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	Status    string     `form:"status" binding:"omitempty,order_status"`
	ProductID string     `form:"product_id" binding:"omitempty,uuid"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by" binding:"omitempty,oneof=created_at updated_at status"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID       `json:"id"`
	TenantID         uuid.UUID       `json:"tenant_id"`
	LeadID           *uuid.UUID      `json:"lead_id,omitempty"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         int64           `json:"quantity"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone"`
	CustomerAddress  string          `json:"customer_address"`
	CustomerCity     string          `json:"customer_city"`
	Status           string          `json:"status"`
	Total            decimal.Decimal `json:"total"`
	ShippingProvider string          `json:"shipping_provider,omitempty"`
	TrackingNumber   string          `json:"tracking_number,omitempty"`
	ShippedAt        *time.Time      `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time      `json:"delivered_at,omitempty"`
	InvoicePrinted   bool            `json:"invoice_printed"`
	Version          int             `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// BulkTransitionResponse lists every order moved by a bulk request
type BulkTransitionResponse struct {
	Status string          `json:"status"`
	Orders []OrderResponse `json:"orders"`
}

// ShipOrderResponse reports a ship request.
// ShipmentError is only set in best-effort mode, where the SHIPPED transition
// has committed and the carrier dispatch failed afterwards.
type ShipOrderResponse struct {
	Order         OrderResponse         `json:"order"`
	Shipment      *integration.Shipment `json:"shipment,omitempty"`
	ShipmentError string                `json:"shipment_error,omitempty"`
}

// TrackingOutcome describes what a tracking update did
type TrackingOutcome string

const (
	TrackingOutcomeApplied        TrackingOutcome = "applied"
	TrackingOutcomeAlreadyApplied TrackingOutcome = "already_applied"
	TrackingOutcomeIgnored        TrackingOutcome = "ignored"
	TrackingOutcomeDuplicate      TrackingOutcome = "duplicate"
)

// TrackingIngestResponse reports the outcome of a tracking update
type TrackingIngestResponse struct {
	OrderID        *uuid.UUID                 `json:"order_id,omitempty"`
	TrackingStatus integration.TrackingStatus `json:"tracking_status,omitempty"`
	Outcome        TrackingOutcome            `json:"outcome"`
	Order          *OrderResponse             `json:"order,omitempty"`
}

// ToOrderResponse converts a domain order to a response
func ToOrderResponse(o *trade.Order) OrderResponse {
	return OrderResponse{
		ID:               o.ID,
		TenantID:         o.TenantID,
		LeadID:           o.LeadID,
		ProductID:        o.ProductID,
		Quantity:         o.Quantity,
		CustomerName:     o.Customer.Name,
		CustomerPhone:    o.Customer.Phone,
		CustomerAddress:  o.Customer.Address,
		CustomerCity:     o.Customer.City,
		Status:           o.Status.String(),
		Total:            o.Total,
		ShippingProvider: o.ShippingProvider,
		TrackingNumber:   o.TrackingNumber,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		InvoicePrinted:   o.InvoicePrinted,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}
